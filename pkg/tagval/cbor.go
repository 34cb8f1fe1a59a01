package tagval

import (
	"fmt"
	"io"
	"math/big"
	"time"

	cbor "github.com/fxamacker/cbor/v2"
)

// Deterministic CBOR profile (RFC 8949 core): canonical encoding so equal
// trees produce equal bytes.
var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// MarshalCBOR encodes the value as canonical CBOR.
func (v Value) MarshalCBOR() ([]byte, error) {
	wire, err := v.toWire()
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(wire)
}

// UnmarshalCBOR replaces the value with the decoded CBOR data item. Map
// members are normalized to a deterministic order on decode.
func (v *Value) UnmarshalCBOR(data []byte) error {
	var raw interface{}
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return err
	}
	dec, err := fromWire(raw)
	if err != nil {
		return err
	}
	*v = dec
	return nil
}

// EncodeCBOR writes the value to w as canonical CBOR.
func EncodeCBOR(w io.Writer, v Value) error {
	wire, err := v.toWire()
	if err != nil {
		return err
	}
	return encMode.NewEncoder(w).Encode(wire)
}

// DecodeCBOR reads a single CBOR data item from r. Trailing data after the
// item is an error.
func DecodeCBOR(r io.Reader) (Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Value{}, err
	}
	var v Value
	if err := v.UnmarshalCBOR(data); err != nil {
		return Value{}, err
	}
	return v, nil
}

func (v Value) toWire() (interface{}, error) {
	var content interface{}
	switch v.kind {
	case KindNull:
		content = nil
	case KindBool:
		content = v.b
	case KindInt:
		content = v.i
	case KindFloat:
		content = v.f
	case KindString:
		content = v.s
	case KindBytes:
		content = v.by
	case KindArray:
		arr := make([]interface{}, len(v.arr))
		for i, item := range v.arr {
			w, err := item.toWire()
			if err != nil {
				return nil, err
			}
			arr[i] = w
		}
		content = arr
	case KindMap:
		m := make(map[interface{}]interface{}, len(v.mem))
		for _, member := range v.mem {
			k, err := member.Key.mapKey()
			if err != nil {
				return nil, err
			}
			if _, ok := m[k]; ok {
				return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, k)
			}
			w, err := member.Value.toWire()
			if err != nil {
				return nil, err
			}
			m[k] = w
		}
		content = m
	default:
		return nil, fmt.Errorf("%w: kind %s", ErrInvalidValue, v.kind)
	}
	if v.Tag() != NoTag {
		return cbor.Tag{Number: v.tag, Content: content}, nil
	}
	return content, nil
}

func (v Value) mapKey() (interface{}, error) {
	if v.IsTagged() {
		return nil, fmt.Errorf("%w: tagged key", ErrBadMapKey)
	}
	switch v.kind {
	case KindString:
		return v.s, nil
	case KindInt:
		return v.i, nil
	default:
		return nil, fmt.Errorf("%w: got %s", ErrBadMapKey, v.kind)
	}
}

func fromWire(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case int64:
		return Int(x), nil
	case uint64:
		return Uint(x), nil
	case float64:
		return Float(x), nil
	case float32:
		return Float(float64(x)), nil
	case string:
		return String(x), nil
	case []byte:
		return Bytes(x), nil
	case big.Int:
		if !x.IsInt64() {
			return Value{}, fmt.Errorf("%w: integer %s out of range", ErrInvalidValue, x.String())
		}
		return Int(x.Int64()), nil
	case time.Time:
		return String(x.Format(time.RFC3339Nano)).WithTag(TagDateTimeString), nil
	case []interface{}:
		items := make([]Value, len(x))
		for i, item := range x {
			dec, err := fromWire(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = dec
		}
		return Array(items...), nil
	case map[interface{}]interface{}:
		members := make([]Member, 0, len(x))
		for k, item := range x {
			key, err := fromWire(k)
			if err != nil {
				return Value{}, err
			}
			if key.kind != KindString && key.kind != KindInt {
				return Value{}, fmt.Errorf("%w: got %s", ErrBadMapKey, key.kind)
			}
			dec, err := fromWire(item)
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Key: key, Value: dec})
		}
		sortMembers(members)
		return Map(members...), nil
	case cbor.Tag:
		inner, err := fromWire(x.Content)
		if err != nil {
			return Value{}, err
		}
		// A value holds a single tag; the outermost one wins.
		return inner.WithTag(x.Number), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported wire type %T", ErrInvalidValue, raw)
	}
}
