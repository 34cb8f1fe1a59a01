package serializer

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"

	"github.com/tagwire/tagwire/pkg/tagval"
)

// mapConverter handles maps with string or integer keys. Members are
// emitted in sorted key order so equal maps serialize to equal bytes.
// Registered enum keys are written by name regardless of the enum-as-string
// option, since JSON keys are strings anyway.
type mapConverter struct {
	types *typeRegistry
}

func newMapConverter(types *typeRegistry) *mapConverter {
	return &mapConverter{types: types}
}

var _ Converter = (*mapConverter)(nil)

func (c *mapConverter) Name() string       { return "map" }
func (c *mapConverter) Priority() Priority { return PriorityStandard }

func (c *mapConverter) CanConvert(t reflect.Type) bool {
	if t.Kind() != reflect.Map {
		return false
	}
	switch t.Key().Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func (c *mapConverter) Tags(reflect.Type) []uint64 { return nil }

func (c *mapConverter) Kinds(reflect.Type, uint64) []tagval.Kind {
	return []tagval.Kind{tagval.KindMap}
}

func (c *mapConverter) Serialize(h Helper, v reflect.Value) (tagval.Value, error) {
	members := make([]tagval.Member, 0, v.Len())
	for iter := v.MapRange(); iter.Next(); {
		key, err := c.keyValue(iter.Key())
		if err != nil {
			return tagval.Value{}, err
		}
		elem, err := h.SerializeSubtype(iter.Value())
		if err != nil {
			return tagval.Value{}, fmt.Errorf("key %s: %w", keyLabel(key), err)
		}
		members = append(members, tagval.Member{Key: key, Value: elem})
	}
	slices.SortStableFunc(members, func(a, b tagval.Member) int {
		ak, bk := a.Key, b.Key
		if ak.Kind() != bk.Kind() {
			return cmp.Compare(ak.Kind(), bk.Kind())
		}
		if ak.Kind() == tagval.KindInt {
			return cmp.Compare(ak.AsInt(), bk.AsInt())
		}
		return cmp.Compare(ak.AsString(), bk.AsString())
	})
	return tagval.Map(members...), nil
}

func (c *mapConverter) Deserialize(h Helper, t reflect.Type, val tagval.Value) (reflect.Value, error) {
	out := reflect.MakeMapWithSize(t, val.Len())
	for _, m := range val.Members() {
		key, err := c.parseKey(t.Key(), m.Key)
		if err != nil {
			return reflect.Value{}, err
		}
		elem, err := h.DeserializeSubtype(t.Elem(), m.Value)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key %s: %w", keyLabel(m.Key), err)
		}
		out.SetMapIndex(key, elem)
	}
	return out, nil
}

func (c *mapConverter) keyValue(k reflect.Value) (tagval.Value, error) {
	if def, ok := c.types.enumFor(k.Type()); ok {
		raw, err := intOf(k)
		if err != nil {
			return tagval.Value{}, err
		}
		name, err := def.name(raw)
		if err != nil {
			return tagval.Value{}, err
		}
		return tagval.String(name), nil
	}
	switch k.Kind() {
	case reflect.String:
		return tagval.String(k.String()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := k.Uint()
		if u > math.MaxInt64 {
			return tagval.Value{}, fmt.Errorf("%w: map key %d out of range", ErrInvalidValue, u)
		}
		return tagval.Int(int64(u)), nil
	default:
		return tagval.Int(k.Int()), nil
	}
}

func (c *mapConverter) parseKey(kt reflect.Type, kv tagval.Value) (reflect.Value, error) {
	if kv.Kind() != tagval.KindString && kv.Kind() != tagval.KindInt {
		return reflect.Value{}, fmt.Errorf("%w: map key of kind %s", ErrInvalidValue, kv.Kind())
	}
	if def, ok := c.types.enumFor(kt); ok {
		var raw int64
		var err error
		if kv.Kind() == tagval.KindString {
			raw, err = def.value(kv.AsString())
		} else {
			raw = kv.AsInt()
		}
		if err != nil {
			return reflect.Value{}, err
		}
		return intValue(kt, raw)
	}
	switch kt.Kind() {
	case reflect.String:
		key := reflect.New(kt).Elem()
		if kv.Kind() == tagval.KindInt {
			// integer keys survive a JSON round trip as decimal strings
			key.SetString(strconv.FormatInt(kv.AsInt(), 10))
		} else {
			key.SetString(kv.AsString())
		}
		return key, nil
	default:
		raw := kv.AsInt()
		if kv.Kind() == tagval.KindString {
			var err error
			raw, err = strconv.ParseInt(kv.AsString(), 10, 64)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: map key %q is not an integer", ErrInvalidValue, kv.AsString())
			}
		}
		return intValue(kt, raw)
	}
}

func keyLabel(kv tagval.Value) string {
	switch kv.Kind() {
	case tagval.KindInt:
		return strconv.FormatInt(kv.AsInt(), 10)
	case tagval.KindString:
		return strconv.Quote(kv.AsString())
	default:
		return kv.Kind().String()
	}
}
