package tagval

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

// MarshalJSON implements json.Marshaler. Tags are projected away following
// the CBOR to JSON conversion rules: byte strings become base64url text
// (base64 under tag 22, base16 under tag 23), non-finite floats become
// null, integer map keys become decimal strings and member order is kept.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. JSON input never produces
// tagged values; numbers decode as integers when they fit, floats
// otherwise.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec, err := DecodeJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*v = dec
	return nil
}

// EncodeJSON writes the value to w as a single JSON document.
func EncodeJSON(w io.Writer, v Value) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// DecodeJSON reads a single JSON document from r, preserving member order.
func DecodeJSON(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := readJSONValue(dec)
	if err != nil {
		if err == io.EOF {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}
	if dec.More() {
		return Value{}, fmt.Errorf("unexpected data after top-level JSON value")
	}
	return v, nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			buf.WriteString("null")
			return nil
		}
		buf.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		return writeJSONString(buf, v.s)
	case KindBytes:
		buf.WriteByte('"')
		buf.WriteString(bytesToText(v.by, v.Tag()))
		buf.WriteByte('"')
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		seen := make(map[string]struct{}, len(v.mem))
		for i, m := range v.mem {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := jsonKey(m.Key)
			if err != nil {
				return err
			}
			if _, ok := seen[key]; ok {
				return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
			}
			seen[key] = struct{}{}
			if err := writeJSONString(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: kind %s", ErrInvalidValue, v.kind)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	escaped, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(escaped)
	return nil
}

func jsonKey(key Value) (string, error) {
	if key.IsTagged() {
		return "", fmt.Errorf("%w: tagged key", ErrBadMapKey)
	}
	switch key.kind {
	case KindString:
		return key.s, nil
	case KindInt:
		return strconv.FormatInt(key.i, 10), nil
	default:
		return "", fmt.Errorf("%w: got %s", ErrBadMapKey, key.kind)
	}
}

// bytesToText renders a byte string in the base encoding its tag asks for,
// defaulting to unpadded base64url.
func bytesToText(b []byte, tag uint64) string {
	switch tag {
	case TagExpectedBase64:
		return base64.StdEncoding.EncodeToString(b)
	case TagExpectedBase16:
		return hex.EncodeToString(b)
	default:
		return base64.RawURLEncoding.EncodeToString(b)
	}
}

func readJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return tokenValue(dec, tok)
}

func tokenValue(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var members []Member
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("unexpected object key token %v", keyTok)
				}
				val, err := readJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: String(key), Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Map(members...), nil
		case '[':
			var items []Value
			for dec.More() {
				item, err := readJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(items...), nil
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %v", t)
		}
	case string:
		return String(t), nil
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return Float(f), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
	}
}
