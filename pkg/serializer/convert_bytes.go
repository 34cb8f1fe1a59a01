package serializer

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/tagwire/tagwire/pkg/tagval"
)

var (
	byteSliceType = reflect.TypeOf([]byte(nil))
	byteType      = reflect.TypeOf(byte(0))
)

// bytesConverter handles byte slices, including named ones. The configured
// byte format picks the tag on the wire, which in turn picks the text form
// after JSON projection.
type bytesConverter struct{}

func newBytesConverter() *bytesConverter { return &bytesConverter{} }

var (
	_ Converter   = (*bytesConverter)(nil)
	_ TypeGuesser = (*bytesConverter)(nil)
)

func (c *bytesConverter) Name() string       { return "bytes" }
func (c *bytesConverter) Priority() Priority { return PriorityStandard }

func (c *bytesConverter) CanConvert(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

func (c *bytesConverter) Tags(reflect.Type) []uint64 {
	return []uint64{tagval.TagExpectedBase64URL, tagval.TagExpectedBase64, tagval.TagExpectedBase16}
}

func (c *bytesConverter) Kinds(reflect.Type, uint64) []tagval.Kind {
	return []tagval.Kind{tagval.KindBytes, tagval.KindString}
}

func (c *bytesConverter) Serialize(h Helper, v reflect.Value) (tagval.Value, error) {
	return tagval.Bytes(v.Bytes()).WithTag(h.Config().ByteFormat.tag()), nil
}

func (c *bytesConverter) Deserialize(h Helper, t reflect.Type, val tagval.Value) (reflect.Value, error) {
	var raw []byte
	switch val.Kind() {
	case tagval.KindBytes:
		raw = val.AsBytes()
	case tagval.KindString:
		format := h.Config().ByteFormat
		switch val.Tag() {
		case tagval.TagExpectedBase64URL:
			format = BytesBase64URL
		case tagval.TagExpectedBase64:
			format = BytesBase64
		case tagval.TagExpectedBase16:
			format = BytesBase16
		}
		var err error
		raw, err = textToBytes(val.AsString(), format, h.Config().ValidateBase64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
	}
	return bytesValue(t, raw), nil
}

func (c *bytesConverter) GuessType(tag uint64, kind tagval.Kind) (reflect.Type, bool) {
	switch tag {
	case tagval.TagExpectedBase64URL, tagval.TagExpectedBase64, tagval.TagExpectedBase16:
		return byteSliceType, true
	case tagval.NoTag:
		// claim only untagged byte strings, a foreign tag may mean more
		// to a converter further down the chain
		if kind == tagval.KindBytes {
			return byteSliceType, true
		}
	}
	return nil, false
}

func bytesValue(t reflect.Type, raw []byte) reflect.Value {
	out := reflect.New(t).Elem()
	if t.Elem() == byteType {
		out.SetBytes(raw)
		return out
	}
	// slices of a named byte type are filled element-wise
	out.Set(reflect.MakeSlice(t, len(raw), len(raw)))
	for i, b := range raw {
		out.Index(i).SetUint(uint64(b))
	}
	return out
}

func textToBytes(s string, format ByteFormat, strict bool) ([]byte, error) {
	switch format {
	case BytesBase16:
		raw, err := hex.DecodeString(s)
		if err == nil || strict {
			return raw, err
		}
		return lenientHex(s), nil
	case BytesBase64:
		raw, err := base64.StdEncoding.DecodeString(s)
		if err == nil || strict {
			return raw, err
		}
		return lenientBase64(base64.StdEncoding, s, base64Alphabet), nil
	default:
		raw, err := base64.RawURLEncoding.DecodeString(s)
		if err == nil || strict {
			return raw, err
		}
		return lenientBase64(base64.RawURLEncoding, s, base64URLAlphabet), nil
	}
}

const (
	base64Alphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/="
	base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
)

// lenientBase64 drops characters outside the alphabet and keeps whatever
// prefix still decodes.
func lenientBase64(enc *base64.Encoding, s, alphabet string) []byte {
	filtered := strings.Map(func(r rune) rune {
		if strings.ContainsRune(alphabet, r) {
			return r
		}
		return -1
	}, s)
	buf := make([]byte, enc.DecodedLen(len(filtered)))
	n, _ := enc.Decode(buf, []byte(filtered))
	return buf[:n]
}

func lenientHex(s string) []byte {
	filtered := strings.Map(func(r rune) rune {
		if strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return r
		}
		return -1
	}, s)
	if len(filtered)%2 != 0 {
		filtered = filtered[:len(filtered)-1]
	}
	raw, _ := hex.DecodeString(filtered)
	return raw
}
