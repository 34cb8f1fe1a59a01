package serializer

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/tagwire/tagwire/pkg/tagval"
)

var uuidType = reflect.TypeOf(uuid.UUID{})

// uuidConverter writes UUIDs as tagged 16 byte strings in CBOR and in the
// canonical hyphenated form in JSON.
type uuidConverter struct{}

func newUUIDConverter() *uuidConverter { return &uuidConverter{} }

var (
	_ Converter   = (*uuidConverter)(nil)
	_ TypeGuesser = (*uuidConverter)(nil)
)

func (c *uuidConverter) Name() string       { return "uuid" }
func (c *uuidConverter) Priority() Priority { return PriorityStandard }

func (c *uuidConverter) CanConvert(t reflect.Type) bool {
	return t == uuidType
}

func (c *uuidConverter) Tags(reflect.Type) []uint64 {
	return []uint64{tagval.TagUUID}
}

func (c *uuidConverter) Kinds(reflect.Type, uint64) []tagval.Kind {
	return []tagval.Kind{tagval.KindBytes, tagval.KindString}
}

func (c *uuidConverter) Serialize(h Helper, v reflect.Value) (tagval.Value, error) {
	u := v.Interface().(uuid.UUID)
	if h.Format() == tagval.FormatJSON {
		return tagval.String(u.String()), nil
	}
	return tagval.Bytes(u[:]).WithTag(tagval.TagUUID), nil
}

func (c *uuidConverter) Deserialize(_ Helper, _ reflect.Type, val tagval.Value) (reflect.Value, error) {
	if val.Kind() == tagval.KindBytes {
		u, err := uuid.FromBytes(val.AsBytes())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return reflect.ValueOf(u), nil
	}
	u, err := uuid.Parse(val.AsString())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return reflect.ValueOf(u), nil
}

func (c *uuidConverter) GuessType(tag uint64, _ tagval.Kind) (reflect.Type, bool) {
	if tag == tagval.TagUUID {
		return uuidType, true
	}
	return nil, false
}
