package serializer

import (
	"fmt"
	"reflect"

	"github.com/tagwire/tagwire/pkg/tagval"
)

// listConverter handles slices and fixed-size arrays. Byte slices are
// claimed by the bytes converter before this one is consulted.
type listConverter struct{}

func newListConverter() *listConverter { return &listConverter{} }

var _ Converter = (*listConverter)(nil)

func (c *listConverter) Name() string       { return "list" }
func (c *listConverter) Priority() Priority { return PriorityStandard }

func (c *listConverter) CanConvert(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice:
		return t.Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	default:
		return false
	}
}

func (c *listConverter) Tags(reflect.Type) []uint64 { return nil }

func (c *listConverter) Kinds(reflect.Type, uint64) []tagval.Kind {
	return []tagval.Kind{tagval.KindArray}
}

func (c *listConverter) Serialize(h Helper, v reflect.Value) (tagval.Value, error) {
	items := make([]tagval.Value, v.Len())
	for i := range items {
		item, err := h.SerializeSubtype(v.Index(i))
		if err != nil {
			return tagval.Value{}, fmt.Errorf("index %d: %w", i, err)
		}
		items[i] = item
	}
	return tagval.Array(items...), nil
}

func (c *listConverter) Deserialize(h Helper, t reflect.Type, val tagval.Value) (reflect.Value, error) {
	in := val.Items()
	var out reflect.Value
	switch t.Kind() {
	case reflect.Slice:
		out = reflect.MakeSlice(t, len(in), len(in))
	default:
		if t.Len() != len(in) {
			return reflect.Value{}, fmt.Errorf("%w: array of length %d, input has %d elements", ErrInvalidValue, t.Len(), len(in))
		}
		out = reflect.New(t).Elem()
	}
	for i, item := range in {
		elem, err := h.DeserializeSubtype(t.Elem(), item)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
		}
		out.Index(i).Set(elem)
	}
	return out, nil
}
