package serializer

import (
	"fmt"
	"reflect"

	"github.com/tagwire/tagwire/pkg/tagval"
)

// pairConverter maps Pair instantiations onto two element arrays. It runs
// before the generic struct converter, which would otherwise render a pair
// as an object.
type pairConverter struct{}

func newPairConverter() *pairConverter { return &pairConverter{} }

var _ Converter = (*pairConverter)(nil)

func (c *pairConverter) Name() string       { return "pair" }
func (c *pairConverter) Priority() Priority { return PriorityStandard }

func (c *pairConverter) CanConvert(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.Implements(pairLikeType)
}

func (c *pairConverter) Tags(reflect.Type) []uint64 { return nil }

func (c *pairConverter) Kinds(reflect.Type, uint64) []tagval.Kind {
	return []tagval.Kind{tagval.KindArray}
}

func (c *pairConverter) Serialize(h Helper, v reflect.Value) (tagval.Value, error) {
	first, err := h.SerializeSubtype(v.Field(0))
	if err != nil {
		return tagval.Value{}, fmt.Errorf("first: %w", err)
	}
	second, err := h.SerializeSubtype(v.Field(1))
	if err != nil {
		return tagval.Value{}, fmt.Errorf("second: %w", err)
	}
	return tagval.Array(first, second), nil
}

func (c *pairConverter) Deserialize(h Helper, t reflect.Type, val tagval.Value) (reflect.Value, error) {
	items := val.Items()
	if len(items) != 2 {
		return reflect.Value{}, fmt.Errorf("%w: pair needs 2 elements, got %d", ErrInvalidValue, len(items))
	}
	out := reflect.New(t).Elem()
	first, err := h.DeserializeSubtype(t.Field(0).Type, items[0])
	if err != nil {
		return reflect.Value{}, fmt.Errorf("first: %w", err)
	}
	out.Field(0).Set(first)
	second, err := h.DeserializeSubtype(t.Field(1).Type, items[1])
	if err != nil {
		return reflect.Value{}, fmt.Errorf("second: %w", err)
	}
	out.Field(1).Set(second)
	return out, nil
}
