package serializer

import (
	"fmt"
	"math"
	"reflect"

	"github.com/tagwire/tagwire/pkg/tagval"
)

// enumConverter handles integer types registered through RegisterEnum or
// RegisterFlags. It runs at high priority so a registered enum never falls
// through to the plain integer path.
type enumConverter struct {
	types *typeRegistry
}

func newEnumConverter(types *typeRegistry) *enumConverter {
	return &enumConverter{types: types}
}

var _ Converter = (*enumConverter)(nil)

func (c *enumConverter) Name() string       { return "enum" }
func (c *enumConverter) Priority() Priority { return PriorityHigh }

func (c *enumConverter) CanConvert(t reflect.Type) bool {
	_, ok := c.types.enumFor(t)
	return ok
}

func (c *enumConverter) Tags(reflect.Type) []uint64 { return nil }

func (c *enumConverter) Kinds(reflect.Type, uint64) []tagval.Kind {
	return []tagval.Kind{tagval.KindInt, tagval.KindString}
}

func (c *enumConverter) Serialize(h Helper, v reflect.Value) (tagval.Value, error) {
	def, ok := c.types.enumFor(v.Type())
	if !ok {
		return tagval.Value{}, fmt.Errorf("%w: %s is not a registered enum", ErrInvalidValue, v.Type())
	}
	raw, err := intOf(v)
	if err != nil {
		return tagval.Value{}, err
	}
	if !h.Config().EnumAsString {
		return tagval.Int(raw), nil
	}
	name, err := def.name(raw)
	if err != nil {
		return tagval.Value{}, err
	}
	return tagval.String(name), nil
}

func (c *enumConverter) Deserialize(_ Helper, t reflect.Type, val tagval.Value) (reflect.Value, error) {
	def, ok := c.types.enumFor(t)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %s is not a registered enum", ErrInvalidValue, t)
	}
	var raw int64
	if val.Kind() == tagval.KindString {
		var err error
		raw, err = def.value(val.AsString())
		if err != nil {
			return reflect.Value{}, err
		}
	} else {
		raw = val.AsInt()
	}
	return intValue(t, raw)
}

func intOf(v reflect.Value) (int64, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrInvalidValue, u)
		}
		return int64(u), nil
	default:
		return 0, fmt.Errorf("%w: %s is not an integer", ErrInvalidValue, v.Type())
	}
}

func intValue(t reflect.Type, raw int64) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if out.OverflowInt(raw) {
			return reflect.Value{}, fmt.Errorf("%w: %d overflows %s", ErrInvalidValue, raw, t)
		}
		out.SetInt(raw)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if raw < 0 || out.OverflowUint(uint64(raw)) {
			return reflect.Value{}, fmt.Errorf("%w: %d overflows %s", ErrInvalidValue, raw, t)
		}
		out.SetUint(uint64(raw))
	default:
		return reflect.Value{}, fmt.Errorf("%w: %s is not an integer", ErrInvalidValue, t)
	}
	return out, nil
}
