package serializer

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/tagwire/tagwire/pkg/tagval"
)

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// anyConverter fills interface targets. Maps carrying a type marker are
// routed to the registered concrete type. Untyped input into an empty
// interface is resolved by asking the registered converters to guess a type
// from the tag and kind, falling back to plain Go values.
type anyConverter struct {
	reg   *registry
	types *typeRegistry
}

func newAnyConverter(reg *registry, types *typeRegistry) *anyConverter {
	return &anyConverter{reg: reg, types: types}
}

var _ Converter = (*anyConverter)(nil)

func (c *anyConverter) Name() string       { return "any" }
func (c *anyConverter) Priority() Priority { return PriorityStandard }

func (c *anyConverter) CanConvert(t reflect.Type) bool {
	return t.Kind() == reflect.Interface
}

func (c *anyConverter) Tags(reflect.Type) []uint64 { return nil }

func (c *anyConverter) Kinds(reflect.Type, uint64) []tagval.Kind { return nil }

func (c *anyConverter) Serialize(h Helper, v reflect.Value) (tagval.Value, error) {
	if v.IsNil() {
		return tagval.Null(), nil
	}
	return h.SerializeSubtype(v.Elem())
}

func (c *anyConverter) Deserialize(h Helper, t reflect.Type, val tagval.Value) (reflect.Value, error) {
	if val.Kind() == tagval.KindMap && h.Config().Polymorphism != PolyDisabled {
		if marker, ok := val.Lookup(TypeMarker); ok && marker.Kind() == tagval.KindString {
			return c.deserializeMarked(h, t, marker.AsString(), val)
		}
	}
	if t.NumMethod() != 0 {
		return reflect.Value{}, fmt.Errorf("%w: cannot deserialize into %s without a type marker", ErrUnknownTypeName, t)
	}
	if guessed, ok := c.reg.guessType(val.Tag(), val.Kind()); ok {
		out, err := h.DeserializeSubtype(guessed, val)
		if err != nil {
			return reflect.Value{}, err
		}
		return asInterface(t, out), nil
	}
	return c.deserializePlain(h, t, val)
}

func (c *anyConverter) deserializeMarked(h Helper, t reflect.Type, name string, val tagval.Value) (reflect.Value, error) {
	ct, ok := c.types.typeByName(name)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %q", ErrUnknownTypeName, name)
	}
	out, err := h.DeserializeSubtype(ct, val)
	if err != nil {
		return reflect.Value{}, err
	}
	if !out.Type().AssignableTo(t) {
		if !reflect.PointerTo(ct).AssignableTo(t) {
			return reflect.Value{}, fmt.Errorf("%w: %s does not implement %s", ErrInvalidValue, ct, t)
		}
		ptr := reflect.New(ct)
		ptr.Elem().Set(out)
		out = ptr
	}
	return asInterface(t, out), nil
}

// deserializePlain maps untyped input onto plain Go values, the same shapes
// encoding/json would produce apart from integers staying integers.
func (c *anyConverter) deserializePlain(h Helper, t reflect.Type, val tagval.Value) (reflect.Value, error) {
	switch val.Kind() {
	case tagval.KindBool:
		return asInterface(t, reflect.ValueOf(val.AsBool())), nil
	case tagval.KindInt:
		return asInterface(t, reflect.ValueOf(val.AsInt())), nil
	case tagval.KindFloat:
		return asInterface(t, reflect.ValueOf(val.AsFloat())), nil
	case tagval.KindString:
		return asInterface(t, reflect.ValueOf(val.AsString())), nil
	case tagval.KindBytes:
		return asInterface(t, reflect.ValueOf(val.AsBytes())), nil
	case tagval.KindArray:
		items := val.Items()
		out := make([]any, len(items))
		for i, item := range items {
			elem, err := h.DeserializeSubtype(anyType, item)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = elem.Interface()
		}
		return asInterface(t, reflect.ValueOf(out)), nil
	case tagval.KindMap:
		out := make(map[string]any, val.Len())
		for _, m := range val.Members() {
			var key string
			switch m.Key.Kind() {
			case tagval.KindString:
				key = m.Key.AsString()
			case tagval.KindInt:
				key = strconv.FormatInt(m.Key.AsInt(), 10)
			default:
				return reflect.Value{}, fmt.Errorf("%w: map key of kind %s", ErrInvalidValue, m.Key.Kind())
			}
			elem, err := h.DeserializeSubtype(anyType, m.Value)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %q: %w", key, err)
			}
			out[key] = elem.Interface()
		}
		return asInterface(t, reflect.ValueOf(out)), nil
	default:
		return reflect.Value{}, fmt.Errorf("%w: kind %s", ErrInvalidValue, val.Kind())
	}
}

func asInterface(t reflect.Type, v reflect.Value) reflect.Value {
	out := reflect.New(t).Elem()
	out.Set(v)
	return out
}
