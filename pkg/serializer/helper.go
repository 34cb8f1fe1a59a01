package serializer

import (
	"fmt"
	"reflect"

	"github.com/tagwire/tagwire/pkg/log"
	"github.com/tagwire/tagwire/pkg/tagval"
)

// state is the per-call Helper implementation. It carries the recursion
// depth and a configuration snapshot, so concurrent reconfiguration can
// never split a single conversion.
type state struct {
	s     *Serializer
	cfg   Config
	depth int
}

var _ Helper = (*state)(nil)

func newState(s *Serializer) *state {
	return &state{s: s, cfg: s.cfg}
}

func (st *state) SerializeSubtype(v reflect.Value) (tagval.Value, error) {
	return st.serialize(v)
}

func (st *state) DeserializeSubtype(t reflect.Type, val tagval.Value) (reflect.Value, error) {
	return st.deserialize(t, val)
}

func (st *state) Format() tagval.Format {
	return st.cfg.Format
}

func (st *state) Config() *Config {
	return &st.cfg
}

func (st *state) Logger() *log.PrefixLogger {
	return st.s.log
}

func (st *state) enter() error {
	st.depth++
	if st.depth > st.cfg.MaxDepth {
		return fmt.Errorf("%w (%d)", ErrDepthExceeded, st.cfg.MaxDepth)
	}
	return nil
}

func (st *state) exit() {
	st.depth--
}

func (st *state) serialize(v reflect.Value) (tagval.Value, error) {
	if err := st.enter(); err != nil {
		return tagval.Value{}, err
	}
	defer st.exit()

	if !v.IsValid() {
		return tagval.Null(), nil
	}

	t := v.Type()
	switch t.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return tagval.Null(), nil
		}
		return st.serialize(v.Elem())
	case reflect.Interface:
		if v.IsNil() {
			return tagval.Null(), nil
		}
		inner, err := st.serialize(v.Elem())
		if err != nil {
			return tagval.Value{}, err
		}
		return st.markInterface(v.Elem(), inner), nil
	}

	if conv, ok := st.s.registry.lookup(t); ok {
		st.s.log.Debugf("serialize type=%s converter=%s", t, conv.Name())
		out, err := conv.Serialize(st, v)
		if err != nil {
			return tagval.Value{}, err
		}
		return st.markForced(t, out), nil
	}

	if out, ok := primitiveValue(v); ok {
		return out, nil
	}

	return tagval.Value{}, fmt.Errorf("%w: %s", unconvertible(t), t)
}

func (st *state) deserialize(t reflect.Type, val tagval.Value) (reflect.Value, error) {
	if err := st.enter(); err != nil {
		return reflect.Value{}, err
	}
	defer st.exit()

	if val.Kind() == tagval.KindInvalid {
		return reflect.Value{}, fmt.Errorf("%w: invalid input value", ErrInvalidValue)
	}
	if val.IsNull() {
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
			return reflect.Zero(t), nil
		default:
			if st.cfg.AllowDefaultNull {
				return reflect.Zero(t), nil
			}
			return reflect.Value{}, fmt.Errorf("%w: target %s", ErrUnexpectedNull, t)
		}
	}

	if t.Kind() == reflect.Ptr {
		elem, err := st.deserialize(t.Elem(), val)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(t.Elem())
		out.Elem().Set(elem)
		return out, nil
	}

	if conv, ok := st.s.registry.lookup(t); ok {
		st.s.log.Debugf("deserialize type=%s converter=%s", t, conv.Name())
		if err := validateIncoming(conv, t, val); err != nil {
			return reflect.Value{}, err
		}
		return conv.Deserialize(st, t, val)
	}

	if out, ok, err := primitiveTarget(t, val); ok {
		return out, err
	}

	return reflect.Value{}, fmt.Errorf("%w: %s", unconvertible(t), t)
}

// unconvertible distinguishes kinds that can never travel from types that
// merely lack a converter.
func unconvertible(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128,
		reflect.UnsafePointer, reflect.Uintptr:
		return ErrUnsupportedType
	default:
		return ErrNoConverter
	}
}

// markInterface stamps the registered type name onto values serialized out
// of interface slots, so deserialization can pick the implementation.
func (st *state) markInterface(dynamic reflect.Value, inner tagval.Value) tagval.Value {
	if st.cfg.Polymorphism == PolyDisabled || inner.Kind() != tagval.KindMap {
		return inner
	}
	nt := dynamic.Type()
	for nt.Kind() == reflect.Ptr {
		nt = nt.Elem()
	}
	if name, ok := st.s.types.nameByType(nt); ok {
		return injectMarker(inner, name)
	}
	return inner
}

// markForced stamps every registered struct type under PolyForced.
func (st *state) markForced(t reflect.Type, out tagval.Value) tagval.Value {
	if st.cfg.Polymorphism != PolyForced || out.Kind() != tagval.KindMap {
		return out
	}
	if name, ok := st.s.types.nameByType(t); ok {
		return injectMarker(out, name)
	}
	return out
}

func injectMarker(val tagval.Value, name string) tagval.Value {
	if _, ok := val.Lookup(TypeMarker); ok {
		return val
	}
	members := make([]tagval.Member, 0, val.Len()+1)
	members = append(members, tagval.Member{Key: tagval.String(TypeMarker), Value: tagval.String(name)})
	members = append(members, val.Members()...)
	out := tagval.Map(members...)
	if val.IsTagged() {
		out = out.WithTag(val.Tag())
	}
	return out
}
