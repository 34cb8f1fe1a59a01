package serializer

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"golang.org/x/exp/constraints"
)

// TypeMarker is the map key under which struct values carry their
// registered type name for polymorphic round-trips.
const TypeMarker = "@type"

// RegisterEnum registers value to name tables for an integer type, so its
// values can travel by name. Must be called before the type is first
// converted.
func RegisterEnum[E constraints.Integer](s *Serializer, names map[E]string) error {
	return registerEnumDef(s, names, false)
}

// RegisterFlags registers a bitmask type. The string form of a value is
// the pipe-joined list of its set flags, e.g. "FlagA|FlagC".
func RegisterFlags[E constraints.Integer](s *Serializer, names map[E]string) error {
	return registerEnumDef(s, names, true)
}

// RegisterType names a concrete type for polymorphic round-trips through
// interface slots; see TypeMarker.
func RegisterType[T any](s *Serializer, name string) error {
	return s.types.registerName(name, reflect.TypeOf((*T)(nil)).Elem())
}

func registerEnumDef[E constraints.Integer](s *Serializer, names map[E]string, flags bool) error {
	byValue := make(map[int64]string, len(names))
	for v, name := range names {
		byValue[int64(v)] = name
	}
	return s.types.registerEnum(reflect.TypeOf((*E)(nil)).Elem(), byValue, flags)
}

type enumDef struct {
	flags   bool
	toName  map[int64]string
	toValue map[string]int64
	// values in ascending order, for deterministic flag decomposition
	ordered []int64
}

// name renders a value. Flag values decompose into their registered bits
// unless the exact value has a name of its own.
func (d *enumDef) name(v int64) (string, error) {
	if name, ok := d.toName[v]; ok {
		return name, nil
	}
	if !d.flags {
		return "", fmt.Errorf("%w: %d", ErrUnknownEnumValue, v)
	}
	if v == 0 {
		// An empty flag set renders as the empty string.
		return "", nil
	}
	rest := v
	var parts []string
	for _, bits := range d.ordered {
		if bits == 0 {
			continue
		}
		if rest&bits == bits {
			parts = append(parts, d.toName[bits])
			rest &^= bits
		}
	}
	if rest != 0 || len(parts) == 0 {
		return "", fmt.Errorf("%w: %d", ErrUnknownEnumValue, v)
	}
	return strings.Join(parts, "|"), nil
}

// value parses a name, or a pipe-joined set of names for flag types.
func (d *enumDef) value(s string) (int64, error) {
	if v, ok := d.toValue[s]; ok {
		return v, nil
	}
	if !d.flags {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEnumValue, s)
	}
	if s == "" {
		return 0, nil
	}
	var out int64
	for _, part := range strings.Split(s, "|") {
		v, ok := d.toValue[strings.TrimSpace(part)]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownEnumValue, part)
		}
		out |= v
	}
	return out, nil
}

// typeRegistry holds per-serializer knowledge that reflection cannot
// recover: enum name tables and polymorphic type names.
type typeRegistry struct {
	mu    sync.RWMutex
	enums map[reflect.Type]*enumDef
	names map[string]reflect.Type
	types map[reflect.Type]string
}

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{
		enums: make(map[reflect.Type]*enumDef),
		names: make(map[string]reflect.Type),
		types: make(map[reflect.Type]string),
	}
}

func (tr *typeRegistry) registerEnum(t reflect.Type, names map[int64]string, flags bool) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if _, ok := tr.enums[t]; ok {
		return fmt.Errorf("%w: %s", ErrTypeRegistered, t)
	}
	def := &enumDef{
		flags:   flags,
		toName:  make(map[int64]string, len(names)),
		toValue: make(map[string]int64, len(names)),
		ordered: make([]int64, 0, len(names)),
	}
	for v, name := range names {
		if name == "" {
			return fmt.Errorf("empty name for enum value %d of %s", v, t)
		}
		if _, ok := def.toValue[name]; ok {
			return fmt.Errorf("duplicate enum name %q for %s", name, t)
		}
		def.toName[v] = name
		def.toValue[name] = v
		def.ordered = append(def.ordered, v)
	}
	slices.Sort(def.ordered)
	tr.enums[t] = def
	return nil
}

func (tr *typeRegistry) enumFor(t reflect.Type) (*enumDef, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	def, ok := tr.enums[t]
	return def, ok
}

func (tr *typeRegistry) registerName(name string, t reflect.Type) error {
	if name == "" {
		return fmt.Errorf("type name must not be empty")
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if existing, ok := tr.names[name]; ok {
		return fmt.Errorf("%w: name %q is taken by %s", ErrTypeRegistered, name, existing)
	}
	if _, ok := tr.types[t]; ok {
		return fmt.Errorf("%w: %s", ErrTypeRegistered, t)
	}
	tr.names[name] = t
	tr.types[t] = name
	return nil
}

func (tr *typeRegistry) typeByName(name string) (reflect.Type, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	t, ok := tr.names[name]
	return t, ok
}

func (tr *typeRegistry) nameByType(t reflect.Type) (string, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	name, ok := tr.types[t]
	return name, ok
}
