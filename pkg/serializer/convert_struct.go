package serializer

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/tagwire/tagwire/pkg/tagval"
)

// structConverter is the generic catch-all for struct types. Specific
// struct-shaped types such as time.Time or uuid.UUID are claimed by their
// own converters before this one is consulted.
//
// Field selection follows the encoding/json rules: exported fields only,
// `tagwire` tags first and `json` tags as a fallback, "-" omits a field,
// untagged embedded structs flatten their promoted fields while tagged ones
// become nested objects.
type structConverter struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]fieldInfo
}

type fieldInfo struct {
	name      string
	index     []int
	omitEmpty bool
}

func newStructConverter() *structConverter {
	return &structConverter{fields: make(map[reflect.Type][]fieldInfo)}
}

var _ Converter = (*structConverter)(nil)

func (c *structConverter) Name() string       { return "struct" }
func (c *structConverter) Priority() Priority { return PriorityStandard }

func (c *structConverter) CanConvert(t reflect.Type) bool {
	return t.Kind() == reflect.Struct
}

func (c *structConverter) Tags(reflect.Type) []uint64 { return nil }

func (c *structConverter) Kinds(reflect.Type, uint64) []tagval.Kind {
	return []tagval.Kind{tagval.KindMap}
}

func (c *structConverter) Serialize(h Helper, v reflect.Value) (tagval.Value, error) {
	infos := c.fieldsOf(v.Type(), h.Config().FieldNaming)
	members := make([]tagval.Member, 0, len(infos))
	for _, f := range infos {
		fv, ok := fieldByIndex(v, f.index)
		if !ok {
			// a nil embedded pointer on the path hides the field
			continue
		}
		if f.omitEmpty && isEmptyValue(fv) {
			continue
		}
		child, err := h.SerializeSubtype(fv)
		if err != nil {
			return tagval.Value{}, fmt.Errorf("field %q: %w", f.name, err)
		}
		members = append(members, tagval.Member{Key: tagval.String(f.name), Value: child})
	}
	return tagval.Map(members...), nil
}

func (c *structConverter) Deserialize(h Helper, t reflect.Type, val tagval.Value) (reflect.Value, error) {
	infos := c.fieldsOf(t, h.Config().FieldNaming)
	byName := make(map[string]fieldInfo, len(infos))
	for _, f := range infos {
		byName[f.name] = f
	}

	out := reflect.New(t).Elem()
	seen := make(map[string]bool, len(infos))
	for _, m := range val.Members() {
		if m.Key.Kind() != tagval.KindString {
			if h.Config().Validation.Has(ValidationNoExtraFields) {
				return reflect.Value{}, fmt.Errorf("%w: %s", ErrExtraField, keyLabel(m.Key))
			}
			continue
		}
		key := m.Key.AsString()
		if key == TypeMarker {
			continue
		}
		f, ok := byName[key]
		if !ok {
			if h.Config().Validation.Has(ValidationNoExtraFields) {
				return reflect.Value{}, fmt.Errorf("%w: %q", ErrExtraField, key)
			}
			continue
		}
		child, err := h.DeserializeSubtype(typeByIndex(t, f.index), m.Value)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("field %q: %w", key, err)
		}
		target := fieldByIndexAlloc(out, f.index)
		target.Set(child)
		seen[key] = true
	}

	if h.Config().Validation.Has(ValidationAllFields) {
		for _, f := range infos {
			if !f.omitEmpty && !seen[f.name] {
				return reflect.Value{}, fmt.Errorf("%w: %q", ErrMissingField, f.name)
			}
		}
	}
	return out, nil
}

func (c *structConverter) fieldsOf(t reflect.Type, style NameStyle) []fieldInfo {
	c.mu.RLock()
	infos, ok := c.fields[t]
	c.mu.RUnlock()
	if ok {
		return infos
	}

	var skip [][]int
	for _, f := range reflect.VisibleFields(t) {
		if f.PkgPath != "" {
			continue
		}
		if hasSkippedPrefix(f.Index, skip) {
			continue
		}
		name, omitEmpty := parseFieldTag(f.Tag)
		if name == "-" {
			if f.Anonymous {
				skip = append(skip, f.Index)
			}
			continue
		}
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				// untagged embedded struct, its promoted fields flatten in
				continue
			}
		}
		if f.Anonymous && name != "" {
			// tagged embedded struct becomes a nested member instead
			skip = append(skip, f.Index)
		}
		if name == "" {
			name = style.apply(f.Name)
		}
		infos = append(infos, fieldInfo{name: name, index: f.Index, omitEmpty: omitEmpty})
	}

	c.mu.Lock()
	c.fields[t] = infos
	c.mu.Unlock()
	return infos
}

func parseFieldTag(tag reflect.StructTag) (string, bool) {
	raw, ok := tag.Lookup("tagwire")
	if !ok {
		raw = tag.Get("json")
	}
	name, rest, _ := strings.Cut(raw, ",")
	omitEmpty := false
	for rest != "" {
		var opt string
		opt, rest, _ = strings.Cut(rest, ",")
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty
}

func hasSkippedPrefix(index []int, skip [][]int) bool {
	for _, prefix := range skip {
		if len(index) <= len(prefix) {
			continue
		}
		match := true
		for i, x := range prefix {
			if index[i] != x {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// fieldByIndex walks an index path, reporting false when a nil embedded
// pointer makes the field unreachable.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 {
			if v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return reflect.Value{}, false
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v, true
}

// fieldByIndexAlloc walks an index path, allocating embedded pointers as
// needed. The root value must be addressable.
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 {
			if v.Kind() == reflect.Pointer {
				if v.IsNil() {
					v.Set(reflect.New(v.Type().Elem()))
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v
}

func typeByIndex(t reflect.Type, index []int) reflect.Type {
	for _, x := range index {
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		t = t.Field(x).Type
	}
	return t
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	default:
		return false
	}
}
