package serializer

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagwire/tagwire/pkg/tagval"
)

type stubConverter struct {
	name     string
	priority Priority
	accepts  func(reflect.Type) bool
	tags     []uint64
	kinds    []tagval.Kind
}

func (c *stubConverter) Name() string       { return c.name }
func (c *stubConverter) Priority() Priority { return c.priority }

func (c *stubConverter) CanConvert(t reflect.Type) bool {
	if c.accepts == nil {
		return false
	}
	return c.accepts(t)
}

func (c *stubConverter) Tags(reflect.Type) []uint64 { return c.tags }

func (c *stubConverter) Kinds(reflect.Type, uint64) []tagval.Kind { return c.kinds }

func (c *stubConverter) Serialize(Helper, reflect.Value) (tagval.Value, error) {
	return tagval.Null(), nil
}

func (c *stubConverter) Deserialize(_ Helper, t reflect.Type, _ tagval.Value) (reflect.Value, error) {
	return reflect.Zero(t), nil
}

func acceptAll(reflect.Type) bool { return true }

func TestRegistrySelectionOrder(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.add(&stubConverter{name: "builtin-std", priority: PriorityStandard, accepts: acceptAll}, true))
	require.NoError(t, r.add(&stubConverter{name: "user-std", priority: PriorityStandard, accepts: acceptAll}, false))
	require.NoError(t, r.add(&stubConverter{name: "user-low", priority: PriorityLow, accepts: acceptAll}, false))
	require.NoError(t, r.add(&stubConverter{name: "user-high", priority: PriorityHigh, accepts: acceptAll}, false))
	require.NoError(t, r.add(&stubConverter{name: "user-std-2", priority: PriorityStandard, accepts: acceptAll}, false))

	var order []string
	for _, e := range r.entries {
		order = append(order, e.conv.Name())
	}
	// priority first, then user before builtin, then registration order
	assert.Equal(t, []string{"user-high", "user-std", "user-std-2", "builtin-std", "user-low"}, order)

	conv, ok := r.lookup(reflect.TypeOf(""))
	require.True(t, ok)
	assert.Equal(t, "user-high", conv.Name())
}

func TestRegistryLookupMemoized(t *testing.T) {
	r := newRegistry()
	calls := 0
	require.NoError(t, r.add(&stubConverter{
		name:     "counted",
		priority: PriorityStandard,
		accepts: func(reflect.Type) bool {
			calls++
			return true
		},
	}, true))

	st := reflect.TypeOf("")
	_, ok := r.lookup(st)
	require.True(t, ok)
	_, ok = r.lookup(st)
	require.True(t, ok)
	assert.Equal(t, 1, calls)

	// registration invalidates the memo
	require.NoError(t, r.add(&stubConverter{name: "other", priority: PriorityLow}, false))
	_, ok = r.lookup(st)
	require.True(t, ok)
	assert.Equal(t, 2, calls)
}

func TestRegistryMissMemoized(t *testing.T) {
	r := newRegistry()
	calls := 0
	require.NoError(t, r.add(&stubConverter{
		name:     "refuser",
		priority: PriorityStandard,
		accepts: func(reflect.Type) bool {
			calls++
			return false
		},
	}, true))

	st := reflect.TypeOf(0)
	_, ok := r.lookup(st)
	require.False(t, ok)
	_, ok = r.lookup(st)
	require.False(t, ok)
	assert.Equal(t, 1, calls)
}

func TestRegistryAddRejects(t *testing.T) {
	r := newRegistry()
	require.Error(t, r.add(nil, false))
	require.Error(t, r.add(&stubConverter{name: ""}, false))

	require.NoError(t, r.add(&stubConverter{name: "taken"}, false))
	err := r.add(&stubConverter{name: "taken"}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConverterExists)
}

func TestValidateIncoming(t *testing.T) {
	st := reflect.TypeOf("")

	tests := []struct {
		name    string
		conv    *stubConverter
		val     tagval.Value
		wantErr error
	}{
		{
			name: "untagged always passes the tag gate",
			conv: &stubConverter{name: "c", tags: []uint64{7}},
			val:  tagval.String("x"),
		},
		{
			name: "allowed tag passes",
			conv: &stubConverter{name: "c", tags: []uint64{7}},
			val:  tagval.String("x").WithTag(7),
		},
		{
			name:    "foreign tag is rejected",
			conv:    &stubConverter{name: "c", tags: []uint64{7}},
			val:     tagval.String("x").WithTag(8),
			wantErr: ErrTagMismatch,
		},
		{
			name: "empty tag list accepts any tag",
			conv: &stubConverter{name: "c"},
			val:  tagval.String("x").WithTag(1234),
		},
		{
			name: "allowed kind passes",
			conv: &stubConverter{name: "c", kinds: []tagval.Kind{tagval.KindString}},
			val:  tagval.String("x"),
		},
		{
			name:    "foreign kind is rejected",
			conv:    &stubConverter{name: "c", kinds: []tagval.Kind{tagval.KindString}},
			val:     tagval.Int(1),
			wantErr: ErrKindMismatch,
		},
		{
			name: "empty kind list accepts any kind",
			conv: &stubConverter{name: "c"},
			val:  tagval.Bool(true),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateIncoming(tt.conv, st, tt.val)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestEnumDefNames(t *testing.T) {
	def := &enumDef{
		flags: false,
		toName: map[int64]string{
			0: "zero",
			1: "one",
		},
		toValue: map[string]int64{
			"zero": 0,
			"one":  1,
		},
		ordered: []int64{0, 1},
	}

	name, err := def.name(1)
	require.NoError(t, err)
	assert.Equal(t, "one", name)

	_, err = def.name(5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEnumValue)

	v, err := def.value("zero")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	_, err = def.value("two")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEnumValue)
}

func TestEnumDefFlagDecomposition(t *testing.T) {
	def := &enumDef{
		flags: true,
		toName: map[int64]string{
			1: "R",
			2: "W",
			3: "RW",
			4: "X",
		},
		toValue: map[string]int64{
			"R":  1,
			"W":  2,
			"RW": 3,
			"X":  4,
		},
		ordered: []int64{1, 2, 3, 4},
	}

	tests := []struct {
		name    string
		in      int64
		want    string
		wantErr bool
	}{
		{name: "exact alias wins", in: 3, want: "RW"},
		{name: "single bit", in: 4, want: "X"},
		{name: "combination", in: 5, want: "R|X"},
		{name: "empty set", in: 0, want: ""},
		{name: "unknown bit", in: 8, wantErr: true},
		{name: "partial unknown", in: 9, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := def.name(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownEnumValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	v, err := def.value("R | X")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	v, err = def.value("")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestPrimitiveTargetStrictness(t *testing.T) {
	tests := []struct {
		name    string
		target  reflect.Type
		val     tagval.Value
		wantErr bool
	}{
		{name: "int from int", target: reflect.TypeOf(0), val: tagval.Int(7)},
		{name: "int8 overflow", target: reflect.TypeOf(int8(0)), val: tagval.Int(300), wantErr: true},
		{name: "uint from negative", target: reflect.TypeOf(uint(0)), val: tagval.Int(-1), wantErr: true},
		{name: "int from integral float", target: reflect.TypeOf(0), val: tagval.Float(3)},
		{name: "int from fractional float", target: reflect.TypeOf(0), val: tagval.Float(2.5), wantErr: true},
		{name: "float from int", target: reflect.TypeOf(0.0), val: tagval.Int(3)},
		{name: "bool from string", target: reflect.TypeOf(true), val: tagval.String("true"), wantErr: true},
		{name: "string from int", target: reflect.TypeOf(""), val: tagval.Int(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, handled, err := primitiveTarget(tt.target, tt.val)
			require.True(t, handled)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, out.Type())
		})
	}
}
