package tagval

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCBORRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value Value
	}{
		{name: "null", value: Null()},
		{name: "bool", value: Bool(true)},
		{name: "positive int", value: Int(1000)},
		{name: "negative int", value: Int(-1000)},
		{name: "float", value: Float(1.5)},
		{name: "string", value: String("héllo")},
		{name: "bytes", value: Bytes([]byte{0, 1, 2, 0xff})},
		{name: "tagged string", value: String("x").WithTag(1234)},
		{name: "tagged bytes", value: Bytes([]byte{1, 2, 3}).WithTag(TagUUID)},
		{name: "array", value: Array(Int(1), String("two"), Null(), Array(Bool(false)))},
		{
			name: "map",
			value: Map(
				Member{Key: String("a"), Value: Int(1)},
				Member{Key: String("b"), Value: Array(Int(2), Int(3))},
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.value.MarshalCBOR()
			require.NoError(t, err)

			var decoded Value
			require.NoError(t, decoded.UnmarshalCBOR(data))
			assert.True(t, tt.value.Equal(decoded),
				"want kind %s tag %d, got kind %s tag %d", tt.value.Kind(), tt.value.Tag(), decoded.Kind(), decoded.Tag())
		})
	}
}

func TestCBORDeterministicEncoding(t *testing.T) {
	a := Map(
		Member{Key: String("x"), Value: Int(1)},
		Member{Key: String("y"), Value: Int(2)},
	)
	b := Map(
		Member{Key: String("y"), Value: Int(2)},
		Member{Key: String("x"), Value: Int(1)},
	)

	da, err := a.MarshalCBOR()
	require.NoError(t, err)
	db, err := b.MarshalCBOR()
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestCBORMapOrderNormalized(t *testing.T) {
	original := Map(
		Member{Key: String("b"), Value: Int(1)},
		Member{Key: String("a"), Value: Int(2)},
		Member{Key: Int(3), Value: String("x")},
	)

	data, err := original.MarshalCBOR()
	require.NoError(t, err)

	var decoded Value
	require.NoError(t, decoded.UnmarshalCBOR(data))

	members := decoded.Members()
	require.Len(t, members, 3)
	assert.Equal(t, KindInt, members[0].Key.Kind())
	assert.Equal(t, "a", members[1].Key.AsString())
	assert.Equal(t, "b", members[2].Key.AsString())
}

func TestCBOREncodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected error
	}{
		{name: "zero value", value: Value{}, expected: ErrInvalidValue},
		{
			name: "duplicate keys",
			value: Map(
				Member{Key: String("a"), Value: Int(1)},
				Member{Key: String("a"), Value: Int(2)},
			),
			expected: ErrDuplicateKey,
		},
		{
			name: "bool key",
			value: Map(
				Member{Key: Bool(true), Value: Int(1)},
			),
			expected: ErrBadMapKey,
		},
		{
			name: "invalid nested value",
			value: Array(Int(1), Value{}),
			expected: ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.value.MarshalCBOR()
			require.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestCBORDecodeErrors(t *testing.T) {
	_, err := DecodeCBOR(bytes.NewReader(nil))
	require.Error(t, err)

	_, err = DecodeCBOR(bytes.NewReader([]byte("invalid stuff")))
	require.Error(t, err)
}

func TestEncodeDecodeByFormat(t *testing.T) {
	original := Map(
		Member{Key: String("n"), Value: Int(1)},
	)

	for _, format := range []Format{FormatCBOR, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, original, format))

			decoded, err := Decode(&buf, format)
			require.NoError(t, err)
			assert.True(t, original.Equal(decoded))
		})
	}
}
