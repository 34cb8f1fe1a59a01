package serializer_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagwire/tagwire/pkg/serializer"
	"github.com/tagwire/tagwire/pkg/tagval"
)

func TestBytesFormats(t *testing.T) {
	raw := []byte{0xff, 0xfe, 0xfd}

	tests := []struct {
		name     string
		format   serializer.ByteFormat
		wantJSON string
		wantTag  uint64
	}{
		{name: "base64url", format: serializer.BytesBase64URL, wantJSON: `"__79"`, wantTag: tagval.TagExpectedBase64URL},
		{name: "base64", format: serializer.BytesBase64, wantJSON: `"//79"`, wantTag: tagval.TagExpectedBase64},
		{name: "base16", format: serializer.BytesBase16, wantJSON: `"fffefd"`, wantTag: tagval.TagExpectedBase16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSerializer(t,
				serializer.WithFormat(tagval.FormatJSON),
				serializer.WithByteFormat(tt.format))

			val, err := s.Serialize(raw)
			require.NoError(t, err)
			assert.Equal(t, tagval.KindBytes, val.Kind())
			assert.Equal(t, tt.wantTag, val.Tag())

			data, err := s.Marshal(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantJSON, string(data))

			var out []byte
			require.NoError(t, s.Unmarshal(data, &out))
			assert.Equal(t, raw, out)
		})
	}
}

func TestBytesNamedSliceType(t *testing.T) {
	type blob []byte
	s := newSerializer(t)
	in := blob{1, 2, 3}
	out := roundTrip(t, s, in)
	assert.IsType(t, blob(nil), out)
	assert.Equal(t, in, out)
}

func TestBytesValidation(t *testing.T) {
	tests := []struct {
		name     string
		validate bool
		input    string
		want     []byte
		wantErr  error
	}{
		{name: "strict rejects foreign alphabet", validate: true, input: `"//79"`, wantErr: serializer.ErrInvalidValue},
		{name: "lenient filters foreign alphabet", validate: false, input: `"__7 9!"`, want: []byte{0xff, 0xfe, 0xfd}},
		{name: "strict accepts clean input", validate: true, input: `"__79"`, want: []byte{0xff, 0xfe, 0xfd}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSerializer(t,
				serializer.WithFormat(tagval.FormatJSON),
				serializer.WithValidateBase64(tt.validate))

			var out []byte
			err := s.Unmarshal([]byte(tt.input), &out)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestTimeFormats(t *testing.T) {
	instant := time.Date(2024, 5, 6, 12, 13, 14, 0, time.UTC)

	t.Run("rfc3339 string", func(t *testing.T) {
		s := newSerializer(t, serializer.WithFormat(tagval.FormatJSON))
		data, err := s.Marshal(instant)
		require.NoError(t, err)
		assert.Equal(t, `"2024-05-06T12:13:14Z"`, string(data))

		var out time.Time
		require.NoError(t, s.Unmarshal(data, &out))
		assert.True(t, instant.Equal(out))
	})

	t.Run("unix seconds", func(t *testing.T) {
		s := newSerializer(t,
			serializer.WithFormat(tagval.FormatJSON),
			serializer.WithTimeFormat(serializer.TimeUnix))
		data, err := s.Marshal(instant)
		require.NoError(t, err)
		assert.Equal(t, "1714997594", string(data))

		var out time.Time
		require.NoError(t, s.Unmarshal(data, &out))
		assert.True(t, instant.Equal(out))
	})

	t.Run("tags on the wire", func(t *testing.T) {
		s := newSerializer(t)
		val, err := s.Serialize(instant)
		require.NoError(t, err)
		assert.Equal(t, tagval.TagDateTimeString, val.Tag())
		assert.Equal(t, tagval.KindString, val.Kind())
	})

	t.Run("bad string input", func(t *testing.T) {
		s := newSerializer(t, serializer.WithFormat(tagval.FormatJSON))
		var out time.Time
		err := s.Unmarshal([]byte(`"yesterday"`), &out)
		require.Error(t, err)
		assert.ErrorIs(t, err, serializer.ErrInvalidValue)
	})
}

func TestDurationConverter(t *testing.T) {
	s := newSerializer(t, serializer.WithFormat(tagval.FormatJSON))

	data, err := s.Marshal(90 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, `"1h30m0s"`, string(data))

	var out time.Duration
	require.NoError(t, s.Unmarshal(data, &out))
	assert.Equal(t, 90*time.Minute, out)

	// raw nanosecond counts are accepted too
	require.NoError(t, s.Unmarshal([]byte("1500000000"), &out))
	assert.Equal(t, 1500*time.Millisecond, out)

	err = s.Unmarshal([]byte(`"ages"`), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, serializer.ErrInvalidValue)
}

func TestUUIDConverter(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	t.Run("json uses canonical text", func(t *testing.T) {
		s := newSerializer(t, serializer.WithFormat(tagval.FormatJSON))
		data, err := s.Marshal(id)
		require.NoError(t, err)
		assert.Equal(t, `"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`, string(data))

		var out uuid.UUID
		require.NoError(t, s.Unmarshal(data, &out))
		assert.Equal(t, id, out)
	})

	t.Run("cbor uses tagged bytes", func(t *testing.T) {
		s := newSerializer(t)
		val, err := s.Serialize(id)
		require.NoError(t, err)
		assert.Equal(t, tagval.TagUUID, val.Tag())
		assert.Equal(t, tagval.KindBytes, val.Kind())
		assert.Equal(t, id[:], val.AsBytes())

		assert.Equal(t, id, roundTrip(t, s, id))
	})

	t.Run("bad input", func(t *testing.T) {
		s := newSerializer(t, serializer.WithFormat(tagval.FormatJSON))
		var out uuid.UUID
		err := s.Unmarshal([]byte(`"not-a-uuid"`), &out)
		require.Error(t, err)
		assert.ErrorIs(t, err, serializer.ErrInvalidValue)
	})
}

func TestURLConverter(t *testing.T) {
	s := newSerializer(t, serializer.WithFormat(tagval.FormatJSON))

	u, err := url.Parse("https://example.com/a%20b?x=1#frag")
	require.NoError(t, err)

	data, err := s.Marshal(*u)
	require.NoError(t, err)
	assert.Equal(t, `"https://example.com/a%20b?x=1#frag"`, string(data))

	var out url.URL
	require.NoError(t, s.Unmarshal(data, &out))
	assert.Equal(t, *u, out)

	val, err := s.Serialize(*u)
	require.NoError(t, err)
	assert.Equal(t, tagval.TagURI, val.Tag())
}

func TestSemverConverter(t *testing.T) {
	s := newSerializer(t, serializer.WithFormat(tagval.FormatJSON))

	ver := semver.MustParse("1.4.2-rc.1+build.5")
	data, err := s.Marshal(*ver)
	require.NoError(t, err)
	assert.Equal(t, `"1.4.2-rc.1+build.5"`, string(data))

	var out semver.Version
	require.NoError(t, s.Unmarshal(data, &out))
	assert.Equal(t, *ver, out)

	err = s.Unmarshal([]byte(`"not.a.version"`), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, serializer.ErrInvalidValue)
}

type testColor int

const (
	colorRed testColor = iota
	colorGreen
	colorBlue
)

func registerColors(t *testing.T, s *serializer.Serializer) {
	t.Helper()
	require.NoError(t, serializer.RegisterEnum(s, map[testColor]string{
		colorRed:   "red",
		colorGreen: "green",
		colorBlue:  "blue",
	}))
}

func TestEnumConverter(t *testing.T) {
	t.Run("as value by default", func(t *testing.T) {
		s := newSerializer(t, serializer.WithFormat(tagval.FormatJSON))
		registerColors(t, s)

		data, err := s.Marshal(colorGreen)
		require.NoError(t, err)
		assert.Equal(t, "1", string(data))

		var out testColor
		require.NoError(t, s.Unmarshal(data, &out))
		assert.Equal(t, colorGreen, out)
	})

	t.Run("as string when configured", func(t *testing.T) {
		s := newSerializer(t,
			serializer.WithFormat(tagval.FormatJSON),
			serializer.WithEnumAsString(true))
		registerColors(t, s)

		data, err := s.Marshal(colorBlue)
		require.NoError(t, err)
		assert.Equal(t, `"blue"`, string(data))

		var out testColor
		require.NoError(t, s.Unmarshal(data, &out))
		assert.Equal(t, colorBlue, out)
	})

	t.Run("string input accepted without the option", func(t *testing.T) {
		s := newSerializer(t, serializer.WithFormat(tagval.FormatJSON))
		registerColors(t, s)

		var out testColor
		require.NoError(t, s.Unmarshal([]byte(`"red"`), &out))
		assert.Equal(t, colorRed, out)
	})

	t.Run("unknown value fails", func(t *testing.T) {
		s := newSerializer(t,
			serializer.WithFormat(tagval.FormatJSON),
			serializer.WithEnumAsString(true))
		registerColors(t, s)

		_, err := s.Marshal(testColor(99))
		require.Error(t, err)
		assert.ErrorIs(t, err, serializer.ErrUnknownEnumValue)

		var out testColor
		err = s.Unmarshal([]byte(`"purple"`), &out)
		require.Error(t, err)
		assert.ErrorIs(t, err, serializer.ErrUnknownEnumValue)
	})
}

type testPerm uint8

const (
	permRead  testPerm = 1 << iota // 1
	permWrite                      // 2
	permExec                       // 4
)

func registerPerms(t *testing.T, s *serializer.Serializer) {
	t.Helper()
	require.NoError(t, serializer.RegisterFlags(s, map[testPerm]string{
		permRead:  "Read",
		permWrite: "Write",
		permExec:  "Exec",
	}))
}

func TestFlagsConverter(t *testing.T) {
	t.Run("joined names", func(t *testing.T) {
		s := newSerializer(t,
			serializer.WithFormat(tagval.FormatJSON),
			serializer.WithEnumAsString(true))
		registerPerms(t, s)

		data, err := s.Marshal(permRead | permExec)
		require.NoError(t, err)
		assert.Equal(t, `"Read|Exec"`, string(data))

		var out testPerm
		require.NoError(t, s.Unmarshal(data, &out))
		assert.Equal(t, permRead|permExec, out)
	})

	t.Run("joined names accepted without the option", func(t *testing.T) {
		s := newSerializer(t, serializer.WithFormat(tagval.FormatJSON))
		registerPerms(t, s)

		var out testPerm
		require.NoError(t, s.Unmarshal([]byte(`"Write|Exec"`), &out))
		assert.Equal(t, permWrite|permExec, out)
	})

	t.Run("empty set", func(t *testing.T) {
		s := newSerializer(t,
			serializer.WithFormat(tagval.FormatJSON),
			serializer.WithEnumAsString(true))
		registerPerms(t, s)

		data, err := s.Marshal(testPerm(0))
		require.NoError(t, err)
		assert.Equal(t, `""`, string(data))

		var out testPerm
		require.NoError(t, s.Unmarshal(data, &out))
		assert.Equal(t, testPerm(0), out)
	})

	t.Run("unknown bit fails", func(t *testing.T) {
		s := newSerializer(t,
			serializer.WithFormat(tagval.FormatJSON),
			serializer.WithEnumAsString(true))
		registerPerms(t, s)

		_, err := s.Marshal(permRead | testPerm(64))
		require.Error(t, err)
		assert.ErrorIs(t, err, serializer.ErrUnknownEnumValue)
	})
}

func TestPairConverter(t *testing.T) {
	for _, format := range []tagval.Format{tagval.FormatCBOR, tagval.FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			s := newSerializer(t, serializer.WithFormat(format))
			in := serializer.NewPair("answer", 42)
			assert.Equal(t, in, roundTrip(t, s, in))
		})
	}

	t.Run("renders as two element array", func(t *testing.T) {
		s := newSerializer(t, serializer.WithFormat(tagval.FormatJSON))
		data, err := s.Marshal(serializer.NewPair("answer", 42))
		require.NoError(t, err)
		assert.Equal(t, `["answer",42]`, string(data))
	})

	t.Run("wrong arity fails", func(t *testing.T) {
		s := newSerializer(t, serializer.WithFormat(tagval.FormatJSON))
		var out serializer.Pair[string, int]
		err := s.Unmarshal([]byte(`["only one"]`), &out)
		require.Error(t, err)
		assert.ErrorIs(t, err, serializer.ErrInvalidValue)
	})

	t.Run("nested pairs", func(t *testing.T) {
		s := newSerializer(t)
		in := serializer.NewPair(serializer.NewPair(1, 2), "outer")
		assert.Equal(t, in, roundTrip(t, s, in))
	})
}

func TestEnumKeyedMap(t *testing.T) {
	for _, format := range []tagval.Format{tagval.FormatCBOR, tagval.FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			s := newSerializer(t, serializer.WithFormat(format))
			registerColors(t, s)

			in := map[testColor]int{colorRed: 1, colorBlue: 3}
			assert.Equal(t, in, roundTrip(t, s, in))
		})
	}

	t.Run("keys are always names", func(t *testing.T) {
		// enum-as-string is off, keys still travel by name
		s := newSerializer(t, serializer.WithFormat(tagval.FormatJSON))
		registerColors(t, s)

		data, err := s.Marshal(map[testColor]int{colorRed: 1, colorBlue: 3})
		require.NoError(t, err)
		assert.Equal(t, `{"blue":3,"red":1}`, string(data))
	})
}
