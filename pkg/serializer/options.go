package serializer

import (
	"fmt"

	"github.com/stoewer/go-strcase"

	"github.com/tagwire/tagwire/pkg/log"
	"github.com/tagwire/tagwire/pkg/tagval"
)

// ByteFormat selects the base encoding of byte strings: the tag placed on
// them in CBOR and their text form in JSON.
type ByteFormat uint8

const (
	BytesBase64URL ByteFormat = iota
	BytesBase64
	BytesBase16
)

func (f ByteFormat) tag() uint64 {
	switch f {
	case BytesBase64:
		return tagval.TagExpectedBase64
	case BytesBase16:
		return tagval.TagExpectedBase16
	default:
		return tagval.TagExpectedBase64URL
	}
}

// TimeFormat selects the wire form of time values.
type TimeFormat uint8

const (
	// TimeRFC3339 writes an RFC 3339 string under tag 0.
	TimeRFC3339 TimeFormat = iota
	// TimeUnix writes whole seconds since the epoch under tag 1. Sub-second
	// precision is dropped.
	TimeUnix
)

// NameStyle is the case convention applied to struct field names that
// carry no explicit tag.
type NameStyle uint8

const (
	NameAsIs NameStyle = iota
	NameSnake
	NameCamel
	NameKebab
)

func (n NameStyle) apply(name string) string {
	switch n {
	case NameSnake:
		return strcase.SnakeCase(name)
	case NameCamel:
		return strcase.LowerCamelCase(name)
	case NameKebab:
		return strcase.KebabCase(name)
	default:
		return name
	}
}

// Validation selects the strictness applied to struct deserialization.
type Validation uint8

const (
	ValidationNone Validation = 0
	// ValidationNoExtraFields fails when the input carries members no
	// struct field matches.
	ValidationNoExtraFields Validation = 1 << 0
	// ValidationAllFields fails when a struct field without omitempty has
	// no matching member in the input.
	ValidationAllFields Validation = 1 << 1
	ValidationFull      Validation = ValidationNoExtraFields | ValidationAllFields
)

func (v Validation) Has(flag Validation) bool {
	return v&flag == flag
}

// PolyMode controls type markers on struct values.
type PolyMode uint8

const (
	// PolyDisabled never writes markers; deserializing into a non-empty
	// interface will fail for lack of one.
	PolyDisabled PolyMode = iota
	// PolyEnabled marks registered types stored in interface slots.
	PolyEnabled
	// PolyForced marks every registered struct type wherever it appears.
	PolyForced
)

const DefaultMaxDepth = 64

// Config is the read-only snapshot of serializer behavior that converters
// receive through the Helper.
type Config struct {
	Format           tagval.Format
	AllowDefaultNull bool
	EnumAsString     bool
	ByteFormat       ByteFormat
	ValidateBase64   bool
	TimeFormat       TimeFormat
	FieldNaming      NameStyle
	Validation       Validation
	Polymorphism     PolyMode
	MaxDepth         int
}

func defaultConfig() Config {
	return Config{
		Format:         tagval.FormatCBOR,
		ValidateBase64: true,
		Polymorphism:   PolyEnabled,
		MaxDepth:       DefaultMaxDepth,
	}
}

// Option configures a Serializer during New.
type Option func(*Serializer) error

func WithFormat(f tagval.Format) Option {
	return func(s *Serializer) error {
		s.cfg.Format = f
		return nil
	}
}

// WithAllowDefaultNull makes a null input produce the zero value for
// non-pointer targets instead of failing.
func WithAllowDefaultNull(allow bool) Option {
	return func(s *Serializer) error {
		s.cfg.AllowDefaultNull = allow
		return nil
	}
}

// WithEnumAsString serializes registered enums by name instead of value.
// Deserialization accepts both forms either way.
func WithEnumAsString(asString bool) Option {
	return func(s *Serializer) error {
		s.cfg.EnumAsString = asString
		return nil
	}
}

func WithByteFormat(f ByteFormat) Option {
	return func(s *Serializer) error {
		if f > BytesBase16 {
			return fmt.Errorf("unknown byte format %d", f)
		}
		s.cfg.ByteFormat = f
		return nil
	}
}

// WithValidateBase64 controls whether malformed base text fails byte
// string deserialization or is decoded best effort.
func WithValidateBase64(validate bool) Option {
	return func(s *Serializer) error {
		s.cfg.ValidateBase64 = validate
		return nil
	}
}

func WithTimeFormat(f TimeFormat) Option {
	return func(s *Serializer) error {
		if f > TimeUnix {
			return fmt.Errorf("unknown time format %d", f)
		}
		s.cfg.TimeFormat = f
		return nil
	}
}

func WithFieldNaming(n NameStyle) Option {
	return func(s *Serializer) error {
		if n > NameKebab {
			return fmt.Errorf("unknown name style %d", n)
		}
		s.cfg.FieldNaming = n
		return nil
	}
}

func WithValidation(v Validation) Option {
	return func(s *Serializer) error {
		s.cfg.Validation = v
		return nil
	}
}

func WithPolymorphism(m PolyMode) Option {
	return func(s *Serializer) error {
		if m > PolyForced {
			return fmt.Errorf("unknown polymorphism mode %d", m)
		}
		s.cfg.Polymorphism = m
		return nil
	}
}

func WithMaxDepth(depth int) Option {
	return func(s *Serializer) error {
		if depth <= 0 {
			return fmt.Errorf("max depth must be positive, got %d", depth)
		}
		s.cfg.MaxDepth = depth
		return nil
	}
}

func WithLogger(logger *log.PrefixLogger) Option {
	return func(s *Serializer) error {
		if logger == nil {
			return fmt.Errorf("logger must not be nil")
		}
		s.log = logger
		return nil
	}
}
