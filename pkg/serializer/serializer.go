package serializer

import (
	"fmt"
	"io"
	"reflect"

	"github.com/tagwire/tagwire/pkg/log"
	"github.com/tagwire/tagwire/pkg/tagval"
)

// Serializer converts Go values to and from their CBOR or JSON wire form
// through a chain of prioritized type converters. A Serializer is safe for
// concurrent use once constructed; converters and type registrations may
// be added at any time.
type Serializer struct {
	cfg      Config
	registry *registry
	types    *typeRegistry
	log      *log.PrefixLogger
}

func New(opts ...Option) (*Serializer, error) {
	s := &Serializer{
		cfg:      defaultConfig(),
		registry: newRegistry(),
		types:    newTypeRegistry(),
		log:      log.NewPrefixLogger("serializer"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if err := s.registerBuiltins(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerBuiltins seeds the converter chain, most specific first.
func (s *Serializer) registerBuiltins() error {
	builtins := []Converter{
		newBytesConverter(),
		newTimeConverter(),
		newDurationConverter(),
		newUUIDConverter(),
		newURLConverter(),
		newSemverConverter(),
		newEnumConverter(s.types),
		newPairConverter(),
		newListConverter(),
		newMapConverter(s.types),
		newStructConverter(),
		newAnyConverter(s.registry, s.types),
	}
	for _, c := range builtins {
		if err := s.registry.add(c, true); err != nil {
			return err
		}
	}
	return nil
}

// AddConverter registers a user converter. At equal priority user
// converters are consulted before built-ins.
func (s *Serializer) AddConverter(c Converter) error {
	return s.registry.add(c, false)
}

// ConverterFor reports which converter would handle t. Types served by the
// primitive fast path have no converter and return ErrNoConverter.
func (s *Serializer) ConverterFor(t reflect.Type) (Converter, error) {
	if conv, ok := s.registry.lookup(t); ok {
		return conv, nil
	}
	return nil, fmt.Errorf("%w: %s", unconvertible(t), t)
}

// GuessType asks the registered converters for a Go type matching an
// incoming tag and kind, in converter selection order.
func (s *Serializer) GuessType(tag uint64, kind tagval.Kind) (reflect.Type, bool) {
	return s.registry.guessType(tag, kind)
}

// Config returns a copy of the active configuration.
func (s *Serializer) Config() Config {
	return s.cfg
}

func (s *Serializer) Format() tagval.Format {
	return s.cfg.Format
}

// Serialize converts v into its tagged value form. Failures are reported
// as a *SerializationError; no partial result is returned.
func (s *Serializer) Serialize(v any) (tagval.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return tagval.Null(), nil
	}
	val, err := newState(s).serialize(rv)
	if err != nil {
		return tagval.Value{}, serializationError(rv.Type(), err)
	}
	return val, nil
}

// Deserialize fills target, which must be a non-nil pointer, from val.
// Failures are reported as a *DeserializationError and leave the target
// untouched.
func (s *Serializer) Deserialize(val tagval.Value, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return deserializationError(reflect.TypeOf(target), ErrNilTarget)
	}
	out, err := newState(s).deserialize(rv.Type().Elem(), val)
	if err != nil {
		return deserializationError(rv.Type().Elem(), err)
	}
	rv.Elem().Set(out)
	return nil
}

// Marshal serializes v and encodes it in the configured wire format.
func (s *Serializer) Marshal(v any) ([]byte, error) {
	val, err := s.Serialize(v)
	if err != nil {
		return nil, err
	}
	var data []byte
	switch s.cfg.Format {
	case tagval.FormatJSON:
		data, err = val.MarshalJSON()
	default:
		data, err = val.MarshalCBOR()
	}
	if err != nil {
		return nil, serializationError(reflect.TypeOf(v), fmt.Errorf("encoding %s: %w", s.cfg.Format, err))
	}
	return data, nil
}

// Unmarshal decodes data in the configured wire format and deserializes it
// into target.
func (s *Serializer) Unmarshal(data []byte, target any) error {
	var val tagval.Value
	var err error
	switch s.cfg.Format {
	case tagval.FormatJSON:
		err = val.UnmarshalJSON(data)
	default:
		err = val.UnmarshalCBOR(data)
	}
	if err != nil {
		return deserializationError(targetType(target), fmt.Errorf("decoding %s: %w", s.cfg.Format, err))
	}
	return s.Deserialize(val, target)
}

// SerializeTo writes the wire form of v to w.
func (s *Serializer) SerializeTo(w io.Writer, v any) error {
	val, err := s.Serialize(v)
	if err != nil {
		return err
	}
	if err := tagval.Encode(w, val, s.cfg.Format); err != nil {
		return serializationError(reflect.TypeOf(v), fmt.Errorf("encoding %s: %w", s.cfg.Format, err))
	}
	return nil
}

// DeserializeFrom reads one document from r and deserializes it into
// target. Malformed input fails with a *DeserializationError.
func (s *Serializer) DeserializeFrom(r io.Reader, target any) error {
	val, err := tagval.Decode(r, s.cfg.Format)
	if err != nil {
		return deserializationError(targetType(target), fmt.Errorf("decoding %s: %w", s.cfg.Format, err))
	}
	return s.Deserialize(val, target)
}

func targetType(target any) reflect.Type {
	t := reflect.TypeOf(target)
	if t != nil && t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}
