package serializer

import (
	"reflect"

	"github.com/tagwire/tagwire/pkg/log"
	"github.com/tagwire/tagwire/pkg/tagval"
)

// Priority orders converter selection. Higher priorities are consulted
// first. Converters sharing a priority are consulted in registration
// order, user converters before built-ins.
type Priority int

const (
	PriorityVeryLow  Priority = -100
	PriorityLow      Priority = -10
	PriorityStandard Priority = 0
	PriorityHigh     Priority = 10
	PriorityVeryHigh Priority = 100
)

// Converter turns Go values of the types it accepts into tagged values and
// back. Implementations MUST be safe for concurrent use; the dispatcher
// calls them from any goroutine.
type Converter interface {
	// Name identifies the converter in diagnostics. Names MUST be unique
	// within a serializer.
	Name() string
	// Priority orders this converter against the others.
	Priority() Priority
	// CanConvert reports whether the converter handles values of type t.
	// The first matching converter in selection order wins.
	CanConvert(t reflect.Type) bool
	// Tags lists the tag numbers the converter accepts on incoming values
	// of type t. An empty result means any tag; untagged values are always
	// admitted.
	Tags(t reflect.Type) []uint64
	// Kinds lists the content kinds the converter accepts for type t when
	// the incoming value carries the given tag (tagval.NoTag when
	// untagged). An empty result means any kind.
	Kinds(t reflect.Type, tag uint64) []tagval.Kind
	// Serialize converts v into its tagged value form. Child values MUST
	// be converted through h, never directly.
	Serialize(h Helper, v reflect.Value) (tagval.Value, error)
	// Deserialize produces a value of exactly type t from val. The engine
	// has already checked val against Tags and Kinds.
	Deserialize(h Helper, t reflect.Type, val tagval.Value) (reflect.Value, error)
}

// TypeGuesser is an optional converter capability: mapping an incoming tag
// and kind to a concrete Go type, so deserialization can pick a type when
// the target is an empty interface.
type TypeGuesser interface {
	GuessType(tag uint64, kind tagval.Kind) (reflect.Type, bool)
}

// Helper re-enters the serializer from inside a converter.
type Helper interface {
	// SerializeSubtype dispatches a child value through the registry.
	SerializeSubtype(v reflect.Value) (tagval.Value, error)
	// DeserializeSubtype dispatches a child value into type t.
	DeserializeSubtype(t reflect.Type, val tagval.Value) (reflect.Value, error)
	// Format reports the active wire format.
	Format() tagval.Format
	// Config returns the serializer configuration in effect for this call.
	Config() *Config
	// Logger returns the serializer's logger.
	Logger() *log.PrefixLogger
}
