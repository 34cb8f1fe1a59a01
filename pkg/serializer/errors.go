package serializer

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// registry
	ErrNoConverter     = errors.New("no converter registered for type")
	ErrConverterExists = errors.New("a converter with this name already exists")

	// dispatch
	ErrTagMismatch  = errors.New("value tag not allowed by converter")
	ErrKindMismatch = errors.New("value kind not allowed by converter")

	// conversion
	ErrUnsupportedType  = errors.New("type cannot be serialized")
	ErrUnexpectedNull   = errors.New("null is not allowed for a non-pointer target")
	ErrUnknownEnumValue = errors.New("value not found in enum registration")
	ErrUnknownTypeName  = errors.New("type name not registered")
	ErrTypeRegistered   = errors.New("type already registered")
	ErrInvalidValue     = errors.New("value cannot be represented in the target type")
	ErrExtraField       = errors.New("input contains an unknown field")
	ErrMissingField     = errors.New("input is missing a required field")

	// usage
	ErrNilTarget     = errors.New("deserialization target must be a non-nil pointer")
	ErrDepthExceeded = errors.New("maximum recursion depth exceeded")
)

// SerializationError is the error type of every failed serialization. The
// wrapped cause chain carries the path to the failing field or element.
type SerializationError struct {
	Type reflect.Type
	Err  error
}

func (e *SerializationError) Error() string {
	if e.Type != nil {
		return fmt.Sprintf("serializing %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("serializing: %v", e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// DeserializationError is the error type of every failed deserialization.
type DeserializationError struct {
	Type reflect.Type
	Err  error
}

func (e *DeserializationError) Error() string {
	if e.Type != nil {
		return fmt.Sprintf("deserializing into %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("deserializing: %v", e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

func IsSerializationError(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}

func IsDeserializationError(err error) bool {
	var de *DeserializationError
	return errors.As(err, &de)
}

// serializationError wraps err exactly once per direction.
func serializationError(t reflect.Type, err error) error {
	if err == nil {
		return nil
	}
	if IsSerializationError(err) {
		return err
	}
	return &SerializationError{Type: t, Err: err}
}

func deserializationError(t reflect.Type, err error) error {
	if err == nil {
		return nil
	}
	if IsDeserializationError(err) {
		return err
	}
	return &DeserializationError{Type: t, Err: err}
}
