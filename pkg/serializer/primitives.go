package serializer

import (
	"fmt"
	"math"
	"reflect"

	"github.com/tagwire/tagwire/pkg/tagval"
)

// primitiveValue maps scalar kinds straight to tagged values; no converter
// is involved.
func primitiveValue(v reflect.Value) (tagval.Value, bool) {
	switch v.Kind() {
	case reflect.Bool:
		return tagval.Bool(v.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return tagval.Int(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return tagval.Uint(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return tagval.Float(v.Float()), true
	case reflect.String:
		return tagval.String(v.String()), true
	default:
		return tagval.Value{}, false
	}
}

// primitiveTarget fills scalar target kinds. Integral floats narrow to
// integer targets; everything else is strict.
func primitiveTarget(t reflect.Type, val tagval.Value) (reflect.Value, bool, error) {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		if val.Kind() != tagval.KindBool {
			return reflect.Value{}, true, conversionError(val, t)
		}
		out.SetBool(val.AsBool())
		return out, true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := intPayload(val, t)
		if err != nil {
			return reflect.Value{}, true, err
		}
		if out.OverflowInt(i) {
			return reflect.Value{}, true, fmt.Errorf("%w: %d overflows %s", ErrInvalidValue, i, t)
		}
		out.SetInt(i)
		return out, true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, err := intPayload(val, t)
		if err != nil {
			return reflect.Value{}, true, err
		}
		if i < 0 || out.OverflowUint(uint64(i)) {
			return reflect.Value{}, true, fmt.Errorf("%w: %d overflows %s", ErrInvalidValue, i, t)
		}
		out.SetUint(uint64(i))
		return out, true, nil
	case reflect.Float32, reflect.Float64:
		switch val.Kind() {
		case tagval.KindInt, tagval.KindFloat:
			f := val.AsFloat()
			if out.OverflowFloat(f) {
				return reflect.Value{}, true, fmt.Errorf("%w: %g overflows %s", ErrInvalidValue, f, t)
			}
			out.SetFloat(f)
			return out, true, nil
		default:
			return reflect.Value{}, true, conversionError(val, t)
		}
	case reflect.String:
		if val.Kind() != tagval.KindString {
			return reflect.Value{}, true, conversionError(val, t)
		}
		out.SetString(val.AsString())
		return out, true, nil
	default:
		return reflect.Value{}, false, nil
	}
}

func intPayload(val tagval.Value, t reflect.Type) (int64, error) {
	switch val.Kind() {
	case tagval.KindInt:
		return val.AsInt(), nil
	case tagval.KindFloat:
		f := val.AsFloat()
		if f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %g is not an integer for %s", ErrInvalidValue, f, t)
		}
		return int64(f), nil
	default:
		return 0, conversionError(val, t)
	}
}

func conversionError(val tagval.Value, t reflect.Type) error {
	return fmt.Errorf("%w: cannot convert %s into %s", ErrInvalidValue, val.Kind(), t)
}
