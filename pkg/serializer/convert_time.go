package serializer

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/tagwire/tagwire/pkg/tagval"
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
)

// timeConverter writes time.Time either as an RFC 3339 string under tag 0
// or as Unix seconds under tag 1, depending on the configured time format.
// It accepts either representation on the way back in.
type timeConverter struct{}

func newTimeConverter() *timeConverter { return &timeConverter{} }

var (
	_ Converter   = (*timeConverter)(nil)
	_ TypeGuesser = (*timeConverter)(nil)
)

func (c *timeConverter) Name() string       { return "time" }
func (c *timeConverter) Priority() Priority { return PriorityStandard }

func (c *timeConverter) CanConvert(t reflect.Type) bool {
	return t == timeType
}

func (c *timeConverter) Tags(reflect.Type) []uint64 {
	return []uint64{tagval.TagDateTimeString, tagval.TagEpochDateTime}
}

func (c *timeConverter) Kinds(_ reflect.Type, tag uint64) []tagval.Kind {
	switch tag {
	case tagval.TagDateTimeString:
		return []tagval.Kind{tagval.KindString}
	case tagval.TagEpochDateTime:
		return []tagval.Kind{tagval.KindInt, tagval.KindFloat}
	default:
		return []tagval.Kind{tagval.KindString, tagval.KindInt, tagval.KindFloat}
	}
}

func (c *timeConverter) Serialize(h Helper, v reflect.Value) (tagval.Value, error) {
	ts := v.Interface().(time.Time)
	switch h.Config().TimeFormat {
	case TimeUnix:
		return tagval.Int(ts.Unix()).WithTag(tagval.TagEpochDateTime), nil
	default:
		return tagval.String(ts.Format(time.RFC3339Nano)).WithTag(tagval.TagDateTimeString), nil
	}
}

func (c *timeConverter) Deserialize(_ Helper, _ reflect.Type, val tagval.Value) (reflect.Value, error) {
	switch val.Kind() {
	case tagval.KindString:
		ts, err := time.Parse(time.RFC3339Nano, val.AsString())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return reflect.ValueOf(ts), nil
	case tagval.KindInt:
		return reflect.ValueOf(time.Unix(val.AsInt(), 0).UTC()), nil
	default:
		sec, frac := math.Modf(val.AsFloat())
		return reflect.ValueOf(time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()), nil
	}
}

func (c *timeConverter) GuessType(tag uint64, _ tagval.Kind) (reflect.Type, bool) {
	switch tag {
	case tagval.TagDateTimeString, tagval.TagEpochDateTime:
		return timeType, true
	}
	return nil, false
}

// durationConverter writes time.Duration in its string notation, e.g.
// "1h30m", and also accepts raw nanosecond counts.
type durationConverter struct{}

func newDurationConverter() *durationConverter { return &durationConverter{} }

var _ Converter = (*durationConverter)(nil)

func (c *durationConverter) Name() string       { return "duration" }
func (c *durationConverter) Priority() Priority { return PriorityStandard }

func (c *durationConverter) CanConvert(t reflect.Type) bool {
	return t == durationType
}

func (c *durationConverter) Tags(reflect.Type) []uint64 { return nil }

func (c *durationConverter) Kinds(reflect.Type, uint64) []tagval.Kind {
	return []tagval.Kind{tagval.KindString, tagval.KindInt}
}

func (c *durationConverter) Serialize(_ Helper, v reflect.Value) (tagval.Value, error) {
	return tagval.String(time.Duration(v.Int()).String()), nil
}

func (c *durationConverter) Deserialize(_ Helper, _ reflect.Type, val tagval.Value) (reflect.Value, error) {
	if val.Kind() == tagval.KindInt {
		return reflect.ValueOf(time.Duration(val.AsInt())), nil
	}
	d, err := time.ParseDuration(val.AsString())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return reflect.ValueOf(d), nil
}
