package serializer

import (
	"fmt"
	"reflect"

	"github.com/Masterminds/semver/v3"

	"github.com/tagwire/tagwire/pkg/tagval"
)

var semverType = reflect.TypeOf(semver.Version{})

// semverConverter writes semver.Version in its canonical string form.
type semverConverter struct{}

func newSemverConverter() *semverConverter { return &semverConverter{} }

var _ Converter = (*semverConverter)(nil)

func (c *semverConverter) Name() string       { return "semver" }
func (c *semverConverter) Priority() Priority { return PriorityStandard }

func (c *semverConverter) CanConvert(t reflect.Type) bool {
	return t == semverType
}

func (c *semverConverter) Tags(reflect.Type) []uint64 { return nil }

func (c *semverConverter) Kinds(reflect.Type, uint64) []tagval.Kind {
	return []tagval.Kind{tagval.KindString}
}

func (c *semverConverter) Serialize(_ Helper, v reflect.Value) (tagval.Value, error) {
	ver := v.Interface().(semver.Version)
	return tagval.String(ver.String()), nil
}

func (c *semverConverter) Deserialize(_ Helper, _ reflect.Type, val tagval.Value) (reflect.Value, error) {
	ver, err := semver.NewVersion(val.AsString())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return reflect.ValueOf(*ver), nil
}
