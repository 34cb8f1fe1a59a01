package serializer

import (
	"fmt"
	"net/url"
	"reflect"

	"github.com/tagwire/tagwire/pkg/tagval"
)

var urlType = reflect.TypeOf(url.URL{})

// urlConverter writes url.URL as a tagged URI string.
type urlConverter struct{}

func newURLConverter() *urlConverter { return &urlConverter{} }

var (
	_ Converter   = (*urlConverter)(nil)
	_ TypeGuesser = (*urlConverter)(nil)
)

func (c *urlConverter) Name() string       { return "url" }
func (c *urlConverter) Priority() Priority { return PriorityStandard }

func (c *urlConverter) CanConvert(t reflect.Type) bool {
	return t == urlType
}

func (c *urlConverter) Tags(reflect.Type) []uint64 {
	return []uint64{tagval.TagURI}
}

func (c *urlConverter) Kinds(reflect.Type, uint64) []tagval.Kind {
	return []tagval.Kind{tagval.KindString}
}

func (c *urlConverter) Serialize(_ Helper, v reflect.Value) (tagval.Value, error) {
	u := v.Interface().(url.URL)
	return tagval.String(u.String()).WithTag(tagval.TagURI), nil
}

func (c *urlConverter) Deserialize(_ Helper, _ reflect.Type, val tagval.Value) (reflect.Value, error) {
	u, err := url.Parse(val.AsString())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return reflect.ValueOf(*u), nil
}

func (c *urlConverter) GuessType(tag uint64, _ tagval.Kind) (reflect.Type, bool) {
	if tag == tagval.TagURI {
		return urlType, true
	}
	return nil, false
}
