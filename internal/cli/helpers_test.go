package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagwire/tagwire/pkg/tagval"
)

func TestParseDocFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    docFormat
		wantErr bool
	}{
		{input: "cbor", want: cborFormat},
		{input: "json", want: jsonFormat},
		{input: "yaml", want: yamlFormat},
		{input: "JSON", want: jsonFormat},
		{input: "xml", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDocFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuessDocFormat(t *testing.T) {
	assert.Equal(t, docFormat(cborFormat), guessDocFormat("data/doc.cbor"))
	assert.Equal(t, docFormat(jsonFormat), guessDocFormat("doc.JSON"))
	assert.Equal(t, docFormat(yamlFormat), guessDocFormat("doc.yml"))
	assert.Equal(t, docFormat(yamlFormat), guessDocFormat("doc.yaml"))
	assert.Equal(t, docFormat(""), guessDocFormat("doc.txt"))
	assert.Equal(t, docFormat(""), guessDocFormat("-"))
	assert.Equal(t, docFormat(""), guessDocFormat(""))
}

func TestDecodeEncodeYAML(t *testing.T) {
	require := require.New(t)

	doc, err := decodeDocument([]byte("name: dev-1\nports:\n- 80\n- 443\n"), yamlFormat)
	require.NoError(err)
	require.Equal(tagval.KindMap, doc.Kind())

	name, ok := doc.Lookup("name")
	require.True(ok)
	require.Equal("dev-1", name.AsString())

	out, err := encodeDocument(doc, jsonFormat, 0)
	require.NoError(err)
	require.JSONEq(`{"name":"dev-1","ports":[80,443]}`, string(out))
}

func TestEncodeJSONIndent(t *testing.T) {
	require := require.New(t)

	doc := tagval.Map(
		tagval.Member{Key: tagval.String("a"), Value: tagval.Int(1)},
	)
	out, err := encodeDocument(doc, jsonFormat, 2)
	require.NoError(err)
	require.Equal("{\n  \"a\": 1\n}\n", string(out))
}

func TestMemberPath(t *testing.T) {
	assert.Equal(t, "$.name", memberPath("$", tagval.String("name")))
	assert.Equal(t, "$.@type", memberPath("$", tagval.String("@type")))
	assert.Equal(t, `$["first name"]`, memberPath("$", tagval.String("first name")))
	assert.Equal(t, "$[7]", memberPath("$", tagval.Int(7)))
}

func TestTagLabel(t *testing.T) {
	assert.Equal(t, "-", tagLabel(tagval.Int(1)))
	assert.Equal(t, "37 (UUID)", tagLabel(tagval.Bytes([]byte{1}).WithTag(tagval.TagUUID)))
	assert.Equal(t, "4711", tagLabel(tagval.Int(1).WithTag(4711)))
}
