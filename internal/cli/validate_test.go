package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"},
		"ports": {"type": "array", "items": {"type": "integer"}}
	}
}`

func TestValidateWellFormedOnly(t *testing.T) {
	require := require.New(t)

	dir := newTestWorkdir(t)
	input := filepath.Join(dir, "doc.json")
	require.NoError(os.WriteFile(input, []byte(`{"name":"dev-1"}`), 0600))

	cmd := NewCmdValidate()
	cmd.SetArgs([]string{input})
	require.NoError(cmd.Execute())
}

func TestValidateAgainstSchema(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "matching document",
			doc:  `{"name":"dev-1","ports":[80,443]}`,
		},
		{
			name:    "missing required member",
			doc:     `{"ports":[80]}`,
			wantErr: true,
		},
		{
			name:    "wrong member type",
			doc:     `{"name":"dev-1","ports":["http"]}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			dir := newTestWorkdir(t)
			schema := filepath.Join(dir, "schema.json")
			input := filepath.Join(dir, "doc.json")
			require.NoError(os.WriteFile(schema, []byte(testSchema), 0600))
			require.NoError(os.WriteFile(input, []byte(tt.doc), 0600))

			cmd := NewCmdValidate()
			cmd.SetArgs([]string{input, "--schema", schema})
			err := cmd.Execute()
			if tt.wantErr {
				require.Error(err)
				return
			}
			require.NoError(err)
		})
	}
}

func TestValidateMalformedDocument(t *testing.T) {
	require := require.New(t)

	dir := newTestWorkdir(t)
	input := filepath.Join(dir, "doc.json")
	require.NoError(os.WriteFile(input, []byte(`{"name":`), 0600))

	cmd := NewCmdValidate()
	cmd.SetArgs([]string{input})
	err := cmd.Execute()
	require.Error(err)
	require.Contains(err.Error(), "not well formed")
}
