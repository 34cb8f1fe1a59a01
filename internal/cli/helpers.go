package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"

	"github.com/tagwire/tagwire/pkg/tagval"
)

const (
	cborFormat = "cbor"
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var legalFormats = []string{cborFormat, jsonFormat, yamlFormat}

func legalFormatList() string {
	return strings.Join(legalFormats, ", ")
}

// docFormat covers the library wire formats plus the YAML projection the
// CLI layers on top of JSON.
type docFormat string

func parseDocFormat(s string) (docFormat, error) {
	switch strings.ToLower(s) {
	case cborFormat, jsonFormat, yamlFormat:
		return docFormat(strings.ToLower(s)), nil
	default:
		return "", fmt.Errorf("unknown format %q, must be one of (%s)", s, legalFormatList())
	}
}

// guessDocFormat picks a format from a file extension, "" when the
// extension says nothing.
func guessDocFormat(path string) docFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cbor":
		return cborFormat
	case ".json":
		return jsonFormat
	case ".yaml", ".yml":
		return yamlFormat
	default:
		return ""
	}
}

func decodeDocument(data []byte, f docFormat) (tagval.Value, error) {
	var v tagval.Value
	switch f {
	case yamlFormat:
		jsonBytes, err := yaml.YAMLToJSON(data)
		if err != nil {
			return tagval.Value{}, fmt.Errorf("converting yaml: %w", err)
		}
		if err := v.UnmarshalJSON(jsonBytes); err != nil {
			return tagval.Value{}, err
		}
	case jsonFormat:
		if err := v.UnmarshalJSON(data); err != nil {
			return tagval.Value{}, err
		}
	default:
		if err := v.UnmarshalCBOR(data); err != nil {
			return tagval.Value{}, err
		}
	}
	return v, nil
}

func encodeDocument(v tagval.Value, f docFormat, indent int) ([]byte, error) {
	switch f {
	case yamlFormat:
		jsonBytes, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		return yaml.JSONToYAML(jsonBytes)
	case jsonFormat:
		data, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		if indent > 0 {
			var buf bytes.Buffer
			if err := json.Indent(&buf, data, "", strings.Repeat(" ", indent)); err != nil {
				return nil, err
			}
			buf.WriteByte('\n')
			data = buf.Bytes()
		}
		return data, nil
	default:
		return v.MarshalCBOR()
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func inputName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

func validateAgainstSchema(schemaPath string, v tagval.Value) error {
	sch, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}
	jsonBytes, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(jsonBytes, &doc); err != nil {
		return err
	}
	return sch.Validate(doc)
}
