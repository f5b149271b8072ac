package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/joho/godotenv"
	jsonitor "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var jsonit = jsonitor.ConfigCompatibleWithStandardLibrary

type templateContext struct {
	ENV map[string]string
}

var missingKeyRegex = regexp.MustCompile(`map has no entry for key "(.*?)"`)

// PreprocessPayload replaces {{ .ENV.VAR }} placeholders with values from the
// environment or a .env file in the working directory.
func PreprocessPayload(input []byte) ([]byte, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	_ = godotenv.Load(filepath.Join(cwd, ".env")) // no error if .env doesn't exist

	envMap := map[string]string{}
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			envMap[k] = v
		}
	}

	tmpl, err := template.New("payload").Option("missingkey=error").Parse(string(input))
	if err != nil {
		return nil, err
	}

	var output bytes.Buffer
	if err := tmpl.Execute(&output, templateContext{ENV: envMap}); err != nil {
		if matches := missingKeyRegex.FindStringSubmatch(err.Error()); len(matches) == 2 {
			return nil, fmt.Errorf("missing environment variable: %s (set it in your shell or .env file)", matches[1])
		}
		return nil, fmt.Errorf("template error: %w", err)
	}
	return output.Bytes(), nil
}

// ReadPayloads reads filename, or stdin for "-", and returns each YAML or JSON
// document in it as a JSON object.
func ReadPayloads(filename string) ([]json.RawMessage, error) {
	var data []byte
	var err error
	if filename == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	data, err = PreprocessPayload(replaceTabsWithSpaces(data))
	if err != nil {
		return nil, err
	}

	docs, err := ParseDocuments(data)
	if err != nil {
		return nil, err
	}
	payloads := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		raw, err := jsonit.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert payload to json: %w", err)
		}
		payloads = append(payloads, raw)
	}
	return payloads, nil
}

// ReadPayload is ReadPayloads for files that must hold exactly one document.
func ReadPayload(filename string) (json.RawMessage, error) {
	payloads, err := ReadPayloads(filename)
	if err != nil {
		return nil, err
	}
	if len(payloads) != 1 {
		return nil, fmt.Errorf("expected one document in %s, found %d", filename, len(payloads))
	}
	return payloads[0], nil
}

// ParseDocuments decodes every non-empty document in data.
func ParseDocuments(data []byte) ([]map[string]any, error) {
	content := strings.TrimSpace(string(data))
	if len(content) == 0 || strings.Trim(content, "- \n\t") == "" {
		return []map[string]any{}, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	var result []map[string]any
	for {
		var doc map[string]any
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
		// trailing --- yields empty documents
		if len(doc) > 0 {
			result = append(result, doc)
		}
	}
	return result, nil
}

func replaceTabsWithSpaces(data []byte) []byte {
	return bytes.ReplaceAll(data, []byte("\t"), []byte("  "))
}
