package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Parse validates data against the manifest schema and decodes it.
func Parse(data []byte) (*PackageManifest, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, &InvalidError{Issues: result.Issues}
	}

	var raw struct {
		Name        json.RawMessage `json:"name"`
		Version     json.RawMessage `json:"version"`
		Description json.RawMessage `json:"description"`
		Main        string          `json:"main"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &PackageManifest{
		Name:        stringOrEmpty(raw.Name),
		Version:     stringOrEmpty(raw.Version),
		Description: stringOrEmpty(raw.Description),
		Main:        raw.Main,
	}, nil
}

// stringOrEmpty decodes a JSON string and returns "" for any other value.
func stringOrEmpty(v json.RawMessage) string {
	var s string
	if len(v) == 0 || json.Unmarshal(v, &s) != nil {
		return ""
	}
	return s
}

// ParseFile reads and parses the manifest at path.
func ParseFile(path string) (*PackageManifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// InvalidError reports schema violations in a manifest.
type InvalidError struct {
	Issues []ValidationIssue
}

func (e *InvalidError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Path == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return "invalid manifest: " + strings.Join(parts, "; ")
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
