package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile decodes a YAML or JSON file into v. A path of "-" reads stdin.
func LoadFile(path string, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("cli: read %s: %w", path, err)
	}
	return ParseFile(data, path, v)
}

// ParseFile decodes data as YAML or JSON, chosen by the file extension.
// Other names are tried as YAML, which also accepts JSON.
func ParseFile(data []byte, name string, v any) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("cli: parse json %s: %w", name, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("cli: parse yaml %s: %w", name, err)
	}
	return nil
}
