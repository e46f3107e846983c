package parser

import (
	"fmt"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// LoaderCapability decodes a serialized document into structured data. The
// param selects the format: "json" (also the default for an empty param),
// "yaml"/"yml" or "toml". The value is unused. List input fans out, so a
// list of JSON strings decodes element by element.
type LoaderCapability struct{}

// NewLoaderCapability returns the loader capability.
func NewLoaderCapability() *LoaderCapability {
	return &LoaderCapability{}
}

func (l *LoaderCapability) Name() string { return "loader" }

func (l *LoaderCapability) AcceptsList() bool { return false }

func (l *LoaderCapability) Evaluate(input any, param string, value any) (any, error) {
	s, err := inputText("loader", input)
	if err != nil {
		return nil, err
	}

	switch param {
	case "", "json":
		var out any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, fmt.Errorf("loader: decode json: %w", err)
		}
		return out, nil
	case "yaml", "yml":
		var out any
		if err := yaml.Unmarshal([]byte(s), &out); err != nil {
			return nil, fmt.Errorf("loader: decode yaml: %w", err)
		}
		return out, nil
	case "toml":
		var out map[string]any
		if err := toml.Unmarshal([]byte(s), &out); err != nil {
			return nil, fmt.Errorf("loader: decode toml: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("loader: unknown format %q", param)
}
