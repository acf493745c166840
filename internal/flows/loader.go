package flows

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// candidateFile is the on-disk layout of a flow-candidate file:
//
//	[[flow]]
//	name = "create customer"
//	tier = 1
//	action_type = "create"
//	target_entity = "customer"
//	interaction_ids = [1, 2, 3]
type candidateFile struct {
	Flows []Flow `json:"flows" toml:"flow" yaml:"flows"`
}

// LoadFile reads flow candidates from a .toml, .yaml/.yml or .json file.
func LoadFile(path string) ([]Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	return Decode(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// Decode parses flow candidates in the given format (toml, yaml, yml, json).
func Decode(data []byte, format string) ([]Flow, error) {
	var file candidateFile

	switch format {
	case "toml":
		if _, err := toml.Decode(string(data), &file); err != nil {
			return nil, fmt.Errorf("invalid flow TOML: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("invalid flow YAML: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("invalid flow JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported flow file format: %q", format)
	}

	for i, f := range file.Flows {
		if f.Tier < 0 {
			return nil, fmt.Errorf("flow %d (%s): tier must not be negative", i, f.Name)
		}
	}
	return file.Flows, nil
}
