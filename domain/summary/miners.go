package summary

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Miner is one entry of the miners file. Entries may be plain names or mappings.
type Miner struct {
	Name   string `yaml:"name"`
	Pool   string `yaml:"pool,omitempty"`
	Worker string `yaml:"worker,omitempty"`
}

// UnmarshalYAML accepts either a scalar name or a mapping
func (m *Miner) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		m.Name = value.Value
		return nil
	}
	type plain Miner
	return value.Decode((*plain)(m))
}

type minersFile struct {
	Miners []Miner `yaml:"miners"`
}

// LoadMiners reads the miners list from path. The file may be JSON or YAML;
// a missing file yields an empty list.
func LoadMiners(path string) ([]Miner, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read miners file: %w", err)
	}

	var f minersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse miners file %s: %w", path, err)
	}
	return f.Miners, nil
}
