package scheme

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the on-disk format of a scheme seed file.
type SeedFile struct {
	Schemes []Scheme `yaml:"schemes"`
}

// LoadSeed reads and validates a YAML seed file of schemes.
func LoadSeed(path string) ([]Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scheme: seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes seed YAML bytes and validates every scheme.
func ParseSeed(data []byte) ([]Scheme, error) {
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("scheme: seed: parse: %w", err)
	}
	if len(f.Schemes) == 0 {
		return nil, fmt.Errorf("scheme: seed: no schemes defined")
	}
	seen := make(map[string]bool, len(f.Schemes))
	for i, sc := range f.Schemes {
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("scheme: seed: entry %d: %w", i, err)
		}
		if seen[sc.Name] {
			return nil, fmt.Errorf("scheme: seed: duplicate scheme %q", sc.Name)
		}
		seen[sc.Name] = true
	}
	return f.Schemes, nil
}
