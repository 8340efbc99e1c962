package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"salescharts/internal/core"
)

// regionFile is the on-disk override format:
//
//	provinces:
//	  广东: South China
//	  Macao: Hong Kong, Macau & Taiwan
type regionFile struct {
	Provinces map[string]string `yaml:"provinces"`
}

// LoadRegionTable returns the built-in province table extended with the
// overrides in path. An empty path returns the built-in table unchanged.
func LoadRegionTable(path string) (*core.RegionTable, error) {
	table := core.DefaultRegions()
	if path == "" {
		return table, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read region map: %w", err)
	}
	var f regionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse region map %s: %w", path, err)
	}
	return table.WithOverrides(f.Provinces), nil
}
