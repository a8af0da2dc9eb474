// Package manifest decodes everest.yaml, the manifest shipped at the root of
// every mod archive.
package manifest

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrNoModEntries is returned for a manifest whose list is empty.
var ErrNoModEntries = errors.New("no mod entries found in the manifest file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dependency names another mod. Version is a minimum and may be empty.
type Dependency struct {
	Name    string `yaml:"Name"`
	Version string `yaml:"Version,omitempty"`
}

// Manifest is the first entry of an everest.yaml file.
type Manifest struct {
	Name                 string       `yaml:"Name"`
	Version              string       `yaml:"Version"` // not necessarily semver
	DLL                  string       `yaml:"DLL,omitempty"`
	Dependencies         []Dependency `yaml:"Dependencies,omitempty"`
	OptionalDependencies []Dependency `yaml:"OptionalDependencies,omitempty"`
}

// Parse decodes an everest.yaml document and returns its first entry, which
// describes the mod itself. A leading UTF-8 byte order mark is ignored.
func Parse(data []byte) (*Manifest, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var entries []Manifest
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNoModEntries
	}
	return &entries[0], nil
}

// DependencyNames returns the names of the required dependencies.
func (m *Manifest) DependencyNames() []string {
	return depNames(m.Dependencies)
}

// OptionalDependencyNames returns the names of the optional dependencies.
func (m *Manifest) OptionalDependencyNames() []string {
	return depNames(m.OptionalDependencies)
}

func depNames(deps []Dependency) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		out = append(out, d.Name)
	}
	return out
}
