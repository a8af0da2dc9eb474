// Package registry loads the online mod database: the registry snapshot
// (everest_update.yaml) and the dependency graph (mod_dependency_graph.yaml).
// Both are immutable once loaded and safe for concurrent reads.
package registry

import (
	"sort"

	"github.com/everest-mods/everest-mod-cli/internal/modpackage"
	"gopkg.in/yaml.v3"
)

// Registry maps mod names to their registry records.
type Registry struct {
	mods map[string]modpackage.RemoteModInfo
}

// NewRegistry wraps mods. The map must not be modified afterwards.
func NewRegistry(mods map[string]modpackage.RemoteModInfo) *Registry {
	if mods == nil {
		mods = map[string]modpackage.RemoteModInfo{}
	}
	return &Registry{mods: mods}
}

// ParseRegistry decodes an everest_update.yaml document.
func ParseRegistry(data []byte) (*Registry, error) {
	var mods map[string]modpackage.RemoteModInfo
	if err := yaml.Unmarshal(data, &mods); err != nil {
		return nil, err
	}
	return NewRegistry(mods), nil
}

// Lookup returns the record registered under name.
func (r *Registry) Lookup(name string) (modpackage.RemoteModInfo, bool) {
	info, ok := r.mods[name]
	return info, ok
}

// ModNamesByID returns, sorted, every mod published on GameBanana page id.
// One page can host several mods.
func (r *Registry) ModNamesByID(id uint32) []string {
	var names []string
	for name, info := range r.mods {
		if info.GameBananaID == id {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered mods.
func (r *Registry) Len() int {
	return len(r.mods)
}

// Dependency is one edge of the dependency graph. Version is the minimum
// version the dependent was built against; it is informational.
type Dependency struct {
	Name    string `yaml:"Name"`
	Version string `yaml:"Version"`
}

// DependencyRecord lists what a mod needs.
type DependencyRecord struct {
	Dependencies         []Dependency `yaml:"Dependencies"`
	OptionalDependencies []Dependency `yaml:"OptionalDependencies"`
}

// DependencyGraph maps mod names to their dependency records.
type DependencyGraph struct {
	records map[string]DependencyRecord
}

// NewDependencyGraph wraps records. The map must not be modified afterwards.
func NewDependencyGraph(records map[string]DependencyRecord) *DependencyGraph {
	if records == nil {
		records = map[string]DependencyRecord{}
	}
	return &DependencyGraph{records: records}
}

// ParseDependencyGraph decodes a mod_dependency_graph.yaml document.
func ParseDependencyGraph(data []byte) (*DependencyGraph, error) {
	var records map[string]DependencyRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return NewDependencyGraph(records), nil
}

// Dependencies returns the names name requires. A mod without a record has
// no dependencies.
func (g *DependencyGraph) Dependencies(name string) []string {
	return names(g.records[name].Dependencies)
}

// OptionalDependencies returns the names name can use when present.
func (g *DependencyGraph) OptionalDependencies(name string) []string {
	return names(g.records[name].OptionalDependencies)
}

// Record returns the full record for name.
func (g *DependencyGraph) Record(name string) (DependencyRecord, bool) {
	rec, ok := g.records[name]
	return rec, ok
}

// Len returns the number of records.
func (g *DependencyGraph) Len() int {
	return len(g.records)
}

func names(deps []Dependency) []string {
	if len(deps) == 0 {
		return nil
	}
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		out = append(out, d.Name)
	}
	return out
}
