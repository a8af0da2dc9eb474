package resolver

import (
	"testing"

	"github.com/everest-mods/everest-mod-cli/internal/modpackage"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/registry"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func graphOf(edges map[string][]string) *registry.DependencyGraph {
	records := make(map[string]registry.DependencyRecord, len(edges))
	for name, deps := range edges {
		var rec registry.DependencyRecord
		for _, d := range deps {
			rec.Dependencies = append(rec.Dependencies, registry.Dependency{Name: d})
		}
		records[name] = rec
	}
	return registry.NewDependencyGraph(records)
}

func registryOf(names ...string) *registry.Registry {
	mods := make(map[string]modpackage.RemoteModInfo, len(names))
	for _, n := range names {
		mods[n] = modpackage.RemoteModInfo{
			Version:   "1.0.0",
			URL:       "https://gamebanana.com/mmdl/" + n,
			Checksums: []string{"deadbeefdeadbeef"},
		}
	}
	return registry.NewRegistry(mods)
}

func set(names ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		edges       map[string][]string
		registry    []string
		installed   []string
		wantFetch   []string
		wantMissing []string
	}{
		{
			name:      "transitive closure",
			target:    "A",
			edges:     map[string][]string{"A": {"B", "C"}, "B": {"C"}, "C": {}},
			registry:  []string{"A", "B", "C"},
			wantFetch: []string{"A", "B", "C"},
		},
		{
			name:        "dependency missing from registry",
			target:      "A",
			edges:       map[string][]string{"A": {"B"}},
			registry:    []string{"A"},
			wantFetch:   []string{"A"},
			wantMissing: []string{"B"},
		},
		{
			name:      "cycle",
			target:    "A",
			edges:     map[string][]string{"A": {"B"}, "B": {"C"}, "C": {"A"}},
			registry:  []string{"A", "B", "C"},
			wantFetch: []string{"A", "B", "C"},
		},
		{
			name:      "self reference",
			target:    "A",
			edges:     map[string][]string{"A": {"A", "B"}, "B": {"B"}},
			registry:  []string{"A", "B"},
			wantFetch: []string{"A", "B"},
		},
		{
			name:      "no record for target",
			target:    "Lonely",
			edges:     map[string][]string{"Other": {"X"}},
			registry:  []string{"Lonely", "Other", "X"},
			wantFetch: []string{"Lonely"},
		},
		{
			name:      "platform core excluded",
			target:    "A",
			edges:     map[string][]string{"A": {"Everest", "EverestCore", "B"}},
			registry:  []string{"A", "B", "Everest", "EverestCore"},
			wantFetch: []string{"A", "B"},
		},
		{
			name:      "installed subtracted",
			target:    "A",
			edges:     map[string][]string{"A": {"B", "C"}, "B": {"D"}},
			registry:  []string{"A", "B", "C", "D"},
			installed: []string{"B", "C"},
			wantFetch: []string{"A", "D"},
		},
		{
			name:      "target installed",
			target:    "A",
			edges:     map[string][]string{"A": {"B"}},
			registry:  []string{"A", "B"},
			installed: []string{"A", "B"},
		},
		{
			name:        "target unknown everywhere",
			target:      "Ghost",
			registry:    []string{"A"},
			wantMissing: []string{"Ghost"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.target, graphOf(tt.edges), registryOf(tt.registry...), set(tt.installed...))

			if diff := cmp.Diff(tt.wantFetch, Names(res.FetchSet), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("fetch set mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantMissing, res.Missing, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("missing mismatch (-want +got):\n%s", diff)
			}
			for _, e := range res.FetchSet {
				if modpackage.IsCore(e.Name) {
					t.Errorf("fetch set contains platform core %s", e.Name)
				}
				if _, ok := set(tt.installed...)[e.Name]; ok {
					t.Errorf("fetch set contains installed %s", e.Name)
				}
			}
		})
	}
}

func TestResolve_CarriesRegistryRecord(t *testing.T) {
	reg := registry.NewRegistry(map[string]modpackage.RemoteModInfo{
		"A": {Version: "2.1.0", URL: "https://gamebanana.com/mmdl/7", Checksums: []string{"cafefeedcafefeed"}},
	})
	res := Resolve("A", graphOf(nil), reg, nil)
	if len(res.FetchSet) != 1 {
		t.Fatalf("expected one entry, got %v", res.FetchSet)
	}
	if res.FetchSet[0].Info.Version != "2.1.0" || res.FetchSet[0].Info.URL != "https://gamebanana.com/mmdl/7" {
		t.Errorf("entry info = %+v", res.FetchSet[0].Info)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	edges := map[string][]string{
		"A": {"B", "C", "D"},
		"B": {"E", "F"},
		"C": {"F", "G"},
		"D": {"A"},
		"G": {"H", "Everest"},
	}
	reg := registryOf("A", "B", "C", "D", "E", "F", "G", "H")
	graph := graphOf(edges)
	installed := set("E")

	first := Resolve("A", graph, reg, installed)
	for i := 0; i < 20; i++ {
		again := Resolve("A", graph, reg, installed)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("resolution %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestClosure(t *testing.T) {
	got := Closure("A", graphOf(map[string][]string{"A": {"B"}, "B": {"C", "A"}, "Z": {"Y"}}))
	if diff := cmp.Diff(set("A", "B", "C"), got); diff != "" {
		t.Errorf("closure mismatch (-want +got):\n%s", diff)
	}
}
