package resolver

import (
	"sort"

	"github.com/everest-mods/everest-mod-cli/internal/modpackage"
	"github.com/everest-mods/everest-mod-cli/internal/utils/logger"
)

// DependencySource yields the required dependencies of a mod.
// *registry.DependencyGraph satisfies it.
type DependencySource interface {
	Dependencies(name string) []string
}

// ModSource looks up registry records. *registry.Registry satisfies it.
type ModSource interface {
	Lookup(name string) (modpackage.RemoteModInfo, bool)
}

// Result is the outcome of resolving one target.
type Result struct {
	// FetchSet is what has to be downloaded, sorted by name.
	FetchSet []modpackage.Entry
	// Missing lists names the closure needs that the registry does not
	// carry, sorted.
	Missing []string
}

// Closure returns every name reachable from target through required
// dependencies, target included. Each name is expanded once, so cycles and
// self-references terminate.
func Closure(target string, graph DependencySource) map[string]struct{} {
	queue := []string{target}
	neededSet := make(map[string]struct{})
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, seen := neededSet[cur]; seen {
			continue
		}
		neededSet[cur] = struct{}{}

		for _, dep := range graph.Dependencies(cur) {
			if _, seen := neededSet[dep]; !seen {
				queue = append(queue, dep)
			}
		}
	}
	return neededSet
}

// Resolve computes what must be downloaded to install target: its
// dependency closure minus the mod loader and minus what is installed.
// Names the registry does not know are logged, reported in Missing and left
// out of the fetch set.
func Resolve(target string, graph DependencySource, reg ModSource, installed map[string]struct{}) Result {
	log := logger.Logger()

	closure := Closure(target, graph)
	log.Debugf("Dependency closure of %s has %d entries", target, len(closure))

	names := make([]string, 0, len(closure))
	for name := range closure {
		if modpackage.IsCore(name) {
			continue
		}
		if _, ok := installed[name]; ok {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var res Result
	for _, name := range names {
		info, ok := reg.Lookup(name)
		if !ok {
			log.Warnf("%s is required by %s but is not in the mod registry", name, target)
			res.Missing = append(res.Missing, name)
			continue
		}
		res.FetchSet = append(res.FetchSet, modpackage.Entry{Name: name, Info: info})
	}
	return res
}

// Names returns the names in a fetch set, in order.
func Names(entries []modpackage.Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}
