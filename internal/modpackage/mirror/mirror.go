// Package mirror describes the download mirrors that serve GameBanana files
// and turns a registry download URL into a per-mirror URL.
package mirror

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/everest-mods/everest-mod-cli/internal/utils/slice"
)

// DefaultPriority is the mirror order used when none is configured.
const DefaultPriority = "otobot,gb,jade,wegfan"

// idPlaceholder is replaced by the GameBanana file ID in a mirror pattern.
const idPlaceholder = "{id}"

// Mirror is one download source. An empty Pattern means the registry URL is
// used unchanged.
type Mirror struct {
	ID          string
	Description string
	Pattern     string
}

var known = []Mirror{
	{ID: "gb", Description: "Default GameBanana Server (United States)"},
	{ID: "jade", Description: "Germany", Pattern: "https://celestemodupdater.0x0a.de/banana-mirror/{id}.zip"},
	{ID: "wegfan", Description: "China", Pattern: "https://celeste.weg.fan/api/v2/download/gamebanana-files/{id}"},
	{ID: "otobot", Description: "North America", Pattern: "https://banana-mirror-mods.celestemods.com/{id}.zip"},
}

// Known returns every supported mirror.
func Known() []Mirror {
	out := make([]Mirror, len(known))
	copy(out, known)
	return out
}

// Lookup finds a mirror by ID.
func Lookup(id string) (Mirror, bool) {
	for _, m := range known {
		if m.ID == id {
			return m, true
		}
	}
	return Mirror{}, false
}

// KnownIDs lists the supported mirror IDs.
func KnownIDs() []string {
	ids := make([]string, len(known))
	for i, m := range known {
		ids[i] = m.ID
	}
	return ids
}

// ParsePriority turns a comma-separated list of mirror IDs into mirrors in
// the same order. Unknown IDs, duplicates and an empty list are rejected.
func ParsePriority(list string) ([]Mirror, error) {
	ids := slice.SplitCSV(list)
	if len(ids) == 0 {
		return nil, fmt.Errorf("mirror priority list is empty")
	}
	if dup, ok := slice.FirstDuplicate(ids); ok {
		return nil, fmt.Errorf("mirror %q listed more than once", dup)
	}

	mirrors := make([]Mirror, 0, len(ids))
	for _, id := range ids {
		m, ok := Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown mirror %q (known: %s)", id, strings.Join(KnownIDs(), ", "))
		}
		mirrors = append(mirrors, m)
	}
	return mirrors, nil
}

// FileID extracts the GameBanana file ID from a registry download URL, which
// is its last path segment (https://gamebanana.com/mmdl/1298450 -> 1298450).
func FileID(downloadURL string) (string, error) {
	u, err := url.Parse(downloadURL)
	if err != nil {
		return "", fmt.Errorf("parsing download URL %q: %w", downloadURL, err)
	}
	id := path.Base(strings.TrimRight(u.Path, "/"))
	if id == "" || id == "." || id == "/" {
		return "", fmt.Errorf("download URL %q has no file ID", downloadURL)
	}
	return id, nil
}

// URL returns the address to fetch downloadURL from on this mirror.
func (m Mirror) URL(downloadURL string) (string, error) {
	if m.Pattern == "" {
		return downloadURL, nil
	}
	id, err := FileID(downloadURL)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(m.Pattern, idPlaceholder, url.PathEscape(id)), nil
}

func (m Mirror) String() string {
	return m.ID
}
