package modpackage

import "strings"

// Names that refer to the mod loader itself. They appear as dependencies of
// almost every mod but are never downloaded as mods.
const (
	CoreName       = "Everest"
	CoreLegacyName = "EverestCore"
)

// IsCore reports whether name is the mod loader rather than a mod.
func IsCore(name string) bool {
	return name == CoreName || name == CoreLegacyName
}

// RemoteModInfo is one registry record: everything needed to fetch and
// verify a mod archive.
type RemoteModInfo struct {
	Version        string   `yaml:"Version"`        // e.g. "1.4.2"
	Size           uint64   `yaml:"Size"`           // archive size in bytes
	LastUpdate     int64    `yaml:"LastUpdate"`     // unix seconds
	URL            string   `yaml:"URL"`            // GameBanana download URL
	Checksums      []string `yaml:"xxHash"`         // accepted xxHash64 digests, hex
	GameBananaType string   `yaml:"GameBananaType"` // e.g. "Mod", "Tool"
	GameBananaID   uint32   `yaml:"GameBananaId"`   // mod page ID
}

// HasMatchingHash reports whether hash equals one of the accepted checksums,
// ignoring case.
func (r RemoteModInfo) HasMatchingHash(hash string) bool {
	for _, c := range r.Checksums {
		if strings.EqualFold(c, hash) {
			return true
		}
	}
	return false
}

// Entry pairs a mod name with its registry record.
type Entry struct {
	Name string
	Info RemoteModInfo
}
