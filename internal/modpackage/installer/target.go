package installer

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/everest-mods/everest-mod-cli/internal/modpackage/registry"
)

var (
	ErrInvalidURL        = errors.New("invalid URL")
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	ErrNotGameBananaURL  = errors.New("not a GameBanana mod page URL")
	ErrInvalidModID      = errors.New("invalid mod ID")
	ErrModNotFound       = errors.New("no mod matches")
)

var gameBananaHosts = []string{"gamebanana.com", "www.gamebanana.com"}

// ParseModPageURL extracts the numeric ID from a mod page URL such as
// https://gamebanana.com/mods/53704.
func ParseModPageURL(raw string) (uint32, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return 0, fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedScheme, raw)
	}

	hostOK := false
	for _, h := range gameBananaHosts {
		if strings.EqualFold(u.Hostname(), h) {
			hostOK = true
		}
	}
	if !hostOK {
		return 0, fmt.Errorf("%w: %s", ErrNotGameBananaURL, raw)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[0] != "mods" {
		return 0, fmt.Errorf("%w: %s", ErrNotGameBananaURL, raw)
	}
	id, err := strconv.ParseUint(segments[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidModID, segments[1])
	}
	return uint32(id), nil
}

// Targets turns an install argument into mod names. A mod page URL yields
// every mod published on that page; anything else must be a registry name.
func Targets(arg string, reg *registry.Registry) ([]string, error) {
	arg = strings.TrimSpace(arg)
	if strings.Contains(arg, "://") {
		id, err := ParseModPageURL(arg)
		if err != nil {
			return nil, err
		}
		names := reg.ModNamesByID(id)
		if len(names) == 0 {
			return nil, fmt.Errorf("%w [%d]", ErrModNotFound, id)
		}
		return names, nil
	}

	if _, ok := reg.Lookup(arg); !ok {
		return nil, fmt.Errorf("%w %q", ErrModNotFound, arg)
	}
	return []string{arg}, nil
}
