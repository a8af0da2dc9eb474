package pkgfetcher

import (
	"fmt"
	"strings"
)

// ChecksumMismatchError reports a download whose content matched none of the
// accepted checksums. The file has already been removed.
type ChecksumMismatchError struct {
	File     string
	Computed string
	Expected []string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: computed %s, expected one of [%s]",
		e.File, e.Computed, strings.Join(e.Expected, ", "))
}

// MirrorsExhaustedError reports that every mirror failed for one mod. Err
// combines the per-mirror failures in the order they were tried.
type MirrorsExhaustedError struct {
	Name     string
	Attempts int
	Err      error
}

func (e *MirrorsExhaustedError) Error() string {
	return fmt.Sprintf("all %d mirrors failed for %s: %v", e.Attempts, e.Name, e.Err)
}

func (e *MirrorsExhaustedError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx response from a mirror.
type StatusError struct {
	URL    string
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %s", e.URL, e.Status)
}
