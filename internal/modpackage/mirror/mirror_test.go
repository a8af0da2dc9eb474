package mirror

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ids(ms []Mirror) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr string
	}{
		{name: "default", in: DefaultPriority, want: []string{"otobot", "gb", "jade", "wegfan"}},
		{name: "spaces", in: " jade , gb ", want: []string{"jade", "gb"}},
		{name: "single", in: "wegfan", want: []string{"wegfan"}},
		{name: "trailing comma", in: "gb,", want: []string{"gb"}},
		{name: "unknown", in: "gb,nowhere", wantErr: "unknown mirror"},
		{name: "duplicate", in: "gb,jade,gb", wantErr: "more than once"},
		{name: "empty", in: "", wantErr: "empty"},
		{name: "only commas", in: ", ,", wantErr: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("mirror order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMirrorURL(t *testing.T) {
	const download = "https://gamebanana.com/mmdl/1298450"

	tests := []struct {
		id   string
		want string
	}{
		{"gb", download},
		{"jade", "https://celestemodupdater.0x0a.de/banana-mirror/1298450.zip"},
		{"wegfan", "https://celeste.weg.fan/api/v2/download/gamebanana-files/1298450"},
		{"otobot", "https://banana-mirror-mods.celestemods.com/1298450.zip"},
	}
	for _, tt := range tests {
		m, ok := Lookup(tt.id)
		if !ok {
			t.Fatalf("mirror %s not known", tt.id)
		}
		got, err := m.URL(download)
		if err != nil {
			t.Fatalf("%s: URL returned error: %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("%s: URL = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestFileID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://gamebanana.com/mmdl/42", want: "42"},
		{in: "https://gamebanana.com/mmdl/42/", want: "42"},
		{in: "https://gamebanana.com/mmdl/42?x=1", want: "42"},
		{in: "https://gamebanana.com", wantErr: true},
		{in: "://bad", wantErr: true},
	}
	for _, tt := range tests {
		got, err := FileID(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("FileID(%q) expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("FileID(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestKnownReturnsCopy(t *testing.T) {
	ms := Known()
	ms[0].ID = "changed"
	if _, ok := Lookup("gb"); !ok {
		t.Error("modifying Known() result changed the mirror table")
	}
}
