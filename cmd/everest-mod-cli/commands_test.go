package main

import (
	"archive/zip"
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/installer"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/registry"
	"github.com/everest-mods/everest-mod-cli/internal/utils/file"
	"gopkg.in/yaml.v3"
)

// modArchive builds a zip whose everest.yaml describes name at version.
func modArchive(t *testing.T, name, version string, deps ...string) []byte {
	t.Helper()
	manifest := "- Name: " + name + "\n  Version: " + version + "\n"
	if len(deps) > 0 {
		manifest += "  Dependencies:\n"
		for _, d := range deps {
			manifest += "    - Name: " + d + "\n"
		}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("everest.yaml")
	if err != nil {
		t.Fatalf("creating manifest entry: %v", err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

type remoteMod struct {
	name     string
	fileID   string
	pageID   uint32
	deps     []string
	optional []string
	archive  []byte
}

// testEnv is an isolated home directory with a Mods folder and a server
// standing in for the registry, the dependency graph and the mirrors.
type testEnv struct {
	t       *testing.T
	server  *httptest.Server
	modsDir string
	config  string
	files   map[string][]byte
}

func newTestEnv(t *testing.T, mods []remoteMod, badChecksum map[string]bool) *testEnv {
	t.Helper()
	home := isolate(t)
	env := &testEnv{
		t:       t,
		modsDir: filepath.Join(home, "Mods"),
		files:   make(map[string][]byte),
	}
	if err := os.MkdirAll(env.modsDir, 0o755); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	env.server = httptest.NewServer(mux)
	t.Cleanup(env.server.Close)

	reg := make(map[string]modpackage.RemoteModInfo)
	graph := make(map[string]registry.DependencyRecord)
	for _, m := range mods {
		sum := file.FormatChecksum(xxhash.Sum64(m.archive))
		if badChecksum[m.name] {
			sum = "0000000000000000"
		}
		reg[m.name] = modpackage.RemoteModInfo{
			Version:        "1.0.0",
			Size:           uint64(len(m.archive)),
			URL:            env.server.URL + "/mmdl/" + m.fileID,
			Checksums:      []string{sum},
			GameBananaType: "Mod",
			GameBananaID:   m.pageID,
		}
		var rec registry.DependencyRecord
		for _, d := range m.deps {
			rec.Dependencies = append(rec.Dependencies, registry.Dependency{Name: d})
		}
		for _, d := range m.optional {
			rec.OptionalDependencies = append(rec.OptionalDependencies, registry.Dependency{Name: d})
		}
		graph[m.name] = rec
		env.files[m.fileID] = m.archive
	}

	regYAML, err := yaml.Marshal(reg)
	if err != nil {
		t.Fatal(err)
	}
	graphYAML, err := yaml.Marshal(graph)
	if err != nil {
		t.Fatal(err)
	}
	mux.HandleFunc("/everest_update.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Write(regYAML)
	})
	mux.HandleFunc("/mod_dependency_graph.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Write(graphYAML)
	})
	mux.HandleFunc("/mmdl/", func(w http.ResponseWriter, r *http.Request) {
		data, ok := env.files[path.Base(r.URL.Path)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	})

	env.config = filepath.Join(home, "config.yml")
	cfg := "mods_dir: " + env.modsDir + "\n" +
		"mirror_priority: gb\n" +
		"registry_url: " + env.server.URL + "/everest_update.yaml\n" +
		"dependency_graph_url: " + env.server.URL + "/mod_dependency_graph.yaml\n"
	if err := os.WriteFile(env.config, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return env
}

func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	out, _, err := execute(e.t, append([]string{"--config", e.config}, args...)...)
	return out, err
}

func (e *testEnv) installLocal(fileName string, archive []byte) string {
	e.t.Helper()
	p := filepath.Join(e.modsDir, fileName)
	if err := os.WriteFile(p, archive, 0o644); err != nil {
		e.t.Fatal(err)
	}
	return p
}

func (e *testEnv) exists(fileName string) bool {
	_, err := os.Stat(filepath.Join(e.modsDir, fileName))
	return err == nil
}

func celesteMods(t *testing.T) []remoteMod {
	return []remoteMod{
		{name: "Collab", fileID: "101", pageID: 500, deps: []string{"Helper", "Audio", "Everest"}, optional: []string{"CelesteNet.Client"}, archive: modArchive(t, "Collab", "1.0.0", "Helper", "Audio", "Everest")},
		{name: "Audio", fileID: "102", pageID: 500, deps: []string{"Helper"}, archive: modArchive(t, "Audio", "1.0.0", "Helper")},
		{name: "Helper", fileID: "103", pageID: 501, archive: modArchive(t, "Helper", "1.0.0")},
		{name: "Lonely", fileID: "104", pageID: 502, deps: []string{"Ghost"}, archive: modArchive(t, "Lonely", "1.0.0", "Ghost")},
	}
}

func TestInstall_ByName(t *testing.T) {
	env := newTestEnv(t, celesteMods(t), nil)
	env.installLocal("helper.zip", modArchive(t, "Helper", "0.1.0"))

	out, err := env.run("install", "Collab")
	if err != nil {
		t.Fatalf("install failed: %v\n%s", err, out)
	}

	for _, want := range []string{"Installing Collab (2 to download)", "optional: CelesteNet.Client", "2 succeeded, 0 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !env.exists("101.zip") || !env.exists("102.zip") {
		t.Error("Collab and Audio should have been downloaded")
	}
	if env.exists("103.zip") {
		t.Error("installed dependency Helper was downloaded again")
	}
}

func TestInstall_ByModPageURL(t *testing.T) {
	env := newTestEnv(t, celesteMods(t), nil)

	out, err := env.run("install", "https://gamebanana.com/mods/500")
	if err != nil {
		t.Fatalf("install failed: %v\n%s", err, out)
	}
	// Audio is processed first and pulls in Helper; Collab then only needs
	// itself.
	if !strings.Contains(out, "3 succeeded, 0 failed") {
		t.Errorf("unexpected summary:\n%s", out)
	}
	for _, f := range []string{"101.zip", "102.zip", "103.zip"} {
		if !env.exists(f) {
			t.Errorf("%s was not downloaded", f)
		}
	}
}

func TestInstall_AlreadyInstalled(t *testing.T) {
	env := newTestEnv(t, celesteMods(t), nil)
	env.installLocal("helper.zip", modArchive(t, "Helper", "1.0.0"))

	out, err := env.run("install", "Helper")
	if err != nil {
		t.Fatalf("install failed: %v", err)
	}
	if !strings.Contains(out, "Helper is already installed") {
		t.Errorf("expected already-installed message:\n%s", out)
	}
	if strings.Contains(out, "succeeded") {
		t.Errorf("nothing should have been downloaded:\n%s", out)
	}
}

func TestInstall_MissingDependency(t *testing.T) {
	env := newTestEnv(t, celesteMods(t), nil)

	out, err := env.run("install", "Lonely")
	if err != nil {
		t.Fatalf("install failed: %v", err)
	}
	if !strings.Contains(out, "Ghost") || !strings.Contains(out, "1 succeeded, 0 failed") {
		t.Errorf("expected Ghost to be reported and Lonely installed:\n%s", out)
	}
}

func TestInstall_ChecksumMismatch(t *testing.T) {
	env := newTestEnv(t, celesteMods(t), map[string]bool{"Helper": true})

	out, err := env.run("install", "Helper")
	if err == nil {
		t.Fatal("expected install to fail")
	}
	if !strings.Contains(out, "0 succeeded, 1 failed") {
		t.Errorf("unexpected summary:\n%s", out)
	}
	if env.exists("103.zip") {
		t.Error("archive with a bad checksum was kept")
	}
	leftovers, _ := filepath.Glob(filepath.Join(env.modsDir, ".download-*"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestInstall_UnknownMod(t *testing.T) {
	env := newTestEnv(t, celesteMods(t), nil)

	_, err := env.run("install", "NoSuchMod")
	if !errors.Is(err, installer.ErrModNotFound) {
		t.Errorf("expected ErrModNotFound, got %v", err)
	}

	_, err = env.run("install", "https://example.com/mods/1")
	if !errors.Is(err, installer.ErrNotGameBananaURL) {
		t.Errorf("expected ErrNotGameBananaURL, got %v", err)
	}
}

func TestInstall_RegistryUnavailable(t *testing.T) {
	env := newTestEnv(t, celesteMods(t), nil)
	env.server.Close()

	if _, err := env.run("install", "Helper"); err == nil {
		t.Error("expected install to fail when the registry is unreachable")
	}
}

func TestList(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.installLocal("z.zip", modArchive(t, "Beta", "2.0.0"))
	env.installLocal("a.zip", modArchive(t, "Alpha", "1.0.0"))
	env.installLocal("broken.zip", []byte("not a zip"))

	out, err := env.run("list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	alpha := strings.Index(out, "Alpha")
	beta := strings.Index(out, "Beta")
	if alpha < 0 || beta < 0 || alpha > beta {
		t.Errorf("mods should be listed sorted by name:\n%s", out)
	}
	for _, want := range []string{"(a.zip)", "(z.zip)", "2 mods installed", "1 archives could not be read"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShow(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	archive := modArchive(t, "Collab", "1.2.3", "Helper")
	env.installLocal("collab.zip", archive)

	out, err := env.run("show", "Collab")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"1.2.3", "collab.zip", "Helper", file.FormatChecksum(xxhash.Sum64(archive))} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := env.run("show", "Missing"); err == nil {
		t.Error("expected error for a mod that is not installed")
	}
}

func TestUpdate(t *testing.T) {
	env := newTestEnv(t, celesteMods(t), nil)
	old := env.installLocal("Helper-old.zip", modArchive(t, "Helper", "0.9.0"))
	env.installLocal("audio.zip", modArchive(t, "Audio", "1.0.0", "Helper"))

	out, err := env.run("update")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !strings.Contains(out, "1 updates available") || !strings.Contains(out, "Helper 0.9.0") {
		t.Errorf("expected Helper update to be listed:\n%s", out)
	}
	if !strings.Contains(out, "--install") {
		t.Errorf("expected hint about --install:\n%s", out)
	}
	if env.exists("103.zip") {
		t.Error("update without --install must not download")
	}

	out, err = env.run("update", "--install")
	if err != nil {
		t.Fatalf("update --install failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 succeeded, 0 failed") {
		t.Errorf("unexpected summary:\n%s", out)
	}
	if !env.exists("103.zip") {
		t.Error("new archive was not downloaded")
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("previous archive should have been removed")
	}

	out, err = env.run("update")
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if !strings.Contains(out, "up to date") {
		t.Errorf("expected everything to be up to date:\n%s", out)
	}
}

func TestUpdate_Blacklist(t *testing.T) {
	env := newTestEnv(t, celesteMods(t), nil)
	env.installLocal("Helper-old.zip", modArchive(t, "Helper", "0.9.0"))
	blacklist := "# pinned\nHelper-old.zip\n"
	if err := os.WriteFile(filepath.Join(env.modsDir, "updaterblacklist.txt"), []byte(blacklist), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := env.run("update")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !strings.Contains(out, "up to date") {
		t.Errorf("blacklisted archive should not be checked:\n%s", out)
	}
}

func TestClean(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	leftover := env.installLocal(".download-12345", []byte("partial"))
	kept := env.installLocal("mod.zip", modArchive(t, "Kept", "1.0.0"))

	out, err := env.run("clean", "--dry-run")
	if err != nil {
		t.Fatalf("clean --dry-run failed: %v", err)
	}
	if !strings.Contains(out, "Would remove:") || !strings.Contains(out, ".download-12345") {
		t.Errorf("unexpected dry-run output:\n%s", out)
	}
	if _, err := os.Stat(leftover); err != nil {
		t.Error("dry run deleted a file")
	}

	out, err = env.run("clean")
	if err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	if !strings.Contains(out, "Removed paths:") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Error("temporary file was not removed")
	}
	if _, err := os.Stat(kept); err != nil {
		t.Error("installed archive was removed")
	}

	out, err = env.run("clean")
	if err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	if !strings.Contains(out, "No temporary download files found.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
