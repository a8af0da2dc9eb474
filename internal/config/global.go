package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/everest-mods/everest-mod-cli/internal/config/validate"
	"github.com/everest-mods/everest-mod-cli/internal/modpackage/mirror"
	"github.com/everest-mods/everest-mod-cli/internal/utils/logger"
	"github.com/everest-mods/everest-mod-cli/internal/utils/security"
	"github.com/everest-mods/everest-mod-cli/internal/utils/slice"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRegistryURL        = "https://maddie480.ovh/celeste/everest_update.yaml"
	DefaultDependencyGraphURL = "https://maddie480.ovh/celeste/mod_dependency_graph.yaml"
	DefaultWorkers            = 6
	MaxWorkers                = 32
)

var log = logger.Logger()

// GlobalConfig holds tool-level settings shared by every command.
type GlobalConfig struct {
	ModsDir            string `yaml:"mods_dir" json:"mods_dir"`                         // Directory holding installed mod archives
	MirrorPriority     string `yaml:"mirror_priority" json:"mirror_priority"`           // Comma-separated mirror IDs tried in order
	Workers            int    `yaml:"workers" json:"workers"`                           // Concurrent downloads (1-32, default: 6)
	RegistryURL        string `yaml:"registry_url" json:"registry_url"`                 // Registry snapshot (everest_update.yaml)
	DependencyGraphURL string `yaml:"dependency_graph_url" json:"dependency_graph_url"` // Dependency graph (mod_dependency_graph.yaml)

	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LoggingConfig controls basic logging behavior
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`                   // debug, info (default), warn, error
	File  string `yaml:"file,omitempty" json:"file,omitempty"` // Log file, truncated on each run
}

var (
	globalInstance *GlobalConfig
	globalMutex    sync.RWMutex
	once           sync.Once
)

// SetGlobal sets the global config instance (call once at startup in main.go)
func SetGlobal(config *GlobalConfig) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalInstance = config
}

// Global returns the global config instance
func Global() *GlobalConfig {
	once.Do(func() {
		globalMutex.Lock()
		defer globalMutex.Unlock()
		if globalInstance == nil {
			globalInstance = DefaultGlobalConfig()
		}
	})

	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return globalInstance
}

// DefaultModsDir is the Steam install location of the Celeste mods folder.
func DefaultModsDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join("Celeste", "Mods")
	}
	return filepath.Join(home, ".local", "share", "Steam", "steamapps", "common", "Celeste", "Mods")
}

// DefaultLogFile is where the process log goes unless configured otherwise.
func DefaultLogFile() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "everest-mod-cli", "everest-mod-cli.log")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".local", "state", "everest-mod-cli", "everest-mod-cli.log")
}

// DefaultGlobalConfig returns a GlobalConfig with sensible defaults
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		ModsDir:            DefaultModsDir(),
		MirrorPriority:     mirror.DefaultPriority,
		Workers:            DefaultWorkers,
		RegistryURL:        DefaultRegistryURL,
		DependencyGraphURL: DefaultDependencyGraphURL,
		Logging: LoggingConfig{
			Level: "info",
			File:  DefaultLogFile(),
		},
	}
}

// LoadGlobalConfig loads configuration from the specified path. Values in the
// file override the defaults; a missing file yields the defaults.
func LoadGlobalConfig(configPath string) (*GlobalConfig, error) {
	config := DefaultGlobalConfig()

	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		if errors.Is(err, os.ErrPermission) {
			log.Warnf("Config file %s is not accessible (%v); using defaults", configPath, err)
			return config, nil
		}
		return nil, fmt.Errorf("accessing config file %s: %w", configPath, err)
	}

	ext := strings.ToLower(filepath.Ext(configPath))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml)", ext)
	}

	data, err := security.SafeReadFile(configPath, security.RejectSymlinks)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	// The raw document is validated so unknown keys are caught before they
	// are silently dropped by the struct decode.
	if err := validate.ValidateConfigYAML(data); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing YAML config %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Debugf("Loaded configuration from %s", configPath)
	return config, nil
}

// SaveGlobalConfigWithComments writes the configuration as a commented YAML
// file. Used by `config init`.
func (gc *GlobalConfig) SaveGlobalConfigWithComments(configPath string) error {
	if configPath == "" {
		return fmt.Errorf("config path is empty")
	}

	if err := gc.Validate(); err != nil {
		return fmt.Errorf("config validation failed before save: %w", err)
	}
	jsonData, err := json.Marshal(gc)
	if err != nil {
		return fmt.Errorf("converting config to JSON for validation: %w", err)
	}
	if err := validate.ValidateConfigJSON(jsonData); err != nil {
		return fmt.Errorf("config validation failed before save: %w", err)
	}

	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	if err := security.SafeWriteFile(configPath, []byte(gc.renderCommentedYAML()), 0600, security.RejectSymlinks); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (gc *GlobalConfig) renderCommentedYAML() string {
	var b strings.Builder

	b.WriteString("# everest-mod-cli - Global Configuration\n\n")

	fmt.Fprintf(&b, "mods_dir: %q\n", gc.ModsDir)
	b.WriteString("# Celeste Mods directory where archives are installed\n\n")

	fmt.Fprintf(&b, "mirror_priority: %q\n", gc.MirrorPriority)
	b.WriteString("# Download mirrors, tried in order until one responds\n")
	for _, m := range mirror.Known() {
		fmt.Fprintf(&b, "# - %-7s %s\n", m.ID+":", m.Description)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "workers: %d\n", gc.Workers)
	b.WriteString("# Number of concurrent downloads (1-32, default: 6)\n\n")

	fmt.Fprintf(&b, "registry_url: %q\n", gc.RegistryURL)
	fmt.Fprintf(&b, "dependency_graph_url: %q\n\n", gc.DependencyGraphURL)

	b.WriteString("logging:\n")
	fmt.Fprintf(&b, "  level: %q\n", gc.Logging.Level)
	b.WriteString("  # debug, info, warn or error\n")
	if gc.Logging.File != "" {
		fmt.Fprintf(&b, "  file: %q\n", gc.Logging.File)
		b.WriteString("  # Overwritten on each run\n")
	}

	return b.String()
}

// Validate checks the configuration for consistency.
func (gc *GlobalConfig) Validate() error {
	if gc.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0, got %d", gc.Workers)
	}
	if gc.Workers > MaxWorkers {
		return fmt.Errorf("workers cannot exceed %d, got %d", MaxWorkers, gc.Workers)
	}

	if strings.TrimSpace(gc.ModsDir) == "" {
		return fmt.Errorf("mods_dir cannot be empty")
	}

	if _, err := mirror.ParsePriority(gc.MirrorPriority); err != nil {
		return fmt.Errorf("mirror_priority: %w", err)
	}

	if err := checkHTTPURL(gc.RegistryURL); err != nil {
		return fmt.Errorf("registry_url: %w", err)
	}
	if err := checkHTTPURL(gc.DependencyGraphURL); err != nil {
		return fmt.Errorf("dependency_graph_url: %w", err)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slice.Contains(validLevels, gc.Logging.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s",
			gc.Logging.Level, strings.Join(validLevels, ", "))
	}

	gc.Logging.File = strings.TrimSpace(gc.Logging.File)
	return nil
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}
	return nil
}

// GetConfigPaths returns the standard configuration file paths to check
func GetConfigPaths() []string {
	paths := []string{
		"everest-mod-cli.yml",
		".everest-mod-cli.yml",
		"everest-mod-cli.yaml",
		".everest-mod-cli.yaml",
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths,
			filepath.Join(xdg, "everest-mod-cli", "config.yml"),
			filepath.Join(xdg, "everest-mod-cli", "config.yaml"),
		)
	}
	if homeDir, _ := os.UserHomeDir(); homeDir != "" {
		paths = append(paths,
			filepath.Join(homeDir, ".config", "everest-mod-cli", "config.yml"),
			filepath.Join(homeDir, ".config", "everest-mod-cli", "config.yaml"),
		)
	}

	return paths
}

// FindConfigFile searches for a configuration file in standard locations
func FindConfigFile() string {
	for _, path := range GetConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// DefaultConfigPath is where `config init` writes when no path is given.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "everest-mod-cli", "config.yaml")
	}
	if homeDir, _ := os.UserHomeDir(); homeDir != "" {
		return filepath.Join(homeDir, ".config", "everest-mod-cli", "config.yaml")
	}
	return "everest-mod-cli.yaml"
}

func Workers() int {
	return Global().Workers
}

func LogLevel() string {
	return Global().Logging.Level
}

// ModsDir resolves the configured mods directory and checks that it exists.
func ModsDir() (string, error) {
	dir, err := filepath.Abs(Global().ModsDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve mods directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("mods directory %s does not exist; point to it with --mods-dir", dir)
		}
		return "", fmt.Errorf("accessing mods directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("mods directory %s is not a directory", dir)
	}
	return dir, nil
}

// Mirrors returns the configured mirror list in priority order.
func Mirrors() ([]mirror.Mirror, error) {
	return mirror.ParsePriority(Global().MirrorPriority)
}
