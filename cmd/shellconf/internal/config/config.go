package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/containerd/log"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// FileName is the optional configuration file looked up in the config dir.
const FileName = "shellconf.yaml"

// DocumentFileName is the layout document's file name inside the config dir.
const DocumentFileName = "layout.xml"

// DefaultTypes are the element types the stub toolkit accepts when the
// configuration lists none. They cover the built-in default layout.
var DefaultTypes = []string{
	"Background",
	"Clock",
	"Desktop",
	"Launcher",
	"Pager",
	"Panel",
	"Tasks",
	"Tray",
	"Widget",
}

// Config represents the optional shellconf.yaml configuration.
type Config struct {
	Document DocumentConfig `yaml:"document"`
	Log      LogConfig      `yaml:"log"`
	Watch    WatchConfig    `yaml:"watch"`
	Types    []string       `yaml:"types,omitempty"`
}

// DocumentConfig locates the layout document.
type DocumentConfig struct {
	Path string `yaml:"path,omitempty"`
	// Search lists directories holding read-only fallback layouts, tried in
	// order when Path cannot be read. Defaults to the shellconf directory of
	// each $XDG_CONFIG_DIRS entry.
	Search []string `yaml:"search,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string `yaml:"level,omitempty"`
	Format  string `yaml:"format,omitempty"`
	Verbose bool   `yaml:"verbose,omitempty"`
}

// WatchConfig controls reloading on file changes.
type WatchConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Debounce string `yaml:"debounce,omitempty"`
}

// Overrides are command-line values that take precedence over the file.
// Zero values leave the configured value alone.
type Overrides struct {
	DocumentPath string
	LogLevel     string
	LogFormat    string
	Verbose      bool
	NoWatch      bool
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Dir          string
	DocumentPath string
	SearchPath   []string
	LogLevel     string
	LogFormat    log.OutputFormat
	Verbose      bool
	Watch        bool
	Debounce     time.Duration
	Types        []string
}

// DefaultDir returns $XDG_CONFIG_HOME/shellconf, falling back to the
// platform's user config directory.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "shellconf"), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(base, "shellconf"), nil
}

// LoadOptional reads shellconf.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return &cfg, nil
}

// Resolve loads shellconf.yaml from dir (if present), applies overrides and
// resolves defaults.
func Resolve(dir string, o Overrides) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	docPath := strings.TrimSpace(o.DocumentPath)
	if docPath == "" {
		docPath = strings.TrimSpace(cfg.Document.Path)
		if docPath != "" && !filepath.IsAbs(docPath) {
			docPath = filepath.Join(dir, docPath)
		}
	}
	if docPath == "" {
		docPath = filepath.Join(dir, DocumentFileName)
	}

	// An explicit --document names exactly one file.
	var search []string
	if strings.TrimSpace(o.DocumentPath) == "" {
		search = searchPath(dir, docPath, cfg.Document.Search)
	}

	level := firstNonEmpty(o.LogLevel, cfg.Log.Level, "info")
	if _, err := logrus.ParseLevel(level); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	format := log.OutputFormat(firstNonEmpty(o.LogFormat, cfg.Log.Format, string(log.TextFormat)))
	if format != log.TextFormat && format != log.JSONFormat {
		return nil, fmt.Errorf("log.format must be %q or %q (got %q)", log.TextFormat, log.JSONFormat, format)
	}

	watch := cfg.Watch.Enabled == nil || *cfg.Watch.Enabled
	if o.NoWatch {
		watch = false
	}

	var debounce time.Duration
	if s := strings.TrimSpace(cfg.Watch.Debounce); s != "" {
		debounce, err = time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("watch.debounce: %w", err)
		}
		if debounce < 0 {
			return nil, fmt.Errorf("watch.debounce cannot be negative (got %s)", s)
		}
	}

	types, err := resolveTypes(cfg.Types)
	if err != nil {
		return nil, err
	}

	return &Resolved{
		Dir:          dir,
		DocumentPath: docPath,
		SearchPath:   search,
		LogLevel:     level,
		LogFormat:    format,
		Verbose:      o.Verbose || cfg.Log.Verbose,
		Watch:        watch,
		Debounce:     debounce,
		Types:        types,
	}, nil
}

// searchPath returns the fallback document files: the document's file name
// in each configured directory, or in the shellconf directory of every
// $XDG_CONFIG_DIRS entry when none are configured.
func searchPath(dir, docPath string, configured []string) []string {
	var dirs []string
	for _, d := range configured {
		if d = strings.TrimSpace(d); d == "" {
			continue
		}
		if !filepath.IsAbs(d) {
			d = filepath.Join(dir, d)
		}
		dirs = append(dirs, d)
	}
	if len(configured) == 0 {
		xdg := os.Getenv("XDG_CONFIG_DIRS")
		if xdg == "" {
			xdg = "/etc/xdg"
		}
		for _, d := range filepath.SplitList(xdg) {
			if d != "" && filepath.IsAbs(d) {
				dirs = append(dirs, filepath.Join(d, "shellconf"))
			}
		}
	}

	name := filepath.Base(docPath)
	var paths []string
	for _, d := range dirs {
		p := filepath.Join(d, name)
		if p != docPath && !slices.Contains(paths, p) {
			paths = append(paths, p)
		}
	}
	return paths
}

func resolveTypes(configured []string) ([]string, error) {
	if len(configured) == 0 {
		return slices.Clone(DefaultTypes), nil
	}
	types := make([]string, 0, len(configured))
	for _, t := range configured {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, fmt.Errorf("types contains an empty entry")
		}
		if strings.ContainsAny(t, " \t<>\"&") {
			return nil, fmt.Errorf("types contains invalid name %q", t)
		}
		types = append(types, t)
	}
	slices.Sort(types)
	return slices.Compact(types), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
