package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/containerd/log"
	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolve_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_DIRS", "")
	dir := t.TempDir()
	cfg, err := Resolve(dir, Overrides{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := &Resolved{
		Dir:          dir,
		DocumentPath: filepath.Join(dir, DocumentFileName),
		SearchPath:   []string{filepath.Join("/etc/xdg", "shellconf", DocumentFileName)},
		LogLevel:     "info",
		LogFormat:    log.TextFormat,
		Watch:        true,
		Types:        DefaultTypes,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_FromFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
document:
  path: layouts/main.xml
  search: [shared, /usr/share/shellconf]
log:
  level: debug
  format: json
  verbose: true
watch:
  enabled: false
  debounce: 500ms
types: [Panel, Clock, Panel]
`)
	cfg, err := Resolve(dir, Overrides{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := &Resolved{
		Dir:          dir,
		DocumentPath: filepath.Join(dir, "layouts", "main.xml"),
		SearchPath: []string{
			filepath.Join(dir, "shared", "main.xml"),
			filepath.Join("/usr/share/shellconf", "main.xml"),
		},
		LogLevel:  "debug",
		LogFormat: log.JSONFormat,
		Verbose:   true,
		Watch:     false,
		Debounce:  500 * time.Millisecond,
		Types:     []string{"Clock", "Panel"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_SearchPathFromXDGConfigDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_DIRS", strings.Join([]string{"/opt/xdg", "", "relative", "/etc/xdg", "/opt/xdg"}, string(os.PathListSeparator)))
	dir := t.TempDir()
	cfg, err := Resolve(dir, Overrides{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := []string{
		filepath.Join("/opt/xdg", "shellconf", DocumentFileName),
		filepath.Join("/etc/xdg", "shellconf", DocumentFileName),
	}
	if diff := cmp.Diff(want, cfg.SearchPath); diff != "" {
		t.Errorf("SearchPath mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_SearchPathSkipsDocumentItself(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "document:\n  search: [., fallback]\n")
	cfg, err := Resolve(dir, Overrides{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := []string{filepath.Join(dir, "fallback", DocumentFileName)}
	if diff := cmp.Diff(want, cfg.SearchPath); diff != "" {
		t.Errorf("SearchPath mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_OverridesWin(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
document:
  path: /etc/shell/layout.xml
  search: [/usr/share/shellconf]
log:
  level: warn
`)
	cfg, err := Resolve(dir, Overrides{
		DocumentPath: "/tmp/other.xml",
		LogLevel:     "trace",
		NoWatch:      true,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.DocumentPath != "/tmp/other.xml" {
		t.Errorf("DocumentPath = %q, want /tmp/other.xml", cfg.DocumentPath)
	}
	if cfg.SearchPath != nil {
		t.Errorf("SearchPath = %v, want none for an explicit document", cfg.SearchPath)
	}
	if cfg.LogLevel != "trace" {
		t.Errorf("LogLevel = %q, want trace", cfg.LogLevel)
	}
	if cfg.Watch {
		t.Error("Watch = true, want false")
	}
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"level", "log:\n  level: loud\n", "log.level"},
		{"format", "log:\n  format: xml\n", "log.format"},
		{"debounce", "watch:\n  debounce: soon\n", "watch.debounce"},
		{"negative debounce", "watch:\n  debounce: -1s\n", "negative"},
		{"empty type", "types: [Panel, '']\n", "empty entry"},
		{"bad type", "types: ['a b']\n", "invalid name"},
		{"yaml", "log: [\n", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.body)
			_, err := Resolve(dir, Overrides{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadOptional_Missing(t *testing.T) {
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if diff := cmp.Diff(&Config{}, cfg); diff != "" {
		t.Errorf("LoadOptional mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir: %v", err)
	}
	if want := filepath.Join("/xdg", "shellconf"); dir != want {
		t.Errorf("DefaultDir = %q, want %q", dir, want)
	}
}
