package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, configName)
	if err := os.WriteFile(want, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got, ok, err := findConfig(nested)
	if err != nil || !ok {
		t.Fatalf("findConfig = %q, %v, %v", got, ok, err)
	}
	if got != want {
		t.Errorf("findConfig = %q, want %q", got, want)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, configName)
	content := `classpath = ["classes", "/abs/more.yaml"]
java = ["src"]
go_packages = ["./..."]
log_level = "debug"
format = "yaml"

[serve]
addr = ":9000"
allow_origins = ["http://localhost:3000"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), dir)
	}
	if cfg.Classpath[0] != filepath.Join(dir, "classes") || cfg.Classpath[1] != "/abs/more.yaml" {
		t.Errorf("classpath = %v", cfg.Classpath)
	}
	if cfg.Java[0] != filepath.Join(dir, "src") {
		t.Errorf("java = %v", cfg.Java)
	}
	if cfg.GoPackages[0] != "./..." {
		t.Errorf("go_packages = %v", cfg.GoPackages)
	}
	if cfg.Format != formatYAML || cfg.LogLevel != "debug" {
		t.Errorf("format = %q, log_level = %q", cfg.Format, cfg.LogLevel)
	}
	if cfg.Serve.Addr != ":9000" || len(cfg.Serve.AllowOrigins) != 1 {
		t.Errorf("serve = %+v", cfg.Serve)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "classpath = [", "failed to parse TOML"},
		{"unknown key", "classes = []", "unknown keys: classes"},
		{"unknown table key", "[serve]\nport = 1", "unknown keys: serve.port"},
		{"bad format", `format = "xml"`, "format must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), configName)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := loadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("loadConfig error = %v, want %q", err, tt.want)
			}
		})
	}
}
