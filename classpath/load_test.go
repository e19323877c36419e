package classpath

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b/base.yaml":  "package: p\nclasses:\n  - decl: class Base<T>\n    fields: [\"value: T\"]\n",
		"a/child.yml":  "package: p\nclasses:\n  - decl: class Child extends Base<String>\n",
		"c/extra.toml": "package = \"q\"\n[[classes]]\ndecl = \"class Other extends p.Child\"\n",
		"c/notes.txt":  "ignored",
	}
	for name, content := range files {
		if err := writeFile(filepath.Join(dir, name), content); err != nil {
			t.Fatal(err)
		}
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	docs, err := ReadFiles(context.Background(), []string{dir}, WithLogger(logger), WithJobs(2))
	if err != nil {
		t.Fatal(err)
	}
	var origins []string
	for _, d := range docs {
		origins = append(origins, filepath.ToSlash(strings.TrimPrefix(d.Origin, dir+string(filepath.Separator))))
	}
	if got := strings.Join(origins, ","); got != "a/child.yml,b/base.yaml,c/extra.toml" {
		t.Errorf("origins = %s", got)
	}
	if n := strings.Count(logs.String(), "classpath file loaded"); n != 3 {
		t.Errorf("logged %d loads, want 3:\n%s", n, logs.String())
	}

	// Forward references across files link.
	u, err := Link(docs, WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	other := u.MustLookup("q.Other")
	if other.Supers[0] != u.MustLookup("p.Child") {
		t.Errorf("q.Other super = %v", other.Supers[0])
	}
}

func TestLoadWithoutBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.yaml")
	if err := writeFile(path, "classes:\n  - decl: class A extends java.util.ArrayList<String>\n"); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(context.Background(), []string{path}); err != nil {
		t.Fatalf("Load with built-ins: %v", err)
	}
	_, err := Load(context.Background(), []string{path}, WithoutBuiltins())
	if err == nil || !strings.Contains(err.Error(), "cannot resolve") {
		t.Errorf("Load without built-ins error = %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := writeFile(bad, "classes:\n  - decl: nonsense\n"); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(context.Background(), []string{bad}); err == nil || !strings.Contains(err.Error(), "bad.yaml") {
		t.Errorf("Load(bad) error = %v", err)
	}
	missing := filepath.Join(dir, "missing.yaml")
	if _, err := Load(context.Background(), []string{missing}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want os.ErrNotExist", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	good := filepath.Join(dir, "good.yaml")
	if err := writeFile(good, "classes: []\n"); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFiles(ctx, []string{good}); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadFiles(canceled) error = %v, want context.Canceled", err)
	}
}

func TestExpandKeepsExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.json")
	if err := writeFile(path, "{}"); err != nil {
		t.Fatal(err)
	}
	got, err := Expand([]string{path, dir}, IsDocument)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != path {
		t.Errorf("Expand = %q, want only the explicit file", got)
	}
}
