package javasrc

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/broady/typarg"
	"github.com/broady/typarg/classpath"
)

func parse(t *testing.T, src string) *classpath.Document {
	t.Helper()
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	defer p.Close()
	doc, err := p.Parse([]byte(src), t.Name()+".java")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func registry(t *testing.T) *classpath.Document {
	t.Helper()
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	defer p.Close()
	doc, err := p.ParseFile(filepath.Join("testdata", "src", "example", "shapes", "Registry.java"))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	return doc
}

func TestParseHeaderAndImports(t *testing.T) {
	doc := registry(t)
	if doc.Package != "example.shapes" {
		t.Errorf("Package = %q", doc.Package)
	}
	if got := strings.Join(doc.Imports, " "); got != "java.util.* java.io.Serializable" {
		t.Errorf("Imports = %q (static imports are dropped)", got)
	}
	if len(doc.Classes) != 3 {
		t.Fatalf("got %d top-level classes, want 3", len(doc.Classes))
	}

	tests := []struct {
		decl string
		line int
	}{
		{"class Registry<K extends Comparable<K>, V> extends AbstractMap<K, List<V>> implements Serializable", 8},
		{"interface Shape extends Comparable<Shape>, Serializable", 45},
		{"class Point<N extends Number> implements Shape", 49},
	}
	for i, tt := range tests {
		c := doc.Classes[i]
		if c.Decl != tt.decl {
			t.Errorf("Classes[%d].Decl = %q\nwant %q", i, c.Decl, tt.decl)
		}
		if c.Line != tt.line {
			t.Errorf("Classes[%d].Line = %d, want %d", i, c.Line, tt.line)
		}
	}
}

func TestParseMembers(t *testing.T) {
	reg := registry(t).Classes[0]

	assertStrings(t, "fields", reg.Fields, "entries: Map<K, List<V>>", "count: int", "limit: int", "names: String[]")
	// Annotations are dropped from types.
	assertStrings(t, "methods", reg.Methods, "get(): List<V>", "<T extends Number> first(): T")

	var nested []string
	for _, n := range reg.Nested {
		nested = append(nested, n.Decl)
	}
	assertStrings(t, "nested", nested,
		"class Cursor extends ArrayList<V>",
		"static class Builder<B>",
		"static class Mode extends java.lang.Enum<Mode>",
		"interface Visitor<R>",
	)
	builder := reg.Nested[1]
	assertStrings(t, "Builder fields", builder.Fields, "items: B[]")
	assertStrings(t, "Builder methods", builder.Methods, "add(): Builder<B>")
	assertStrings(t, "Mode methods", reg.Nested[2].Methods, "next(): Mode")
	assertStrings(t, "Visitor methods", reg.Nested[3].Methods, "visit(): R")

	point := registry(t).Classes[2]
	assertStrings(t, "record components", point.Fields, "x: N", "y: N")
	assertStrings(t, "record methods", point.Methods, "area(): double", "compareTo(): int")
}

func TestParseSpacing(t *testing.T) {
	doc := parse(t, `
class A<T extends Comparable<? super T> & java.io.Serializable> {
	java.util.Map<String,/* keys */ java.util.List<? extends T>> m;
	int[][] grid;
	Outer<String>.Inner inner;
}
`)
	c := doc.Classes[0]
	if want := "class A<T extends Comparable<? super T> & java.io.Serializable>"; c.Decl != want {
		t.Errorf("Decl = %q\nwant %q", c.Decl, want)
	}
	assertStrings(t, "fields", c.Fields,
		"m: java.util.Map<String, java.util.List<? extends T>>",
		"grid: int[][]",
		"inner: Outer<String>.Inner",
	)
}

func TestParseSkipsNonDeclarations(t *testing.T) {
	doc := parse(t, `
@interface Marker {}

class A {
	static { }
	A() { }
	{ }
}
`)
	if len(doc.Classes) != 1 || doc.Classes[0].Decl != "class A" {
		t.Fatalf("classes = %+v", doc.Classes)
	}
	if len(doc.Classes[0].Fields)+len(doc.Classes[0].Methods)+len(doc.Classes[0].Nested) != 0 {
		t.Errorf("A = %+v, want no members", doc.Classes[0])
	}
}

func TestParseSyntaxError(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	_, err = p.Parse([]byte("class A {\n  int x = ;\n}\n"), "Broken.java")
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SyntaxError", err)
	}
	if se.Origin != "Broken.java" || se.Line < 1 || se.Column < 1 {
		t.Errorf("SyntaxError = %+v", se)
	}
	if !strings.HasPrefix(se.Error(), "Broken.java:") {
		t.Errorf("Error() = %q", se.Error())
	}
}

func TestParseFiles(t *testing.T) {
	docs, err := ParseFiles(context.Background(), []string{filepath.Join("testdata", "src")}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if !strings.HasSuffix(docs[0].Origin, "Circle.java") || !strings.HasSuffix(docs[1].Origin, "Registry.java") {
		t.Errorf("documents out of order: %s, %s", docs[0].Origin, docs[1].Origin)
	}
	assertStrings(t, "Circle fields", docs[0].Classes[0].Fields, "UNIT: double")
}

func TestParseFilesErrors(t *testing.T) {
	if _, err := ParseFiles(context.Background(), []string{"testdata/missing"}, 1); err == nil {
		t.Error("missing path: no error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ParseFiles(ctx, []string{filepath.Join("testdata", "src")}, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled context: error = %v", err)
	}
}

func TestResolveParsedSources(t *testing.T) {
	docs, err := ParseFiles(context.Background(), []string{filepath.Join("testdata", "src")}, 0)
	if err != nil {
		t.Fatal(err)
	}
	u, err := classpath.Link(docs)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	comparableT, err := typarg.LookupTypeParameter(u, "java.lang.Comparable.T")
	if err != nil {
		t.Fatal(err)
	}
	for _, subject := range []string{"example.shapes.Point", "example.shapes.Circle"} {
		c, err := typarg.LookupClass(u, subject)
		if err != nil {
			t.Fatal(err)
		}
		d, err := typarg.NewResolver(c).TypeParameter(comparableT)
		if err != nil {
			t.Fatalf("%s: %v", subject, err)
		}
		if d.String() != "example.shapes.Shape" {
			t.Errorf("%s: Comparable.T = %s, want example.shapes.Shape", subject, d)
		}
	}

	reg, err := typarg.LookupClass(u, "example.shapes.Registry")
	if err != nil {
		t.Fatal(err)
	}
	entries, err := typarg.NewResolver(reg).FieldType("entries")
	if err != nil {
		t.Fatal(err)
	}
	if got := entries.String(); got != "java.util.Map<K, java.util.List<V>>" {
		t.Errorf("entries = %s", got)
	}

	mode, err := typarg.LookupClass(u, "example.shapes.Registry.Mode")
	if err != nil {
		t.Fatal(err)
	}
	enumE, err := typarg.LookupTypeParameter(u, "java.lang.Enum.E")
	if err != nil {
		t.Fatal(err)
	}
	d, err := typarg.NewResolver(mode).TypeParameter(enumE)
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "example.shapes.Registry.Mode" {
		t.Errorf("Enum.E on Mode = %s", d)
	}
}

func TestIsSource(t *testing.T) {
	for path, want := range map[string]bool{
		"A.java":      true,
		"dir/B.JAVA":  true,
		"types.yaml":  false,
		"javadoc.txt": false,
	} {
		if got := IsSource(path); got != want {
			t.Errorf("IsSource(%q) = %v, want %v", path, got, want)
		}
	}
}

func assertStrings(t *testing.T, what string, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("%s = %q\nwant %q", what, got, want)
	}
}
