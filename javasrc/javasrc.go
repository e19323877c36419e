// Package javasrc reads Java source files into classpath documents.
//
// Only declarations are read: class, interface, enum and record headers,
// their type parameters and supertypes, field types, and method return
// types. Method bodies, constructors and initializers are skipped. The
// result feeds the classpath linker like any YAML or TOML document.
package javasrc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"

	"fortio.org/safecast"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	"golang.org/x/sync/errgroup"

	"github.com/broady/typarg/classpath"
)

// Ext is the extension of Java source files.
const Ext = ".java"

// IsSource reports whether path names a Java source file.
func IsSource(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Ext)
}

// SyntaxError reports source the Java grammar could not parse.
type SyntaxError struct {
	Origin string
	Line   int // 1-based
	Column int // 1-based
	Near   string
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("%s:%d:%d: syntax error", e.Origin, e.Line, e.Column)
	}
	return fmt.Sprintf("%s:%d:%d: syntax error near %q", e.Origin, e.Line, e.Column, e.Near)
}

// Parser wraps a tree-sitter parser loaded with the Java grammar.
// A Parser is not safe for concurrent use.
type Parser struct {
	parser *sitter.Parser
}

// NewParser constructs a parser with the Java language loaded.
func NewParser() (*Parser, error) {
	lang := sitter.NewLanguage(tree_sitter_java.Language())
	if lang == nil {
		return nil, fmt.Errorf("javasrc: java language not available")
	}
	p := sitter.NewParser()
	if err := p.SetLanguage(lang); err != nil {
		p.Close()
		return nil, fmt.Errorf("javasrc: %w", err)
	}
	return &Parser{parser: p}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	if p == nil || p.parser == nil {
		return
	}
	p.parser.Close()
}

// Parse reads the declarations in one compilation unit. origin names the
// source in errors and becomes the document's Origin.
func (p *Parser) Parse(src []byte, origin string) (*classpath.Document, error) {
	if p == nil || p.parser == nil {
		return nil, fmt.Errorf("javasrc: nil parser")
	}
	tree := p.parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("javasrc: %s: parse failed", origin)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.Kind() != "program" {
		return nil, fmt.Errorf("javasrc: %s: unexpected root node", origin)
	}
	if root.HasError() {
		return nil, syntaxError(root, src, origin)
	}

	r := &reader{src: src, doc: &classpath.Document{Origin: origin}}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		n := root.NamedChild(i)
		switch n.Kind() {
		case "package_declaration":
			if name := firstNamed(n, "scoped_identifier", "identifier"); name != nil {
				r.doc.Package = r.text(name)
			}
		case "import_declaration":
			r.importDecl(n)
		default:
			if d, ok, err := r.typeDecl(n, false); err != nil {
				return nil, err
			} else if ok {
				r.doc.Classes = append(r.doc.Classes, d)
			}
		}
	}
	if err := r.doc.Validate(); err != nil {
		return nil, err
	}
	return r.doc, nil
}

// ParseFile reads and parses one source file.
func (p *Parser) ParseFile(path string) (*classpath.Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("javasrc: %w", err)
	}
	return p.Parse(src, path)
}

// ParseFiles parses the Java sources in paths concurrently, at most jobs at
// a time. Directories are searched recursively for .java files. Documents
// are returned in path order.
func ParseFiles(ctx context.Context, paths []string, jobs int) ([]*classpath.Document, error) {
	files, err := classpath.Expand(paths, IsSource)
	if err != nil {
		return nil, fmt.Errorf("javasrc: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	workers := min(jobs, len(files))

	// Each worker owns a parser; tree-sitter parsers are single-threaded.
	next := make(chan int)
	docs := make([]*classpath.Document, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			p, err := NewParser()
			if err != nil {
				return err
			}
			defer p.Close()
			for i := range next {
				doc, err := p.ParseFile(files[i])
				if err != nil {
					return err
				}
				docs[i] = doc
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(next)
		for i := range files {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case next <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

type reader struct {
	src []byte
	doc *classpath.Document
}

func (r *reader) text(n *sitter.Node) string {
	return n.Utf8Text(r.src)
}

func (r *reader) importDecl(n *sitter.Node) {
	var name string
	wildcard := false
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch c.Kind() {
		case "static":
			return // static imports name members, not classes
		case "scoped_identifier", "identifier":
			name = r.text(c)
		case "asterisk":
			wildcard = true
		}
	}
	if name == "" {
		return
	}
	if wildcard {
		name += ".*"
	}
	r.doc.Imports = append(r.doc.Imports, name)
}

// typeDecl converts a class, interface, enum or record declaration.
// ok is false for nodes that declare no class.
func (r *reader) typeDecl(n *sitter.Node, nested bool) (d classpath.Decl, ok bool, err error) {
	kind := n.Kind()
	var header strings.Builder
	static := nested && hasModifier(n, "static")

	switch kind {
	case "class_declaration":
		header.WriteString("class ")
	case "interface_declaration":
		header.WriteString("interface ")
	case "enum_declaration", "record_declaration":
		static = nested // implicitly static when nested
		header.WriteString("class ")
	default:
		return d, false, nil
	}
	name := r.text(n.ChildByFieldName("name"))
	header.WriteString(name)
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		header.WriteString(r.tokens(tp))
	}

	switch kind {
	case "class_declaration":
		if sc := n.ChildByFieldName("superclass"); sc != nil {
			header.WriteString(" extends ")
			header.WriteString(r.tokens(sc.NamedChild(0)))
		}
	case "enum_declaration":
		fmt.Fprintf(&header, " extends java.lang.Enum<%s>", name)
	}
	if kind == "interface_declaration" {
		if ext := firstNamed(n, "extends_interfaces"); ext != nil {
			header.WriteString(" extends ")
			header.WriteString(r.typeList(ext))
		}
	} else if impl := n.ChildByFieldName("interfaces"); impl != nil {
		header.WriteString(" implements ")
		header.WriteString(r.typeList(impl))
	}

	d.Decl = header.String()
	if static {
		d.Decl = "static " + d.Decl
	}
	if d.Line, err = line(n); err != nil {
		return d, false, fmt.Errorf("javasrc: %s: %w", r.doc.Origin, err)
	}

	if kind == "record_declaration" {
		if params := n.ChildByFieldName("parameters"); params != nil {
			for i := uint(0); i < params.NamedChildCount(); i++ {
				p := params.NamedChild(i)
				if p.Kind() != "formal_parameter" {
					continue
				}
				d.Fields = append(d.Fields, r.member(p.ChildByFieldName("name"), p.ChildByFieldName("type"), p.ChildByFieldName("dimensions")))
			}
		}
	}
	if err := r.body(n.ChildByFieldName("body"), &d); err != nil {
		return d, false, err
	}
	return d, true, nil
}

func (r *reader) body(body *sitter.Node, d *classpath.Decl) error {
	if body == nil {
		return nil
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		n := body.NamedChild(i)
		switch n.Kind() {
		case "field_declaration", "constant_declaration":
			typ := n.ChildByFieldName("type")
			for j := uint(0); j < n.NamedChildCount(); j++ {
				v := n.NamedChild(j)
				if v.Kind() != "variable_declarator" {
					continue
				}
				d.Fields = append(d.Fields, r.member(v.ChildByFieldName("name"), typ, v.ChildByFieldName("dimensions")))
			}
		case "method_declaration":
			m := r.method(n)
			if tp := n.ChildByFieldName("type_parameters"); tp != nil {
				m = r.tokens(tp) + " " + m
			}
			d.Methods = append(d.Methods, m)
		case "enum_body_declarations":
			if err := r.body(n, d); err != nil {
				return err
			}
		default:
			nested, ok, err := r.typeDecl(n, true)
			if err != nil {
				return err
			}
			if ok {
				d.Nested = append(d.Nested, nested)
			}
		}
	}
	return nil
}

// member renders "name: Type", appending C-style dimensions to the type.
func (r *reader) member(name, typ, dims *sitter.Node) string {
	s := r.text(name) + ": " + r.tokens(typ)
	if dims != nil {
		s += r.tokens(dims)
	}
	return s
}

// method renders "name(): Type" for a method declaration.
func (r *reader) method(n *sitter.Node) string {
	s := r.text(n.ChildByFieldName("name")) + "(): " + r.tokens(n.ChildByFieldName("type"))
	if dims := n.ChildByFieldName("dimensions"); dims != nil {
		s += r.tokens(dims)
	}
	return s
}

func (r *reader) typeList(n *sitter.Node) string {
	if list := firstNamed(n, "type_list"); list != nil {
		n = list
	}
	var parts []string
	for i := uint(0); i < n.NamedChildCount(); i++ {
		parts = append(parts, r.tokens(n.NamedChild(i)))
	}
	return strings.Join(parts, ", ")
}

// tokens renders n from its leaf tokens with normalized spacing, dropping
// annotations and comments: "Map<K, List<? extends V>>".
func (r *reader) tokens(n *sitter.Node) string {
	var sb strings.Builder
	prev := ""
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Kind() {
		case "annotation", "marker_annotation", "line_comment", "block_comment":
			return
		}
		if n.ChildCount() == 0 {
			tok := r.text(n)
			if tok == "" {
				return
			}
			switch {
			case tok == "&":
				sb.WriteString(" &")
			case prev == "," || prev == "&":
				sb.WriteByte(' ')
			case prev != "" && wordEnd(prev) && wordStart(tok):
				sb.WriteByte(' ')
			}
			sb.WriteString(tok)
			prev = tok
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(n)
	return sb.String()
}

func wordStart(tok string) bool {
	c, _ := utf8.DecodeRuneInString(tok)
	return isWordRune(c) || c == '?'
}

func wordEnd(tok string) bool {
	c, _ := utf8.DecodeLastRuneInString(tok)
	return isWordRune(c) || c == '?'
}

func isWordRune(c rune) bool {
	return c == '_' || c == '$' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func hasModifier(n *sitter.Node, mod string) bool {
	mods := firstNamed(n, "modifiers")
	if mods == nil {
		return false
	}
	for i := uint(0); i < mods.ChildCount(); i++ {
		if mods.Child(i).Kind() == mod {
			return true
		}
	}
	return false
}

func firstNamed(n *sitter.Node, kinds ...string) *sitter.Node {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		for _, k := range kinds {
			if c.Kind() == k {
				return c
			}
		}
	}
	return nil
}

func line(n *sitter.Node) (int, error) {
	row, err := safecast.Conv[int](n.StartPosition().Row)
	if err != nil {
		return 0, err
	}
	return row + 1, nil
}

func syntaxError(root *sitter.Node, src []byte, origin string) *SyntaxError {
	bad := findError(root)
	if bad == nil {
		bad = root
	}
	e := &SyntaxError{Origin: origin, Line: 1, Column: 1}
	pos := bad.StartPosition()
	if row, err := safecast.Conv[int](pos.Row); err == nil {
		e.Line = row + 1
	}
	if col, err := safecast.Conv[int](pos.Column); err == nil {
		e.Column = col + 1
	}
	near := strings.TrimSpace(bad.Utf8Text(src))
	if i := strings.IndexByte(near, '\n'); i >= 0 {
		near = near[:i]
	}
	if len(near) > 32 {
		near = near[:32]
	}
	e.Near = near
	return e
}

// findError returns the earliest missing or error node under root.
func findError(root *sitter.Node) *sitter.Node {
	var best *sitter.Node
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n.IsError() || n.IsMissing() {
			if best == nil || n.StartByte() < best.StartByte() {
				best = n
			}
			return
		}
		if !n.HasError() {
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return best
}
