// Package classpath builds a model.Universe from declarative class documents.
//
// A document lists class and interface headers in the signature grammar,
// together with field and method declarations and nested classes:
//
//	package: com.example
//	classes:
//	  - decl: class Outer<E extends Number>
//	    fields: ["inner: Inner"]
//	    methods: ["getInner(): Inner"]
//	    nested:
//	      - decl: class Inner extends ArrayList<E>
//
// Documents are read from YAML, TOML, or msgpack snapshot files, linked
// against the embedded java.lang / java.util built-ins, and sealed into a
// universe that a typarg.Resolver can query.
package classpath

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/broady/typarg/signature"
)

// Document is one classpath file.
type Document struct {
	// Package qualifies the names of the top-level classes, e.g. "java.util".
	Package string `yaml:"package,omitempty" toml:"package" msgpack:"package,omitempty" validate:"omitempty,javaname"`

	// Imports lists qualified class names ("java.util.List") or package
	// wildcards ("java.util.*") visible to simple names in this document.
	Imports []string `yaml:"imports,omitempty" toml:"imports" msgpack:"imports,omitempty" validate:"dive,javaimport"`

	Classes []Decl `yaml:"classes" toml:"classes" msgpack:"classes" validate:"dive"`

	// Origin names the file the document came from, for error messages.
	Origin string `yaml:"-" toml:"-" msgpack:"origin,omitempty"`
}

// Decl declares one class or interface.
type Decl struct {
	// Decl is the header: "[static] (class|interface) Name[<params>] [extends ...] [implements ...]".
	Decl string `yaml:"decl" toml:"decl" msgpack:"decl" validate:"required,javadecl"`

	// Fields are "name: Type" declarations.
	Fields []string `yaml:"fields,omitempty" toml:"fields" msgpack:"fields,omitempty" validate:"dive,javafield"`

	// Methods are "[<params>] name(): Type" declarations.
	Methods []string `yaml:"methods,omitempty" toml:"methods" msgpack:"methods,omitempty" validate:"dive,javamethod"`

	// Nested are member classes. Their header names are simple names.
	Nested []Decl `yaml:"nested,omitempty" toml:"nested" msgpack:"nested,omitempty" validate:"dive"`

	// Line is the 1-based source line of the declaration when known.
	Line int `yaml:"-" toml:"-" msgpack:"line,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("javaname", func(fl validator.FieldLevel) bool {
		return IsQualifiedName(fl.Field().String())
	})
	must("javaimport", func(fl validator.FieldLevel) bool {
		return IsQualifiedName(strings.TrimSuffix(fl.Field().String(), ".*"))
	})
	must("javadecl", func(fl validator.FieldLevel) bool {
		_, err := signature.ParseClass(fl.Field().String())
		return err == nil
	})
	must("javafield", func(fl validator.FieldLevel) bool {
		m, err := signature.ParseMember(fl.Field().String())
		return err == nil && !m.Method
	})
	must("javamethod", func(fl validator.FieldLevel) bool {
		m, err := signature.ParseMember(fl.Field().String())
		return err == nil && m.Method
	})
	return v
}

// IsQualifiedName reports whether s is a dotted sequence of identifiers.
func IsQualifiedName(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			ok := r == '_' || r == '$' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') ||
				(i > 0 && '0' <= r && r <= '9') || r > 0x7f
			if !ok {
				return false
			}
		}
	}
	return true
}

// Validate checks the document's structure and the syntax of every
// declaration. Syntax errors are reported with their position.
func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		// Prefer the parser's message, which carries the offset.
		if detail := d.firstSyntaxError(); detail != nil {
			return fmt.Errorf("%s: %w", d.name(), detail)
		}
		return fmt.Errorf("%s: %w", d.name(), err)
	}
	return nil
}

func (d *Document) firstSyntaxError() error {
	var walk func(path string, decls []Decl) error
	walk = func(path string, decls []Decl) error {
		for i, c := range decls {
			p := fmt.Sprintf("%s[%d]", path, i)
			if _, err := signature.ParseClass(c.Decl); err != nil {
				return fmt.Errorf("%s.decl: %w", p, err)
			}
			for j, f := range c.Fields {
				m, err := signature.ParseMember(f)
				if err == nil && m.Method {
					err = fmt.Errorf("%q declares a method", f)
				}
				if err != nil {
					return fmt.Errorf("%s.fields[%d]: %w", p, j, err)
				}
			}
			for j, f := range c.Methods {
				m, err := signature.ParseMember(f)
				if err == nil && !m.Method {
					err = fmt.Errorf("%q declares a field", f)
				}
				if err != nil {
					return fmt.Errorf("%s.methods[%d]: %w", p, j, err)
				}
			}
			if err := walk(p+".nested", c.Nested); err != nil {
				return err
			}
		}
		return nil
	}
	return walk("classes", d.Classes)
}

func (d *Document) name() string {
	if d.Origin != "" {
		return d.Origin
	}
	return "<document>"
}

// ParseYAML decodes and validates a YAML document. origin is used in errors.
func ParseYAML(data []byte, origin string) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", origin, err)
	}
	doc.Origin = origin
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseTOML decodes and validates a TOML document. origin is used in errors.
func ParseTOML(data []byte, origin string) (*Document, error) {
	var doc Document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", origin, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing %s: unknown key %q", origin, undecoded[0].String())
	}
	doc.Origin = origin
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Document file extensions understood by ReadFile.
const (
	extYAML     = ".yaml"
	extYML      = ".yml"
	extTOML     = ".toml"
	extSnapshot = ".mp"
)

// IsDocument reports whether path has an extension ReadFile understands.
func IsDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case extYAML, extYML, extTOML, extSnapshot:
		return true
	}
	return false
}

// ReadFile reads the documents stored in path: one for YAML and TOML files,
// all of them for a snapshot.
func ReadFile(path string) ([]*Document, error) {
	if strings.ToLower(filepath.Ext(path)) == extSnapshot {
		return ReadSnapshotFile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading classpath %s: %w", path, err)
	}
	var doc *Document
	switch strings.ToLower(filepath.Ext(path)) {
	case extYAML, extYML:
		doc, err = ParseYAML(data, path)
	case extTOML:
		doc, err = ParseTOML(data, path)
	default:
		return nil, fmt.Errorf("%s: unsupported classpath file type", path)
	}
	if err != nil {
		return nil, err
	}
	return []*Document{doc}, nil
}
