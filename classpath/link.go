package classpath

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/broady/typarg/model"
	"github.com/broady/typarg/signature"
)

// unit is one class declaration waiting for its second linking phase.
type unit struct {
	doc    *Document
	src    *Decl
	header *signature.ClassDecl
	class  *model.Class
}

// Linker turns documents into a universe in two phases. Add creates every
// class and its type variables; Link resolves bounds, supertypes, and
// members once all names are known, so declarations may refer to each
// other in any order and bounds may be recursive (T extends Comparable<T>).
type Linker struct {
	u      *model.Universe
	units  []*unit
	logger *slog.Logger
	linked bool
}

// NewLinker returns a linker over an empty universe. The built-ins are not
// added; see Builtins.
func NewLinker(logger *slog.Logger) *Linker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Linker{u: model.NewUniverse(), logger: logger}
}

// Add declares the classes of doc. It fails on syntax errors and on
// duplicate class names.
func (l *Linker) Add(doc *Document) error {
	if l.linked {
		return errors.New("classpath: linker already linked")
	}
	var errs []error
	for i := range doc.Classes {
		if err := l.declare(doc, &doc.Classes[i], nil); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Linker) declare(doc *Document, src *Decl, enclosing *model.Class) error {
	header, err := signature.ParseClass(src.Decl)
	if err != nil {
		return l.errorf(doc, src, "%w", err)
	}

	name := header.Name
	switch {
	case enclosing != nil:
		if strings.Contains(name, ".") {
			return l.errorf(doc, src, "nested class %s must have a simple name", name)
		}
		name = enclosing.Name + "." + name
	case doc.Package != "":
		name = doc.Package + "." + name
	}

	c := &model.Class{
		Name:      name,
		Interface: header.Interface,
		Static:    header.Static || header.Interface || (enclosing != nil && enclosing.Interface),
		Enclosing: enclosing,
	}
	for i, tp := range header.TypeParams {
		if c.TypeParameter(tp.Name) != nil {
			return l.errorf(doc, src, "duplicate type parameter %s", tp.Name)
		}
		c.TypeParams = append(c.TypeParams, &model.TypeVariable{Name: tp.Name, Decl: c, Index: i})
	}
	if err := l.u.Define(c); err != nil {
		return l.errorf(doc, src, "%w", err)
	}
	if enclosing != nil {
		enclosing.Nested = append(enclosing.Nested, c)
	}
	l.units = append(l.units, &unit{doc: doc, src: src, header: header, class: c})

	var errs []error
	for i := range src.Nested {
		if err := l.declare(doc, &src.Nested[i], c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Link resolves every declared signature and seals the universe.
// All unresolvable references are reported together.
//
// Type parameter bounds and supertypes of every class are linked before any
// field or method, so member signatures can name member classes inherited
// from supertypes.
func (l *Linker) Link() (*model.Universe, error) {
	if l.linked {
		return nil, errors.New("classpath: linker already linked")
	}
	l.linked = true

	var errs []error
	failed := make(map[*unit]bool)
	for _, u := range l.units {
		if err := l.linkHeader(u); err != nil {
			errs = append(errs, err)
			failed[u] = true
		}
	}
	for _, u := range l.units {
		if failed[u] {
			continue
		}
		if err := l.linkMembers(u); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	l.u.Seal()
	l.logger.Debug("classpath linked", slog.Int("classes", l.u.Len()))
	return l.u, nil
}

func (l *Linker) linkHeader(u *unit) error {
	s := scope{l: l, unit: u}
	c := u.class

	for i, tp := range u.header.TypeParams {
		bounds, err := s.bounds(tp.Bounds)
		if err != nil {
			return l.errorf(u.doc, u.src, "bound of %s: %w", tp.Name, err)
		}
		c.TypeParams[i].Bounds = bounds
	}

	for _, expr := range u.header.Supers() {
		t, err := s.resolve(expr)
		if err != nil {
			return l.errorf(u.doc, u.src, "supertype %s: %w", expr, err)
		}
		switch t.(type) {
		case *model.Class, *model.Parameterized:
		default:
			return l.errorf(u.doc, u.src, "supertype %s is not a class", expr)
		}
		if model.Erasure(t) == c {
			return l.errorf(u.doc, u.src, "%s extends itself", c.Name)
		}
		c.Supers = append(c.Supers, t)
	}
	return nil
}

func (l *Linker) linkMembers(u *unit) error {
	s := scope{l: l, unit: u}
	c := u.class

	for _, f := range u.src.Fields {
		m, err := signature.ParseMember(f)
		if err != nil {
			return l.errorf(u.doc, u.src, "field: %w", err)
		}
		if _, dup := c.Field(m.Name); dup {
			return l.errorf(u.doc, u.src, "duplicate field %s", m.Name)
		}
		t, err := s.resolve(m.Type)
		if err != nil {
			return l.errorf(u.doc, u.src, "field %s: %w", m.Name, err)
		}
		c.Fields = append(c.Fields, model.Field{Name: m.Name, Type: t})
	}

	for _, src := range u.src.Methods {
		m, err := signature.ParseMember(src)
		if err != nil {
			return l.errorf(u.doc, u.src, "method: %w", err)
		}
		method := model.Method{Name: m.Name}
		for i, tp := range m.TypeParams {
			method.TypeParams = append(method.TypeParams,
				&model.TypeVariable{Name: tp.Name, Decl: c, Method: m.Name, Index: i})
		}
		ms := s
		ms.method = method.TypeParams
		for i, tp := range m.TypeParams {
			bounds, err := ms.bounds(tp.Bounds)
			if err != nil {
				return l.errorf(u.doc, u.src, "method %s: bound of %s: %w", m.Name, tp.Name, err)
			}
			method.TypeParams[i].Bounds = bounds
		}
		if method.Return, err = ms.resolve(m.Type); err != nil {
			return l.errorf(u.doc, u.src, "method %s: %w", m.Name, err)
		}
		c.Methods = append(c.Methods, method)
	}
	return nil
}

func (l *Linker) errorf(doc *Document, src *Decl, format string, args ...any) error {
	where := doc.name()
	if src.Line > 0 {
		where = fmt.Sprintf("%s:%d", where, src.Line)
	}
	return fmt.Errorf("%s: %q: %w", where, src.Decl, fmt.Errorf(format, args...))
}

// scope resolves names as seen from inside one class declaration: method
// type parameters, then the type parameters of the class and of the
// enclosing classes it is an inner class of, then member classes of the
// enclosing chain, then the document's package and imports, java.lang, and
// finally any unambiguous name in the universe.
type scope struct {
	l      *Linker
	unit   *unit
	method []*model.TypeVariable
}

func (s scope) bounds(exprs []*signature.TypeExpr) ([]model.Type, error) {
	var out []model.Type
	for _, e := range exprs {
		t, err := s.resolve(e)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s scope) resolve(e *signature.TypeExpr) (model.Type, error) {
	t, err := s.resolveElem(e)
	if err != nil {
		return nil, err
	}
	for range e.Dims {
		t = s.l.u.ArrayOf(t)
	}
	return t, nil
}

func (s scope) resolveElem(e *signature.TypeExpr) (model.Type, error) {
	if e.Wildcard {
		w := &model.Wildcard{}
		var err error
		if w.Upper, err = s.bounds(e.Upper); err != nil {
			return nil, err
		}
		if w.Lower, err = s.bounds(e.Lower); err != nil {
			return nil, err
		}
		if len(w.Upper) == 0 {
			w.Upper = []model.Type{s.l.u.Object()}
		}
		return w, nil
	}

	segs := e.Segments
	if len(segs) == 1 {
		if tv := s.typeVar(segs[0].Name); tv != nil {
			if len(segs[0].Args) > 0 {
				return nil, fmt.Errorf("type variable %s cannot have type arguments", tv.Name)
			}
			return tv, nil
		}
	}

	c, n, t, err := s.head(segs)
	if err != nil {
		return nil, err
	}

	// A bare reference to an inner class picks up the enclosing instance's
	// type parameters when they are in scope.
	if n == 1 && c.IsInner() && t == nil {
		t = s.implicitOwner(c.Enclosing)
	}
	if t, err = s.use(c, segs[n-1].Args, t); err != nil {
		return nil, err
	}
	for _, seg := range segs[n:] {
		nested := c.NestedClass(seg.Name)
		if nested == nil {
			return nil, fmt.Errorf("%s has no member class %s", c.Name, seg.Name)
		}
		c = nested
		if t, err = s.use(c, seg.Args, t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// head finds the class named by the leading segments and reports how many
// segments it consumed. Package-qualified names are tried longest first.
// owner is set when a single segment names an inner class inherited from a
// parameterized supertype.
func (s scope) head(segs []signature.Segment) (c *model.Class, n int, owner model.Type, err error) {
	for n := len(segs); n >= 2; n-- {
		if hasArgs(segs[:n-1]) {
			continue
		}
		names := make([]string, n)
		for i := range n {
			names[i] = segs[i].Name
		}
		if c := s.exact(strings.Join(names, ".")); c != nil {
			return c, n, nil, nil
		}
	}
	name := segs[0].Name
	if c, owner := s.class(name); c != nil {
		return c, 1, owner, nil
	}
	return nil, 0, nil, fmt.Errorf("cannot resolve %s", name)
}

func hasArgs(segs []signature.Segment) bool {
	for _, s := range segs {
		if len(s.Args) > 0 {
			return true
		}
	}
	return false
}

func (s scope) exact(name string) *model.Class {
	if c, ok := s.l.u.Lookup(name); ok && c.Name == name {
		return c
	}
	if pkg := s.unit.doc.Package; pkg != "" {
		if c, ok := s.l.u.Lookup(pkg + "." + name); ok && c.Name == pkg+"."+name {
			return c
		}
	}
	return nil
}

// use builds the type for a reference to c with args, owned by owner.
func (s scope) use(c *model.Class, argExprs []*signature.TypeExpr, owner model.Type) (model.Type, error) {
	if len(argExprs) > 0 && len(argExprs) != len(c.TypeParams) {
		return nil, fmt.Errorf("%s takes %d type arguments, got %d", c.Name, len(c.TypeParams), len(argExprs))
	}
	args, err := s.bounds(argExprs)
	if err != nil {
		return nil, err
	}
	if _, ok := owner.(*model.Parameterized); !ok || !c.IsInner() {
		owner = nil
	}
	if len(args) == 0 && owner == nil {
		return c, nil
	}
	return &model.Parameterized{Raw: c, Args: args, Owner: owner}, nil
}

// implicitOwner returns Outer<E...> for the enclosing class outer of an inner
// class referenced by its bare name, or nil when outer's parameters are not
// in scope or outer is not generic.
func (s scope) implicitOwner(outer *model.Class) model.Type {
	visible := false
	for x := s.unit.class; x != nil; x = x.Enclosing {
		if x == outer {
			visible = true
			break
		}
		if !x.IsInner() {
			break
		}
	}
	if !visible {
		return nil
	}
	var owner model.Type
	if outer.IsInner() {
		owner = s.implicitOwner(outer.Enclosing)
	}
	if !outer.IsGeneric() && owner == nil {
		return nil
	}
	args := make([]model.Type, len(outer.TypeParams))
	for i, tv := range outer.TypeParams {
		args[i] = tv
	}
	return &model.Parameterized{Raw: outer, Args: args, Owner: owner}
}

func (s scope) typeVar(name string) *model.TypeVariable {
	for _, tv := range s.method {
		if tv.Name == name {
			return tv
		}
	}
	for c := s.unit.class; c != nil; c = c.Enclosing {
		if tv := c.TypeParameter(name); tv != nil {
			return tv
		}
		if !c.IsInner() {
			break
		}
	}
	return nil
}

// class resolves a simple class name. Member classes of the enclosing
// classes, declared or inherited, shadow imports and java.lang. For an
// inherited inner class the supertype declaring it is returned as owner.
func (s scope) class(name string) (*model.Class, model.Type) {
	vars := true
	for c := s.unit.class; c != nil; c = c.Enclosing {
		if n := c.NestedClass(name); n != nil {
			return n, nil
		}
		if n, owner := inheritedClass(c, name); n != nil {
			if !vars {
				owner = nil
			}
			return n, owner
		}
		if c.SimpleName() == name {
			return c, nil
		}
		if !c.IsInner() {
			vars = false
		}
	}
	if c := s.exact(name); c != nil {
		return c, nil
	}
	for _, imp := range s.unit.doc.Imports {
		var qualified string
		switch {
		case strings.HasSuffix(imp, ".*"):
			qualified = strings.TrimSuffix(imp, "*") + name
		case strings.HasSuffix(imp, "."+name):
			qualified = imp
		default:
			continue
		}
		if c := s.exact(qualified); c != nil {
			return c, nil
		}
	}
	if c := s.exact("java.lang." + name); c != nil {
		return c, nil
	}
	if c, ok := s.l.u.Lookup(name); ok {
		return c, nil
	}
	return nil, nil
}

// inheritedClass finds a member class named name declared by a supertype of
// c, searching supertypes depth first in declaration order. The returned
// owner is the declaring supertype with its arguments expressed in c's type
// parameters, or a bare class when a raw supertype lies on the path.
func inheritedClass(c *model.Class, name string) (*model.Class, model.Type) {
	seen := map[*model.Class]bool{c: true}
	var search func(supers []model.Type) (*model.Class, model.Type)
	search = func(supers []model.Type) (*model.Class, model.Type) {
		for _, t := range supers {
			r := model.Erasure(t)
			if r == nil || seen[r] {
				continue
			}
			seen[r] = true
			if n := r.NestedClass(name); n != nil {
				return n, t
			}

			var next []model.Type
			if m, ok := typeArgs(t); ok {
				next = make([]model.Type, len(r.Supers))
				for i, st := range r.Supers {
					next[i] = substitute(st, m)
				}
			} else {
				// Supertypes of a raw type are erased.
				for _, st := range r.Supers {
					next = append(next, model.Erasure(st))
				}
			}
			if n, owner := search(next); n != nil {
				return n, owner
			}
		}
		return nil, nil
	}
	return search(c.Supers)
}

// typeArgs maps the type parameters of t's class and its owners to their
// arguments. It reports false for a raw use of a generic class.
func typeArgs(t model.Type) (map[*model.TypeVariable]model.Type, bool) {
	m := make(map[*model.TypeVariable]model.Type)
	for t != nil {
		switch u := t.(type) {
		case *model.Parameterized:
			if len(u.Args) != len(u.Raw.TypeParams) {
				return nil, false
			}
			for i, tv := range u.Raw.TypeParams {
				m[tv] = u.Args[i]
			}
			t = u.Owner
		case *model.Class:
			if u.IsGeneric() {
				return nil, false
			}
			t = nil
		default:
			t = nil
		}
	}
	return m, true
}

// substitute replaces the type variables bound in m throughout t.
func substitute(t model.Type, m map[*model.TypeVariable]model.Type) model.Type {
	switch t := t.(type) {
	case *model.TypeVariable:
		if arg, ok := m[t]; ok {
			return arg
		}
	case *model.Parameterized:
		p := &model.Parameterized{Raw: t.Raw, Args: make([]model.Type, len(t.Args))}
		for i, a := range t.Args {
			p.Args[i] = substitute(a, m)
		}
		if t.Owner != nil {
			p.Owner = substitute(t.Owner, m)
		}
		return p
	case *model.Wildcard:
		w := &model.Wildcard{}
		for _, b := range t.Upper {
			w.Upper = append(w.Upper, substitute(b, m))
		}
		for _, b := range t.Lower {
			w.Lower = append(w.Lower, substitute(b, m))
		}
		return w
	}
	return t
}
