// Package goprovider builds a class universe from Go source code.
//
// Go has no class inheritance, so the mapping follows embedding instead:
//
//   - every named type declared at package scope becomes a class, interface
//     types become interfaces;
//   - embedded struct fields and embedded interfaces become supertypes, in
//     declaration order;
//   - type parameter constraints become bounds: a named constraint is the
//     single bound, the named interfaces embedded in a constraint literal are
//     the bounds in order, and any constraint that names no interface
//     (any, comparable, unions) leaves the root class as the bound;
//   - struct fields become fields and the first result of each method
//     becomes its return type;
//   - []T and [N]T are uses of the array class, map[K]V of the built-in
//     generic class "map", chan T of "chan". Pointers are transparent.
//
// Type names are qualified by import path: "example.com/shapes.Box".
package goprovider

import (
	"context"
	"fmt"
	"go/types"
	"log/slog"
	"sort"

	"golang.org/x/tools/go/packages"

	"github.com/broady/typarg/model"
)

// Names of the built-in classes the provider defines next to the array class.
const (
	MapName  = "map"
	ChanName = "chan"
	FuncName = "func"
)

// Options configures Load.
type Options struct {
	// Packages are the package patterns to load, e.g. "./...".
	Packages []string

	// Dir is the directory patterns are resolved in. Empty means the
	// current directory.
	Dir string

	// Logger receives progress messages. nil means slog.Default().
	Logger *slog.Logger
}

// Load type-checks the packages and returns the sealed universe of their
// named types. Types from other packages that the loaded ones embed or
// mention are included with their type parameters and embeddings, without
// fields or methods.
func Load(ctx context.Context, opts Options) (*model.Universe, error) {
	if len(opts.Packages) == 0 {
		return nil, fmt.Errorf("no packages specified")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := &packages.Config{
		Context: ctx,
		Dir:     opts.Dir,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedImports |
			packages.NeedTypes,
	}
	pkgs, err := packages.Load(cfg, opts.Packages...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found")
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s has errors: %v", pkg.PkgPath, pkg.Errors)
		}
	}
	// Sort by import path so class declaration order does not depend on
	// the order packages.Load happens to return.
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })

	b := newBuilder()
	for _, pkg := range pkgs {
		b.local[pkg.Types] = true
	}
	for _, pkg := range pkgs {
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || tn.IsAlias() {
				continue
			}
			b.class(tn)
		}
	}
	if err := b.fillAll(); err != nil {
		return nil, err
	}
	b.u.Seal()

	logger.Debug("go packages loaded",
		slog.Int("packages", len(pkgs)),
		slog.Int("classes", b.u.Len()))
	return b.u, nil
}

// FromPackages builds a universe from packages already type-checked by the
// caller. Every package is treated as local.
func FromPackages(pkgs ...*types.Package) (*model.Universe, error) {
	b := newBuilder()
	for _, pkg := range pkgs {
		b.local[pkg] = true
	}
	for _, pkg := range pkgs {
		scope := pkg.Scope()
		for _, name := range scope.Names() {
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || tn.IsAlias() {
				continue
			}
			b.class(tn)
		}
	}
	if err := b.fillAll(); err != nil {
		return nil, err
	}
	b.u.Seal()
	return b.u, nil
}

// builder maps go/types objects to model nodes. Classes are created on
// first reference and queued; fillAll then converts their bounds, supers
// and members, which may create and queue more classes.
type builder struct {
	u        *model.Universe
	local    map[*types.Package]bool
	classes  map[*types.TypeName]*model.Class
	vars     map[*types.TypeName]*model.TypeVariable
	basics   map[string]*model.Class
	queue    []*types.Named
	mapClass *model.Class
	chanCls  *model.Class
	err      error
}

func newBuilder() *builder {
	b := &builder{
		u:       model.NewUniverse(),
		local:   make(map[*types.Package]bool),
		classes: make(map[*types.TypeName]*model.Class),
		vars:    make(map[*types.TypeName]*model.TypeVariable),
		basics:  make(map[string]*model.Class),
	}
	b.mapClass = b.builtin(MapName, false, "K", "V")
	b.chanCls = b.builtin(ChanName, false, "E")
	return b
}

func (b *builder) define(c *model.Class) {
	if err := b.u.Define(c); err != nil && b.err == nil {
		b.err = err
	}
}

// builtin returns the universe-scope class name, defining it on first use.
func (b *builder) builtin(name string, iface bool, params ...string) *model.Class {
	if c, ok := b.basics[name]; ok {
		return c
	}
	c := &model.Class{Name: name, Interface: iface}
	for i, p := range params {
		c.TypeParams = append(c.TypeParams, &model.TypeVariable{Name: p, Decl: c, Index: i})
	}
	b.basics[name] = c
	b.define(c)
	return c
}

// class returns the class for a package-level type name, creating it and
// its type variables on first use.
func (b *builder) class(tn *types.TypeName) *model.Class {
	if c, ok := b.classes[tn]; ok {
		return c
	}
	named, _ := tn.Type().(*types.Named)
	c := &model.Class{Name: tn.Pkg().Path() + "." + tn.Name()}
	b.classes[tn] = c
	if named == nil {
		b.define(c)
		return c
	}
	_, c.Interface = named.Underlying().(*types.Interface)
	tps := named.TypeParams()
	for i := range tps.Len() {
		tp := tps.At(i)
		tv := &model.TypeVariable{Name: tp.Obj().Name(), Decl: c, Index: i}
		c.TypeParams = append(c.TypeParams, tv)
		b.vars[tp.Obj()] = tv
	}
	b.define(c)
	b.queue = append(b.queue, named)
	return c
}

func (b *builder) fillAll() error {
	for len(b.queue) > 0 && b.err == nil {
		named := b.queue[0]
		b.queue = b.queue[1:]
		b.fill(named)
	}
	return b.err
}

func (b *builder) fill(named *types.Named) {
	c := b.classes[named.Obj()]
	local := b.local[named.Obj().Pkg()]

	tps := named.TypeParams()
	for i := range tps.Len() {
		c.TypeParams[i].Bounds = b.bounds(tps.At(i).Constraint())
	}

	switch u := named.Underlying().(type) {
	case *types.Struct:
		for i := range u.NumFields() {
			f := u.Field(i)
			if f.Embedded() {
				c.Supers = append(c.Supers, b.typ(f.Type()))
				continue
			}
			if local {
				c.Fields = append(c.Fields, model.Field{Name: f.Name(), Type: b.typ(f.Type())})
			}
		}
	case *types.Interface:
		for i := range u.NumEmbeddeds() {
			if e, ok := types.Unalias(u.EmbeddedType(i)).(*types.Named); ok {
				c.Supers = append(c.Supers, b.typ(e))
			}
		}
		if local {
			for i := range u.NumExplicitMethods() {
				b.method(c, u.ExplicitMethod(i))
			}
		}
		return
	}
	if local {
		for i := range named.NumMethods() {
			b.method(c, named.Method(i))
		}
	}
}

func (b *builder) method(c *model.Class, fn *types.Func) {
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Results().Len() == 0 {
		return
	}
	// Methods of generic types redeclare the type's parameters on the
	// receiver; they stand for the class's own variables.
	rtps := sig.RecvTypeParams()
	for i := range rtps.Len() {
		if i < len(c.TypeParams) {
			b.vars[rtps.At(i).Obj()] = c.TypeParams[i]
		}
	}
	c.Methods = append(c.Methods, model.Method{
		Name:   fn.Name(),
		Return: b.typ(sig.Results().At(0).Type()),
	})
}

// bounds converts a type parameter constraint. An empty result is replaced
// by the root class when the universe is sealed.
func (b *builder) bounds(constraint types.Type) []model.Type {
	switch t := types.Unalias(constraint).(type) {
	case *types.Named:
		if t.Obj().Pkg() == nil && t.Obj().Name() == "comparable" {
			return nil
		}
		return []model.Type{b.typ(t)}
	case *types.Interface:
		var out []model.Type
		for i := range t.NumEmbeddeds() {
			if e, ok := types.Unalias(t.EmbeddedType(i)).(*types.Named); ok {
				out = append(out, b.bounds(e)...)
			}
		}
		return out
	}
	return nil
}

// typ converts a type expression.
func (b *builder) typ(t types.Type) model.Type {
	switch t := types.Unalias(t).(type) {
	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() == nil { // error, comparable
			_, iface := t.Underlying().(*types.Interface)
			return b.builtin(obj.Name(), iface)
		}
		c := b.class(t.Origin().Obj())
		args := t.TypeArgs()
		if args.Len() == 0 {
			return c
		}
		p := &model.Parameterized{Raw: c}
		for i := range args.Len() {
			p.Args = append(p.Args, b.typ(args.At(i)))
		}
		return p
	case *types.TypeParam:
		if v, ok := b.vars[t.Obj()]; ok {
			return v
		}
		return b.u.Object()
	case *types.Pointer:
		return b.typ(t.Elem())
	case *types.Slice:
		return b.u.ArrayOf(b.typ(t.Elem()))
	case *types.Array:
		return b.u.ArrayOf(b.typ(t.Elem()))
	case *types.Map:
		return &model.Parameterized{Raw: b.mapClass, Args: []model.Type{b.typ(t.Key()), b.typ(t.Elem())}}
	case *types.Chan:
		return &model.Parameterized{Raw: b.chanCls, Args: []model.Type{b.typ(t.Elem())}}
	case *types.Basic:
		return b.builtin(t.Name(), false)
	case *types.Signature:
		return b.builtin(FuncName, false)
	default:
		// Anonymous structs and interfaces have no class of their own.
		return b.u.Object()
	}
}
