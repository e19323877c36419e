// Package typarg resolves, at runtime, the actual type arguments that fill
// generic type parameters declared anywhere in a class hierarchy.
//
// Given a subject class and a type parameter declared on one of its
// ancestors, a Resolver walks the ancestry graph from the subject toward the
// declaring class, substituting type variables at every edge, and answers
// with a Descriptor: a concrete class, a type variable still open at the
// subject, a parameterized type, or a wildcard.
//
//	r := typarg.NewResolver(u.MustLookup("StringList"))
//	d, err := r.TypeParameter(u.MustLookup("java.util.Collection").TypeParams[0])
//	// d.IsClass() == true, d.Type() == java.lang.String
//
// The class universe the resolver reads is described by package model.
package typarg

import (
	"log/slog"

	"github.com/broady/typarg/model"
)

// Resolver answers type-parameter, field, and method-return queries from the
// perspective of one subject class. It keeps no state between calls and is
// safe for concurrent use as long as the universe is sealed.
type Resolver struct {
	subject *model.Class
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for debug tracing of ancestry walks.
// A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver returns a resolver bound to subject.
func NewResolver(subject *model.Class, opts ...Option) *Resolver {
	r := &Resolver{subject: subject}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Subject returns the class the resolver is bound to.
func (r *Resolver) Subject() *model.Class { return r.subject }

func (r *Resolver) walker() walker { return walker{logger: r.logger} }

// TypeParameter resolves formal, a type parameter declared on the subject or
// on any class or interface in its transitive ancestry.
//
// The ancestry is searched depth first, superclass before interfaces, in
// declaration order; the first path reaching formal's declaring class wins.
// When the subject is formal's declaring class, the result is formal itself.
//
// It fails with CodeInvalidArgument when the declaring class is not an
// ancestor of the subject.
func (r *Resolver) TypeParameter(formal *model.TypeVariable) (*Descriptor, error) {
	if err := checkFormal(formal); err != nil {
		return nil, err
	}
	w := r.walker()
	f, ok := w.findParameter(r.subject, bindings{}, formal)
	if !ok {
		err := notAncestor(formal, r.subject)
		r.logger.Debug("type parameter not resolved",
			slog.String("subject", r.subject.Name),
			slog.String("param", formal.QualifiedName()))
		return nil, err
	}
	return r.descriptor(w, f), nil
}

// FieldType returns the declared type of the field name, looked up on the
// subject and then on its ancestors, with the substitution of the path that
// reached the declaring class applied.
//
// It fails with CodeInvalidArgument when no class in the ancestry declares
// the field.
func (r *Resolver) FieldType(name string) (*Descriptor, error) {
	w := r.walker()
	f, ok := w.findMember(r.subject, bindings{}, func(c *model.Class) (model.Type, bool) {
		field, ok := c.Field(name)
		return field.Type, ok
	})
	if !ok {
		return nil, Errorf(CodeInvalidArgument, "no field %q in %s or its ancestors", name, r.subject.Name).
			WithDetail("subject", r.subject.Name).
			WithDetail("field", name)
	}
	return r.descriptor(w, f), nil
}

// MethodReturnType returns the declared return type of the first method
// named name, looked up on the subject and then on its ancestors.
// Overloads are not distinguished.
//
// It fails with CodeInvalidArgument when no class in the ancestry declares
// such a method.
func (r *Resolver) MethodReturnType(name string) (*Descriptor, error) {
	w := r.walker()
	f, ok := w.findMember(r.subject, bindings{}, func(c *model.Class) (model.Type, bool) {
		m, ok := c.Method(name)
		return m.Return, ok && m.Return != nil
	})
	if !ok {
		return nil, Errorf(CodeInvalidArgument, "no method %q in %s or its ancestors", name, r.subject.Name).
			WithDetail("subject", r.subject.Name).
			WithDetail("method", name)
	}
	return r.descriptor(w, f), nil
}

// Narrow collapses t to a single usable class. See the package-level Narrow.
func (r *Resolver) Narrow(t model.Type, upperBound *model.Class) *model.Class {
	return Narrow(t, upperBound)
}

func (r *Resolver) descriptor(w walker, f found) *Descriptor {
	return &Descriptor{raw: f.typ, subject: r.subject, env: f.env, w: w}
}

func checkFormal(formal *model.TypeVariable) error {
	if formal == nil || formal.Decl == nil {
		return NewError(CodeInvalidArgument, "type parameter has no declaring class")
	}
	if formal.Method != "" {
		return Errorf(CodeInvalidArgument, "%s is declared on a method, not on a class", formal.QualifiedName()).
			WithDetail("param", formal.QualifiedName())
	}
	return nil
}

func notAncestor(formal *model.TypeVariable, t model.Type) *Error {
	return Errorf(CodeInvalidArgument, "%s does not declare or inherit from %s",
		t.String(), formal.Decl.Name).
		WithDetails(map[string]any{
			"type":  t.String(),
			"param": formal.QualifiedName(),
		})
}
