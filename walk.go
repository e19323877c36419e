package typarg

import (
	"context"
	"log/slog"

	"github.com/broady/typarg/model"
)

// walker performs the ancestry search shared by Resolver and Descriptor.
// It holds no per-call state; everything a step needs travels down the
// recursion as arguments.
type walker struct {
	logger *slog.Logger
}

// enter returns the class a type node erases to together with the bindings
// in force inside that class: the bindings of the context it was reached
// from, the class's own parameters bound to the (already substituted)
// arguments of the use, and, for inner classes, the enclosing class's
// parameters bound through the use's owner.
//
// A raw class leaves its own parameters open, which is what makes the
// generic declaration itself resolve to its type variables.
func (w walker) enter(t model.Type, env bindings) (*model.Class, bindings) {
	switch t := t.(type) {
	case *model.Class:
		return t, env.with(t.TypeParams, nil)

	case *model.Parameterized:
		inner := env
		if t.Owner != nil {
			_, inner = w.enter(t.Owner, env)
		}
		return t.Raw, inner.with(t.Raw.TypeParams, env.applyList(t.Args))
	}
	return nil, env
}

// found is the result of a successful search.
type found struct {
	typ   model.Type // resolved type, expressed in the root's variables
	env   bindings   // bindings in force where typ was found
	owner *model.Class
}

// findParameter searches the ancestry of root, depth first in declaration
// order, for formal's declaring class and returns the argument bound to
// formal along the first path that reaches it.
func (w walker) findParameter(root model.Type, env bindings, formal *model.TypeVariable) (found, bool) {
	return w.findParameterOn(root, env, formal, nil)
}

func (w walker) findParameterOn(t model.Type, env bindings, formal *model.TypeVariable, path []*model.Class) (found, bool) {
	c, inner := w.enter(t, env)
	if c == nil || onPath(path, c) {
		return found{}, false
	}
	if c == formal.Decl {
		arg, ok := inner.lookup(formal)
		if !ok {
			arg = formal
		}
		return found{typ: arg, env: inner, owner: c}, true
	}
	path = append(path, c)
	for _, super := range c.Supers {
		w.edge(c, super)
		if f, ok := w.findParameterOn(super, inner, formal, path); ok {
			return f, true
		}
	}
	return found{}, false
}

// memberFunc extracts a member's declared type from a class.
type memberFunc func(c *model.Class) (model.Type, bool)

// findMember searches root and its ancestry, depth first in declaration
// order, for the first class declaring the member and returns the member's
// type with the bindings of that point applied.
func (w walker) findMember(root model.Type, env bindings, member memberFunc) (found, bool) {
	return w.findMemberOn(root, env, member, nil)
}

func (w walker) findMemberOn(t model.Type, env bindings, member memberFunc, path []*model.Class) (found, bool) {
	c, inner := w.enter(t, env)
	if c == nil || onPath(path, c) {
		return found{}, false
	}
	if mt, ok := member(c); ok {
		return found{typ: inner.apply(mt), env: inner, owner: c}, true
	}
	path = append(path, c)
	for _, super := range c.Supers {
		w.edge(c, super)
		if f, ok := w.findMemberOn(super, inner, member, path); ok {
			return f, true
		}
	}
	return found{}, false
}

func (w walker) edge(from *model.Class, to model.Type) {
	if w.logger == nil || !w.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	w.logger.Debug("ancestry edge",
		slog.String("from", from.Name),
		slog.String("to", to.String()))
}

// onPath guards against malformed universes with cyclic ancestry.
func onPath(path []*model.Class, c *model.Class) bool {
	for _, p := range path {
		if p == c {
			return true
		}
	}
	return false
}
