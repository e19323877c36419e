// Package model describes a class universe the way a runtime reflection
// facility exposes it: classes and interfaces with their declared generic
// signatures, type variables with ordered bounds, parameterized uses of
// generic classes, and wildcards.
//
// The model is deliberately passive. It records what was declared and never
// substitutes or resolves anything; that is the job of package typarg.
package model

import "strings"

// Kind identifies the category of a type node.
type Kind int

const (
	KindClass         Kind = iota // Concrete (possibly generic) class or interface
	KindParameterized             // Use of a generic class with type arguments
	KindTypeVariable              // Named type parameter
	KindWildcard                  // ?, ? extends T, ? super T
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "Class"
	case KindParameterized:
		return "Parameterized"
	case KindTypeVariable:
		return "TypeVariable"
	case KindWildcard:
		return "Wildcard"
	default:
		return "Unknown"
	}
}

// Type is a node of the reflected type graph.
type Type interface {
	// Kind returns the node kind for type switching.
	Kind() Kind

	// String returns a Java-like rendering of the node.
	String() string

	// Ensure only types in this package can implement Type.
	sealed()
}

// Parameterized is a use of a generic class together with its type arguments,
// e.g. Map<String, Integer>.
type Parameterized struct {
	// Raw is the generic class being used.
	Raw *Class

	// Args holds one argument per type parameter of Raw, in declaration order.
	Args []Type

	// Owner is the enclosing type for uses of non-static inner classes
	// (Outer<Integer>.Inner). nil for top-level and static nested classes.
	Owner Type
}

// Kind returns KindParameterized.
func (*Parameterized) Kind() Kind { return KindParameterized }

func (p *Parameterized) String() string {
	var sb strings.Builder
	if p.Raw.Name == ArrayName && len(p.Args) == 1 {
		sb.WriteString(p.Args[0].String())
		sb.WriteString("[]")
		return sb.String()
	}
	if p.Owner != nil {
		sb.WriteString(p.Owner.String())
		sb.WriteByte('.')
		sb.WriteString(p.Raw.SimpleName())
	} else {
		sb.WriteString(p.Raw.Name)
	}
	if len(p.Args) > 0 {
		sb.WriteByte('<')
		writeList(&sb, p.Args, ", ")
		sb.WriteByte('>')
	}
	return sb.String()
}

func (*Parameterized) sealed() {}

// TypeVariable is a declared type parameter of a class or of a method.
type TypeVariable struct {
	// Name is the parameter name (T, E, K, ...).
	Name string

	// Decl is the class declaring the parameter, or declaring the method
	// that declares it.
	Decl *Class

	// Method is the declaring method's name for method-scoped parameters.
	Method string

	// Index is the parameter's position in its declaration list.
	Index int

	// Bounds holds the declared upper bounds in order. Never empty once the
	// universe is sealed: an unbounded parameter is bounded by Object.
	Bounds []Type
}

// Kind returns KindTypeVariable.
func (*TypeVariable) Kind() Kind { return KindTypeVariable }

func (v *TypeVariable) String() string { return v.Name }

func (*TypeVariable) sealed() {}

// QualifiedName names the variable together with its declaration,
// e.g. "java.util.Map.K" or "Foo.get.T" for a method parameter.
func (v *TypeVariable) QualifiedName() string {
	prefix := "?"
	if v.Decl != nil {
		prefix = v.Decl.Name
	}
	if v.Method != "" {
		prefix += "." + v.Method
	}
	return prefix + "." + v.Name
}

// Declaration renders the variable with its bounds, e.g. "T extends Number & Serializable".
func (v *TypeVariable) Declaration() string {
	if len(v.Bounds) == 0 {
		return v.Name
	}
	if isObject(v.Bounds) {
		return v.Name
	}
	var sb strings.Builder
	sb.WriteString(v.Name)
	sb.WriteString(" extends ")
	writeList(&sb, v.Bounds, " & ")
	return sb.String()
}

// Wildcard is an unnamed type argument with optional bounds.
type Wildcard struct {
	// Upper holds the "? extends" bounds. A plain "?" is bounded by Object.
	Upper []Type

	// Lower holds the "? super" bounds.
	Lower []Type
}

// Kind returns KindWildcard.
func (*Wildcard) Kind() Kind { return KindWildcard }

func (w *Wildcard) String() string {
	var sb strings.Builder
	sb.WriteByte('?')
	if len(w.Upper) > 0 && !isObject(w.Upper) {
		sb.WriteString(" extends ")
		writeList(&sb, w.Upper, " & ")
	}
	if len(w.Lower) > 0 {
		sb.WriteString(" super ")
		writeList(&sb, w.Lower, " & ")
	}
	return sb.String()
}

func (*Wildcard) sealed() {}

func isObject(bounds []Type) bool {
	if len(bounds) != 1 {
		return false
	}
	c, ok := bounds[0].(*Class)
	return ok && c.IsObject()
}

// Erasure returns the class a type erases to: the class itself, the raw class
// of a parameterized use, or the erasure of the first bound of a variable or
// wildcard. It returns nil for an unbounded wildcard.
func Erasure(t Type) *Class {
	switch t := t.(type) {
	case *Class:
		return t
	case *Parameterized:
		return t.Raw
	case *TypeVariable:
		if len(t.Bounds) == 0 {
			return nil
		}
		return Erasure(t.Bounds[0])
	case *Wildcard:
		if len(t.Upper) == 0 {
			return nil
		}
		return Erasure(t.Upper[0])
	default:
		return nil
	}
}

// Identical reports whether two type nodes denote the same type.
// Classes and type variables compare by identity, composite nodes structurally.
func Identical(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch a := a.(type) {
	case *Class:
		return a == b
	case *TypeVariable:
		return a == b
	case *Parameterized:
		p, ok := b.(*Parameterized)
		if !ok || a.Raw != p.Raw || len(a.Args) != len(p.Args) {
			return false
		}
		if (a.Owner == nil) != (p.Owner == nil) {
			return false
		}
		if a.Owner != nil && !Identical(a.Owner, p.Owner) {
			return false
		}
		return identicalList(a.Args, p.Args)
	case *Wildcard:
		w, ok := b.(*Wildcard)
		return ok && identicalList(a.Upper, w.Upper) && identicalList(a.Lower, w.Lower)
	}
	return false
}

func identicalList(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Identical(a[i], b[i]) {
			return false
		}
	}
	return true
}

func writeList(sb *strings.Builder, types []Type, sep string) {
	for i, t := range types {
		if i > 0 {
			sb.WriteString(sep)
		}
		if t == nil {
			sb.WriteString("<nil>")
			continue
		}
		sb.WriteString(t.String())
	}
}
