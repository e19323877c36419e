package signature

import "strings"

// TypeExpr is a type as written in a signature.
type TypeExpr struct {
	// Segments are the dot-separated parts of the name, each with its own
	// type arguments: Outer<E>.Inner has two segments.
	// Empty for wildcards.
	Segments []Segment

	// Wildcard marks "?" arguments. Upper and Lower hold their bounds.
	Wildcard bool
	Upper    []*TypeExpr
	Lower    []*TypeExpr

	// Dims counts trailing "[]" pairs.
	Dims int

	// Pos is the byte offset of the expression in the parsed input.
	Pos int
}

// Segment is one dotted name part with its type arguments.
type Segment struct {
	Name string
	Args []*TypeExpr
}

// Name returns the dotted name without type arguments.
func (t *TypeExpr) Name() string {
	names := make([]string, len(t.Segments))
	for i, s := range t.Segments {
		names[i] = s.Name
	}
	return strings.Join(names, ".")
}

// HasArgs reports whether any segment carries type arguments.
func (t *TypeExpr) HasArgs() bool {
	for _, s := range t.Segments {
		if len(s.Args) > 0 {
			return true
		}
	}
	return false
}

func (t *TypeExpr) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *TypeExpr) write(sb *strings.Builder) {
	if t.Wildcard {
		sb.WriteByte('?')
		if len(t.Upper) > 0 {
			sb.WriteString(" extends ")
			writeExprs(sb, t.Upper, " & ")
		}
		if len(t.Lower) > 0 {
			sb.WriteString(" super ")
			writeExprs(sb, t.Lower, " & ")
		}
		return
	}
	for i, s := range t.Segments {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(s.Name)
		if len(s.Args) > 0 {
			sb.WriteByte('<')
			writeExprs(sb, s.Args, ", ")
			sb.WriteByte('>')
		}
	}
	for range t.Dims {
		sb.WriteString("[]")
	}
}

func writeExprs(sb *strings.Builder, exprs []*TypeExpr, sep string) {
	for i, e := range exprs {
		if i > 0 {
			sb.WriteString(sep)
		}
		e.write(sb)
	}
}

// TypeParam is a declared type parameter with its bounds.
type TypeParam struct {
	Name   string
	Bounds []*TypeExpr
}

// ClassDecl is a parsed class or interface header.
type ClassDecl struct {
	Interface bool

	// Static is set when the header carries the static modifier.
	Static bool

	Name       string
	TypeParams []TypeParam

	// Extends holds the superclass of a class (at most one) or the
	// superinterfaces of an interface.
	Extends []*TypeExpr

	// Implements holds the superinterfaces of a class.
	Implements []*TypeExpr
}

// Supers returns Extends followed by Implements.
func (d *ClassDecl) Supers() []*TypeExpr {
	out := make([]*TypeExpr, 0, len(d.Extends)+len(d.Implements))
	out = append(out, d.Extends...)
	return append(out, d.Implements...)
}

// MemberDecl is a parsed field ("name: Type") or method ("<T> name(): Type").
type MemberDecl struct {
	Name       string
	Method     bool
	TypeParams []TypeParam
	Type       *TypeExpr
}
