package model

import "strings"

// ObjectName is the qualified name of the root class every universe contains.
const ObjectName = "java.lang.Object"

// ArrayName names the built-in generic class standing for arrays and slices:
// String[] is modeled as []<String>.
const ArrayName = "[]"

// Class is a class or interface declaration.
//
// Supertypes are kept in their declared generic form: for
// "class StringList extends ArrayList<String>" Supers holds the
// Parameterized ArrayList<String>, not the raw ArrayList.
type Class struct {
	// Name is the qualified name. Nested classes are named after their
	// enclosing class, e.g. "pkg.Outer.Inner".
	Name string

	// Interface is true for interface declarations.
	Interface bool

	// Static is true for nested classes that carry no enclosing instance.
	// Ignored for top-level classes.
	Static bool

	// Enclosing is the lexically enclosing class, nil for top-level classes.
	Enclosing *Class

	// TypeParams are the declared type parameters in order.
	TypeParams []*TypeVariable

	// Supers lists the direct supertypes: the superclass first (when
	// declared), then the superinterfaces in declaration order.
	Supers []Type

	// Fields are the declared fields in order.
	Fields []Field

	// Methods are the declared methods in order.
	Methods []Method

	// Nested are the nested class declarations.
	Nested []*Class
}

// Field is a declared field.
type Field struct {
	Name string
	Type Type
}

// Method is a declared method. Only the name and the generic return type are
// recorded; parameter lists do not take part in resolution.
type Method struct {
	Name       string
	TypeParams []*TypeVariable
	Return     Type
}

// Kind returns KindClass.
func (*Class) Kind() Kind { return KindClass }

func (c *Class) String() string { return c.Name }

func (*Class) sealed() {}

// SimpleName returns the last segment of the qualified name.
func (c *Class) SimpleName() string {
	if i := strings.LastIndexByte(c.Name, '.'); i >= 0 {
		return c.Name[i+1:]
	}
	return c.Name
}

// IsObject reports whether c is the root class.
func (c *Class) IsObject() bool { return c.Name == ObjectName }

// IsGeneric reports whether c declares type parameters.
func (c *Class) IsGeneric() bool { return len(c.TypeParams) > 0 }

// IsInner reports whether c is a nested class bound to an instance of its
// enclosing class, so that it sees the enclosing class's type parameters.
func (c *Class) IsInner() bool { return c.Enclosing != nil && !c.Static && !c.Interface }

// TypeParameter returns the declared type parameter with the given name, or nil.
func (c *Class) TypeParameter(name string) *TypeVariable {
	for _, tv := range c.TypeParams {
		if tv.Name == name {
			return tv
		}
	}
	return nil
}

// Field returns the field declared directly on c.
func (c *Class) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Method returns the first method named name declared directly on c.
func (c *Class) Method(name string) (Method, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// NestedClass returns the directly nested class with the given simple name.
func (c *Class) NestedClass(simple string) *Class {
	for _, n := range c.Nested {
		if n.SimpleName() == simple {
			return n
		}
	}
	return nil
}

// Declaration renders the class header, e.g.
// "interface SwitchArgumentsMap<VE, KE> extends Map<KE, VE>".
func (c *Class) Declaration() string {
	var sb strings.Builder
	if c.Interface {
		sb.WriteString("interface ")
	} else {
		sb.WriteString("class ")
	}
	sb.WriteString(c.Name)
	if len(c.TypeParams) > 0 {
		sb.WriteByte('<')
		for i, tv := range c.TypeParams {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(tv.Declaration())
		}
		sb.WriteByte('>')
	}
	if len(c.Supers) > 0 {
		sb.WriteString(" : ")
		writeList(&sb, c.Supers, ", ")
	}
	return sb.String()
}
