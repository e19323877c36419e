package model

import (
	"fmt"
	"strings"
)

// Universe is the set of classes known to a resolver. It plays the role of
// the runtime's class loader: everything the resolver reads comes from here.
//
// A Universe is built single-threaded and then sealed. After Seal it is
// read-only and safe for concurrent use.
type Universe struct {
	classes map[string]*Class
	order   []*Class
	object  *Class
	array   *Class
	sealed  bool
}

// NewUniverse returns a universe containing the root class and the built-in
// array class.
func NewUniverse() *Universe {
	obj := &Class{Name: ObjectName}
	arr := &Class{Name: ArrayName}
	arr.TypeParams = []*TypeVariable{{Name: "E", Decl: arr}}
	return &Universe{
		classes: map[string]*Class{ObjectName: obj, ArrayName: arr},
		order:   []*Class{obj, arr},
		object:  obj,
		array:   arr,
	}
}

// Object returns the root class.
func (u *Universe) Object() *Class { return u.object }

// Array returns the built-in generic array class.
func (u *Universe) Array() *Class { return u.array }

// ArrayOf returns the use of the array class with element type elem.
func (u *Universe) ArrayOf(elem Type) *Parameterized {
	return &Parameterized{Raw: u.array, Args: []Type{elem}}
}

// Define adds classes to the universe. Nested classes are not added
// implicitly; define them alongside their enclosing class.
func (u *Universe) Define(classes ...*Class) error {
	if u.sealed {
		return fmt.Errorf("universe is sealed")
	}
	for _, c := range classes {
		if c == nil || c.Name == "" {
			return fmt.Errorf("class must have a name")
		}
		if _, exists := u.classes[c.Name]; exists {
			return fmt.Errorf("duplicate class %s", c.Name)
		}
		u.classes[c.Name] = c
		u.order = append(u.order, c)
	}
	return nil
}

// Seal freezes the universe. Unbounded type variables are given the root
// class as their single bound so that every variable has a primary bound.
func (u *Universe) Seal() {
	if u.sealed {
		return
	}
	for _, c := range u.order {
		for _, tv := range c.TypeParams {
			u.defaultBound(tv)
		}
		for _, m := range c.Methods {
			for _, tv := range m.TypeParams {
				u.defaultBound(tv)
			}
		}
	}
	u.sealed = true
}

func (u *Universe) defaultBound(tv *TypeVariable) {
	if len(tv.Bounds) == 0 {
		tv.Bounds = []Type{u.object}
	}
}

// Sealed reports whether Seal has been called.
func (u *Universe) Sealed() bool { return u.sealed }

// Lookup finds a class by qualified name. When no class has that exact name,
// a suffix match starting at a "." or "/" boundary ("ArrayList",
// "Outer.Inner", "shapes.Box") is accepted if it is unambiguous.
func (u *Universe) Lookup(name string) (*Class, bool) {
	if c, ok := u.classes[name]; ok {
		return c, true
	}
	var found *Class
	for _, c := range u.order {
		if hasSegmentSuffix(c.Name, name) {
			if found != nil {
				return nil, false
			}
			found = c
		}
	}
	return found, found != nil
}

func hasSegmentSuffix(s, suffix string) bool {
	if len(s) <= len(suffix) || !strings.HasSuffix(s, suffix) {
		return false
	}
	switch s[len(s)-len(suffix)-1] {
	case '.', '/':
		return true
	}
	return false
}

// MustLookup is like Lookup but panics when the class is unknown.
// Intended for fixtures and tests.
func (u *Universe) MustLookup(name string) *Class {
	c, ok := u.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("model: class %q not found", name))
	}
	return c
}

// Classes returns all classes in definition order.
func (u *Universe) Classes() []*Class {
	out := make([]*Class, len(u.order))
	copy(out, u.order)
	return out
}

// Len returns the number of classes, the built-in classes included.
func (u *Universe) Len() int { return len(u.order) }
