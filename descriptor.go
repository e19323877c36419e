package typarg

import (
	"github.com/broady/typarg/model"
)

// Classification tells which of the four kinds of type node a Descriptor wraps.
type Classification int

const (
	IsClass         Classification = iota // Concrete class or interface
	IsTypeVariable                        // Type variable still open at the subject
	IsParameterized                       // Use of a generic class with arguments
	IsWildcard                            // Wildcard argument
)

// String returns the string representation of the classification.
func (c Classification) String() string {
	switch c {
	case IsClass:
		return "Class"
	case IsTypeVariable:
		return "TypeVariable"
	case IsParameterized:
		return "Parameterized"
	case IsWildcard:
		return "Wildcard"
	default:
		return "Unknown"
	}
}

// Descriptor is the resolved type of a type parameter, field, or method
// return, as seen from a subject class. Descriptors are immutable and are
// only produced by a Resolver or by querying another Descriptor.
type Descriptor struct {
	raw     model.Type
	subject *model.Class
	env     bindings
	w       walker
}

// Classify returns the kind of node the descriptor wraps.
func (d *Descriptor) Classify() Classification {
	switch d.raw.(type) {
	case *model.TypeVariable:
		return IsTypeVariable
	case *model.Parameterized:
		return IsParameterized
	case *model.Wildcard:
		return IsWildcard
	default:
		return IsClass
	}
}

// Type returns the wrapped node: a *model.Class, *model.TypeVariable (with
// its declared bounds), *model.Parameterized, or *model.Wildcard.
func (d *Descriptor) Type() model.Type { return d.raw }

// Subject returns the class whose perspective produced the descriptor.
func (d *Descriptor) Subject() *model.Class { return d.subject }

// IsClass reports whether the wrapped type is a plain class.
func (d *Descriptor) IsClass() bool { return d.Classify() == IsClass }

// IsTypeVariable reports whether the wrapped type is an unresolved type variable.
func (d *Descriptor) IsTypeVariable() bool { return d.Classify() == IsTypeVariable }

// IsParameterized reports whether the wrapped type is a generic class use.
func (d *Descriptor) IsParameterized() bool { return d.Classify() == IsParameterized }

// IsWildcardType reports whether the wrapped type is a wildcard.
func (d *Descriptor) IsWildcardType() bool { return d.Classify() == IsWildcard }

// String returns the source form of the wrapped type.
func (d *Descriptor) String() string { return d.raw.String() }

// Bounds returns the ordered upper bounds of a type variable or wildcard, and
// nil for classes and parameterized types. For T extends JComponent & FileFilter
// both bounds are returned, where Narrow only surfaces the first.
func (d *Descriptor) Bounds() []model.Type {
	switch t := d.raw.(type) {
	case *model.TypeVariable:
		return t.Bounds
	case *model.Wildcard:
		return t.Upper
	}
	return nil
}

// TypeParameter resolves formal, a type parameter declared somewhere in the
// ancestry of the wrapped type, as seen through the wrapped type's own
// arguments. A type variable is searched through its bounds and a wildcard
// through its upper bounds, in order.
//
// It fails with CodeInvalidArgument when formal's declaring class is not an
// ancestor of the wrapped type.
func (d *Descriptor) TypeParameter(formal *model.TypeVariable) (*Descriptor, error) {
	if err := checkFormal(formal); err != nil {
		return nil, err
	}

	// d.raw is already expressed in the subject's variables. Only the declared
	// bounds of a type variable still refer to d.env.
	roots := []model.Type{d.raw}
	switch t := d.raw.(type) {
	case *model.TypeVariable:
		roots = d.env.applyList(t.Bounds)
	case *model.Wildcard:
		roots = t.Upper
	}

	for _, root := range roots {
		if f, ok := d.w.findParameter(root, bindings{}, formal); ok {
			return d.derive(f), nil
		}
	}
	return nil, notAncestor(formal, d.raw)
}

func (d *Descriptor) derive(f found) *Descriptor {
	return &Descriptor{raw: f.typ, subject: d.subject, env: f.env, w: d.w}
}

// Narrow collapses t to a single usable class following erasure rules.
// See the package-level Narrow.
func (d *Descriptor) Narrow(t model.Type, upperBound *model.Class) *model.Class {
	return Narrow(t, upperBound)
}

// Narrow collapses t to a single usable class: a class is returned unchanged,
// a type variable becomes the erasure of its first bound, and anything else
// (wildcards, parameterized types) becomes upperBound.
func Narrow(t model.Type, upperBound *model.Class) *model.Class {
	switch t := t.(type) {
	case *model.Class:
		return t
	case *model.TypeVariable:
		if len(t.Bounds) > 0 {
			if c := model.Erasure(t.Bounds[0]); c != nil {
				return c
			}
		}
	}
	return upperBound
}
