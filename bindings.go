package typarg

import "github.com/broady/typarg/model"

// bindings maps type variables to the arguments they stand for at one point
// of an ancestry walk. A bindings value is never modified once built; with
// returns a new value, so a walk can branch into several supertypes without
// the branches seeing each other's substitutions.
type bindings struct {
	m map[*model.TypeVariable]model.Type
}

// with returns a copy of b extended with vars[i] -> args[i].
// A missing argument (a raw use of a generic class) leaves the variable
// open, dropping any binding b had for it.
func (b bindings) with(vars []*model.TypeVariable, args []model.Type) bindings {
	if len(vars) == 0 {
		return b
	}
	m := make(map[*model.TypeVariable]model.Type, len(b.m)+len(vars))
	for k, v := range b.m {
		m[k] = v
	}
	for i, tv := range vars {
		if i < len(args) && args[i] != nil {
			m[tv] = args[i]
		} else {
			delete(m, tv)
		}
	}
	return bindings{m: m}
}

// lookup returns the argument bound to tv, if any.
func (b bindings) lookup(tv *model.TypeVariable) (model.Type, bool) {
	t, ok := b.m[tv]
	return t, ok
}

// apply substitutes bound variables in t. Unbound variables are returned
// unchanged, so they stay open at the subject.
func (b bindings) apply(t model.Type) model.Type {
	if len(b.m) == 0 || t == nil {
		return t
	}
	switch t := t.(type) {
	case *model.Class:
		return t

	case *model.TypeVariable:
		if arg, ok := b.m[t]; ok {
			return arg
		}
		return t

	case *model.Parameterized:
		args := b.applyList(t.Args)
		var owner model.Type
		if t.Owner != nil {
			owner = b.apply(t.Owner)
		}
		return &model.Parameterized{Raw: t.Raw, Args: args, Owner: owner}

	case *model.Wildcard:
		return &model.Wildcard{Upper: b.applyList(t.Upper), Lower: b.applyList(t.Lower)}

	default:
		return t
	}
}

func (b bindings) applyList(types []model.Type) []model.Type {
	if types == nil {
		return nil
	}
	out := make([]model.Type, len(types))
	for i, t := range types {
		out[i] = b.apply(t)
	}
	return out
}
