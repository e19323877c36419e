package typarg

import (
	"strconv"
	"strings"

	"github.com/broady/typarg/model"
)

// LookupClass finds a class by qualified or unambiguous simple name.
// It fails with CodeNotFound.
func LookupClass(u *model.Universe, name string) (*model.Class, error) {
	c, ok := u.Lookup(name)
	if !ok {
		return nil, Errorf(CodeNotFound, "class %s not found", name).WithDetail("class", name)
	}
	return c, nil
}

// LookupTypeParameter finds a class type parameter from a textual reference:
// "java.util.Map.V" or "Map.V" by name, "Map#1" by position.
func LookupTypeParameter(u *model.Universe, ref string) (*model.TypeVariable, error) {
	if i := strings.LastIndexByte(ref, '#'); i > 0 {
		c, err := LookupClass(u, ref[:i])
		if err != nil {
			return nil, err
		}
		idx, err := strconv.Atoi(ref[i+1:])
		if err != nil || idx < 0 || idx >= len(c.TypeParams) {
			return nil, Errorf(CodeInvalidArgument, "%s has no type parameter at position %s", c.Name, ref[i+1:]).
				WithDetail("param", ref)
		}
		return c.TypeParams[idx], nil
	}

	i := strings.LastIndexByte(ref, '.')
	if i <= 0 || i == len(ref)-1 {
		return nil, Errorf(CodeInvalidArgument, "malformed type parameter reference %q: want Class.Name or Class#index", ref).
			WithDetail("param", ref)
	}
	c, err := LookupClass(u, ref[:i])
	if err != nil {
		return nil, err
	}
	tv := c.TypeParameter(ref[i+1:])
	if tv == nil {
		return nil, Errorf(CodeInvalidArgument, "%s declares no type parameter %s", c.Name, ref[i+1:]).
			WithDetail("param", ref)
	}
	return tv, nil
}
