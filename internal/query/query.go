// Package query runs the resolver operations shared by the CLI and the HTTP
// surface: resolve a type parameter, a field type or a method return type on
// a subject class, optionally resolving a type parameter of the result.
package query

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/broady/typarg"
	"github.com/broady/typarg/model"
)

// Op selects the resolver operation.
type Op string

const (
	OpResolve Op = "resolve" // Resolver.TypeParameter
	OpField   Op = "field"   // Resolver.FieldType
	OpMethod  Op = "method"  // Resolver.MethodReturnType
)

// Request is one query. Subject names the class the question is asked from.
// For OpResolve, Param is the type parameter to resolve. For OpField and
// OpMethod, Name is the member and Param, when set, is resolved through the
// member's type.
type Request struct {
	Op      Op     `schema:"-" json:"op" yaml:"op" validate:"oneof=resolve field method"`
	Subject string `schema:"subject" json:"subject" yaml:"subject" validate:"required,max=512,classname"`
	Name    string `schema:"name" json:"name,omitempty" yaml:"name,omitempty" validate:"max=256"`
	Param   string `schema:"param" json:"param,omitempty" yaml:"param,omitempty" validate:"omitempty,max=512,typeparam"`
}

// Result is the answer to a Request.
type Result struct {
	Subject string   `json:"subject" yaml:"subject"`
	Query   string   `json:"query" yaml:"query"`
	Kind    string   `json:"kind" yaml:"kind"`
	Type    string   `json:"type" yaml:"type"`
	Bounds  []string `json:"bounds,omitempty" yaml:"bounds,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("classname", func(fl validator.FieldLevel) bool {
		return IsClassName(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("typeparam", func(fl validator.FieldLevel) bool {
		return IsParamRef(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// IsClassName reports whether s looks like a class name: segments joined by
// "." or "/", as in "java.util.Map" or "example.com/shapes.Box".
func IsClassName(s string) bool {
	if s == "" {
		return false
	}
	seg := 0
	for _, r := range s {
		switch {
		case r == '.' || r == '/':
			if seg == 0 {
				return false
			}
			seg = 0
		case r == '_' || r == '$' || r == '-' || r == '~' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') || r > 0x7f:
			seg++
		default:
			return false
		}
	}
	return seg > 0
}

// IsParamRef reports whether s has the form "Class.Name" or "Class#index".
func IsParamRef(s string) bool {
	if i := strings.LastIndexByte(s, '#'); i >= 0 {
		n, err := strconv.Atoi(s[i+1:])
		return err == nil && n >= 0 && IsClassName(s[:i])
	}
	i := strings.LastIndexByte(s, '.')
	return i > 0 && IsClassName(s[:i]) && IsClassName(s[i+1:])
}

// Validate checks the request's fields. Validation failures are returned as
// validator errors, which typarg.FromError maps to CodeInvalidArgument.
func (req *Request) Validate() error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	switch {
	case req.Op == OpResolve && req.Param == "":
		return typarg.NewError(typarg.CodeInvalidArgument, "param is required").WithDetail("Param", "required")
	case req.Op != OpResolve && req.Name == "":
		return typarg.Errorf(typarg.CodeInvalidArgument, "name is required for %s", req.Op).WithDetail("Name", "required")
	}
	return nil
}

// String renders the request the way it is answered, e.g. "Map.V" or
// "entries.Map.V".
func (req *Request) String() string {
	switch req.Op {
	case OpResolve:
		return req.Param
	case OpMethod:
		if req.Param != "" {
			return req.Name + "()." + req.Param
		}
		return req.Name + "()"
	default:
		if req.Param != "" {
			return req.Name + "." + req.Param
		}
		return req.Name
	}
}

// Run validates req and answers it against u.
func Run(u *model.Universe, req Request, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	subject, err := typarg.LookupClass(u, req.Subject)
	if err != nil {
		return nil, err
	}
	r := typarg.NewResolver(subject, typarg.WithLogger(logger))

	var d *typarg.Descriptor
	switch req.Op {
	case OpResolve:
		formal, err := typarg.LookupTypeParameter(u, req.Param)
		if err != nil {
			return nil, err
		}
		if d, err = r.TypeParameter(formal); err != nil {
			return nil, err
		}
		return NewResult(&req, d), nil
	case OpField:
		d, err = r.FieldType(req.Name)
	case OpMethod:
		d, err = r.MethodReturnType(req.Name)
	default:
		return nil, fmt.Errorf("unknown operation %q", req.Op)
	}
	if err != nil {
		return nil, err
	}
	if req.Param != "" {
		formal, err := typarg.LookupTypeParameter(u, req.Param)
		if err != nil {
			return nil, err
		}
		if d, err = d.TypeParameter(formal); err != nil {
			return nil, err
		}
	}
	return NewResult(&req, d), nil
}

// NewResult renders the descriptor answering req.
func NewResult(req *Request, d *typarg.Descriptor) *Result {
	res := &Result{
		Subject: d.Subject().Name,
		Query:   req.String(),
		Kind:    d.Classify().String(),
		Type:    d.String(),
	}
	for _, b := range d.Bounds() {
		res.Bounds = append(res.Bounds, b.String())
	}
	return res
}
