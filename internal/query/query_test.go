package query

import (
	"strings"
	"testing"

	"github.com/broady/typarg"
	"github.com/broady/typarg/internal/typargtest"
)

func TestRun(t *testing.T) {
	u := typargtest.Generics(t)

	tests := []struct {
		name string
		req  Request
		want Result
	}{
		{
			name: "resolve",
			req:  Request{Op: OpResolve, Subject: "AnotherIntegerStringMap", Param: "Map.V"},
			want: Result{Subject: "example.generics.AnotherIntegerStringMap", Query: "Map.V", Kind: "Class", Type: "java.lang.String"},
		},
		{
			name: "resolve by index",
			req:  Request{Op: OpResolve, Subject: "AnotherIntegerStringMap", Param: "Map#0"},
			want: Result{Subject: "example.generics.AnotherIntegerStringMap", Query: "Map#0", Kind: "Class", Type: "java.lang.Integer"},
		},
		{
			name: "field through param",
			req:  Request{Op: OpField, Subject: "ClassWithConcreteNumberList", Name: "list", Param: "Collection.E"},
			want: Result{Subject: "example.generics.ClassWithConcreteNumberList", Query: "list.Collection.E", Kind: "Class", Type: "java.lang.Long"},
		},
		{
			name: "field",
			req:  Request{Op: OpField, Subject: "ClassWithMap", Name: "map"},
			want: Result{Subject: "example.generics.ClassWithMap", Query: "map", Kind: "Parameterized", Type: "java.util.Map<java.lang.String, java.lang.Integer>"},
		},
		{
			name: "method returning a variable",
			req:  Request{Op: OpMethod, Subject: "FileFilterDialog", Name: "getService"},
			want: Result{Subject: "example.generics.FileFilterDialog", Query: "getService()", Kind: "TypeVariable", Type: "T", Bounds: []string{"java.io.FileFilter"}},
		},
		{
			name: "wildcard",
			req:  Request{Op: OpField, Subject: "ClassWithListAndWildcard", Name: "list", Param: "List.E"},
			want: Result{Subject: "example.generics.ClassWithListAndWildcard", Query: "list.List.E", Kind: "Wildcard", Type: "?", Bounds: []string{"java.lang.Object"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Run(u, tt.req, nil)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got.Subject != tt.want.Subject || got.Query != tt.want.Query || got.Kind != tt.want.Kind || got.Type != tt.want.Type {
				t.Errorf("Run = %+v\nwant %+v", *got, tt.want)
			}
			if strings.Join(got.Bounds, ",") != strings.Join(tt.want.Bounds, ",") {
				t.Errorf("bounds = %v, want %v", got.Bounds, tt.want.Bounds)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	u := typargtest.Generics(t)

	tests := []struct {
		name   string
		req    Request
		code   typarg.ErrorCode
		detail string
	}{
		{"no op", Request{Subject: "StringList", Param: "List.E"}, typarg.CodeInvalidArgument, "Op"},
		{"missing param", Request{Op: OpResolve, Subject: "StringList"}, typarg.CodeInvalidArgument, "Param"},
		{"missing name", Request{Op: OpField, Subject: "StringList"}, typarg.CodeInvalidArgument, "Name"},
		{"bad subject", Request{Op: OpResolve, Subject: "List<String>", Param: "List.E"}, typarg.CodeInvalidArgument, "Subject"},
		{"bad param", Request{Op: OpResolve, Subject: "StringList", Param: "E"}, typarg.CodeInvalidArgument, "Param"},
		{"unknown subject", Request{Op: OpResolve, Subject: "Nope", Param: "List.E"}, typarg.CodeNotFound, "class"},
		{"not an ancestor", Request{Op: OpResolve, Subject: "StringList", Param: "Map.V"}, typarg.CodeInvalidArgument, ""},
		{"no such field", Request{Op: OpField, Subject: "StringList", Name: "nope"}, typarg.CodeInvalidArgument, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(u, tt.req, nil)
			e := typarg.FromError(err)
			if e == nil || e.Code != tt.code {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
			if tt.detail != "" {
				if _, ok := e.Details[tt.detail]; !ok {
					t.Errorf("details = %v, want key %s", e.Details, tt.detail)
				}
			}
		})
	}
}

func TestIsClassName(t *testing.T) {
	tests := map[string]bool{
		"Map":                    true,
		"java.util.Map":          true,
		"Outer.Inner":            true,
		"example.com/shapes.Box": true,
		"Map$Entry":              true,
		"":                       false,
		".Map":                   false,
		"Map.":                   false,
		"java..Map":              false,
		"List<String>":           false,
		"a b":                    false,
	}
	for s, want := range tests {
		if got := IsClassName(s); got != want {
			t.Errorf("IsClassName(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestIsParamRef(t *testing.T) {
	tests := map[string]bool{
		"Map.V":                    true,
		"java.util.Map.K":          true,
		"Map#1":                    true,
		"example.com/shapes.Box.T": true,
		"V":                        false,
		"Map#":                     false,
		"Map#-1":                   false,
		"#0":                       false,
		"Map.":                     false,
	}
	for s, want := range tests {
		if got := IsParamRef(s); got != want {
			t.Errorf("IsParamRef(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestRequestString(t *testing.T) {
	tests := []struct {
		req  Request
		want string
	}{
		{Request{Op: OpResolve, Param: "Map.V"}, "Map.V"},
		{Request{Op: OpField, Name: "list"}, "list"},
		{Request{Op: OpField, Name: "list", Param: "List.E"}, "list.List.E"},
		{Request{Op: OpMethod, Name: "get"}, "get()"},
		{Request{Op: OpMethod, Name: "get", Param: "List.E"}, "get().List.E"},
	}
	for _, tt := range tests {
		if got := tt.req.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
