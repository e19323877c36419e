package httpapi

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/broady/typarg/internal/query"
	"github.com/broady/typarg/internal/typargtest"
)

func TestServerQueries(t *testing.T) {
	h := New(typargtest.Generics(t)).Handler()

	tests := []struct {
		name     string
		req      *typargtest.RequestBuilder
		wantKind string
		wantType string
	}{
		{
			name:     "resolve",
			req:      typargtest.NewRequest().GET("/resolve").WithQuery("subject", "StringList").WithQuery("param", "java.util.List.E"),
			wantKind: "Class",
			wantType: "java.lang.String",
		},
		{
			name:     "resolve short names",
			req:      typargtest.NewRequest().GET("/resolve").WithQuery("subject", "AnotherIntegerStringMap").WithQuery("param", "Map.K"),
			wantKind: "Class",
			wantType: "java.lang.Integer",
		},
		{
			name:     "field",
			req:      typargtest.NewRequest().GET("/field").WithQuery("subject", "ClassWithMap").WithQuery("name", "map"),
			wantKind: "Parameterized",
			wantType: "java.util.Map<java.lang.String, java.lang.Integer>",
		},
		{
			name:     "field with param",
			req:      typargtest.NewRequest().GET("/field").WithQuery("subject", "ClassWithMap").WithQuery("name", "map").WithQuery("param", "Map.V"),
			wantKind: "Class",
			wantType: "java.lang.Integer",
		},
		{
			name:     "method",
			req:      typargtest.NewRequest().GET("/method/").WithQuery("subject", "FileFilterDialog").WithQuery("name", "getService"),
			wantKind: "TypeVariable",
			wantType: "T",
		},
		{
			name:     "unknown keys ignored",
			req:      typargtest.NewRequest().GET("/resolve").WithQuery("subject", "StringList").WithQuery("param", "List.E").WithQuery("verbose", "1"),
			wantKind: "Class",
			wantType: "java.lang.String",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.req.Serve(h)
			typargtest.AssertStatus(t, w, http.StatusOK)
			var res query.Result
			typargtest.DecodeResult(t, w, &res)
			if res.Kind != tt.wantKind || res.Type != tt.wantType {
				t.Errorf("got %s %s, want %s %s", res.Kind, res.Type, tt.wantKind, tt.wantType)
			}
		})
	}
}

func TestServerErrors(t *testing.T) {
	h := New(typargtest.Generics(t)).Handler()

	tests := []struct {
		name      string
		req       *typargtest.RequestBuilder
		status    int
		code      string
		detailKey string
	}{
		{
			name:      "unknown route",
			req:       typargtest.NewRequest().GET("/nope"),
			status:    http.StatusNotFound,
			code:      "not_found",
			detailKey: "path",
		},
		{
			name:   "wrong method",
			req:    typargtest.NewRequest().Method(http.MethodPost, "/resolve").WithQuery("subject", "StringList").WithQuery("param", "List.E"),
			status: http.StatusMethodNotAllowed,
			code:   "method_not_allowed",
		},
		{
			name:      "missing subject",
			req:       typargtest.NewRequest().GET("/resolve").WithQuery("param", "List.E"),
			status:    http.StatusBadRequest,
			code:      "invalid_argument",
			detailKey: "Subject",
		},
		{
			name:      "missing param",
			req:       typargtest.NewRequest().GET("/resolve").WithQuery("subject", "StringList"),
			status:    http.StatusBadRequest,
			code:      "invalid_argument",
			detailKey: "Param",
		},
		{
			name:      "missing name",
			req:       typargtest.NewRequest().GET("/field").WithQuery("subject", "StringList"),
			status:    http.StatusBadRequest,
			code:      "invalid_argument",
			detailKey: "Name",
		},
		{
			name:      "unknown class",
			req:       typargtest.NewRequest().GET("/resolve").WithQuery("subject", "Nope").WithQuery("param", "List.E"),
			status:    http.StatusNotFound,
			code:      "not_found",
			detailKey: "class",
		},
		{
			name:      "not an ancestor",
			req:       typargtest.NewRequest().GET("/resolve").WithQuery("subject", "StringList").WithQuery("param", "Map.K"),
			status:    http.StatusBadRequest,
			code:      "invalid_argument",
			detailKey: "param",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.req.Serve(h)
			typargtest.AssertStatus(t, w, tt.status)
			e := typargtest.AssertJSONError(t, w, tt.code)
			if tt.detailKey != "" {
				if _, ok := e.Details[tt.detailKey]; !ok {
					t.Errorf("details = %v, want key %q", e.Details, tt.detailKey)
				}
			}
		})
	}
}

func TestServerHealthz(t *testing.T) {
	u := typargtest.Generics(t)
	w := typargtest.NewRequest().GET("/healthz").Serve(New(u).Handler())
	typargtest.AssertStatus(t, w, http.StatusOK)

	var body map[string]int
	typargtest.DecodeResult(t, w, &body)
	if body["classes"] != u.Len() {
		t.Errorf("classes = %d, want %d", body["classes"], u.Len())
	}
}

func TestServerRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	// A nil universe panics on the first use.
	h := New(nil).WithLogger(logger).WithMaskInternalErrors().Handler()
	w := typargtest.NewRequest().GET("/healthz").Serve(h)
	typargtest.AssertStatus(t, w, http.StatusInternalServerError)

	e := typargtest.AssertJSONError(t, w, "internal")
	if e.Message != "internal server error" {
		t.Errorf("message = %q, want masked", e.Message)
	}
	if !strings.Contains(buf.String(), "PANIC recovered") {
		t.Errorf("log missing panic: %s", buf.String())
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := New(typargtest.Generics(t)).WithMiddleware(mw("outer")).WithMiddleware(mw("inner")).Handler()
	typargtest.NewRequest().GET("/healthz").Serve(h)
	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("order = %v", order)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	srv := New(typargtest.Generics(t)).WithLogger(slog.New(slog.DiscardHandler))
	go func() {
		errc <- srv.ListenAndServe(ctx, "127.0.0.1:0")
	}()
	cancel()
	if err := <-errc; err != nil {
		t.Errorf("ListenAndServe = %v", err)
	}
}
