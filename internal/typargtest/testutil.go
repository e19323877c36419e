// Package typargtest provides testing helpers shared by the query, HTTP and
// CLI packages: fixture universes and HTTP request/response assertions.
package typargtest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/broady/typarg/classpath"
	"github.com/broady/typarg/model"
)

// Root returns the module root directory.
func Root() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}

// GenericsFixture is the classpath document most tests resolve against,
// relative to the module root.
const GenericsFixture = "classpath/testdata/generics.yaml"

type loaded struct {
	u   *model.Universe
	err error
}

var (
	mu       sync.Mutex
	fixtures = map[string]*loaded{}
)

// Universe loads and links the classpath documents at paths, relative to the
// module root, together with the built-ins. Universes are sealed and
// immutable, so each set of paths is loaded once per test binary.
func Universe(t testing.TB, paths ...string) *model.Universe {
	t.Helper()
	key := strings.Join(paths, "\x00")

	mu.Lock()
	l, ok := fixtures[key]
	if !ok {
		abs := make([]string, len(paths))
		for i, p := range paths {
			abs[i] = filepath.Join(Root(), filepath.FromSlash(p))
		}
		l = &loaded{}
		l.u, l.err = classpath.Load(context.Background(), abs)
		fixtures[key] = l
	}
	mu.Unlock()

	if l.err != nil {
		t.Fatalf("loading %v: %v", paths, l.err)
	}
	return l.u
}

// Generics returns the universe of GenericsFixture.
func Generics(t testing.TB) *model.Universe {
	t.Helper()
	return Universe(t, GenericsFixture)
}

// RequestBuilder helps construct test HTTP requests with fluent API.
type RequestBuilder struct {
	httpMethod string
	path       string
	headers    map[string]string
	query      url.Values
}

// NewRequest creates a new request builder for GET /.
func NewRequest() *RequestBuilder {
	return &RequestBuilder{
		httpMethod: http.MethodGet,
		path:       "/",
		headers:    make(map[string]string),
		query:      url.Values{},
	}
}

// GET sets the HTTP method to GET.
func (b *RequestBuilder) GET(path string) *RequestBuilder {
	b.httpMethod = http.MethodGet
	b.path = path
	return b
}

// Method sets an arbitrary HTTP method.
func (b *RequestBuilder) Method(method, path string) *RequestBuilder {
	b.httpMethod = method
	b.path = path
	return b
}

// WithHeader adds a header to the request.
func (b *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	b.headers[key] = value
	return b
}

// WithQuery adds a query parameter.
func (b *RequestBuilder) WithQuery(key, value string) *RequestBuilder {
	b.query.Add(key, value)
	return b
}

// Build creates the HTTP request and ResponseRecorder.
func (b *RequestBuilder) Build() (*http.Request, *httptest.ResponseRecorder) {
	target := b.path
	if len(b.query) > 0 {
		target += "?" + b.query.Encode()
	}
	req := httptest.NewRequest(b.httpMethod, target, nil)
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}
	return req, httptest.NewRecorder()
}

// Serve builds the request and serves it with h.
func (b *RequestBuilder) Serve(h http.Handler) *httptest.ResponseRecorder {
	req, w := b.Build()
	h.ServeHTTP(w, req)
	return w
}

// AssertStatus checks that the response has the expected status code.
func AssertStatus(t testing.TB, w *httptest.ResponseRecorder, expectedStatus int) {
	t.Helper()
	if w.Code != expectedStatus {
		t.Errorf("expected status %d, got %d\nBody: %s", expectedStatus, w.Code, w.Body.String())
	}
}

// AssertHeader checks that a response header has the expected value.
func AssertHeader(t testing.TB, w *httptest.ResponseRecorder, key, expectedValue string) {
	t.Helper()
	if actual := w.Header().Get(key); actual != expectedValue {
		t.Errorf("expected header %s=%s, got %s", key, expectedValue, actual)
	}
}

type responseEnvelope struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorResponse  `json:"error,omitempty"`
}

// ErrorResponse is the error member of the response envelope.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// DecodeResult decodes the result member of a {"result": ...} envelope into v.
func DecodeResult(t testing.TB, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("expected Content-Type to contain application/json, got %s", ct)
	}
	var env responseEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response envelope: %v\nBody: %s", err, w.Body.String())
	}
	if env.Error != nil {
		t.Fatalf("expected success response but got error: %s: %s", env.Error.Code, env.Error.Message)
	}
	if err := json.Unmarshal(env.Result, v); err != nil {
		t.Fatalf("failed to decode result: %v\nBody: %s", err, w.Body.String())
	}
}

// AssertJSONError checks that the response contains an error with the expected code.
func AssertJSONError(t testing.TB, w *httptest.ResponseRecorder, expectedCode string) *ErrorResponse {
	t.Helper()
	var env responseEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode error response envelope: %v\nBody: %s", err, w.Body.String())
	}
	if env.Error == nil {
		t.Fatalf("expected error response but got result: %s", string(env.Result))
	}
	if env.Error.Code != expectedCode {
		t.Errorf("expected error code %s, got %s (message: %s)", expectedCode, env.Error.Code, env.Error.Message)
	}
	return env.Error
}
