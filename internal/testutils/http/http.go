// Package http provides helpers to call echo handlers in tests.
package http

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

// RequestOption modifies a request before it is sent.
type RequestOption func(req *http.Request)

// WithHeader adds the header. It can be repeated for multiple values.
func WithHeader(key string, values ...string) RequestOption {
	return func(req *http.Request) {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}

func WithBearer(token string) RequestOption {
	return WithHeader(echo.HeaderAuthorization, "Bearer "+token)
}

func ContentType(ctyp string) RequestOption {
	return WithHeader(echo.HeaderContentType, ctyp)
}

// JSONBody encodes v as the request body.
//
// It panics when v cannot be encoded.
func JSONBody(v any) io.Reader {
	buf, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return bytes.NewReader(buf)
}

func newRequest(method string, target string, body io.Reader, opts []RequestOption) *http.Request {
	req := httptest.NewRequest(method, target, body)
	for _, opt := range opts {
		opt(req)
	}
	return req
}

// NewContext creates an echo.Context for a request, to call a handler directly.
//
// Routes and middlewares of e are not involved. Use Serve for them.
func NewContext(e *echo.Echo, method string, target string, body io.Reader, opts ...RequestOption) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return e.NewContext(newRequest(method, target, body, opts), rec), rec
}

func Get(e *echo.Echo, target string, opts ...RequestOption) (echo.Context, *httptest.ResponseRecorder) {
	return NewContext(e, http.MethodGet, target, nil, opts...)
}

func Post(e *echo.Echo, target string, body io.Reader, opts ...RequestOption) (echo.Context, *httptest.ResponseRecorder) {
	return NewContext(e, http.MethodPost, target, body, opts...)
}

// Serve sends a request through e, with its routes and middlewares.
func Serve(e *echo.Echo, method string, target string, body io.Reader, opts ...RequestOption) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, newRequest(method, target, body, opts))
	return rec
}
