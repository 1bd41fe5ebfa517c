package rest

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	xe "github.com/youwol/backends/pkg/errors"
)

// EmptyResponse is the result of a successful call which has no content.
//
// It is distinguishable from any decoded JSON value, including null and {}.
type EmptyResponse struct{}

// Logger receives one line per outbound call.
//
// echo.Logger and *gommon/log.Logger satisfy this.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// Observer is notified about each outbound call.
//
// status is 0 when the call failed before receiving a response.
type Observer interface {
	Observe(service string, method string, status int, elapsed time.Duration)
}

// Request describes one outbound call.
type Request struct {
	Method string

	// Path is joined to the base URL of Executor.
	// When it is an absolute URL, it is used as it is.
	Path string

	Query url.Values

	// Headers sent with this request, merged over the Executor's default headers.
	//
	// Required. nil is a ValidationError.
	Headers Headers

	// Body of the request.
	//
	// - nil: no body
	//
	// - io.Reader or []byte: sent as it is
	//
	// - others: encoded as JSON
	Body any

	// ContentType of Body. When Body is encoded as JSON, "application/json" is used by default.
	ContentType string

	// Parameters are attached to *ServiceError when the call fails.
	Parameters map[string]any

	// asks server not to compress the response, so that it is delivered byte-exact.
	identity bool
}

// Executor issues outbound requests to one service.
//
// Executor is safe for concurrent use; it holds no per-call state.
type Executor struct {
	service    string
	base       *url.URL
	httpclient *http.Client
	headers    Headers
	logger     Logger
	observer   Observer
}

type Option func(*Executor) (*Executor, error)

// WithHTTPClient replaces the underlying http client (and its connection pool).
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Executor) (*Executor, error) {
		if hc != nil {
			e.httpclient = hc
		}
		return e, nil
	}
}

// WithHeaders sets default headers sent with every request.
func WithHeaders(h Headers) Option {
	return func(e *Executor) (*Executor, error) {
		if err := h.check(); err != nil {
			return nil, err
		}
		e.headers = h.Clone()
		return e, nil
	}
}

func WithLogger(l Logger) Option {
	return func(e *Executor) (*Executor, error) {
		e.logger = l
		return e, nil
	}
}

func WithObserver(o Observer) Option {
	return func(e *Executor) (*Executor, error) {
		e.observer = o
		return e, nil
	}
}

// WithTimeout bounds the whole exchange of each call, including reading the response body.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) (*Executor, error) {
		e.httpclient.Timeout = d
		return e, nil
	}
}

// WithCACerts trusts additional CA certificates (base64 encoded PEM).
func WithCACerts(cacerts ...string) Option {
	return func(e *Executor) (*Executor, error) {
		hc, err := trustCa(e.httpclient, cacerts)
		if err != nil {
			return nil, err
		}
		e.httpclient = hc
		return e, nil
	}
}

// New creates an Executor for the service served at base.
//
// # Args
//
// - service: name of the service. It is used in logs and metrics.
//
// - base: absolute URL of the service root.
//
// # Returns
//
// - *Executor
//
// - error: wraps ErrConfiguration when base is not an absolute URL.
func New(service string, base string, options ...Option) (*Executor, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil {
		return nil, xe.Configuration("base url of %s is invalid: %s", service, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, xe.Configuration("base url of %s is not absolute: %q", service, base)
	}

	tran := http.DefaultTransport.(*http.Transport).Clone()
	tran.MaxIdleConnsPerHost = 32

	e := &Executor{
		service:    service,
		base:       u,
		httpclient: &http.Client{Transport: tran},
		headers:    Headers{},
	}
	for _, opt := range options {
		if e, err = opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Executor) Service() string {
	return e.service
}

// HTTPClient returns the underlying client, for requests which bypass Do (e.g. raw forwarding).
func (e *Executor) HTTPClient() *http.Client {
	return e.httpclient
}

// URL resolves path, an escaped path as PathOf returns, under the base URL.
//
// Segments are appended as they are. Dot segments are not resolved here;
// requests having them are rejected by Do.
func (e *Executor) URL(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	escaped := strings.TrimSuffix(e.base.EscapedPath(), "/") + "/" + strings.TrimPrefix(path, "/")
	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		return strings.TrimSuffix(e.base.String(), "/") + "/" + strings.TrimPrefix(path, "/")
	}
	u := *e.base
	u.Path, u.RawPath = unescaped, escaped
	return u.String()
}

// CheckPath rejects an escaped path having "." or ".." as a segment,
// which would address another resource once resolved by a server or a proxy.
func CheckPath(escapedPath string) error {
	for _, seg := range strings.Split(escapedPath, "/") {
		s, err := url.PathUnescape(seg)
		if err != nil {
			return &ValidationError{Field: "path", Reason: "malformed escape", Cause: err}
		}
		if s == "." || s == ".." {
			return &ValidationError{Field: "path", Reason: fmt.Sprintf("dot segment is not allowed: %q", escapedPath)}
		}
	}
	return nil
}

// PathOf builds a path from segments, escaping each of them.
func PathOf(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(escaped, "/")
}

func (e *Executor) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	if r.Headers == nil {
		return nil, &ValidationError{
			Field:  "headers",
			Reason: "must be given explicitly (use rest.Headers{} to send no headers)",
		}
	}
	if err := r.Headers.check(); err != nil {
		return nil, err
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	contentType := r.ContentType
	switch b := r.Body.(type) {
	case nil:
	case io.Reader:
		body = b
	case []byte:
		body = bytes.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return nil, &ValidationError{Field: "body", Reason: "not JSON serializable", Cause: err}
		}
		body = bytes.NewReader(buf)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	u, err := url.Parse(e.URL(r.Path))
	if err != nil {
		return nil, &ValidationError{Field: "path", Reason: "invalid url", Cause: err}
	}
	if err := CheckPath(u.EscapedPath()); err != nil {
		return nil, err
	}
	if len(r.Query) != 0 {
		q := u.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}

	e.headers.apply(req.Header)
	r.Headers.apply(req.Header)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.identity && req.Header.Get("Accept-Encoding") == "" {
		// transport does not decompress when Accept-Encoding is given by us.
		req.Header.Set("Accept-Encoding", "identity")
	}
	return req, nil
}

// Do sends the request.
//
// When the response is 2xx, it is returned and the caller should close its body.
//
// Otherwise, the response is consumed and *ServiceError is returned.
// Errors from the transport are returned as they are.
func (e *Executor) Do(ctx context.Context, r Request) (*http.Response, error) {
	req, err := e.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	begin := time.Now()
	resp, err := e.httpclient.Do(req)
	elapsed := time.Since(begin)
	if err != nil {
		e.observe(req.Method, 0, elapsed)
		e.debugf("%s %s %s failed in %v: %s", e.service, req.Method, req.URL, elapsed, err)
		return nil, err
	}
	e.observe(req.Method, resp.StatusCode, elapsed)
	e.debugf("%s %s %s -> %d in %v", e.service, req.Method, req.URL, resp.StatusCode, elapsed)

	if ClassOf(resp.StatusCode) != Success {
		defer resp.Body.Close()
		return nil, Translate(resp, r.Parameters)
	}
	return resp, nil
}

func (e *Executor) observe(method string, status int, elapsed time.Duration) {
	if e.observer != nil {
		e.observer.Observe(e.service, method, status, elapsed)
	}
}

func (e *Executor) debugf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Debugf(format, args...)
	}
}

// JSON sends the request and decodes the JSON response as T.
//
// When T (or *T) is a Validator, it is validated after decoding.
// Malformed response is reported as ValidationError.
func JSON[T any](ctx context.Context, e *Executor, r Request) (T, error) {
	var out T
	resp, err := e.Do(ctx, r)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return *new(T), &ValidationError{
			Field:  "response",
			Reason: fmt.Sprintf("cannot decode response of %s %s", r.Method, e.URL(r.Path)),
			Cause:  err,
		}
	}
	if err := validate(&out); err != nil {
		return *new(T), err
	}
	return out, nil
}

func validate[T any](v *T) error {
	var err error
	if val, ok := any(v).(Validator); ok {
		err = val.Validate()
	} else if val, ok := any(*v).(Validator); ok {
		err = val.Validate()
	}
	if err == nil {
		return nil
	}
	if _, ok := err.(*ValidationError); ok {
		return err
	}
	return &ValidationError{Field: "response", Reason: "invalid shape", Cause: err}
}

// NoContent sends the request, discards the response body and returns EmptyResponse.
func NoContent(ctx context.Context, e *Executor, r Request) (EmptyResponse, error) {
	resp, err := e.Do(ctx, r)
	if err != nil {
		return EmptyResponse{}, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return EmptyResponse{}, nil
}

// Bytes sends the request and returns the response body as it is delivered.
//
// Transparent decompression is disabled.
func Bytes(ctx context.Context, e *Executor, r Request) ([]byte, error) {
	rc, err := Stream(ctx, e, r)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Stream sends the request and returns the response body.
//
// The caller should close it. Transparent decompression is disabled.
func Stream(ctx context.Context, e *Executor, r Request) (io.ReadCloser, error) {
	r.identity = true
	resp, err := e.Do(ctx, r)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func trustCa(hc *http.Client, cacerts []string) (*http.Client, error) {
	if len(cacerts) <= 0 {
		return hc, nil
	}

	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	tran, ok := base.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("failed to add ca cert")
	}
	tran = tran.Clone()

	tcc := tran.TLSClientConfig.Clone()
	if tcc == nil {
		tcc = &tls.Config{}
	}

	rootcas := tcc.RootCAs
	if rootcas == nil {
		rootcas = x509.NewCertPool()
		tcc.RootCAs = rootcas
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, err
		}

		if !rootcas.AppendCertsFromPEM(bin) {
			return nil, fmt.Errorf("failed to add cert")
		}
	}

	tran.TLSClientConfig = tcc
	return &http.Client{Transport: tran, Timeout: hc.Timeout}, nil
}
