package rest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ErrRemoteService is matched (with errors.Is) by every *ServiceError.
var ErrRemoteService = errors.New("remote service error")

// upper bound of error body to be read for a detail message.
const maxErrorBody = 4 << 20

// ServiceError is an error reported by a remote service with non-2xx status.
//
// ServiceError is immutable.
type ServiceError struct {
	statusCode int
	detail     string
	parameters map[string]any
}

func NewServiceError(statusCode int, detail string, parameters map[string]any) *ServiceError {
	p := maps.Clone(parameters)
	if p == nil {
		p = map[string]any{}
	}
	return &ServiceError{statusCode: statusCode, detail: detail, parameters: p}
}

func (e *ServiceError) StatusCode() int {
	return e.statusCode
}

func (e *ServiceError) Detail() string {
	return e.detail
}

// Parameters returns a copy of the context given by the caller of the failed request.
func (e *ServiceError) Parameters() map[string]any {
	return maps.Clone(e.parameters)
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf(
		"%s (status code = %d): %s",
		ErrRemoteService.Error(), e.statusCode, e.detail,
	)
	if len(e.parameters) == 0 {
		return msg
	}

	keys := make([]string, 0, len(e.parameters))
	for k := range e.parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	params := make([]string, 0, len(keys))
	for _, k := range keys {
		params = append(params, fmt.Sprintf("%s=%v", k, e.parameters[k]))
	}
	return fmt.Sprintf("%s [%s]", msg, strings.Join(params, ", "))
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrRemoteService
}

// AsServiceError finds *ServiceError in err's chain.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Translate converts a failed response into *ServiceError.
//
// The detail message is taken from, in order,
//
// - "detail" field of JSON body,
//
// - "message" field of JSON body,
//
// - reason phrase of the status line, when the body is not JSON,
//
// - and the raw body text, when the detail is still empty
// (e.g. the body is JSON but not an object, or has neither field).
//
// parameters are attached to the error as they are.
//
// The response body is read, and replaced with a reader over the same bytes,
// so Translate can be applied to the same response again.
func Translate(resp *http.Response, parameters map[string]any) *ServiceError {
	body, _ := rewindableBody(resp)

	detail := ""
	if json.Valid(body) {
		// JSON other than an object has no detail; the raw body is used below.
		payload := map[string]json.RawMessage{}
		if err := json.Unmarshal(body, &payload); err == nil {
			if d, ok := payload["detail"]; ok {
				detail = stringify(d)
			} else if m, ok := payload["message"]; ok {
				detail = stringify(m)
			}
		}
	} else {
		detail = reasonPhrase(resp)
	}

	if detail == "" {
		detail = string(body)
	}

	return NewServiceError(resp.StatusCode, detail, parameters)
}

// read whole body, and set a fresh reader of the content read as resp.Body.
//
// When reading fails, what has been read is returned with the error.
func rewindableBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return body, err
}

func stringify(raw json.RawMessage) string {
	var s *string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == nil {
			return ""
		}
		return *s
	}
	return string(bytes.TrimSpace(raw))
}

func reasonPhrase(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}
