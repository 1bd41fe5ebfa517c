package errors_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	apierr "github.com/youwol/backends/pkg/api/types/errors"
	xe "github.com/youwol/backends/pkg/errors"
	"github.com/youwol/backends/pkg/rest"
)

func TestHandler(t *testing.T) {
	for name, testcase := range map[string]struct {
		err          error
		expectCode   int
		expectDetail string
		expectParams map[string]any
	}{
		"when it is a ServiceError, its status and detail are relayed": {
			err: fmt.Errorf(
				"getting: %w",
				rest.NewServiceError(404, "no such key", map[string]any{"key": "foo"}),
			),
			expectCode:   http.StatusNotFound,
			expectDetail: "no such key",
			expectParams: map[string]any{"key": "foo"},
		},
		"when it is a validation error, it is 400": {
			err:        &rest.ValidationError{Field: "package", Reason: "must not be empty"},
			expectCode: http.StatusBadRequest,
			expectDetail: (&rest.ValidationError{
				Field: "package", Reason: "must not be empty",
			}).Error(),
		},
		"when it is a configuration error, it is 503": {
			err:          xe.Configuration("treedb is not set"),
			expectCode:   http.StatusServiceUnavailable,
			expectDetail: "service is not configured",
		},
		"when deadline is exceeded, it is 504": {
			err:          fmt.Errorf("calling cdn: %w", context.DeadlineExceeded),
			expectCode:   http.StatusGatewayTimeout,
			expectDetail: "backend service timed out",
		},
		"when it is an echo error with string message, the message is the detail": {
			err:          echo.ErrNotFound,
			expectCode:   http.StatusNotFound,
			expectDetail: "Not Found",
		},
		"when it is unknown, it is 500 and cause is hidden": {
			err:          errors.New("dial tcp 10.0.0.1: connection refused"),
			expectCode:   http.StatusInternalServerError,
			expectDetail: "unexpected error",
		},
	} {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			apierr.Handler(testcase.err, c)

			if rec.Code != testcase.expectCode {
				t.Errorf("status: (actual, expected) = (%d, %d)", rec.Code, testcase.expectCode)
			}
			actual := apierr.ErrorResponse{}
			if err := json.Unmarshal(rec.Body.Bytes(), &actual); err != nil {
				t.Fatalf("body is not ErrorResponse: %s", rec.Body.String())
			}
			if actual.Detail != testcase.expectDetail {
				t.Errorf("detail: (actual, expected) = (%q, %q)", actual.Detail, testcase.expectDetail)
			}
			if len(actual.Parameters) != len(testcase.expectParams) {
				t.Errorf("parameters: (actual, expected) = (%v, %v)", actual.Parameters, testcase.expectParams)
			}
			for k, v := range testcase.expectParams {
				if actual.Parameters[k] != v {
					t.Errorf("parameters[%s]: (actual, expected) = (%v, %v)", k, actual.Parameters[k], v)
				}
			}
		})
	}

	t.Run("when response is committed already, it writes nothing", func(t *testing.T) {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		c.String(http.StatusOK, "partial")

		apierr.Handler(errors.New("broken"), c)

		if rec.Code != http.StatusOK || rec.Body.String() != "partial" {
			t.Errorf("response is overwritten: %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("for HEAD request, it writes no body", func(t *testing.T) {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodHead, "/", nil), rec)

		apierr.Handler(apierr.NotFound(), c)

		if rec.Code != http.StatusNotFound || rec.Body.Len() != 0 {
			t.Errorf("unexpected response: %d %q", rec.Code, rec.Body.String())
		}
	})
}
