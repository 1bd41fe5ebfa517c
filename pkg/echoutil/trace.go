package echoutil

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/youwol/backends/pkg/rest"
)

const traceIdKey = "youwol.traceId"

// TraceId takes the trace id of the request from its header, or issues a new one.
//
// The id is set to the request header (to be forwarded), the response header and the context.
func TraceId(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		id := req.Header.Get(rest.HeaderTraceId)
		if id == "" {
			id = uuid.NewString()
			req.Header.Set(rest.HeaderTraceId, id)
		}
		c.Set(traceIdKey, id)
		c.Response().Header().Set(rest.HeaderTraceId, id)
		return next(c)
	}
}

// TraceIdOf returns the trace id set by TraceId, or "" if it is not set.
func TraceIdOf(c echo.Context) string {
	id, _ := c.Get(traceIdKey).(string)
	return id
}
