package echoutil

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// LogHandlerFunc logs each request as one JSON line at INFO, when it is done.
//
// The line carries the trace id set by TraceId, so put TraceId before this.
func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		begin := time.Now()
		c.Logger().Debugf("[%s] %s %s started", TraceIdOf(c), req.Method, req.URL)

		err := next(c)

		entry := log.JSON{
			"trace":   TraceIdOf(c),
			"method":  req.Method,
			"uri":     req.URL.String(),
			"status":  c.Response().Status,
			"bytes":   c.Response().Size,
			"latency": time.Since(begin).String(),
		}
		if claims, ok := ClaimsOf(c); ok {
			entry["subject"] = claims.Subject
		}
		if err != nil {
			entry["error"] = err.Error()
		}
		c.Logger().Infoj(entry)
		return err
	}
}

// ParseLevel converts level name to log.Lvl.
//
// Unknown names are WARN, reported with ok = false.
func ParseLevel(loglevel string) (lvl log.Lvl, ok bool) {
	switch strings.ToLower(loglevel) {
	case "debug":
		return log.DEBUG, true
	case "info":
		return log.INFO, true
	case "warn", "":
		return log.WARN, true
	case "error":
		return log.ERROR, true
	case "off":
		return log.OFF, true
	default:
		return log.WARN, false
	}
}

func SetLevel(e *echo.Echo, loglevel string) {
	lvl, ok := ParseLevel(loglevel)
	e.Logger.SetLevel(lvl)
	if !ok {
		e.Logger.Warnf("unknown loglevel: %s . fall-backed to warn", loglevel)
	}
}
