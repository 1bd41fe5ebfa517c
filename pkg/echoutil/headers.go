package echoutil

import (
	"github.com/labstack/echo/v4"
	"github.com/youwol/backends/pkg/rest"
)

// ForwardedHeaders returns headers of the inbound request to be propagated to backend services.
//
// Authorization, cookies, the trace id and the local-only marker are kept.
// Headers describing the inbound connection or body are dropped.
func ForwardedHeaders(c echo.Context) rest.Headers {
	except := append([]string{
		"Host",
		echo.HeaderContentLength,
		echo.HeaderContentType,
		echo.HeaderAcceptEncoding,
	}, hopByHop...)
	return rest.FromHTTPHeader(c.Request().Header, except...)
}
