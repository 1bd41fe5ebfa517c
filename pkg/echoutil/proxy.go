package echoutil

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	apierr "github.com/youwol/backends/pkg/api/types/errors"
)

// headers meaningful only for a single connection.
var hopByHop = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Proxy forwards the request in c to url, and copies the response back to c.
//
// Headers other than Host and hop-by-hop ones are forwarded as they are, including Accept-Encoding.
// The response body is relayed byte-exact, without decompression.
//
// # Args
//
// - c: echo.Context of the inbound request.
//
// - hc: client to send the request. When nil, http.DefaultClient is used.
//
// - url: destination, including query if any.
//
// # Returns
//
// - error: 502 *echo.HTTPError when the destination cannot be reached.
// Errors while copying the response are returned as they are.
func Proxy(c echo.Context, hc *http.Client, url string) error {
	if hc == nil {
		hc = http.DefaultClient
	}
	src := c.Request()

	req, err := http.NewRequestWithContext(src.Context(), src.Method, url, src.Body)
	if err != nil {
		return apierr.InternalServerError(err)
	}
	req.ContentLength = src.ContentLength
	CopyHeader(req.Header, src.Header, append([]string{"Host"}, hopByHop...)...)
	if req.Header.Get("Accept-Encoding") == "" {
		// transport does not decompress when Accept-Encoding is given by us.
		req.Header.Set("Accept-Encoding", "identity")
	}
	if src.Trailer != nil {
		// filled by the server when the request body is read through.
		req.Trailer = src.Trailer
	}

	resp, err := hc.Do(req)
	if err != nil {
		return apierr.BadGateway(err)
	}
	defer resp.Body.Close()

	return CopyResponse(c, resp)
}

// CopyHeader adds headers in src to dest, except keys listed in except (case-insensitive).
func CopyHeader(dest http.Header, src http.Header, except ...string) {
	exc := map[string]struct{}{}
	for _, x := range except {
		exc[strings.ToLower(x)] = struct{}{}
	}

	for k, vs := range src {
		if _, ok := exc[strings.ToLower(k)]; ok {
			continue
		}
		for _, v := range vs {
			dest.Add(k, v)
		}
	}
}

// CopyResponse writes resp as the response of c, with its trailers.
//
// When resp has no Content-Length, the body is flushed per read.
func CopyResponse(c echo.Context, resp *http.Response) error {
	dst := c.Response()
	header := dst.Header()
	CopyHeader(header, resp.Header, hopByHop...)
	for trailer := range resp.Trailer {
		header.Add("Trailer", trailer)
	}

	dst.WriteHeader(resp.StatusCode)

	if err := copyBody(dst, resp.Body, resp.ContentLength < 0); err != nil {
		return err
	}

	// resp.Trailer is complete after the body is read through.
	for k, vs := range resp.Trailer {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	return nil
}

func copyBody(dst *echo.Response, src io.Reader, flush bool) error {
	if !flush {
		_, err := io.Copy(dst, src)
		return err
	}

	buf := make([]byte, 32*1024)
	for {
		n, err := src.Read(buf)
		if 0 < n {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			dst.Flush()
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
