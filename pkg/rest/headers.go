package rest

import (
	"fmt"
	"maps"
	"net/http"
)

const (
	// HeaderLocalOnly marks a request as one which must not leave the local environment.
	//
	// Clients never add nor remove it; it is forwarded as given by callers.
	HeaderLocalOnly = "py-youwol-local-only"

	// HeaderTraceId carries the correlation id of the inbound request.
	HeaderTraceId = "x-trace-id"
)

// Headers to be sent with an outbound request.
//
// Typed clients take Headers as a required parameter.
// nil Headers is rejected; use Headers{} to send nothing but the client defaults.
//
// Keys are case-insensitive. Headers having the same key in different cases
// (e.g. "authorization" and "Authorization") is rejected, since either could win.
type Headers map[string]string

// Merge returns new Headers having h and override.
// On key collision (case-insensitive) the value from override wins.
func (h Headers) Merge(override Headers) Headers {
	hdr := http.Header{}
	h.apply(hdr)
	override.apply(hdr)

	merged := Headers{}
	for k := range hdr {
		merged[k] = hdr.Get(k)
	}
	return merged
}

func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	return maps.Clone(h)
}

func (h Headers) check() error {
	seen := map[string]string{}
	for k := range h {
		canon := http.CanonicalHeaderKey(k)
		if other, ok := seen[canon]; ok {
			return &ValidationError{
				Field:  "headers",
				Reason: fmt.Sprintf("%q and %q are the same header", other, k),
			}
		}
		seen[canon] = k
	}
	return nil
}

func (h Headers) apply(dest http.Header) {
	for k, v := range h {
		dest.Set(k, v)
	}
}

// FromHTTPHeader converts http.Header to Headers.
//
// Only the first value is taken for multi-valued headers.
// Keys listed in except (case-insensitive) are skipped.
func FromHTTPHeader(src http.Header, except ...string) Headers {
	exc := map[string]struct{}{}
	for _, x := range except {
		exc[http.CanonicalHeaderKey(x)] = struct{}{}
	}

	h := Headers{}
	for k, vs := range src {
		if _, ok := exc[http.CanonicalHeaderKey(k)]; ok {
			continue
		}
		if len(vs) == 0 {
			continue
		}
		h[k] = vs[0]
	}
	return h
}
