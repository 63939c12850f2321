package apiclient

import (
	"net/http"
	"net/url"
)

const (
	// XSRFCookieName is the readable cookie the server issues.
	XSRFCookieName = "XSRF-TOKEN"
	// XSRFHeaderName carries the decoded cookie value back.
	XSRFHeaderName = "X-XSRF-TOKEN"
)

// csrfTransport copies the XSRF-TOKEN cookie into the X-XSRF-TOKEN header
// and adds browser-style Origin and Referer headers to mutating requests.
type csrfTransport struct {
	base   http.RoundTripper
	jar    http.CookieJar
	origin string
}

func (t *csrfTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, hasToken := xsrfToken(t.jar, req.URL)
	mutating := !isSafeMethod(req.Method)
	if !hasToken && !mutating {
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	req = req.Clone(req.Context())
	if hasToken {
		req.Header.Set(XSRFHeaderName, token)
	}
	if mutating && req.Header.Get("Origin") == "" {
		req.Header.Set("Origin", t.origin)
		if req.Header.Get("Referer") == "" {
			req.Header.Set("Referer", t.origin+"/")
		}
	}
	return t.base.RoundTrip(req)
}

// xsrfToken reads and percent-decodes the XSRF-TOKEN cookie for u. A
// missing or undecodable cookie yields ok == false. '+' is kept literally.
func xsrfToken(jar http.CookieJar, u *url.URL) (token string, ok bool) {
	if jar == nil {
		return "", false
	}
	for _, c := range jar.Cookies(u) {
		if c.Name != XSRFCookieName {
			continue
		}
		decoded, err := url.PathUnescape(c.Value)
		if err != nil || decoded == "" {
			return "", false
		}
		return decoded, true
	}
	return "", false
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
