package httptest

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// HTTPTest is a RoundTripper serving files instead of querying the network.
// It records requested URLs so tests can count them.
type HTTPTest struct {
	UrlToFilefn func(u string) string

	mu       sync.Mutex
	requests []string
}

// New create a HTTPTest and configures it
func New(conf ...func(ht *HTTPTest)) *HTTPTest {
	ht := &HTTPTest{}
	fileDirect()(ht) // default: url is file name
	for _, fn := range conf {
		fn(ht)
	}
	return ht
}

// the url is the file name
func fileDirect() func(ht *HTTPTest) {
	return func(ht *HTTPTest) {
		ht.UrlToFilefn = func(u string) string {
			return u
		}
	}
}

// WithURLToFile set the custom function UrlToFile
func WithURLToFile(fn func(u string) string) func(ht *HTTPTest) {
	return func(ht *HTTPTest) {
		ht.UrlToFilefn = fn
	}
}

// WithConstantFile read always the same file
func WithConstantFile(s string) func(ht *HTTPTest) {
	return func(ht *HTTPTest) {
		ht.UrlToFilefn = func(string) string {
			return s
		}
	}
}

// WithRoutes maps each url to a file. Unknown urls get a 404.
func WithRoutes(routes map[string]string) func(ht *HTTPTest) {
	return func(ht *HTTPTest) {
		ht.UrlToFilefn = func(u string) string {
			return routes[u]
		}
	}
}

// Requests returns the urls requested so far
func (ht *HTTPTest) Requests() []string {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	return append([]string(nil), ht.requests...)
}

// Count returns how many times the url was requested
func (ht *HTTPTest) Count(u string) int {
	n := 0
	for _, r := range ht.Requests() {
		if r == u {
			n++
		}
	}
	return n
}

// RoundTrip implements the file roundtripper and use the UrlToFile function
// to determine the actual file name from the given url
func (ht *HTTPTest) RoundTrip(r *http.Request) (*http.Response, error) {
	url := ""
	if r != nil && r.URL != nil {
		url = r.URL.String()
	}
	ht.mu.Lock()
	ht.requests = append(ht.requests, url)
	ht.mu.Unlock()

	name := ht.UrlToFilefn(url)
	b, err := os.ReadFile(name)
	if name == "" || err != nil {
		return response(r, http.StatusNotFound, "text/plain", []byte("not found: "+url)), nil
	}
	return response(r, http.StatusOK, contentType(name), b), nil
}

func response(r *http.Request, code int, ct string, b []byte) *http.Response {
	header := make(http.Header)
	header.Add("Content-Type", ct)
	return &http.Response{
		Status:        http.StatusText(code),
		StatusCode:    code,
		Proto:         "HTTP/1.0",
		ProtoMajor:    1,
		ProtoMinor:    0,
		Body:          io.NopCloser(bytes.NewReader(b)),
		ContentLength: int64(len(b)),
		Close:         true,
		Request:       r,
		Header:        header,
	}
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(strings.TrimSuffix(name, ".txt"))) {
	case ".json":
		return "application/json"
	case ".xml":
		return "text/xml; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}
