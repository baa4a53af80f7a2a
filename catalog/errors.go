package catalog

import (
	"errors"
	"fmt"
)

// ErrCategoryNotFound is wrapped when a listing names an unknown category
var ErrCategoryNotFound = errors.New("category not found")

// ErrChannelNotFound is wrapped when a listing names an unknown channel
var ErrChannelNotFound = errors.New("channel not found")

// ErrNoStream is wrapped by DownloadError when the show has no stream URL
var ErrNoStream = errors.New("no video stream for this show")

// ResolutionError is returned when no show ID can be determined from the input
type ResolutionError struct {
	Input string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("can't resolve show %q: %s", e.Input, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// CatalogFetchError is returned when the catalog can't be fetched or its payload is malformed
type CatalogFetchError struct {
	URL      string
	Fragment string // beginning of the raw response
	Err      error
}

// NewFetchError builds a CatalogFetchError keeping a short fragment of the payload
func NewFetchError(url string, payload []byte, err error) *CatalogFetchError {
	return &CatalogFetchError{
		URL:      url,
		Fragment: Fragment(payload, 120),
		Err:      err,
	}
}

func (e *CatalogFetchError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("can't fetch %s: %s", e.URL, e.Err)
	}
	return fmt.Sprintf("can't fetch %s: %s (response: %q)", e.URL, e.Err, e.Fragment)
}

func (e *CatalogFetchError) Unwrap() error { return e.Err }

// DownloadError is returned by Save when the download fails
type DownloadError struct {
	ID   string
	Path string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("can't download show %s into %q: %s", e.ID, e.Path, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Fragment returns at most n runes of the payload
func Fragment(b []byte, n int) string {
	s := []rune(string(b))
	if len(s) > n {
		return string(s[:n]) + "…"
	}
	return string(s)
}
