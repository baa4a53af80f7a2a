package download

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCancelled is wrapped when the caller interrupts the download
	ErrCancelled = errors.New("download cancelled")
	// ErrClosed is returned when the downloader has been closed
	ErrClosed = errors.New("downloader closed")
	// ErrBusy is returned when the destination is already being downloaded
	ErrBusy = errors.New("download in progress")
	// ErrStalled is wrapped when the transcoder stops producing output
	ErrStalled = errors.New("no activity from the transcoder")
	// ErrInvalidName is returned when the destination isn't a plain file name
	ErrInvalidName = errors.New("invalid destination file name")
)

// TranscodeError is returned when the transcoder can't be started or fails
type TranscodeError struct {
	Tool     string
	ExitCode int    // -1 when the process didn't exit by itself
	Stderr   string // last lines written by the transcoder
	Err      error
}

func (e *TranscodeError) Error() string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "%s failed", e.Tool)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " with status %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %s", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, "\n%s", e.Stderr)
	}
	return b.String()
}

func (e *TranscodeError) Unwrap() error { return e.Err }
