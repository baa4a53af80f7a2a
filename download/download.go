// Package download runs the external transcoder that copies a video stream into a local file.
//
// A Downloader is acquired with New and released with Close. Each Save call
// runs one transcoder process, reports its progression and never leaves the
// process running nor a partial file under the destination name.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/simulot/aspiravod/mylog"
)

// DefaultTool is the transcoder looked up in the PATH
const DefaultTool = "ffmpeg"

// Downloader wraps the transcoder invocation
type Downloader struct {
	dir             string        // target directory
	tool            string        // transcoder path
	verbose         bool          // log all transcoder output
	log             *mylog.MyLog  // to produce some logs
	grace           time.Duration // delay between the interruption and the kill of the process
	stall           time.Duration // drop the download when the transcoder stays silent
	callbackTimeout time.Duration // how long the end of Save waits for the progress callback

	mu      sync.Mutex
	closed  bool
	running bool
	cancel  context.CancelCauseFunc
}

// WithVerbose logs the transcoder output
func WithVerbose(v bool) func(d *Downloader) {
	return func(d *Downloader) {
		d.verbose = v
	}
}

// WithLogger sets the logger
func WithLogger(l *mylog.MyLog) func(d *Downloader) {
	return func(d *Downloader) {
		d.log = l
	}
}

// WithGracePeriod sets the delay given to the transcoder to stop after an interruption
func WithGracePeriod(g time.Duration) func(d *Downloader) {
	return func(d *Downloader) {
		d.grace = g
	}
}

// WithStallTimeout sets the delay after which a silent transcoder is killed
func WithStallTimeout(s time.Duration) func(d *Downloader) {
	return func(d *Downloader) {
		d.stall = s
	}
}

// WithCallbackTimeout sets how long Save waits for pending progress notifications before returning
func WithCallbackTimeout(t time.Duration) func(d *Downloader) {
	return func(d *Downloader) {
		d.callbackTimeout = t
	}
}

// New records the configuration of a downloader. Nothing is opened nor started.
func New(targetDir, toolPath string, conf ...func(d *Downloader)) *Downloader {
	d := &Downloader{
		dir:             targetDir,
		tool:            toolPath,
		grace:           5 * time.Second,
		stall:           60 * time.Second,
		callbackTimeout: 2 * time.Second,
	}
	if d.tool == "" {
		d.tool = DefaultTool
	}
	for _, fn := range conf {
		fn(d)
	}
	return d
}

// Close stops the running transcoder, if any. Save can't be called after Close.
func (d *Downloader) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.cancel != nil {
		d.cancel(ErrClosed)
	}
	return nil
}

func (d *Downloader) acquire(cancel context.CancelCauseFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.closed:
		return ErrClosed
	case d.running:
		return fmt.Errorf("%w: the downloader is already running", ErrBusy)
	}
	d.running = true
	d.cancel = cancel
	return nil
}

func (d *Downloader) release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	d.cancel = nil
}

// Save transcodes the stream at sourceURL into destFilename within the target directory.
// It returns the path of the written file.
// The progress function is called while the transcoder runs, it can be nil.
func (d *Downloader) Save(ctx context.Context, destFilename, sourceURL string, progress ProgressFunc) (dest string, err error) {
	if sourceURL == "" {
		return "", errors.New("missing input")
	}
	if destFilename == "" {
		return "", errors.New("missing destination")
	}
	if destFilename == "." || destFilename == ".." || filepath.Base(destFilename) != destFilename {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, destFilename)
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if err = d.acquire(cancel); err != nil {
		return "", err
	}
	defer d.release()

	dir, err := PathClean(d.dir)
	if err != nil {
		return "", err
	}
	dest = filepath.Join(dir, destFilename)
	if err = os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("can't create target directory: %w", err)
	}

	lock := flock.New(dest + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return "", fmt.Errorf("can't lock %q: %w", dest, err)
	}
	if !locked {
		return "", fmt.Errorf("%w: %q is being downloaded", ErrBusy, dest)
	}
	defer func() {
		// removed while still locked
		os.Remove(lock.Path())
		lock.Unlock()
	}()

	tmp := filepath.Join(filepath.Dir(dest), "."+uuid.NewString()+filepath.Ext(dest))
	defer func() {
		if err != nil {
			os.Remove(tmp)
			d.log.Error().Printf("[FFMPEG] %s", err)
		}
	}()

	d.log.Info().Printf("[FFMPEG] Start download of %s", dest)
	params := arguments(sourceURL, tmp)
	d.log.Debug().Printf("[FFMPEG] running %s %q", d.tool, params)

	cmd := exec.CommandContext(runCtx, d.tool, params...)
	cmd.Cancel = func() error {
		if runtime.GOOS == "windows" {
			return cmd.Process.Kill()
		}
		// let the transcoder close the file, it gets killed after the grace period
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = d.grace

	pr, pw := io.Pipe()
	cmd.Stderr = pw

	n := newNotifier(progress, d.log)
	wd := newWatchDog(d.stall, func() {
		cancel(ErrStalled)
	})
	mon := newMonitor(dest, n, wd, d.log, d.verbose)
	monDone := make(chan struct{})
	go func() {
		defer close(monDone)
		mon.run(pr)
	}()

	err = cmd.Start()
	if err != nil {
		wd.Stop()
		pw.Close()
		<-monDone
		n.close(d.callbackTimeout)
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrCancelled, dest, context.Cause(ctx))
		}
		return "", &TranscodeError{Tool: d.tool, ExitCode: -1, Err: err}
	}

	werr := cmd.Wait()
	wd.Stop()
	pw.Close()
	<-monDone
	n.close(d.callbackTimeout)

	if err = d.failure(ctx, context.Cause(runCtx), werr, dest, mon.tail()); err != nil {
		return "", err
	}

	if err = os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("can't move %q to %q: %w", tmp, dest, err)
	}
	d.log.Info().Printf("[FFMPEG] %s downloaded", dest)
	return dest, nil
}

// failure tells why the transcoder's output can't be kept, nil when it can.
// cause is the cause of the transcoder's context, werr the result of its Wait.
func (d *Downloader) failure(ctx context.Context, cause, werr error, dest, tail string) error {
	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %s: %w", ErrCancelled, dest, context.Cause(ctx))
	case errors.Is(cause, ErrClosed):
		return fmt.Errorf("%w: %s: %w", ErrCancelled, dest, ErrClosed)
	case werr == nil:
		// a watchdog firing after a clean exit doesn't spoil the file
		return nil
	case errors.Is(cause, ErrStalled):
		return &TranscodeError{Tool: d.tool, ExitCode: exitCode(werr), Stderr: tail, Err: ErrStalled}
	}
	return &TranscodeError{Tool: d.tool, ExitCode: exitCode(werr), Stderr: tail, Err: werr}
}

func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
