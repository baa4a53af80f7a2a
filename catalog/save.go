package catalog

import (
	"context"

	"github.com/simulot/aspiravod/download"
	"github.com/simulot/aspiravod/mylog"
)

// SaveOptions configures the download of a show
type SaveOptions struct {
	TargetDir string                // destination directory, ~ is expanded
	ToolPath  string                // transcoder, ffmpeg when empty
	Verbose   bool                  // log all transcoder output
	Extension string                // container extension, .mkv when empty
	Progress  download.ProgressFunc // can be nil
	Log       *mylog.MyLog

	// Downloader options, mainly for tests
	Downloader []func(*download.Downloader)
}

// Save downloads the show's video stream into the target directory.
// It returns the path of the written file.
func Save(ctx context.Context, show Show, opts SaveOptions) (string, error) {
	name := FileName(show.Title(), show.ID(), opts.Extension)
	stream := show.StreamURL()
	if stream == "" {
		return "", &DownloadError{ID: show.ID(), Path: name, Err: ErrNoStream}
	}

	conf := []func(*download.Downloader){
		download.WithVerbose(opts.Verbose),
		download.WithLogger(opts.Log),
	}
	d := download.New(opts.TargetDir, opts.ToolPath, append(conf, opts.Downloader...)...)
	defer d.Close()

	opts.Log.Debug().Printf("[CATALOG] Save show %s from %s", show.ID(), stream)
	dest, err := d.Save(ctx, name, stream, opts.Progress)
	if err != nil {
		return "", &DownloadError{ID: show.ID(), Path: name, Err: err}
	}
	return dest, nil
}
