package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/simulot/aspiravod/catalog"
	"github.com/simulot/aspiravod/download"
	"github.com/simulot/aspiravod/mylog"
	"github.com/simulot/aspiravod/workers"
)

func newFetchCommand(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "fetch <id|url>...",
		Short: "Download the TV shows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.fetch(cmd, args, verbose)
		},
	}
	cmd.Flags().StringVarP(&a.flags.Target, "target", "t", "~/Downloads", "Target directory to download the file to")
	cmd.Flags().StringVar(&a.flags.Transcoder, "transcoder", download.DefaultTool, "Path of ffmpeg or avconv")
	cmd.Flags().IntVar(&a.flags.MaxTasks, "max-tasks", 2, "Maximum concurrent downloads at a time")
	cmd.Flags().BoolVarP(&verbose, "verbose", "V", false, "Show the transcoder output")
	return cmd
}

// fetch downloads the shows, each one with its own downloader
func (a *app) fetch(cmd *cobra.Command, ids []string, verbose bool) error {
	ctx := cmd.Context()
	var pc *mpb.Progress
	if !a.config.Headless {
		pc = mpb.NewWithContext(ctx,
			mpb.WithWidth(64),
			mpb.WithOutput(cmd.ErrOrStderr()),
		)
	}

	pool := workers.New(ctx, a.config.MaxTasks, workers.WithLogger(a.log))
	for _, id := range ids {
		err := pool.Submit(workers.NewRunAction(id, func(ctx context.Context) error {
			return a.fetchOne(ctx, cmd, pc, id, verbose)
		}))
		if err != nil {
			break
		}
	}
	err := pool.Stop()
	if pc != nil {
		pc.Wait()
	}
	return err
}

func (a *app) fetchOne(ctx context.Context, cmd *cobra.Command, pc *mpb.Progress, idOrURL string, verbose bool) error {
	s, err := a.service.ResolveShow(ctx, idOrURL)
	if err != nil {
		return err
	}
	name := catalog.FileName(s.Title(), s.ID(), "")
	a.log.Info().Printf("[FETCH] Download %q into %s", s.Title(), a.config.Target)

	var pgr progressReporter
	if pc == nil {
		pgr = newLogProgress(a.log, name)
	} else {
		pgr = newBarProgress(pc, name)
	}

	dest, err := catalog.Save(ctx, s, catalog.SaveOptions{
		TargetDir: a.config.Target,
		ToolPath:  a.config.Transcoder,
		Verbose:   verbose,
		Progress:  pgr.Update,
		Log:       a.log,
		Downloader: []func(*download.Downloader){
			download.WithStallTimeout(time.Duration(a.config.StallTimeout)),
		},
	})
	pgr.Done(err == nil)
	if err != nil {
		return err
	}
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(cmd.OutOrStdout(), "%s downloaded\n", dest)
	return nil
}

type progressReporter interface {
	Update(p download.Progress)
	Done(ok bool)
}

// barProgress displays the progression of the download in the terminal
type barProgress struct {
	bar *mpb.Bar
}

func newBarProgress(pc *mpb.Progress, name string) *barProgress {
	bar := pc.AddBar(0,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.Name(" "),
			decor.Elapsed(decor.ET_STYLE_GO),
		),
	)
	return &barProgress{bar: bar}
}

// Update is called from the downloader's goroutine
func (p *barProgress) Update(pr download.Progress) {
	if pr.Total > 0 {
		p.bar.SetTotal(pr.Total.Milliseconds(), false)
	}
	p.bar.SetCurrent(pr.Elapsed.Milliseconds())
}

func (p *barProgress) Done(ok bool) {
	if ok {
		p.bar.SetTotal(-1, true)
	} else {
		p.bar.Abort(false)
	}
}

// logProgress logs the progression by steps of 10%
type logProgress struct {
	log  *mylog.MyLog
	name string
	step int
}

func newLogProgress(log *mylog.MyLog, name string) *logProgress {
	return &logProgress{log: log, name: name, step: -1}
}

func (p *logProgress) Update(pr download.Progress) {
	pc := pr.Percent()
	if pc < 0 {
		p.log.Trace().Printf("[FETCH] %s: %s", p.name, pr.Elapsed.Truncate(time.Second))
		return
	}
	if step := int(pc) / 10; step > p.step {
		p.step = step
		p.log.Info().Printf("[FETCH] %s: %3.0f%% (%s / %s)", p.name, pc, pr.Elapsed.Truncate(time.Second), pr.Total.Truncate(time.Second))
	}
}

func (p *logProgress) Done(ok bool) {
	if ok {
		p.log.Info().Printf("[FETCH] %s: done", p.name)
	}
}
