package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/simulot/aspiravod/catalog"
	"github.com/simulot/aspiravod/mylog"
	"github.com/simulot/aspiravod/net/myhttp"

	_ "github.com/simulot/aspiravod/providers/canalplus"
	_ "github.com/simulot/aspiravod/providers/mockup"
)

// app is shared by commands
type app struct {
	configFile string
	flags      Config // values given on the command line

	config  Config
	log     *mylog.MyLog
	logFile *os.File
	service catalog.Service

	outMu sync.Mutex // commands may print from several goroutines
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "aspiravod",
		Short:         "Browse and download video on demand catalogs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.configFile, "config", "c", "", "Configuration file (TOML or YAML)")
	pf.StringVarP(&a.flags.Provider, "provider", "p", "canalplus", "Video on demand provider")
	pf.StringVar(&a.flags.LogLevel, "log-level", "ERROR", "Log level: ERROR, INFO, TRACE or DEBUG")
	pf.StringVar(&a.flags.LogFile, "log-file", "", "Write logs into this file")
	pf.BoolVar(&a.flags.Headless, "headless", false, "Headless mode, progression bars are not displayed")
	pf.IntVar(&a.flags.WrapWidth, "wrap", 0, "Width of the synopsis")

	rootCmd.AddCommand(newListCommand(a))
	rootCmd.AddCommand(newSearchCommand(a))
	rootCmd.AddCommand(newShowCommand(a))
	rootCmd.AddCommand(newGetCommand(a))
	rootCmd.AddCommand(newFetchCommand(a))
	return rootCmd
}

// setup merges configuration sources, later wins: defaults, file, environment, flags.
// Then it opens the log and the provider.
func (a *app) setup(cmd *cobra.Command) error {
	c, err := LoadConfig(a.configFile)
	if err != nil {
		return err
	}
	changed := cmd.Flags().Changed
	if changed("provider") {
		c.Provider = a.flags.Provider
	}
	if changed("log-level") {
		c.LogLevel = a.flags.LogLevel
	}
	if changed("log-file") {
		c.LogFile = a.flags.LogFile
	}
	if changed("headless") {
		c.Headless = a.flags.Headless
	}
	if changed("wrap") {
		c.WrapWidth = a.flags.WrapWidth
	}
	if changed("target") {
		c.Target = a.flags.Target
	}
	if changed("max-tasks") {
		c.MaxTasks = a.flags.MaxTasks
	}
	if changed("transcoder") {
		c.Transcoder = a.flags.Transcoder
	}
	if err := c.Check(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !c.Headless && !isTerminal(cmd.ErrOrStderr()) {
		c.Headless = true
	}
	a.config = c

	var fileLogger mylog.Logger
	if c.LogFile != "" {
		a.logFile, err = os.OpenFile(c.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("can't open log file: %w", err)
		}
		fileLogger = log.New(a.logFile, "", log.LstdFlags)
	}
	a.log, err = mylog.NewLog(c.LogLevel, log.New(cmd.ErrOrStderr(), "", log.LstdFlags), fileLogger)
	if err != nil {
		return err
	}
	a.log.Debug().Printf("[MAIN] Configuration: %+v", c)

	client := myhttp.NewClient(
		myhttp.WithLogger(a.log),
		myhttp.WithLimiter(rate.NewLimiter(rate.Limit(c.RequestRate), c.RequestBurst)),
	)
	a.service, err = catalog.New(c.Provider, catalog.Options{
		Client:    client,
		Log:       a.log,
		WrapWidth: c.WrapWidth,
	})
	return err
}

func (a *app) close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
