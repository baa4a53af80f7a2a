package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/simulot/aspiravod/catalog"
	"github.com/simulot/aspiravod/download"
)

// Exit codes
const (
	exitOK           = 0
	exitOther        = 1
	exitResolution   = 2
	exitCatalog      = 3
	exitTranscoder   = 4
	exitNoTranscoder = 5
	exitInterrupted  = 130
)

func exitCode(err error) int {
	var (
		re *catalog.ResolutionError
		fe *catalog.CatalogFetchError
		te *download.TranscodeError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, download.ErrCancelled), errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, exec.ErrNotFound):
		return exitNoTranscoder
	case errors.As(err, &te):
		return exitTranscoder
	case errors.As(err, &re), errors.Is(err, catalog.ErrCategoryNotFound), errors.Is(err, catalog.ErrChannelNotFound):
		return exitResolution
	case errors.As(err, &fe):
		return exitCatalog
	}
	return exitOther
}

// message gives a hint to the user for common errors
func message(err error) string {
	switch exitCode(err) {
	case exitInterrupted:
		return "interrupted"
	case exitNoTranscoder:
		return fmt.Sprintf("%s\nffmpeg is required to download videos, install it or give its path with --transcoder", err)
	case exitResolution:
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			return fmt.Sprintf("%s\nuse \"list help\" to get the categories", err)
		}
		if errors.Is(err, catalog.ErrChannelNotFound) {
			return fmt.Sprintf("%s\nuse \"list all help\" to get the channels", err)
		}
	}
	return err.Error()
}
