package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/simulot/aspiravod/catalog"
)

type listOptions struct {
	limit int
	sort  string
	image bool
}

func (o *listOptions) bind(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.limit, "limit", "l", 100, "Number of shows to output")
	cmd.Flags().StringVarP(&o.sort, "sort", "s", "alpha", "Sort the output (alpha, date, relevance)")
	cmd.Flags().BoolVarP(&o.image, "image", "i", false, "Show thumbnail image URL for the show")
}

func newListCommand(a *app) *cobra.Command {
	o := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list [category|help|all] [channel|help]",
		Short: "List TV shows",
		Long:  "List TV shows of a category and a channel. Use help to get the categories or the channels.",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.list(cmd, "", args, o)
		},
	}
	o.bind(cmd)
	return cmd
}

func newSearchCommand(a *app) *cobra.Command {
	o := &listOptions{}
	cmd := &cobra.Command{
		Use:   "search <query> [category|help|all] [channel|help]",
		Short: "Search a TV show",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.list(cmd, args[0], args[1:], o)
		},
	}
	o.bind(cmd)
	return cmd
}

func (a *app) list(cmd *cobra.Command, text string, args []string, o *listOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	var category, channel string
	if len(args) > 0 {
		category = args[0]
	}
	if len(args) > 1 {
		channel = args[1]
	}

	if strings.EqualFold(category, "help") {
		names, err := a.service.ListCategories(ctx)
		if err != nil {
			return err
		}
		return printNames(out, "Categories", names)
	}
	if strings.EqualFold(channel, "help") {
		names, err := a.service.ListChannels(ctx)
		if err != nil {
			return err
		}
		return printNames(out, "Channels", names)
	}

	sort, err := catalog.ParseSort(o.sort)
	if err != nil {
		return err
	}
	shows, err := a.service.ListShows(ctx, catalog.Query{
		Text:     text,
		Category: category,
		Channel:  channel,
		Limit:    o.limit,
		Sort:     sort,
	})
	if err != nil {
		return err
	}
	if len(shows) == 0 {
		fmt.Fprintln(out, "No show found")
		return nil
	}
	fmt.Fprintln(out, renderShows(shows, o.image))
	return nil
}

func printNames(w io.Writer, title string, names []string) error {
	if len(names) == 0 {
		fmt.Fprintf(w, "No %s for this provider\n", strings.ToLower(title))
		return nil
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", n)
	}
	return nil
}

func renderShows(shows []catalog.Show, image bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := table.Row{"ID", "Title"}
	if image {
		header = append(header, "Thumbnail")
	}
	tw.AppendHeader(header)
	for _, s := range shows {
		row := table.Row{s.ID(), s.Title()}
		if image {
			row = append(row, s.ThumbnailURL())
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}
