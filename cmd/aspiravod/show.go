package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/simulot/aspiravod/catalog"
	"github.com/simulot/aspiravod/tree"
)

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|url>",
		Short: "Give the summary of a TV show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.service.ResolveShow(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderShow(s))
			return nil
		},
	}
}

func renderShow(s catalog.Show) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "%s\n\n", s.Title())
	for f := range s.Summary() {
		if f.Value == "" {
			continue
		}
		label := text.Pad(f.Label+":", 12, ' ')
		switch f.Hint {
		case catalog.HintLink, catalog.HintImage:
			fmt.Fprintf(&b, "%s<%s>\n", label, f.Value)
		default:
			fmt.Fprintf(&b, "%s%s\n", label, f.Value)
		}
	}
	if crew := s.Crew(); len(crew) > 0 {
		fmt.Fprintf(&b, "%s%s\n", text.Pad("Crew:", 12, ' '), strings.Join(crew, ", "))
	}
	first := true
	for l := range s.Synopsis() {
		if first {
			b.WriteString("\nSynopsis:\n")
			first = false
		}
		b.WriteString(l + "\n")
	}
	return b.String()
}

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|url> [key...]",
		Short: "Get the list of keys, or the values of keys (ex: INFOS.TITRAGE.TITRE, MEDIA.VIDEOS)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.service.ResolveShow(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			raw := s.Raw()
			if len(args) == 1 {
				for _, k := range raw.Keys() {
					fmt.Fprintln(out, k)
				}
				return nil
			}
			for _, key := range args[1:] {
				v, err := raw.Lookup(key)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderValue(v))
			}
			return nil
		},
	}
}

func renderValue(v tree.Value) string {
	switch v.Kind() {
	case tree.List, tree.Map:
		return repr.String(v.Interface(), repr.Indent("  "))
	}
	return v.String()
}
