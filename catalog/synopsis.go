package catalog

import (
	"iter"
	"regexp"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

// DefaultWrapWidth is the width of synopsis lines
const DefaultWrapWidth = 70

const (
	linePrefix  = "  "
	firstIndent = "    "
	minBody     = 8 // prefix and indent are dropped when less text than this fits
)

var reParagraphs = regexp.MustCompile(`\n\s*\n`)

// Wrap splits the text into lines no wider than width.
// Each line starts with a short prefix, the first line of a paragraph is indented.
// Narrow widths lose the indent first, then the prefix.
// The sequence can be iterated many times, lines are computed on demand.
func Wrap(s string, width int) iter.Seq[string] {
	if width < 1 {
		width = 1
	}
	prefix, indent := linePrefix, firstIndent
	if width-len(prefix) < minBody {
		prefix = ""
	}
	body := width - len(prefix)
	if body-len(indent) < minBody {
		indent = ""
	}
	return func(yield func(string) bool) {
		for _, para := range reParagraphs.Split(s, -1) {
			para = strings.Join(strings.Fields(para), " ")
			if para == "" {
				continue
			}
			lines := wrapLines(para, body-len(indent))
			if !yield(prefix + indent + lines[0]) {
				return
			}
			rest := strings.Join(lines[1:], " ")
			if rest == "" {
				continue
			}
			for _, l := range wrapLines(rest, body) {
				if !yield(prefix + l) {
					return
				}
			}
		}
	}
}

// wrapLines wraps on word boundaries, words longer than the width are cut
func wrapLines(s string, width int) []string {
	var lines []string
	for _, l := range strings.Split(text.WrapSoft(s, width), "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if text.RuneWidthWithoutEscSequences(l) <= width {
			lines = append(lines, l)
			continue
		}
		for _, h := range strings.Split(text.WrapHard(l, width), "\n") {
			if h = strings.TrimSpace(h); h != "" {
				lines = append(lines, h)
			}
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}
