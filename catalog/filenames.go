package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultExtension is the container of saved shows
const DefaultExtension = ".mkv"

var fileNameReplacer = strings.NewReplacer(
	"'", "", "’", "", "/", "", "\\", "",
	"!", "", "?", "", ":", "-", ",", "", ";", "",
	"*", "-", "|", "-", "\"", "", ">", "", "<", "",
)

// Transform strings with diacritics into plain ASCII letters when possible
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r) // Mn: nonspacing marks
}

// FileNameCleaner return a safe file name from a given show title:
// no diacritics, no apostrophes, no path separators, words joined by underscores.
func FileNameCleaner(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	s, _, _ = transform.String(t, s)
	s = fileNameReplacer.Replace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.Trim(strings.Join(strings.Fields(s), "_"), "._-")
}

// FileName returns the name of the file for a show: title_ID.ext
func FileName(title, id, ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := FileNameCleaner(title)
	id = FileNameCleaner(id)
	if name == "" {
		return id + ext
	}
	return name + "_" + id + ext
}
