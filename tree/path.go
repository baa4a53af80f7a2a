package tree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
)

// ErrNotFound is returned by Lookup when the path leads nowhere
var ErrNotFound = errors.New("not found")

// A path expression looks like INFOS.TITRAGE.TITRE, MEDIA.VIDEOS[0] or [2].ID.
// Keys that are not identifiers can be quoted: INFOS."key with space".
type path struct {
	Root  []int   `parser:"( '[' @Int ']' )*"`
	Steps []*step `parser:"@@*"`
}

type step struct {
	Key     string `parser:"'.'? ( @Ident | @String )"`
	Indexes []int  `parser:"( '[' @Int ']' )*"`
}

var pathParser = participle.MustBuild[path](
	participle.Unquote("String"),
)

// Lookup evaluates a path expression against the value
func (v Value) Lookup(expr string) (Value, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Value{}, errors.New("empty path")
	}
	p, err := pathParser.ParseString("", expr)
	if err != nil {
		return Value{}, fmt.Errorf("invalid path %q: %w", expr, err)
	}

	cur := v
	walked := ""
	for _, i := range p.Root {
		walked += fmt.Sprintf("[%d]", i)
		if cur, err = cur.at(i); err != nil {
			return Value{}, fmt.Errorf("%s: %w", walked, err)
		}
	}
	for _, s := range p.Steps {
		if walked != "" {
			walked += "."
		}
		walked += s.Key
		if cur.kind != Map || !cur.Has(s.Key) {
			return Value{}, fmt.Errorf("%s: %w", walked, ErrNotFound)
		}
		cur = cur.Get(s.Key)
		for _, i := range s.Indexes {
			walked += fmt.Sprintf("[%d]", i)
			if cur, err = cur.at(i); err != nil {
				return Value{}, fmt.Errorf("%s: %w", walked, err)
			}
		}
	}
	return cur, nil
}

func (v Value) at(i int) (Value, error) {
	if v.kind != List || i < 0 || i >= len(v.items) {
		return Value{}, ErrNotFound
	}
	return v.items[i], nil
}
