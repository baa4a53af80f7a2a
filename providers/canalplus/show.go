package canalplus

import (
	"errors"
	"iter"

	"github.com/simulot/aspiravod/catalog"
	"github.com/simulot/aspiravod/tree"
)

var errNoID = errors.New("show without ID or title")

// Show is a Canal+ video
type Show struct {
	v    tree.Value
	wrap int
}

var _ catalog.Show = (*Show)(nil)

func newShow(v tree.Value, wrap int) (*Show, error) {
	if v.Kind() != tree.Map {
		return nil, errors.New("show metadata isn't an object")
	}
	s := &Show{v: v, wrap: wrap}
	if s.ID() == "" || s.Title() == "" {
		return nil, errNoID
	}
	return s, nil
}

func (s *Show) ID() string           { return s.v.Get("ID").String() }
func (s *Show) Title() string        { return s.v.Get("INFOS", "TITRAGE", "TITRE").String() }
func (s *Show) ThumbnailURL() string { return s.v.Get("MEDIA", "IMAGES", "GRAND").String() }
func (s *Show) StreamURL() string    { return s.v.Get("MEDIA", "VIDEOS", "HLS").String() }
func (s *Show) Raw() tree.Value      { return s.v }

// Crew isn't provided by Canal+
func (s *Show) Crew() []string { return []string{} }

var summary = []struct {
	label string
	path  []string
	hint  catalog.RenderHint
}{
	{"Id", []string{"ID"}, catalog.HintShort},
	{"Genre", []string{"RUBRIQUAGE", "CATEGORIE"}, catalog.HintShort},
	{"Broadcast", []string{"INFOS", "PUBLICATION", "DATE"}, catalog.HintShort},
	{"Length", []string{"DURATION"}, catalog.HintShort},
	{"Channel", []string{"INFOS", "AUTEUR"}, catalog.HintShort},
	{"Website", []string{"URL"}, catalog.HintLink},
	{"Picture", []string{"MEDIA", "IMAGES", "GRAND"}, catalog.HintImage},
}

func (s *Show) Summary() iter.Seq[catalog.Field] {
	return func(yield func(catalog.Field) bool) {
		for _, f := range summary {
			if !yield(catalog.Field{Label: f.label, Value: s.v.Get(f.path...).String(), Hint: f.hint}) {
				return
			}
		}
	}
}

func (s *Show) Synopsis() iter.Seq[string] {
	return catalog.Wrap(s.v.Get("INFOS", "DESCRIPTION").String(), s.wrap)
}
