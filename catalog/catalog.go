// Package catalog defines the contract shared by all vendor backends:
// a Service lists, searches and resolves shows, a Show gives normalized access
// to the vendor's raw metadata and can be saved to disk with Save.
package catalog

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/simulot/aspiravod/tree"
)

// Service is implemented by each vendor backend
type Service interface {
	Name() string                                                  // Vendor's name
	ResolveShow(ctx context.Context, idOrURL string) (Show, error) // Get a show by ID or by web page URL
	ListShows(ctx context.Context, q Query) ([]Show, error)        // List shows of a category, matching a query, or the front page
	ListCategories(ctx context.Context) ([]string, error)          // Names of the categories
	ListChannels(ctx context.Context) ([]string, error)            // Names of the channels, if any
}

// Show gives a normalized view over vendor's metadata
type Show interface {
	ID() string                 // Vendor's ID, always present
	Title() string              // Title of the show
	ThumbnailURL() string       // Thumbnail URL, may be empty
	Summary() iter.Seq[Field]   // Summary fields, in the vendor's order
	Synopsis() iter.Seq[string] // Synopsis wrapped in lines
	Crew() []string             // Crew members, may be empty
	StreamURL() string          // Video stream URL, may be empty
	Raw() tree.Value            // Metadata as received
}

// RenderHint tells how a summary field should be displayed
type RenderHint int

// RenderHint values
const (
	HintShort RenderHint = iota
	HintLink
	HintImage
)

func (h RenderHint) String() string {
	switch h {
	case HintLink:
		return "link"
	case HintImage:
		return "image"
	}
	return "short"
}

// Field is a line of a show's summary
type Field struct {
	Label string
	Value string
	Hint  RenderHint
}

// Sort order requested for listings
type Sort int

// Sort values
const (
	SortDefault Sort = iota
	SortAlpha
	SortDate
	SortRelevance
)

var sortNames = map[string]Sort{
	"":          SortDefault,
	"alpha":     SortAlpha,
	"date":      SortDate,
	"relevance": SortRelevance,
}

// ParseSort reads alpha, date or relevance
func ParseSort(s string) (Sort, error) {
	if o, ok := sortNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return o, nil
	}
	return SortDefault, fmt.Errorf("unknown sort order %q, use alpha, date or relevance", s)
}

func (s Sort) String() string {
	for n, o := range sortNames {
		if o == s && n != "" {
			return n
		}
	}
	return "default"
}

// AllCategories is the category name meaning no filter
const AllCategories = "all"

// Query selects the shows to list.
// Category, Text and none of them are three exclusive modes, the category wins over the text.
// Limit and Sort are passed to the vendor when it supports them, they are not enforced locally.
type Query struct {
	Text     string
	Category string
	Channel  string
	Limit    int
	Sort     Sort
}

// Normalized returns the query with the "all" category removed and the category name normalized
func (q Query) Normalized() Query {
	q.Text = strings.TrimSpace(q.Text)
	q.Category = NormalizeCategory(q.Category)
	if strings.EqualFold(q.Category, AllCategories) {
		q.Category = ""
	}
	if strings.EqualFold(q.Channel, AllCategories) {
		q.Channel = ""
	}
	return q
}
