/*
	This provider is used to have a test bed for the application without querying actual web sites
*/

package mockup

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"slices"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/simulot/aspiravod/catalog"
	"github.com/simulot/aspiravod/mylog"
	"github.com/simulot/aspiravod/tree"
)

// Name of the vendor in the registry
const Name = "mockup"

//go:embed catalog.json
var catalogJSON []byte

type Mockup struct {
	shows      []*Show
	byID       map[string]*Show
	categories *catalog.CategoryIndex
	wrap       int
	log        *mylog.MyLog
}

var _ catalog.Service = (*Mockup)(nil)

func init() {
	catalog.Register(Name, func(opts catalog.Options) (catalog.Service, error) {
		return New(WithWrapWidth(opts.WrapWidth), WithLogger(opts.Log))
	})
}

func WithWrapWidth(w int) func(p *Mockup) {
	return func(p *Mockup) {
		if w > 0 {
			p.wrap = w
		}
	}
}

func WithLogger(l *mylog.MyLog) func(p *Mockup) {
	return func(p *Mockup) {
		p.log = l
	}
}

// New loads the embedded catalog
func New(conf ...func(p *Mockup)) (*Mockup, error) {
	p := &Mockup{
		byID: map[string]*Show{},
		wrap: catalog.DefaultWrapWidth,
	}
	for _, fn := range conf {
		fn(p)
	}
	v, err := tree.ParseJSON(catalogJSON)
	if err != nil {
		return nil, fmt.Errorf("mockup catalog: %w", err)
	}
	for item := range v.Values() {
		s := &Show{v: item, p: p}
		// IDs stay the same from one run to the other
		s.id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(s.StreamURL())).String()
		p.shows = append(p.shows, s)
		p.byID[s.id] = s
	}
	p.categories = catalog.NewCategoryIndex(func(ctx context.Context) (map[string]string, error) {
		m := map[string]string{}
		for _, s := range p.shows {
			c := s.field("category")
			m[c] = c
		}
		return m, nil
	})
	return p, nil
}

func (Mockup) Name() string { return Name }

// ResolveShow accepts the show ID or mockup://show/<ID>
func (p *Mockup) ResolveShow(ctx context.Context, idOrURL string) (catalog.Show, error) {
	id := strings.TrimSpace(idOrURL)
	if strings.Contains(id, "://") {
		u, err := url.Parse(id)
		if err != nil || u.Scheme != Name || u.Host != "show" {
			return nil, &catalog.ResolutionError{Input: idOrURL, Err: errors.New("not a mockup URL")}
		}
		id = strings.Trim(u.Path, "/")
	}
	if id == "" {
		return nil, &catalog.ResolutionError{Input: idOrURL, Err: errors.New("empty ID")}
	}
	s, ok := p.byID[id]
	if !ok {
		return nil, &catalog.ResolutionError{Input: idOrURL, Err: fmt.Errorf("no show with ID %q", id)}
	}
	p.log.Debug().Printf("[MOCKUP] Resolve %s: %s", id, s.Title())
	return s, nil
}

// ListShows filters the catalog, then honors the sort order and the limit
func (p *Mockup) ListShows(ctx context.Context, q catalog.Query) ([]catalog.Show, error) {
	q = q.Normalized()
	if q.Category != "" {
		c, err := p.categories.Lookup(ctx, q.Category)
		if err != nil {
			return nil, err
		}
		q.Category = c
	}
	if q.Channel != "" {
		channels, _ := p.ListChannels(ctx)
		i := slices.IndexFunc(channels, func(c string) bool { return strings.EqualFold(c, q.Channel) })
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", catalog.ErrChannelNotFound, q.Channel)
		}
		q.Channel = channels[i]
	}
	text := fold(q.Text)

	type scored struct {
		s     *Show
		score int
	}
	var list []scored
	for _, s := range p.shows {
		if q.Category != "" && s.field("category") != q.Category {
			continue
		}
		if q.Channel != "" && s.field("channel") != q.Channel {
			continue
		}
		score := 0
		if text != "" {
			if strings.Contains(fold(s.Title()), text) {
				score += 2
			}
			if strings.Contains(fold(s.field("plot")), text) {
				score++
			}
			if score == 0 {
				continue
			}
		}
		list = append(list, scored{s, score})
	}

	switch q.Sort {
	case catalog.SortAlpha:
		slices.SortStableFunc(list, func(a, b scored) int { return strings.Compare(fold(a.s.Title()), fold(b.s.Title())) })
	case catalog.SortDate:
		slices.SortStableFunc(list, func(a, b scored) int { return strings.Compare(b.s.field("date"), a.s.field("date")) })
	case catalog.SortRelevance:
		slices.SortStableFunc(list, func(a, b scored) int { return b.score - a.score })
	}
	if q.Limit > 0 && len(list) > q.Limit {
		list = list[:q.Limit]
	}

	shows := make([]catalog.Show, 0, len(list))
	for _, l := range list {
		shows = append(shows, l.s)
	}
	p.log.Debug().Printf("[MOCKUP] %d shows for %+v", len(shows), q)
	return shows, nil
}

func (p *Mockup) ListCategories(ctx context.Context) ([]string, error) {
	return p.categories.Names(ctx)
}

func (p *Mockup) ListChannels(ctx context.Context) ([]string, error) {
	channels := []string{}
	for _, s := range p.shows {
		if c := s.field("channel"); !slices.Contains(channels, c) {
			channels = append(channels, c)
		}
	}
	slices.Sort(channels)
	return channels, nil
}

// fold removes diacritics and case for matching
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	r, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return r
}

// Show of the mockup catalog
type Show struct {
	id string
	v  tree.Value
	p  *Mockup
}

func (s *Show) field(k string) string { return s.v.Get(k).String() }

func (s *Show) ID() string           { return s.id }
func (s *Show) Title() string        { return s.field("title") }
func (s *Show) ThumbnailURL() string { return s.field("thumbnail") }
func (s *Show) StreamURL() string    { return s.field("stream") }
func (s *Show) Raw() tree.Value      { return s.v }

func (s *Show) Crew() []string {
	crew := []string{}
	for c := range s.v.Get("crew").Values() {
		crew = append(crew, c.String())
	}
	return crew
}

func (s *Show) Summary() iter.Seq[catalog.Field] {
	return func(yield func(catalog.Field) bool) {
		for _, f := range []catalog.Field{
			{Label: "Id", Value: s.id},
			{Label: "Channel", Value: s.field("channel")},
			{Label: "Genre", Value: s.field("category")},
			{Label: "Broadcast", Value: s.field("date")},
			{Label: "Length", Value: s.field("duration")},
			{Label: "Website", Value: s.field("page"), Hint: catalog.HintLink},
			{Label: "Picture", Value: s.field("thumbnail"), Hint: catalog.HintImage},
		} {
			if !yield(f) {
				return
			}
		}
	}
}

func (s *Show) Synopsis() iter.Seq[string] {
	return catalog.Wrap(s.field("plot"), s.p.wrap)
}
