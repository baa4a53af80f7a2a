package canalplus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/simulot/aspiravod/catalog"
	"github.com/simulot/aspiravod/tree"
)

// ListShows lists the shows of a category, the shows matching a text or the front page.
// Canal+ services don't take a limit nor a sort order, they are ignored.
func (p *CanalPlus) ListShows(ctx context.Context, q catalog.Query) ([]catalog.Show, error) {
	q = q.Normalized()
	if q.Limit > 0 || q.Sort != catalog.SortDefault {
		p.log.Debug().Printf("[CANAL+] Limit %d and sort %s are not supported, ignored", q.Limit, q.Sort)
	}
	if q.Channel != "" {
		return nil, fmt.Errorf("%w: %q, Canal+ has no channels", catalog.ErrChannelNotFound, q.Channel)
	}

	var u string
	switch {
	case q.Category != "":
		id, err := p.categories.Lookup(ctx, q.Category)
		if err != nil {
			return nil, err
		}
		u = fmt.Sprintf(p.endpoints.Listing, url.PathEscape(id))
	case q.Text != "":
		u = fmt.Sprintf(p.endpoints.Search, url.PathEscape(q.Text))
	default:
		u = fmt.Sprintf(p.endpoints.Listing, url.PathEscape(p.endpoints.DefaultCategory))
	}
	p.log.Debug().Printf("[CANAL+] List shows from %s", u)

	v, b, err := p.getJSON(ctx, u)
	if err != nil {
		return nil, err
	}
	if v.Kind() != tree.List {
		return nil, catalog.NewFetchError(u, b, errors.New("a list of shows is expected"))
	}
	shows := make([]catalog.Show, 0, v.Len())
	for item := range v.Values() {
		s, err := newShow(item, p.wrap)
		if err != nil {
			return nil, catalog.NewFetchError(u, b, err)
		}
		shows = append(shows, s)
	}
	return shows, nil
}

// ListCategories returns the names of the categories, fetched once
func (p *CanalPlus) ListCategories(ctx context.Context) ([]string, error) {
	return p.categories.Names(ctx)
}

// ListChannels returns nothing, Canal+ has no channels
func (p *CanalPlus) ListChannels(ctx context.Context) ([]string, error) {
	return []string{}, nil
}

func (p *CanalPlus) loadCategories(ctx context.Context) (map[string]string, error) {
	u := p.endpoints.Categories
	p.log.Debug().Printf("[CANAL+] Get categories from %s", u)
	b, err := p.client.Fetch(ctx, u)
	if err != nil {
		return nil, &catalog.CatalogFetchError{URL: u, Err: err}
	}
	doc, err := xmlquery.Parse(bytes.NewReader(b))
	if err != nil {
		return nil, catalog.NewFetchError(u, b, err)
	}
	nodes, err := xmlquery.QueryAll(doc, "//THEMATIQUES/THEMATIQUE/SELECTIONS/SELECTION")
	if err != nil {
		return nil, catalog.NewFetchError(u, b, err)
	}
	categories := map[string]string{}
	for _, n := range nodes {
		name, id := xmlquery.FindOne(n, "NOM"), xmlquery.FindOne(n, "ID")
		if name == nil || id == nil {
			continue
		}
		if nm, i := strings.TrimSpace(name.InnerText()), strings.TrimSpace(id.InnerText()); nm != "" && i != "" {
			categories[nm] = i
		}
	}
	if len(categories) == 0 {
		return nil, catalog.NewFetchError(u, b, errors.New("no category in the taxonomy"))
	}
	p.log.Debug().Printf("[CANAL+] %d categories", len(categories))
	return categories, nil
}

func (p *CanalPlus) getJSON(ctx context.Context, u string) (tree.Value, []byte, error) {
	b, err := p.client.Fetch(ctx, u)
	if err != nil {
		return tree.Value{}, nil, &catalog.CatalogFetchError{URL: u, Err: err}
	}
	v, err := tree.ParseJSON(b)
	if err != nil {
		return tree.Value{}, b, catalog.NewFetchError(u, b, err)
	}
	return v, b, nil
}
