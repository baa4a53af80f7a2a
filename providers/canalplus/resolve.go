package canalplus

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
	"github.com/gocolly/colly/v2"

	"github.com/simulot/aspiravod/catalog"
	"github.com/simulot/aspiravod/tree"
)

// ResolveShow gets the metadata of a show given by its ID or by the URL of its web page
func (p *CanalPlus) ResolveShow(ctx context.Context, idOrURL string) (catalog.Show, error) {
	id, err := p.showID(ctx, strings.TrimSpace(idOrURL))
	if err != nil {
		return nil, err
	}
	p.log.Debug().Printf("[CANAL+] Get Data for show %s", id)

	u := fmt.Sprintf(p.endpoints.Video, url.PathEscape(id))
	v, b, err := p.getJSON(ctx, u)
	if err != nil {
		return nil, err
	}
	// the service answers with the show or a list of shows
	if v.Kind() == tree.List {
		if v.Len() == 0 {
			return nil, catalog.NewFetchError(u, b, fmt.Errorf("no show with ID %q", id))
		}
		v = v.Index(0)
	}
	s, err := newShow(v, p.wrap)
	if err != nil {
		return nil, catalog.NewFetchError(u, b, err)
	}
	return s, nil
}

func (p *CanalPlus) showID(ctx context.Context, input string) (string, error) {
	if input == "" {
		return "", &catalog.ResolutionError{Input: input, Err: errors.New("empty ID")}
	}
	if !strings.Contains(input, "://") {
		if strings.ContainsAny(input, "/?# \t") {
			return "", &catalog.ResolutionError{Input: input, Err: errors.New("not a show ID")}
		}
		return input, nil
	}

	normalized, err := purell.NormalizeURLString(input, purell.FlagsUsuallySafeGreedy|purell.FlagRemoveFragment)
	if err != nil {
		return "", &catalog.ResolutionError{Input: input, Err: err}
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return "", &catalog.ResolutionError{Input: input, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || !strings.Contains(u.Hostname(), p.endpoints.DomainMarker) {
		return "", &catalog.ResolutionError{Input: input, Err: errors.New("not a Canal+ URL")}
	}
	if id := strings.TrimSpace(u.Query().Get(p.endpoints.IDParam)); id != "" {
		return id, nil
	}

	id, err := p.playerID(ctx, normalized)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", &catalog.ResolutionError{Input: input, Err: errors.New("no video player in the page")}
	}
	return id, nil
}

// playerID reads the video ID of the player embedded in the web page
func (p *CanalPlus) playerID(ctx context.Context, pageURL string) (string, error) {
	p.log.Debug().Printf("[CANAL+] Search player in %s", pageURL)
	id := ""
	parser := p.parser.New(ctx)
	parser.OnHTML("player[videoid]", func(e *colly.HTMLElement) {
		if id == "" {
			id = strings.TrimSpace(e.Attr("videoid"))
		}
	})
	if err := parser.Visit(pageURL); err != nil {
		return "", &catalog.CatalogFetchError{URL: pageURL, Err: err}
	}
	parser.Wait()
	return id, nil
}
