// Package canalplus implements the catalog service of Canal+ video on demand.
package canalplus

import (
	"github.com/simulot/aspiravod/catalog"
	"github.com/simulot/aspiravod/mylog"
	"github.com/simulot/aspiravod/net/myhttp"
	"github.com/simulot/aspiravod/parsers/htmlparser"
)

// Name of the vendor in the registry
const Name = "canalplus"

// Endpoints of the Canal+ web services. Format verbs receive the ID, the query or the category.
type Endpoints struct {
	Video           string // metadata of one show
	Search          string // shows matching a text
	Listing         string // shows of a category
	Categories      string // XML taxonomy
	DefaultCategory string // category listed when the query is empty
	DomainMarker    string // accepted URLs have it in their host name
	IDParam         string // query parameter holding the show ID in web page URLs
}

// DefaultEndpoints are the production web services
var DefaultEndpoints = Endpoints{
	Video:           "http://service.canal-plus.com/video/rest/getVideos/cplus/%s?format=json",
	Search:          "http://service.canal-plus.com/video/rest/search/cplus/%s?format=json",
	Listing:         "http://service.canal-plus.com/video/rest/getMEAs/cplus/%s?format=json",
	Categories:      "http://service.canal-plus.com/video/rest/initPlayer",
	DefaultCategory: "105",
	DomainMarker:    "canal",
	IDParam:         "vid",
}

// CanalPlus is the catalog service of Canal+
type CanalPlus struct {
	client     *myhttp.Client
	parser     *htmlparser.Factory
	endpoints  Endpoints
	log        *mylog.MyLog
	wrap       int
	categories *catalog.CategoryIndex
}

var _ catalog.Service = (*CanalPlus)(nil)

// init registers Canal+ provider
func init() {
	catalog.Register(Name, func(opts catalog.Options) (catalog.Service, error) {
		return New(
			WithClient(opts.Client),
			WithLogger(opts.Log),
			WithWrapWidth(opts.WrapWidth),
		), nil
	})
}

// WithClient sets the HTTP client used for web services and web pages
func WithClient(c *myhttp.Client) func(p *CanalPlus) {
	return func(p *CanalPlus) {
		if c != nil {
			p.client = c
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *mylog.MyLog) func(p *CanalPlus) {
	return func(p *CanalPlus) {
		p.log = l
	}
}

// WithEndpoints replaces the production web services
func WithEndpoints(e Endpoints) func(p *CanalPlus) {
	return func(p *CanalPlus) {
		p.endpoints = e
	}
}

// WithWrapWidth sets the width of synopsis lines
func WithWrapWidth(w int) func(p *CanalPlus) {
	return func(p *CanalPlus) {
		if w > 0 {
			p.wrap = w
		}
	}
}

// New returns a Canal+ service. Nothing is fetched before the first call.
func New(conf ...func(p *CanalPlus)) *CanalPlus {
	p := &CanalPlus{
		endpoints: DefaultEndpoints,
		wrap:      catalog.DefaultWrapWidth,
	}
	for _, fn := range conf {
		fn(p)
	}
	if p.client == nil {
		p.client = myhttp.NewClient(myhttp.WithLogger(p.log))
	}
	p.parser = htmlparser.NewFactory(htmlparser.SetClient(p.client))
	p.categories = catalog.NewCategoryIndex(p.loadCategories)
	return p
}

// Name return the name of the provider
func (p *CanalPlus) Name() string { return Name }
