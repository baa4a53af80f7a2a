// htmlparser package wraps colly dependence and lets colly use the application's client,
// its user agent, its cookie jar and its rate limited transport.

package htmlparser

import (
	"context"
	"net/http"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/debug"

	"github.com/simulot/aspiravod/net/myhttp"
)

type Factory struct {
	jar          http.CookieJar
	roundTripper http.RoundTripper
	userAgent    string
	debugger     debug.Debugger
}

func SetCookieJar(jar http.CookieJar) func(f *Factory) {
	return func(f *Factory) {
		f.jar = jar
	}
}

func SetUserAgent(userAgent string) func(f *Factory) {
	return func(f *Factory) {
		f.userAgent = userAgent
	}
}

func SetTransport(rt http.RoundTripper) func(f *Factory) {
	return func(f *Factory) {
		f.roundTripper = rt
	}
}

func SetDebugger(d debug.Debugger) func(f *Factory) {
	return func(f *Factory) {
		f.debugger = d
	}
}

// SetClient takes the transport, the user agent and the cookies of the client
func SetClient(c *myhttp.Client) func(f *Factory) {
	return func(f *Factory) {
		f.roundTripper = c.Transport()
		f.userAgent = c.UserAgentString()
		f.jar = c.Jar()
	}
}

func NewFactory(conf ...func(f *Factory)) *Factory {
	f := &Factory{
		userAgent: myhttp.UserAgent,
	}
	for _, fn := range conf {
		fn(f)
	}
	return f
}

// New returns a collector whose requests are cancelled with the context
func (f *Factory) New(ctx context.Context) *colly.Collector {
	c := colly.NewCollector()
	if f.debugger != nil {
		c.SetDebugger(f.debugger)
	}
	if len(f.userAgent) > 0 {
		c.UserAgent = f.userAgent
	}
	if f.jar != nil {
		c.SetCookieJar(f.jar)
	}
	rt := f.roundTripper
	if rt == nil {
		rt = http.DefaultTransport
	}
	c.WithTransport(contextTransport{ctx: ctx, rt: rt})
	return c
}

type contextTransport struct {
	ctx context.Context
	rt  http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.rt.RoundTrip(req.WithContext(t.ctx))
}
