package catalog

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/simulot/aspiravod/mylog"
	"github.com/simulot/aspiravod/net/myhttp"
)

// Options are given to vendor factories
type Options struct {
	Client    *myhttp.Client // shared HTTP client, a default one is used when nil
	Log       *mylog.MyLog
	WrapWidth int // synopsis width, DefaultWrapWidth when 0
}

// Factory builds a Service
type Factory func(opts Options) (Service, error)

var (
	registryMu sync.Mutex
	factories  = map[string]Factory{}
)

// Register is called by vendor's init to register the vendor
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = f
}

// Names of registered vendors
func Names() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	return slices.Sorted(maps.Keys(factories))
}

// New returns the service of the named vendor
func New(name string, opts Options) (Service, error) {
	registryMu.Lock()
	f, ok := factories[name]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider %q, available: %v", name, Names())
	}
	if opts.WrapWidth == 0 {
		opts.WrapWidth = DefaultWrapWidth
	}
	if opts.Client == nil {
		opts.Client = myhttp.NewClient(myhttp.WithLogger(opts.Log))
	}
	return f(opts)
}
