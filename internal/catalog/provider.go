package catalog

import (
	"sync"
	"sync/atomic"
)

type Loader func() (*Catalog, error)

// Provider builds the catalog on first use and hands the same instance (or
// the same load error) to every caller afterwards.
type Provider struct {
	load Loader

	once  sync.Once
	cat   *Catalog
	err   error
	ready atomic.Bool
	loads atomic.Int32
}

func NewProvider(load Loader) *Provider {
	if load == nil {
		load = Embedded
	}
	return &Provider{load: load}
}

// Static wraps an already built catalog.
func Static(c *Catalog) *Provider {
	return NewProvider(func() (*Catalog, error) { return c, nil })
}

// FileLoader loads from path, or from the embedded catalog when path is empty.
func FileLoader(path string) Loader {
	if path == "" {
		return Embedded
	}
	return func() (*Catalog, error) { return FromFile(path) }
}

func (p *Provider) Get() (*Catalog, error) {
	p.once.Do(func() {
		p.loads.Add(1)
		p.cat, p.err = p.load()
		if p.err == nil && p.cat == nil {
			p.err = ErrEmptyCatalog
		}
		p.ready.Store(p.err == nil)
	})
	return p.cat, p.err
}

// Ready reports whether a catalog was loaded successfully. It never
// triggers a load.
func (p *Provider) Ready() bool { return p.ready.Load() }

// Loads counts how many times the loader ran; always 0 or 1.
func (p *Provider) Loads() int { return int(p.loads.Load()) }
