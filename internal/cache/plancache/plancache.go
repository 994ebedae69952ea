// Package plancache memoizes built map specs: a process-local LRU in front
// of an optional shared Redis tier.
package plancache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/geomap-resolver/internal/core/model"
	"github.com/mohammed-shakir/geomap-resolver/internal/core/observability"
)

// Store is the shared tier, satisfied by *redisstore.Client.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type Cache struct {
	// encoded specs, so callers never share maps or slices
	l1        *lru.Cache[string, []byte]
	l2        Store
	ttl       time.Duration
	opTimeout time.Duration
}

type Option func(*Cache)

// WithShared adds the Redis tier; entries expire after ttl.
func WithShared(s Store, ttl time.Duration) Option {
	return func(c *Cache) {
		c.l2 = s
		c.ttl = ttl
	}
}

// WithOpTimeout bounds every shared-tier call.
func WithOpTimeout(d time.Duration) Option {
	return func(c *Cache) { c.opTimeout = d }
}

func New(size int, opts ...Option) (*Cache, error) {
	if size <= 0 {
		size = 1024
	}
	l1, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("plancache: %w", err)
	}
	c := &Cache{l1: l1, opTimeout: 250 * time.Millisecond}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Get looks in L1, then the shared tier. A shared-tier failure is returned
// alongside a miss; callers may ignore it.
func (c *Cache) Get(ctx context.Context, key string) (model.MapSpec, bool, error) {
	if b, ok := c.l1.Get(key); ok {
		observability.ObservePlanCache("l1", true)
		spec, err := decode(b)
		return spec, err == nil, err
	}
	observability.ObservePlanCache("l1", false)
	if c.l2 == nil {
		return model.MapSpec{}, false, nil
	}

	ctx, cancel := c.opContext(ctx)
	defer cancel()
	b, ok, err := c.l2.Get(ctx, key)
	if err != nil {
		observability.ObservePlanCache("l2", false)
		return model.MapSpec{}, false, fmt.Errorf("plancache get: %w", err)
	}
	observability.ObservePlanCache("l2", ok)
	if !ok {
		return model.MapSpec{}, false, nil
	}
	spec, err := decode(b)
	if err != nil {
		return model.MapSpec{}, false, err
	}
	c.l1.Add(key, b)
	return spec, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, spec model.MapSpec) error {
	b, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("plancache encode: %w", err)
	}
	c.l1.Add(key, b)
	if c.l2 == nil {
		return nil
	}
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.l2.Set(ctx, key, b, c.ttl); err != nil {
		return fmt.Errorf("plancache put: %w", err)
	}
	return nil
}

func (c *Cache) Len() int { return c.l1.Len() }

func (c *Cache) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opTimeout)
}

func decode(b []byte) (model.MapSpec, error) {
	var spec model.MapSpec
	if err := json.Unmarshal(b, &spec); err != nil {
		return model.MapSpec{}, fmt.Errorf("plancache decode: %w", err)
	}
	return spec, nil
}
