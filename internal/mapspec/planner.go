// Package mapspec builds a renderable map spec for one request: boundary
// files and a per-name index for place names, or a hull and background file
// for raw points, plus a projection fitted to the viewport.
package mapspec

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mohammed-shakir/geomap-resolver/internal/assembly"
	"github.com/mohammed-shakir/geomap-resolver/internal/cache/keys"
	"github.com/mohammed-shakir/geomap-resolver/internal/catalog"
	"github.com/mohammed-shakir/geomap-resolver/internal/core/model"
	"github.com/mohammed-shakir/geomap-resolver/internal/core/observability"
	"github.com/mohammed-shakir/geomap-resolver/internal/geom"
	"github.com/mohammed-shakir/geomap-resolver/internal/hull"
	"github.com/mohammed-shakir/geomap-resolver/internal/logger"
	"github.com/mohammed-shakir/geomap-resolver/internal/planevents"
	"github.com/mohammed-shakir/geomap-resolver/internal/projection"
)

// World is the fallback box when nothing can be placed.
var World = geom.NewRect(-180, -90, 180, 90)

const (
	modeNames  = "names"
	modePoints = "points"
)

// Cache memoizes specs by key; see plancache.Cache.
type Cache interface {
	Get(ctx context.Context, key string) (model.MapSpec, bool, error)
	Put(ctx context.Context, key string, spec model.MapSpec) error
}

// Events receives unmatched names; see planevents.Publisher.
type Events interface {
	Publish(ev planevents.Event) bool
}

type Planner struct {
	catalogs  *catalog.Provider
	log       *slog.Logger
	width     float64
	height    float64
	maxSize   float64
	maxInputs int
	cache     Cache
	events    Events
}

type Option func(*Planner)

// WithViewport sets the default viewport and the largest accepted side.
func WithViewport(w, h, maxSide float64) Option {
	return func(p *Planner) {
		p.width, p.height, p.maxSize = w, h, maxSide
	}
}

// WithMaxInputs caps the number of names or points per request.
func WithMaxInputs(n int) Option {
	return func(p *Planner) { p.maxInputs = n }
}

func WithCache(c Cache) Option {
	return func(p *Planner) { p.cache = c }
}

func WithEvents(e Events) Option {
	return func(p *Planner) { p.events = e }
}

func New(catalogs *catalog.Provider, log *slog.Logger, opts ...Option) *Planner {
	if log == nil {
		log = slog.Default()
	}
	p := &Planner{
		catalogs:  catalogs,
		log:       log,
		width:     960,
		height:    500,
		maxSize:   8192,
		maxInputs: 500,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Readiness reports whether the catalog has been loaded.
func (p *Planner) Readiness() (bool, string) {
	if !p.catalogs.Ready() {
		return false, ""
	}
	cat, err := p.catalogs.Get()
	if err != nil {
		return false, ""
	}
	return true, cat.Version()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// normalize applies defaults and validates req.
func (p *Planner) normalize(ctx context.Context, req model.Request) (model.Request, error) {
	// the cache key and the response index both use these trimmed ids
	req.Names = trimList(req.Names)
	req.Hints = trimList(req.Hints)
	if len(req.Names) > 0 && len(req.Points) > 0 {
		p.log.WarnContext(ctx, "both names and points supplied; preferring names")
		req.Points = nil
	}
	if len(req.Names) == 0 && len(req.Points) == 0 {
		return req, invalid("names or points required")
	}
	if n := max(len(req.Names), len(req.Points)); p.maxInputs > 0 && n > p.maxInputs {
		return req, invalid("too many inputs: %d > %d", n, p.maxInputs)
	}
	for _, pt := range req.Points {
		if !(pt[0] >= -180 && pt[0] <= 180 && pt[1] >= -90 && pt[1] <= 90) {
			return req, invalid("point %v outside lon [-180,180] lat [-90,90]", pt)
		}
	}

	if req.Width == 0 {
		req.Width = p.width
	}
	if req.Height == 0 {
		req.Height = p.height
	}
	if !(req.Width > 2*projection.Margin && req.Width <= p.maxSize) ||
		!(req.Height > 2*projection.Margin && req.Height <= p.maxSize) {
		return req, invalid("viewport %vx%v outside (%v, %v]", req.Width, req.Height, 2*projection.Margin, p.maxSize)
	}

	if strings.TrimSpace(req.Quality) != "" {
		req.Quality = string(catalog.ParseQuality(req.Quality))
	}
	req.Projection = strings.ToLower(strings.TrimSpace(req.Projection))
	if req.Projection != "" && req.Projection != "auto" {
		if _, err := projection.ParseKind(req.Projection); err != nil {
			return req, invalid("%v", err)
		}
	}
	return req, nil
}

// Build resolves req against the catalog. Unmatched names are part of the
// result, not an error; errors wrapping model.ErrInvalidRequest are the
// caller's fault.
func (p *Planner) Build(ctx context.Context, req model.Request) (model.MapSpec, error) {
	start := time.Now()
	req, err := p.normalize(ctx, req)
	if err != nil {
		return model.MapSpec{}, err
	}
	cat, err := p.catalogs.Get()
	if err != nil {
		return model.MapSpec{}, fmt.Errorf("catalog: %w", err)
	}

	key := keys.Plan(cat.Version(), req)
	if p.cache != nil {
		spec, ok, err := p.cache.Get(ctx, key)
		if err != nil {
			p.log.WarnContext(ctx, "plan cache get failed", "err", err)
		}
		if ok {
			return spec, nil
		}
	}

	mode := modeNames
	if req.PointMode() {
		mode = modePoints
	}
	ctx = logger.WithMode(ctx, mode)

	var spec model.MapSpec
	var bounds geom.Rect
	if mode == modePoints {
		spec, bounds = buildPoints(cat, req)
	} else {
		spec, bounds = buildNames(cat, req)
	}
	spec.CatalogVersion = cat.Version()
	spec.Bounds = bounds.Array()

	source := "selected"
	var proj projection.Projection
	if req.Projection != "" && req.Projection != "auto" {
		k, _ := projection.ParseKind(req.Projection)
		proj = projection.New(k, bounds)
		source = "override"
	} else {
		proj = projection.Select(bounds)
	}
	spec.Projection = projection.Fit(proj, bounds, req.Width, req.Height)

	observability.ObserveProjection(proj.Kind().String(), source)
	observability.ObservePlan(mode, outcome(spec, len(req.Names)), len(spec.Unmatched), time.Since(start).Seconds())
	p.log.DebugContext(ctx, "map spec built",
		"files", len(spec.Files),
		"matched", len(spec.Index),
		"unmatched", len(spec.Unmatched),
		"projection", proj.Kind().String())

	if len(spec.Unmatched) > 0 && p.events != nil {
		p.events.Publish(planevents.Event{
			Names:          spec.Unmatched,
			CatalogVersion: spec.CatalogVersion,
			Mode:           mode,
			RequestID:      logger.RequestID(ctx),
		})
	}
	if p.cache != nil {
		if err := p.cache.Put(ctx, key, spec); err != nil {
			p.log.WarnContext(ctx, "plan cache put failed", "err", err)
		}
	}
	return spec, nil
}

// trimList returns a trimmed copy of in without blank entries.
func trimList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func outcome(spec model.MapSpec, names int) string {
	switch {
	case names == 0 || len(spec.Unmatched) == 0:
		return "matched"
	case len(spec.Index) == 0:
		return "unmatched"
	default:
		return "partial"
	}
}

func buildNames(cat *catalog.Catalog, req model.Request) (model.MapSpec, geom.Rect) {
	m := assembly.Assemble(cat, req.Names, assembly.Options{
		Hints:   req.Hints,
		Quality: catalog.ParseQuality(req.Quality),
	})

	spec := model.MapSpec{
		Files:     make([]model.FileRef, len(m.Files)),
		Index:     make(map[string]model.Entry, len(m.Index)),
		Unmatched: m.Unmatched,
	}
	if spec.Unmatched == nil {
		spec.Unmatched = []string{}
	}
	for i, f := range m.Files {
		spec.Files[i] = model.FileRef{Name: f.Name, ID: f.ID, Bounds: f.Bounds.Array()}
	}
	for id, e := range m.Index {
		spec.Index[id] = model.Entry{File: e.File, Feature: e.Feature}
	}

	bounds := m.Bounds
	if bounds.Empty() {
		bounds = World
	}
	return spec, bounds
}

// minSpan pads degenerate point extents so the fit has something to scale.
const minSpan = 1.0

func buildPoints(cat *catalog.Catalog, req model.Request) (model.MapSpec, geom.Rect) {
	c := hull.NewCollector()
	for _, pt := range req.Points {
		c.Add(pt[0], pt[1])
	}
	h := c.Finalize()

	spec := model.MapSpec{
		Files:     []model.FileRef{},
		Index:     map[string]model.Entry{},
		Unmatched: []string{},
	}
	for _, v := range h.Points() {
		spec.Hull = append(spec.Hull, [2]float64{v.X, v.Y})
	}

	bounds := pad(h.Bounds())
	if f, ok := backgroundFile(cat, req.Hints, bounds); ok {
		bf := cat.File(f)
		q := catalog.ParseQuality(req.Quality)
		spec.Files = append(spec.Files, model.FileRef{Name: bf.Name, ID: bf.ID(q), Bounds: bf.Bounds.Array()})
	}
	return spec, bounds
}

// backgroundFile picks the file drawn behind the points: the first resolvable
// hint, else the smallest file holding the whole extent, else the file of
// the nearest gazetteer label.
func backgroundFile(cat *catalog.Catalog, hints []string, b geom.Rect) (int, bool) {
	for _, h := range hints {
		if f, ok := cat.ResolveHint(h); ok {
			return f, true
		}
	}
	if f, ok := cat.FileForBounds(b); ok {
		return f, true
	}
	if l, ok := cat.NearestLabel(b.Center()); ok {
		return cat.FileContaining(l.Point)
	}
	return 0, false
}

func pad(b geom.Rect) geom.Rect {
	if b.Empty() {
		return World
	}
	if w := b.Width(); w < minSpan {
		d := (minSpan - w) / 2
		b.X1, b.X2 = math.Max(-180, b.X1-d), math.Min(180, b.X2+d)
	}
	if h := b.Height(); h < minSpan {
		d := (minSpan - h) / 2
		b.Y1, b.Y2 = math.Max(-90, b.Y1-d), math.Min(90, b.Y2+d)
	}
	return b
}
