package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/geomap-resolver/internal/geom"
	"github.com/mohammed-shakir/geomap-resolver/internal/names"
)

//go:embed data/catalog.json
var defaultCatalog []byte

type manifest struct {
	Version   string                       `json:"version"`
	Files     []manifestFile               `json:"files"`
	Features  map[string][]manifestFeature `json:"features"`
	Gazetteer json.RawMessage              `json:"gazetteer"`
}

type manifestFile struct {
	Name     string            `json:"name"`
	Bounds   []float64         `json:"bounds"`
	Size     int64             `json:"size"`
	Variants map[string]string `json:"variants"`
}

type manifestFeature struct {
	File   int       `json:"file"`
	ID     string    `json:"id"`
	Bounds []float64 `json:"bounds"`
}

// Embedded builds the catalog bundled with the binary.
func Embedded() (*Catalog, error) {
	return Parse(bytes.NewReader(defaultCatalog))
}

func FromFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %q: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog manifest.
func Parse(r io.Reader) (*Catalog, error) {
	var m manifest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return build(m)
}

func build(m manifest) (*Catalog, error) {
	if len(m.Files) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		version:      m.Version,
		files:        make([]BoundaryFile, 0, len(m.Files)),
		byName:       make(map[string]int, len(m.Files)),
		features:     make(map[string][]FeatureCandidate, len(m.Features)),
		labelsByName: map[string][]int{},
	}

	for i, mf := range m.Files {
		name := strings.TrimSpace(mf.Name)
		if name == "" {
			return nil, fmt.Errorf("file %d: missing name", i)
		}
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("file %d: duplicate name %q", i, name)
		}
		b, err := parseBounds(mf.Bounds)
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", name, err)
		}
		if b.Width() <= 0 || b.Height() <= 0 {
			return nil, fmt.Errorf("file %q: bounds must have positive area", name)
		}
		if mf.Size < 0 {
			return nil, fmt.Errorf("file %q: negative size", name)
		}
		var variants map[Quality]string
		if len(mf.Variants) > 0 {
			variants = make(map[Quality]string, len(mf.Variants))
			for k, v := range mf.Variants {
				variants[ParseQuality(k)] = v
			}
		}
		c.byName[name] = i
		c.files = append(c.files, BoundaryFile{
			Name:     name,
			Index:    i,
			Bounds:   b,
			Size:     mf.Size,
			Variants: variants,
		})
	}

	raws := make([]string, 0, len(m.Features))
	for raw := range m.Features {
		raws = append(raws, raw)
	}
	sort.Strings(raws)
	for _, raw := range raws {
		list := m.Features[raw]
		key := names.Canonical(raw)
		if key == "" {
			return nil, fmt.Errorf("feature %q: empty canonical name", raw)
		}
		for _, mf := range list {
			if mf.File < 0 || mf.File >= len(c.files) {
				return nil, fmt.Errorf("feature %q: file index %d out of range", raw, mf.File)
			}
			if mf.ID == "" {
				return nil, fmt.Errorf("feature %q: missing id", raw)
			}
			fb := c.files[mf.File].Bounds
			if len(mf.Bounds) > 0 {
				b, err := parseBounds(mf.Bounds)
				if err != nil {
					return nil, fmt.Errorf("feature %q: %w", raw, err)
				}
				fb = b
			}
			c.features[key] = appendCandidate(c.features[key], FeatureCandidate{File: mf.File, ID: mf.ID, Bounds: fb})
		}
	}

	labels, err := parseGazetteer(m.Gazetteer)
	if err != nil {
		return nil, err
	}
	c.labels = labels
	for i, l := range labels {
		key := names.Canonical(l.Name)
		c.labelsByName[key] = append(c.labelsByName[key], i)
	}
	for _, idx := range c.labelsByName {
		sortLabels(labels, idx)
	}

	c.tree = buildTree(c.files)
	c.labelCells = buildLabelCells(labels)
	c.attachLabels()
	return c, nil
}

// appendCandidate keeps one candidate per file; the catalog's first entry
// for a file wins.
func appendCandidate(list []FeatureCandidate, fc FeatureCandidate) []FeatureCandidate {
	for _, have := range list {
		if have.File == fc.File {
			return list
		}
	}
	return append(list, fc)
}

func (c *Catalog) attachLabels() {
	for i := range c.files {
		var idx []int
		for j, l := range c.labels {
			if c.files[i].Bounds.Contains(l.Point) {
				idx = append(idx, j)
			}
		}
		sortLabels(c.labels, idx)
		labels := make([]Label, len(idx))
		for k, j := range idx {
			labels[k] = c.labels[j]
		}
		c.files[i].Labels = labels
	}
}

func parseBounds(v []float64) (geom.Rect, error) {
	if len(v) != 4 {
		return geom.Rect{}, fmt.Errorf("bounds: expected [x1,y1,x2,y2], got %d values", len(v))
	}
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return geom.Rect{}, errors.New("bounds: non-finite coordinate")
		}
	}
	if v[0] < -180 || v[2] > 180 || v[1] < -90 || v[3] > 90 {
		return geom.Rect{}, fmt.Errorf("bounds: %v outside lon/lat range", v)
	}
	if v[2] < v[0] || v[3] < v[1] {
		return geom.Rect{}, fmt.Errorf("bounds: %v must satisfy x2>=x1 and y2>=y1", v)
	}
	return geom.Rect{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}

func parseGazetteer(raw json.RawMessage) ([]Label, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("gazetteer: %w", err)
	}
	labels := make([]Label, 0, len(fc.Features))
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("gazetteer feature %d: geometry must be a Point", i)
		}
		name := strings.TrimSpace(f.Properties.MustString("name", ""))
		if name == "" {
			return nil, fmt.Errorf("gazetteer feature %d: missing name", i)
		}
		labels = append(labels, Label{
			Name:  name,
			Point: geom.Point{X: pt.Lon(), Y: pt.Lat()},
			Rank:  f.Properties.MustFloat64("rank", 0),
		})
	}
	return labels, nil
}
