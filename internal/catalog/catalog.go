// Package catalog holds the read-only geographic catalog: the boundary files
// available for rendering, which canonical names each file carries, and a
// gazetteer of labeled points used to resolve hints and point inputs.
//
// A Catalog is immutable once built and safe for concurrent reads. Obtain a
// shared instance through a Provider.
package catalog

import (
	"errors"
	"sort"

	"github.com/dhconnelly/rtreego"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/geomap-resolver/internal/geom"
	"github.com/mohammed-shakir/geomap-resolver/internal/names"
)

var ErrEmptyCatalog = errors.New("catalog has no boundary files")

type Quality string

const (
	QualityLow  Quality = "low"
	QualityMed  Quality = "med"
	QualityHigh Quality = "high"
)

// ParseQuality maps free-form tier names onto a Quality, defaulting to med.
func ParseQuality(s string) Quality {
	switch names.Canonical(s) {
	case "low", "l", "coarse":
		return QualityLow
	case "high", "h", "fine":
		return QualityHigh
	default:
		return QualityMed
	}
}

type BoundaryFile struct {
	Name   string
	Index  int
	Bounds geom.Rect
	// approximate payload size in bytes, used to break coverage ties
	Size     int64
	Variants map[Quality]string
	// gazetteer labels inside Bounds, highest rank first
	Labels []Label
}

// ID returns the identifier to fetch for the requested tier, falling back
// to med and then to the file name.
func (f BoundaryFile) ID(q Quality) string {
	if id, ok := f.Variants[q]; ok && id != "" {
		return id
	}
	if id, ok := f.Variants[QualityMed]; ok && id != "" {
		return id
	}
	return f.Name
}

// FeatureCandidate is one place a name can be found: a file and the
// feature's id inside that file.
type FeatureCandidate struct {
	File   int
	ID     string
	Bounds geom.Rect
}

type Label struct {
	Name  string
	Point geom.Point
	Rank  float64
}

type Catalog struct {
	version  string
	files    []BoundaryFile
	byName   map[string]int
	features map[string][]FeatureCandidate
	labels   []Label
	// canonical label name -> label indexes, highest rank first
	labelsByName map[string][]int

	tree       *rtreego.Rtree
	labelCells map[h3.Cell][]int
}

func (c *Catalog) Version() string { return c.version }

func (c *Catalog) NumFiles() int { return len(c.files) }

// File returns the file at catalog index i. It panics on an out of range
// index, like a slice access.
func (c *Catalog) File(i int) BoundaryFile { return c.files[i] }

func (c *Catalog) Files() []BoundaryFile {
	out := make([]BoundaryFile, len(c.files))
	copy(out, c.files)
	return out
}

func (c *Catalog) NumFeatures() int { return len(c.features) }

// FeatureByName looks name up under its canonical form, then under each
// variant of the canonical form. The first hit wins.
func (c *Catalog) FeatureByName(name string) ([]FeatureCandidate, bool) {
	key := names.Canonical(name)
	if key == "" {
		return nil, false
	}
	if fc, ok := c.features[key]; ok {
		return fc, true
	}
	for _, v := range names.Variants(key) {
		if fc, ok := c.features[v]; ok {
			return fc, true
		}
		if fc, ok := c.features[names.Canonical(v)]; ok {
			return fc, true
		}
	}
	return nil, false
}

// ResolveHint turns a user hint into a single file: an exact file name, the
// first candidate of a matching feature, or the smallest file containing the
// best ranked gazetteer label of that name. Unresolvable hints report false.
func (c *Catalog) ResolveHint(hint string) (int, bool) {
	if hint == "" {
		return 0, false
	}
	if i, ok := c.byName[hint]; ok {
		return i, true
	}
	if fc, ok := c.FeatureByName(hint); ok && len(fc) > 0 {
		return fc[0].File, true
	}
	if l, ok := c.LabelByName(hint); ok {
		return c.FileContaining(l.Point)
	}
	return 0, false
}

// LabelByName returns the highest ranked gazetteer label with that name.
func (c *Catalog) LabelByName(name string) (Label, bool) {
	key := names.Canonical(name)
	idx, ok := c.labelsByName[key]
	if !ok {
		for _, v := range names.Variants(key) {
			if idx, ok = c.labelsByName[v]; ok {
				break
			}
		}
	}
	if !ok || len(idx) == 0 {
		return Label{}, false
	}
	return c.labels[idx[0]], true
}

// FileContaining returns the smallest file whose bounds contain p.
func (c *Catalog) FileContaining(p geom.Point) (int, bool) {
	return c.smallest(c.search(geom.Rect{X1: p.X, Y1: p.Y, X2: p.X, Y2: p.Y}), func(f BoundaryFile) bool {
		return f.Bounds.Contains(p)
	})
}

// FileForBounds returns the smallest file whose bounds contain all of r.
func (c *Catalog) FileForBounds(r geom.Rect) (int, bool) {
	if r.Empty() {
		return 0, false
	}
	return c.smallest(c.search(r), func(f BoundaryFile) bool {
		return f.Bounds.ContainsRect(r)
	})
}

func (c *Catalog) smallest(cands []int, keep func(BoundaryFile) bool) (int, bool) {
	best, found := 0, false
	for _, i := range cands {
		f := c.files[i]
		if !keep(f) {
			continue
		}
		if !found || smaller(f, c.files[best]) {
			best, found = i, true
		}
	}
	return best, found
}

// smaller orders files by area, then size, then catalog position.
func smaller(a, b BoundaryFile) bool {
	if aa, ba := a.Bounds.Area(), b.Bounds.Area(); aa != ba {
		return aa < ba
	}
	if a.Size != b.Size {
		return a.Size < b.Size
	}
	return a.Index < b.Index
}

func sortLabels(labels []Label, idx []int) {
	sort.SliceStable(idx, func(i, j int) bool {
		return labels[idx[i]].Rank > labels[idx[j]].Rank
	})
}
