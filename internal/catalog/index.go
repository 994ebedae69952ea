package catalog

import (
	"math"

	"github.com/dhconnelly/rtreego"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/geomap-resolver/internal/geom"
)

const (
	// ~60km cell edges; the gazetteer is sparse so coarse cells are enough
	labelRes = 3
	// rings searched before falling back to a linear scan
	maxLabelRing = 6
	rectTol      = 1e-9
)

// fileEntry adapts a catalog file to rtreego.Spatial.
type fileEntry struct {
	idx    int
	bounds geom.Rect
}

func (e fileEntry) Bounds() rtreego.Rect { return toRect(e.bounds) }

func toRect(r geom.Rect) rtreego.Rect {
	point := rtreego.Point{r.X1, r.Y1}
	lengths := []float64{
		math.Max(r.X2-r.X1, rectTol),
		math.Max(r.Y2-r.Y1, rectTol),
	}
	rect, err := rtreego.NewRect(point, lengths)
	if err != nil {
		// lengths are clamped positive above, so this only trips on NaN input
		return point.ToRect(rectTol)
	}
	return rect
}

func buildTree(files []BoundaryFile) *rtreego.Rtree {
	tree := rtreego.NewTree(2, 2, 8)
	for _, f := range files {
		tree.Insert(fileEntry{idx: f.Index, bounds: f.Bounds})
	}
	return tree
}

// search returns indexes of files whose bounds intersect r.
func (c *Catalog) search(r geom.Rect) []int {
	q := geom.Rect{X1: r.X1 - rectTol, Y1: r.Y1 - rectTol, X2: r.X2 + rectTol, Y2: r.Y2 + rectTol}
	hits := c.tree.SearchIntersect(toRect(q))
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		if e, ok := h.(fileEntry); ok {
			out = append(out, e.idx)
		}
	}
	return out
}

func buildLabelCells(labels []Label) map[h3.Cell][]int {
	cells := make(map[h3.Cell][]int, len(labels))
	for i, l := range labels {
		c, err := h3.LatLngToCell(h3.NewLatLng(l.Point.Y, l.Point.X), labelRes)
		if err != nil {
			continue
		}
		cells[c] = append(cells[c], i)
	}
	return cells
}

// NearestLabel returns the gazetteer label closest to p (lon/lat degrees),
// by great-circle distance.
func (c *Catalog) NearestLabel(p geom.Point) (Label, bool) {
	if len(c.labels) == 0 {
		return Label{}, false
	}
	target := h3.NewLatLng(p.Y, p.X)
	if i, ok := c.nearestByCells(target); ok {
		return c.labels[i], true
	}
	best, bestD := -1, math.Inf(1)
	for i, l := range c.labels {
		d := h3.GreatCircleDistanceKm(target, h3.NewLatLng(l.Point.Y, l.Point.X))
		if d < bestD {
			best, bestD = i, d
		}
	}
	return c.labels[best], best >= 0
}

// nearestByCells finds the first disk around target's cell holding a label,
// then widens the search to every cell that could hold something closer.
// It reports false when that radius is too wide to be worth it.
func (c *Catalog) nearestByCells(target h3.LatLng) (int, bool) {
	origin, err := h3.LatLngToCell(target, labelRes)
	if err != nil {
		return 0, false
	}
	spacing, ok := cellSpacingKm(origin)
	if !ok {
		return 0, false
	}
	for k := 0; k <= maxLabelRing; k++ {
		_, d, ok := c.bestInDisk(origin, k, target)
		if !ok {
			continue
		}
		// a cell j rings out has its center at least ~0.87*j*spacing away and
		// both target and label sit within ~0.58*spacing of their centers
		r := int(math.Ceil((d+1.2*spacing)/(0.8*spacing))) + 1
		if r > 2*maxLabelRing {
			return 0, false
		}
		best, _, ok := c.bestInDisk(origin, max(r, k), target)
		return best, ok
	}
	return 0, false
}

func (c *Catalog) bestInDisk(origin h3.Cell, k int, target h3.LatLng) (int, float64, bool) {
	disk, err := h3.GridDisk(origin, k)
	if err != nil {
		return 0, 0, false
	}
	best, bestD := -1, math.Inf(1)
	for _, cell := range disk {
		for _, i := range c.labelCells[cell] {
			l := c.labels[i]
			d := h3.GreatCircleDistanceKm(target, h3.NewLatLng(l.Point.Y, l.Point.X))
			if d < bestD || (d == bestD && i < best) {
				best, bestD = i, d
			}
		}
	}
	return best, bestD, best >= 0
}

// cellSpacingKm is the smallest center-to-center distance from origin to a
// neighbour, which bounds how far one ring reaches.
func cellSpacingKm(origin h3.Cell) (float64, bool) {
	center, err := h3.CellToLatLng(origin)
	if err != nil {
		return 0, false
	}
	ring, err := h3.GridDisk(origin, 1)
	if err != nil {
		return 0, false
	}
	spacing := math.Inf(1)
	for _, n := range ring {
		if n == origin {
			continue
		}
		ll, err := h3.CellToLatLng(n)
		if err != nil {
			continue
		}
		spacing = math.Min(spacing, h3.GreatCircleDistanceKm(center, ll))
	}
	return spacing, spacing > 0 && !math.IsInf(spacing, 1)
}
