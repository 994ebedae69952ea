// Package hull computes the convex hull of raw coordinate samples.
//
// Points are gathered with a Collector and turned into an immutable Hull by
// Finalize. The collector can keep accepting points afterwards; each
// Finalize call works on a snapshot.
package hull

import (
	"fmt"
	"sort"

	"github.com/mohammed-shakir/geomap-resolver/internal/geom"
)

type Collector struct {
	seen map[geom.Point]struct{}
	pts  []geom.Point
}

func NewCollector() *Collector {
	return &Collector{seen: map[geom.Point]struct{}{}}
}

// Add inserts (x, y); exact duplicates collapse.
func (c *Collector) Add(x, y float64) {
	if c.seen == nil {
		c.seen = map[geom.Point]struct{}{}
	}
	p := geom.Pt(x, y)
	if _, ok := c.seen[p]; ok {
		return
	}
	c.seen[p] = struct{}{}
	c.pts = append(c.pts, p)
}

func (c *Collector) Len() int { return len(c.pts) }

// Hull is a counter-clockwise vertex ring. With three or more vertices every
// consecutive triple is a strict left turn.
type Hull struct {
	points []geom.Point
	bounds geom.Rect
}

// Points returns a copy of the vertices, starting at the lowest point.
func (h Hull) Points() []geom.Point {
	out := make([]geom.Point, len(h.points))
	copy(out, h.points)
	return out
}

func (h Hull) Len() int { return len(h.points) }

// Bounds is the bounding box of every collected point, which is also the box
// of the vertices up to rounding; Empty for an empty hull.
func (h Hull) Bounds() geom.Rect { return h.bounds }

// Finalize runs a Graham scan over the collected points. It panics if the
// result is not strictly convex, which can only come from a bug here.
func (c *Collector) Finalize() Hull {
	pts := make([]geom.Point, len(c.pts))
	copy(pts, c.pts)
	sort.Slice(pts, func(i, j int) bool { return pts[i].Less(pts[j]) })

	var ring []geom.Point
	if len(pts) < 3 {
		ring = pts
	} else {
		ring = prune(graham(pts))
	}
	if err := checkConvex(ring); err != nil {
		panic(err)
	}
	return Hull{points: ring, bounds: geom.RectOf(pts...)}
}

// graham expects pts sorted by (Y, X), so pts[0] is the pivot.
func graham(pts []geom.Point) []geom.Point {
	pivot := pts[0]
	rest := pts[1:]
	sort.Slice(rest, func(i, j int) bool {
		a, b := rest[i], rest[j]
		if c := geom.Cross(pivot, a, b); c != 0 {
			return c > 0
		}
		return pivot.Dist2(a) > pivot.Dist2(b)
	})

	// keep only the farthest point of each ray from the pivot
	ray := rest[:0:0]
	for _, p := range rest {
		if n := len(ray); n > 0 && geom.Cross(pivot, ray[n-1], p) == 0 {
			continue
		}
		ray = append(ray, p)
	}

	stack := []geom.Point{pivot}
	for _, p := range ray {
		for len(stack) >= 2 && geom.Cross(stack[len(stack)-2], stack[len(stack)-1], p) <= 0 {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, p)
	}
	return stack
}

// prune removes vertices that rounding left as non-left turns. The scan
// never tests the two turns that close the ring through the pivot, and
// near-collinear input can fail them. A failing vertex that lies between its
// neighbours is dropped; one where the ring doubles back means the input is
// a line, and the ring collapses to its two farthest points.
func prune(ring []geom.Point) []geom.Point {
	for len(ring) >= 3 {
		n := len(ring)
		drop, folded := -1, false
		for i := range n {
			a, b, c := ring[(i+n-1)%n], ring[i], ring[(i+1)%n]
			if geom.Cross(a, b, c) > 0 {
				continue
			}
			if dot(a.Sub(b), c.Sub(b)) < 0 {
				drop = i
				break
			}
			folded = true
		}
		switch {
		case drop >= 0:
			ring = append(ring[:drop:drop], ring[drop+1:]...)
		case folded:
			return farthestPair(ring)
		default:
			return lowestFirst(ring)
		}
	}
	return lowestFirst(ring)
}

func dot(u, v geom.Point) float64 { return u.X*v.X + u.Y*v.Y }

func farthestPair(pts []geom.Point) []geom.Point {
	bi, bj, best := 0, 0, -1.0
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if d := pts[i].Dist2(pts[j]); d > best {
				bi, bj, best = i, j, d
			}
		}
	}
	a, b := pts[bi], pts[bj]
	if b.Less(a) {
		a, b = b, a
	}
	return []geom.Point{a, b}
}

// lowestFirst rotates ring so it starts at its lowest vertex.
func lowestFirst(ring []geom.Point) []geom.Point {
	lo := 0
	for i, p := range ring {
		if p.Less(ring[lo]) {
			lo = i
		}
	}
	if lo == 0 {
		return ring
	}
	out := make([]geom.Point, 0, len(ring))
	out = append(out, ring[lo:]...)
	return append(out, ring[:lo]...)
}

func checkConvex(ring []geom.Point) error {
	n := len(ring)
	if n < 3 {
		return nil
	}
	for i := range n {
		a, b, c := ring[i], ring[(i+1)%n], ring[(i+2)%n]
		if geom.Cross(a, b, c) <= 0 {
			return fmt.Errorf("hull: invariant violated: %v %v %v is not a left turn", a, b, c)
		}
	}
	return nil
}
