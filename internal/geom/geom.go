// Package geom defines the planar point and rectangle value types shared by
// the catalog, hull and projection packages.
package geom

import (
	"fmt"
	"math"
)

type Point struct {
	X, Y float64
}

func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Less orders points by Y, then X.
func (p Point) Less(q Point) bool {
	if p.Y != q.Y {
		return p.Y < q.Y
	}
	return p.X < q.X
}

func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

func (p Point) Dist2(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

func (p Point) Dist(q Point) float64 { return math.Sqrt(p.Dist2(q)) }

func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// Cross returns the z component of (a-o) x (b-o); positive for a left turn.
func Cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// Rect is an axis-aligned box. The zero value is a degenerate box at the
// origin; use EmptyRect for the identity of Union.
type Rect struct {
	X1, Y1 float64
	X2, Y2 float64
}

// NewRect normalizes the corners so X1<=X2 and Y1<=Y2.
func NewRect(x1, y1, x2, y2 float64) Rect {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func EmptyRect() Rect {
	return Rect{X1: math.Inf(1), Y1: math.Inf(1), X2: math.Inf(-1), Y2: math.Inf(-1)}
}

func RectOf(pts ...Point) Rect {
	r := EmptyRect()
	for _, p := range pts {
		r = r.Extend(p)
	}
	return r
}

func (r Rect) Empty() bool { return r.X1 > r.X2 || r.Y1 > r.Y2 }

func (r Rect) Width() float64 {
	if r.Empty() {
		return 0
	}
	return r.X2 - r.X1
}

func (r Rect) Height() float64 {
	if r.Empty() {
		return 0
	}
	return r.Y2 - r.Y1
}

func (r Rect) Area() float64 { return r.Width() * r.Height() }

func (r Rect) Center() Point {
	return Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

func (r Rect) Extend(p Point) Rect {
	return Rect{
		X1: math.Min(r.X1, p.X),
		Y1: math.Min(r.Y1, p.Y),
		X2: math.Max(r.X2, p.X),
		Y2: math.Max(r.Y2, p.Y),
	}
}

func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		X1: math.Min(r.X1, o.X1),
		Y1: math.Min(r.Y1, o.Y1),
		X2: math.Max(r.X2, o.X2),
		Y2: math.Max(r.Y2, o.Y2),
	}
}

// Intersect returns the overlap of r and o; the result is Empty when they
// do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	return Rect{
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
		X2: math.Min(r.X2, o.X2),
		Y2: math.Min(r.Y2, o.Y2),
	}
}

func (r Rect) Intersects(o Rect) bool { return !r.Intersect(o).Empty() }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

func (r Rect) ContainsRect(o Rect) bool {
	if o.Empty() {
		return true
	}
	return o.X1 >= r.X1 && o.X2 <= r.X2 && o.Y1 >= r.Y1 && o.Y2 <= r.Y2
}

// Distance is zero for points inside r.
func (r Rect) Distance(p Point) float64 {
	dx := math.Max(0, math.Max(r.X1-p.X, p.X-r.X2))
	dy := math.Max(0, math.Max(r.Y1-p.Y, p.Y-r.Y2))
	return math.Hypot(dx, dy)
}

// DistanceRect is the gap between two boxes, zero when they touch or overlap.
func (r Rect) DistanceRect(o Rect) float64 {
	dx := math.Max(0, math.Max(r.X1-o.X2, o.X1-r.X2))
	dy := math.Max(0, math.Max(r.Y1-o.Y2, o.Y1-r.Y2))
	return math.Hypot(dx, dy)
}

// Array returns [x1, y1, x2, y2], the layout used in catalog and JSON output.
func (r Rect) Array() [4]float64 { return [4]float64{r.X1, r.Y1, r.X2, r.Y2} }

func (r Rect) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", r.X1, r.Y1, r.X2, r.Y2)
}
