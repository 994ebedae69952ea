package projection

import (
	"math"

	"github.com/mohammed-shakir/geomap-resolver/internal/geom"
)

// AlbersConic is the equal-area conic with two standard parallels. Rotate is
// added to every longitude before projecting.
type AlbersConic struct {
	Parallels [2]float64
	Rotate    float64

	n, c, r0 float64
	// cylindrical equal-area fallback when the parallels mirror the equator
	cylindrical bool
	cosPhi0     float64
}

func NewAlbers(p0, p1, rotate float64) *AlbersConic {
	a := &AlbersConic{Parallels: [2]float64{p0, p1}, Rotate: rotate}
	s0 := math.Sin(rad(p0))
	a.n = (s0 + math.Sin(rad(p1))) / 2
	if math.Abs(a.n) < 1e-6 {
		a.cylindrical = true
		a.cosPhi0 = math.Cos(rad(p0))
		return a
	}
	a.c = 1 + s0*(2*a.n-s0)
	a.r0 = math.Sqrt(a.c) / a.n
	return a
}

// albersForBox places the parallels at 1/6 and 5/6 of the box's latitude
// span and rotates its central meridian to zero.
func albersForBox(b geom.Rect) *AlbersConic {
	dy := b.Y2 - b.Y1
	return NewAlbers(b.Y1+dy/6, b.Y1+5*dy/6, -(b.X1+b.X2)/2)
}

func (*AlbersConic) Kind() Kind { return Albers }

func (a *AlbersConic) Transform(lon, lat float64) (float64, float64) {
	l := rad(normLon(lon + a.Rotate))
	phi := rad(lat)
	if a.cylindrical {
		return l * a.cosPhi0, math.Sin(phi) / a.cosPhi0
	}
	r := math.Sqrt(math.Max(0, a.c-2*a.n*math.Sin(phi))) / a.n
	t := l * a.n
	return r * math.Sin(t), a.r0 - r*math.Cos(t)
}

func (a *AlbersConic) Inverse(x, y float64) (float64, float64, error) {
	if a.cylindrical {
		return normLon(deg(x/a.cosPhi0) - a.Rotate), deg(math.Asin(clamp1(y * a.cosPhi0))), nil
	}
	r0y := a.r0 - y
	l := math.Atan2(x, math.Abs(r0y)) * sign(r0y)
	if r0y*a.n < 0 {
		l -= math.Pi * sign(x) * sign(r0y)
	}
	phi := math.Asin(clamp1((a.c - (x*x+r0y*r0y)*a.n*a.n) / (2 * a.n)))
	return normLon(deg(l/a.n) - a.Rotate), deg(phi), nil
}

func (a *AlbersConic) TissotArea(lon, lat float64) float64 { return tissot(a, lon, lat) }

func (a *AlbersConic) MaxExtents(b geom.Rect) geom.Rect { return extents(a, b) }

func clamp1(v float64) float64 { return math.Max(-1, math.Min(1, v)) }
