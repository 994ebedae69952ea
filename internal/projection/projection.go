// Package projection implements the map projections a MapSpec can carry and
// the rules that pick one for a geographic box and fit it to a viewport.
//
// Every projection works in a raw planar space with y growing north. The
// pixel mapping in Choice flips y.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/mohammed-shakir/geomap-resolver/internal/geom"
)

var ErrNoInverse = errors.New("projection: inverse not supported")

type Kind int

const (
	Mercator Kind = iota
	Albers
	WinkelTripel
	AlbersUSA
)

var kindNames = [...]string{
	Mercator:     "mercator",
	Albers:       "albers",
	WinkelTripel: "winkel-tripel",
	AlbersUSA:    "albers-usa",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if n == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("projection: unknown kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("projection: invalid kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

type Projection interface {
	Kind() Kind
	// Transform maps degrees to raw planar coordinates.
	Transform(lon, lat float64) (x, y float64)
	Inverse(x, y float64) (lon, lat float64, err error)
	// TissotArea estimates local area scale at (lon, lat).
	TissotArea(lon, lat float64) float64
	// MaxExtents bounds the projected corners and edge midpoints of a
	// lon/lat box. It is an approximation, not the true extremum.
	MaxExtents(b geom.Rect) geom.Rect
}

// tissotStep is the symmetric angular offset, in radians.
const tissotStep = 5e-4

func tissot(p Projection, lon, lat float64) float64 {
	e := deg(tissotStep)
	xa, _ := p.Transform(lon-e, lat)
	xb, _ := p.Transform(lon+e, lat)
	_, ya := p.Transform(lon, lat-e)
	_, yb := p.Transform(lon, lat+e)
	return math.Abs(xb-xa) * math.Abs(yb-ya) / (4 * tissotStep * tissotStep)
}

func extents(p Projection, b geom.Rect) geom.Rect {
	mx, my := (b.X1+b.X2)/2, (b.Y1+b.Y2)/2
	out := geom.EmptyRect()
	for _, s := range [8][2]float64{
		{b.X1, b.Y1}, {b.X2, b.Y1}, {b.X1, b.Y2}, {b.X2, b.Y2},
		{mx, b.Y1}, {mx, b.Y2}, {b.X1, my}, {b.X2, my},
	} {
		x, y := p.Transform(s[0], s[1])
		out = out.Extend(geom.Pt(x, y))
	}
	return out
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

// normLon wraps a longitude into [-180, 180].
func normLon(l float64) float64 {
	if l >= -180 && l <= 180 {
		return l
	}
	return math.Remainder(l, 360)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
