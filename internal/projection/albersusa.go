package projection

import (
	"github.com/mohammed-shakir/geomap-resolver/internal/geom"
)

// Conventional composite frame: the lower 48 at scale 1070 fill a 960x500
// canvas, Alaska and Hawaii are drawn as insets in its lower left.
const (
	usaScale       = 1070.0
	usaFrameWidth  = 960.0
	usaFrameHeight = 500.0
)

type inset struct {
	proj  *AlbersConic
	scale float64
	// raw offset of the inset's anchor, in units of usaScale
	dx, dy float64
	cx, cy float64
}

func newInset(p0, p1, rotate, centerLon, centerLat, scale, dx, dy float64) inset {
	in := inset{proj: NewAlbers(p0, p1, rotate), scale: scale, dx: dx, dy: dy}
	in.cx, in.cy = in.proj.Transform(centerLon, centerLat)
	return in
}

func (in inset) transform(lon, lat float64) (float64, float64) {
	x, y := in.proj.Transform(lon, lat)
	return in.scale*(x-in.cx) + in.dx, in.scale*(y-in.cy) + in.dy
}

// albersUSA composites three conics. Raw coordinates are centered on the
// lower 48 so that the composite's center maps to (0, 0).
type albersUSA struct {
	lower48, alaska, hawaii inset
}

// usaCenter is the lower 48 anchor.
var usaCenter = [2]float64{-96.6, 38.7}

func NewAlbersUSA() Projection {
	return albersUSA{
		lower48: newInset(29.5, 45.5, 96, usaCenter[0], usaCenter[1], 1, 0, 0),
		alaska:  newInset(55, 65, 154, -156, 58.5, 0.35, -0.307, -0.201),
		hawaii:  newInset(8, 18, 157, -160, 19.9, 1, -0.205, -0.212),
	}
}

func (albersUSA) Kind() Kind { return AlbersUSA }

func (u albersUSA) Transform(lon, lat float64) (float64, float64) {
	switch {
	case lat >= 50 && (lon < -129 || lon > 170):
		return u.alaska.transform(lon, lat)
	case lat < 26 && lon < -150:
		return u.hawaii.transform(lon, lat)
	default:
		return u.lower48.transform(lon, lat)
	}
}

func (albersUSA) Inverse(float64, float64) (float64, float64, error) {
	return 0, 0, ErrNoInverse
}

func (u albersUSA) TissotArea(lon, lat float64) float64 { return tissot(u, lon, lat) }

func (u albersUSA) MaxExtents(b geom.Rect) geom.Rect { return extents(u, b) }
