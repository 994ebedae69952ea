package projection

import (
	"math"

	"github.com/mohammed-shakir/geomap-resolver/internal/geom"
)

// winkel is the Winkel tripel: the mean of Aitoff and the equirectangular
// projection with standard parallel acos(2/pi). It has no closed-form
// inverse.
type winkel struct{}

func NewWinkelTripel() Projection { return winkel{} }

func (winkel) Kind() Kind { return WinkelTripel }

func (winkel) Transform(lon, lat float64) (float64, float64) {
	l, phi := rad(lon), rad(lat)
	ax, ay := aitoff(l, phi)
	return (ax + l*2/math.Pi) / 2, (ay + phi) / 2
}

func (winkel) Inverse(float64, float64) (float64, float64, error) {
	return 0, 0, ErrNoInverse
}

func (w winkel) TissotArea(lon, lat float64) float64 { return tissot(w, lon, lat) }

func (w winkel) MaxExtents(b geom.Rect) geom.Rect { return extents(w, b) }

func aitoff(l, phi float64) (float64, float64) {
	cosPhi := math.Cos(phi)
	half := l / 2
	s := sinci(math.Acos(clamp1(cosPhi * math.Cos(half))))
	return 2 * cosPhi * math.Sin(half) * s, math.Sin(phi) * s
}

// sinci is x/sin(x), continuous at zero.
func sinci(x float64) float64 {
	if x == 0 {
		return 1
	}
	return x / math.Sin(x)
}

// centerStep is the grid step, in degrees, of the center search.
const centerStep = 1.0

// searchCenter finds the lon/lat whose projection lies closest to (tx, ty):
// longitude first along the equator, then latitude on that meridian.
func searchCenter(p Projection, tx, ty float64) (float64, float64) {
	dist := func(lon, lat float64) float64 {
		x, y := p.Transform(lon, lat)
		return math.Hypot(x-tx, y-ty)
	}
	bestLon, best := -180.0, math.Inf(1)
	for lon := -180.0; lon <= 180; lon += centerStep {
		if d := dist(lon, 0); d < best {
			bestLon, best = lon, d
		}
	}
	bestLat := -90.0
	best = math.Inf(1)
	for lat := -90.0; lat <= 90; lat += centerStep {
		if d := dist(bestLon, lat); d < best {
			bestLat, best = lat, d
		}
	}
	return bestLon, bestLat
}
