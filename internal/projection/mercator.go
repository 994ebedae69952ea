package projection

import (
	"math"

	"github.com/mohammed-shakir/geomap-resolver/internal/geom"
)

// maxMercatorLat keeps the projected square finite.
const maxMercatorLat = 85.05112878

type mercator struct{}

func NewMercator() Projection { return mercator{} }

func (mercator) Kind() Kind { return Mercator }

func (mercator) Transform(lon, lat float64) (float64, float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	return rad(lon), math.Log(math.Tan(math.Pi/4 + rad(lat)/2))
}

func (mercator) Inverse(x, y float64) (float64, float64, error) {
	return deg(x), deg(2*math.Atan(math.Exp(y)) - math.Pi/2), nil
}

func (m mercator) TissotArea(lon, lat float64) float64 { return tissot(m, lon, lat) }

func (m mercator) MaxExtents(b geom.Rect) geom.Rect { return extents(m, b) }
