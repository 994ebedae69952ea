package projection

import (
	"math"

	"github.com/mohammed-shakir/geomap-resolver/internal/geom"
)

const (
	// Margin is the padding, in pixels, kept on each side of the viewport.
	Margin = 4.0
	// MaxDistortion is the largest top/bottom Tissot ratio Mercator may
	// show before another projection is preferred.
	MaxDistortion = 1.8
)

// Choice is a projection parameterized for one viewport. Center is
// geographic; Rotate and Parallels are only meaningful for the conics.
type Choice struct {
	Kind      Kind       `json:"kind"`
	Scale     float64    `json:"scale"`
	Translate [2]float64 `json:"translate"`
	Center    [2]float64 `json:"center"`
	Rotate    float64    `json:"rotate,omitempty"`
	Parallels [2]float64 `json:"parallels,omitzero"`
}

// New builds a projection of kind k parameterized for the lon/lat box b.
func New(k Kind, b geom.Rect) Projection {
	switch k {
	case Mercator:
		return NewMercator()
	case Albers:
		return albersForBox(b)
	case WinkelTripel:
		return NewWinkelTripel()
	case AlbersUSA:
		return NewAlbersUSA()
	}
	panic("projection: unknown kind " + k.String())
}

// Select picks a projection for the lon/lat box b.
func Select(b geom.Rect) Projection {
	inBand := b.Y1 >= 17 && b.Y2 <= 73
	switch {
	case b.X1 < -120 && inBand && b.Y1 < 24 && b.Y2 > 50:
		return NewAlbersUSA()
	case b.X1 < -100 && inBand:
		return NewMercator()
	case MercatorDistortion(b) <= MaxDistortion:
		return NewMercator()
	case b.Width() > 180 && b.Height() > 90:
		return NewWinkelTripel()
	}
	return albersForBox(b)
}

// MercatorDistortion compares Mercator's Tissot area at the top and bottom
// of b along its central meridian. Degenerate areas count as infinite.
func MercatorDistortion(b geom.Rect) float64 {
	m := NewMercator()
	mid := (b.X1 + b.X2) / 2
	a := m.TissotArea(mid, b.Y2)
	c := m.TissotArea(mid, b.Y1)
	r := math.Max(a/c, c/a)
	if a <= 0 || c <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return math.Inf(1)
	}
	return r
}

// Fit scales p so the extents of b fill a w x h viewport less Margin on
// each side, centered on the viewport.
func Fit(p Projection, b geom.Rect, w, h float64) Choice {
	ext := p.MaxExtents(b)
	availW, availH := math.Max(1, w-2*Margin), math.Max(1, h-2*Margin)
	c := Choice{Kind: p.Kind(), Translate: [2]float64{w / 2, h / 2}}
	c.Scale = fitScale(ext, availW, availH)

	switch p.Kind() {
	case Mercator:
		c.Center = inverseCenter(p, ext)
	case Albers:
		a := p.(*AlbersConic)
		c.Center = inverseCenter(p, ext)
		c.Rotate = a.Rotate
		c.Parallels = a.Parallels
	case WinkelTripel:
		mid := ext.Center()
		lon, lat := searchCenter(p, mid.X, mid.Y)
		c.Center = [2]float64{lon, lat}
	case AlbersUSA:
		k := math.Min(availW/usaFrameWidth, availH/usaFrameHeight)
		c.Scale = math.Min(usaScale*k, c.Scale)
		c.Center = usaCenter
		c.Rotate = 96
		c.Parallels = [2]float64{29.5, 45.5}
		// the frame is anchored on the lower 48; shift it so ext is centered
		mid := ext.Center()
		cx, cy := p.Transform(usaCenter[0], usaCenter[1])
		c.Translate = [2]float64{w/2 - c.Scale*(mid.X-cx), h/2 + c.Scale*(mid.Y-cy)}
	}
	return c
}

func fitScale(ext geom.Rect, availW, availH float64) float64 {
	dx, dy := ext.Width(), ext.Height()
	s := math.Inf(1)
	if dx > 0 {
		s = availW / dx
	}
	if dy > 0 {
		s = math.Min(s, availH/dy)
	}
	if math.IsInf(s, 1) {
		return 1
	}
	return s
}

func inverseCenter(p Projection, ext geom.Rect) [2]float64 {
	mid := ext.Center()
	lon, lat, err := p.Inverse(mid.X, mid.Y)
	if err != nil {
		return [2]float64{}
	}
	return [2]float64{lon, lat}
}

// Projection rebuilds the projection described by c.
func (c Choice) Projection() Projection {
	switch c.Kind {
	case Albers:
		return NewAlbers(c.Parallels[0], c.Parallels[1], c.Rotate)
	case WinkelTripel:
		return NewWinkelTripel()
	case AlbersUSA:
		return NewAlbersUSA()
	}
	return NewMercator()
}

// Pixel maps (lon, lat) into viewport pixels, y growing downward.
func (c Choice) Pixel(lon, lat float64) (float64, float64) {
	p := c.Projection()
	x, y := p.Transform(lon, lat)
	cx, cy := p.Transform(c.Center[0], c.Center[1])
	return c.Translate[0] + c.Scale*(x-cx), c.Translate[1] - c.Scale*(y-cy)
}
