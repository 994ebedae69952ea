package projection

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/geomap-resolver/internal/geom"
)

func TestMercator_RoundTrip(t *testing.T) {
	m := NewMercator()
	for lon := -179.0; lon <= 179; lon += 7.3 {
		for lat := -85.0; lat <= 85; lat += 4.25 {
			x, y := m.Transform(lon, lat)
			gl, gt, err := m.Inverse(x, y)
			require.NoError(t, err)
			require.InDelta(t, lon, gl, 1e-6, "lon at (%v,%v)", lon, lat)
			require.InDelta(t, lat, gt, 1e-6, "lat at (%v,%v)", lon, lat)
		}
	}
}

func TestAlbers_RoundTrip(t *testing.T) {
	for _, a := range []*AlbersConic{
		NewAlbers(29.5, 45.5, 96),
		NewAlbers(-40, -10, -20),
		NewAlbers(20, 60, 0),
		NewAlbers(-30, 30, 15), // cylindrical fallback
	} {
		for lon := -179.0; lon <= 179; lon += 7.3 {
			for lat := -85.0; lat <= 85; lat += 4.25 {
				x, y := a.Transform(lon, lat)
				gl, gt, err := a.Inverse(x, y)
				require.NoError(t, err)
				require.InDelta(t, lon, gl, 1e-6, "parallels %v lon at (%v,%v)", a.Parallels, lon, lat)
				require.InDelta(t, lat, gt, 1e-6, "parallels %v lat at (%v,%v)", a.Parallels, lon, lat)
			}
		}
	}
}

func TestAlbers_CylindricalFallback(t *testing.T) {
	a := NewAlbers(-30, 30, 0)
	require.True(t, a.cylindrical)
	x, y := a.Transform(0, 0)
	assert.InDelta(t, 0, x, 1e-12)
	assert.InDelta(t, 0, y, 1e-12)
}

func TestNoInverse(t *testing.T) {
	for _, p := range []Projection{NewWinkelTripel(), NewAlbersUSA()} {
		_, _, err := p.Inverse(0, 0)
		assert.ErrorIs(t, err, ErrNoInverse, p.Kind().String())
	}
}

func TestWinkelTripel_Forward(t *testing.T) {
	w := NewWinkelTripel()
	x, y := w.Transform(0, 0)
	assert.InDelta(t, 0, x, 1e-12)
	assert.InDelta(t, 0, y, 1e-12)

	// symmetric about both axes
	x1, y1 := w.Transform(120, 40)
	x2, y2 := w.Transform(-120, -40)
	assert.InDelta(t, x1, -x2, 1e-12)
	assert.InDelta(t, y1, -y2, 1e-12)

	// at the pole the aitoff term vanishes in x
	_, yp := w.Transform(0, 90)
	assert.InDelta(t, math.Pi/2, yp, 1e-9)
}

func TestTissot_MercatorGrowsWithLatitude(t *testing.T) {
	m := NewMercator()
	a0 := m.TissotArea(0, 0)
	a60 := m.TissotArea(0, 60)
	assert.InDelta(t, 1, a0, 1e-6)
	assert.InDelta(t, 2, a60, 1e-3, "sec(60) = 2")
	assert.Zero(t, m.TissotArea(0, 90), "clamped latitudes collapse the cell")
}

func TestMaxExtents_CoversSamples(t *testing.T) {
	b := geom.NewRect(-30, -10, 50, 60)
	for _, p := range []Projection{NewMercator(), albersForBox(b), NewWinkelTripel()} {
		ext := p.MaxExtents(b)
		for _, s := range [][2]float64{{-30, -10}, {50, 60}, {10, 60}, {-30, 25}} {
			x, y := p.Transform(s[0], s[1])
			assert.True(t, ext.Contains(geom.Pt(x, y)), "%s sample %v", p.Kind(), s)
		}
	}
}

func TestKind_Text(t *testing.T) {
	for k := Mercator; k <= AlbersUSA; k++ {
		b, err := json.Marshal(k)
		require.NoError(t, err)
		var got Kind
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("orthographic")
	assert.Error(t, err)
}
