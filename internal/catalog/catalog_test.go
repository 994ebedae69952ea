package catalog

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/geomap-resolver/internal/geom"
)

func mustEmbedded(t *testing.T) *Catalog {
	t.Helper()
	c, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded: %v", err)
	}
	return c
}

func fileIndex(t *testing.T, c *Catalog, name string) int {
	t.Helper()
	for _, f := range c.Files() {
		if f.Name == name {
			return f.Index
		}
	}
	t.Fatalf("file %q not in catalog", name)
	return -1
}

func TestEmbedded_LoadsAndIndexes(t *testing.T) {
	c := mustEmbedded(t)
	if c.NumFiles() < 2 {
		t.Fatalf("expected several files, got %d", c.NumFiles())
	}
	if c.Version() == "" {
		t.Fatalf("expected a catalog version")
	}
	for i, f := range c.Files() {
		if f.Index != i {
			t.Fatalf("file %q has index %d at position %d", f.Name, f.Index, i)
		}
	}
}

func TestFeatureByName_CanonicalAndVariants(t *testing.T) {
	c := mustEmbedded(t)

	fc, ok := c.FeatureByName("USA")
	if !ok || len(fc) == 0 || fc[0].ID != "USA" {
		t.Fatalf("USA lookup got %+v ok=%v", fc, ok)
	}
	if _, ok := c.FeatureByName("Korea, South"); !ok {
		t.Fatalf("comma reordered lookup failed")
	}
	if _, ok := c.FeatureByName("São Tomé and Príncipe"); !ok {
		t.Fatalf("diacritic stripped lookup failed")
	}
	if _, ok := c.FeatureByName("Myanmar (Burma)"); !ok {
		t.Fatalf("parenthetical lookup failed")
	}
	if _, ok := c.FeatureByName("Atlantis"); ok {
		t.Fatalf("unknown name must not resolve")
	}
	if _, ok := c.FeatureByName("   "); ok {
		t.Fatalf("blank name must not resolve")
	}
}

func TestFeatureByName_MultipleFiles(t *testing.T) {
	c := mustEmbedded(t)
	fc, ok := c.FeatureByName("France")
	if !ok || len(fc) < 2 {
		t.Fatalf("expected France in world and europe, got %+v", fc)
	}
	seen := map[int]bool{}
	for _, cand := range fc {
		if seen[cand.File] {
			t.Fatalf("duplicate file %d in candidates", cand.File)
		}
		seen[cand.File] = true
	}
}

func TestResolveHint_Rules(t *testing.T) {
	c := mustEmbedded(t)
	europe := fileIndex(t, c, "europe")
	us := fileIndex(t, c, "us-states")

	if got, ok := c.ResolveHint("europe"); !ok || got != europe {
		t.Fatalf("file name hint got %d,%v want %d", got, ok, europe)
	}
	if got, ok := c.ResolveHint("California"); !ok || got != us {
		t.Fatalf("feature hint got %d,%v want %d", got, ok, us)
	}
	// Houston is only a gazetteer label; the smallest file containing it is us-states
	if got, ok := c.ResolveHint("Houston"); !ok || got != us {
		t.Fatalf("label hint got %d,%v want %d", got, ok, us)
	}
	if _, ok := c.ResolveHint("nowhere-in-particular"); ok {
		t.Fatalf("unresolvable hint must be ignored")
	}
	if _, ok := c.ResolveHint(""); ok {
		t.Fatalf("empty hint must be ignored")
	}
}

func TestFileForBounds_Smallest(t *testing.T) {
	c := mustEmbedded(t)
	got, ok := c.FileForBounds(geom.NewRect(2, 45, 10, 50))
	if !ok || got != fileIndex(t, c, "europe") {
		t.Fatalf("FileForBounds got %d,%v", got, ok)
	}
	got, ok = c.FileForBounds(geom.NewRect(-170, -80, 170, 80))
	if !ok || got != fileIndex(t, c, "world-110m") {
		t.Fatalf("world box should fall back to the world file, got %d,%v", got, ok)
	}
	if _, ok := c.FileForBounds(geom.EmptyRect()); ok {
		t.Fatalf("empty box must not resolve")
	}
}

func TestNearestLabel(t *testing.T) {
	c := mustEmbedded(t)
	l, ok := c.NearestLabel(geom.Pt(2.2, 48.7))
	if !ok || l.Name != "Paris" {
		t.Fatalf("nearest to Paris suburbs got %+v", l)
	}
	// mid-Pacific is far from every label: falls through to the linear scan
	l, ok = c.NearestLabel(geom.Pt(-140, 0))
	if !ok || l.Name == "" {
		t.Fatalf("expected some label from linear fallback, got %+v", l)
	}
}

func nearestKm(labels []Label, p geom.Point) float64 {
	best := math.Inf(1)
	for _, l := range labels {
		best = math.Min(best, h3.GreatCircleDistanceKm(h3.NewLatLng(p.Y, p.X), h3.NewLatLng(l.Point.Y, l.Point.X)))
	}
	return best
}

func TestNearestLabel_MatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	// dense labels so most lookups resolve through the cell search, and
	// many land in a neighbour cell closer than the origin cell's own label
	labels := make([]Label, 400)
	for i := range labels {
		labels[i] = Label{Name: "l", Point: geom.Pt(rng.Float64()*20, 40+rng.Float64()*10)}
	}
	c := &Catalog{labels: labels, labelCells: buildLabelCells(labels)}

	for i := 0; i < 2000; i++ {
		p := geom.Pt(rng.Float64()*20, 40+rng.Float64()*10)
		l, ok := c.NearestLabel(p)
		if !ok {
			t.Fatalf("no label for %v", p)
		}
		got := h3.GreatCircleDistanceKm(h3.NewLatLng(p.Y, p.X), h3.NewLatLng(l.Point.Y, l.Point.X))
		if want := nearestKm(labels, p); math.Abs(got-want) > 1e-9 {
			t.Fatalf("%v: nearest label %v at %.3fkm, linear scan finds %.3fkm", p, l.Point, got, want)
		}
	}
}

func TestNearestLabel_EmbeddedMatchesLinearScan(t *testing.T) {
	c := mustEmbedded(t)
	for lon := -175.0; lon < 180; lon += 7 {
		for lat := -80.0; lat <= 80; lat += 5 {
			p := geom.Pt(lon, lat)
			l, ok := c.NearestLabel(p)
			if !ok {
				t.Fatalf("no label for %v", p)
			}
			got := h3.GreatCircleDistanceKm(h3.NewLatLng(lat, lon), h3.NewLatLng(l.Point.Y, l.Point.X))
			if want := nearestKm(c.labels, p); math.Abs(got-want) > 1e-9 {
				t.Fatalf("%v: got %s at %.3fkm, linear scan finds %.3fkm", p, l.Name, got, want)
			}
		}
	}
}

func TestFileLabels_SortedByRank(t *testing.T) {
	c := mustEmbedded(t)
	f := c.File(fileIndex(t, c, "europe"))
	if len(f.Labels) == 0 {
		t.Fatalf("expected europe to carry labels")
	}
	for i := 1; i < len(f.Labels); i++ {
		if f.Labels[i-1].Rank < f.Labels[i].Rank {
			t.Fatalf("labels not sorted by rank: %+v", f.Labels)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"no files":        `{"version":"x","files":[]}`,
		"bad bounds":      `{"files":[{"name":"a","bounds":[0,0,1],"size":1}]}`,
		"zero area":       `{"files":[{"name":"a","bounds":[0,0,0,1],"size":1}]}`,
		"dup file":        `{"files":[{"name":"a","bounds":[0,0,1,1]},{"name":"a","bounds":[0,0,1,1]}]}`,
		"feature range":   `{"files":[{"name":"a","bounds":[0,0,1,1]}],"features":{"x":[{"file":3,"id":"X"}]}}`,
		"unknown field":   `{"files":[{"name":"a","bounds":[0,0,1,1]}],"extra":1}`,
		"gazetteer shape": `{"files":[{"name":"a","bounds":[0,0,1,1]}],"gazetteer":{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{"name":"x"}}]}}`,
	}
	for name, body := range cases {
		if _, err := Parse(strings.NewReader(body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	_, err := Parse(strings.NewReader(`{"files":[]}`))
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "catalog.json")
	body := `{"version":"t1","files":[{"name":"only","bounds":[-10,-10,10,10],"size":5}],
		"features":{"Testland":[{"file":0,"id":"TST"}]}}`
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := FromFile(p)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	fc, ok := c.FeatureByName("testland")
	if !ok || fc[0].Bounds != c.File(0).Bounds {
		t.Fatalf("feature without bounds should inherit file bounds, got %+v", fc)
	}
	if _, err := FromFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestProvider_SingleConstruction(t *testing.T) {
	p := NewProvider(Embedded)
	if p.Ready() {
		t.Fatalf("provider must not be ready before first Get")
	}

	var wg sync.WaitGroup
	got := make([]*Catalog, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := p.Get()
			if err != nil {
				t.Errorf("Get: %v", err)
			}
			got[i] = c
		}(i)
	}
	wg.Wait()

	if p.Loads() != 1 {
		t.Fatalf("loader ran %d times, want 1", p.Loads())
	}
	for _, c := range got[1:] {
		if c != got[0] {
			t.Fatalf("callers received different catalog instances")
		}
	}
	if !p.Ready() {
		t.Fatalf("provider should be ready after a successful load")
	}
}

func TestProvider_ErrorIsSticky(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	p := NewProvider(func() (*Catalog, error) {
		calls++
		return nil, boom
	})
	for range 3 {
		if _, err := p.Get(); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if calls != 1 || p.Ready() {
		t.Fatalf("calls=%d ready=%v", calls, p.Ready())
	}
}

func TestParseQuality(t *testing.T) {
	if ParseQuality("HIGH") != QualityHigh || ParseQuality("low") != QualityLow || ParseQuality("") != QualityMed {
		t.Fatalf("unexpected quality mapping")
	}
	c := mustEmbedded(t)
	w := c.File(fileIndex(t, c, "world-110m"))
	if w.ID(QualityHigh) != "world-10m" || w.ID(QualityLow) != "world-110m" {
		t.Fatalf("variant ids: %v", w.Variants)
	}
	eu := c.File(fileIndex(t, c, "africa"))
	if eu.ID(QualityHigh) != "africa" {
		t.Fatalf("file without variants should use its name, got %q", eu.ID(QualityHigh))
	}
}
