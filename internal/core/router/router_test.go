package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/mohammed-shakir/geomap-resolver/internal/core/model"
)

type fakePlanner struct {
	last model.Request
	err  error
}

func (f *fakePlanner) Build(_ context.Context, req model.Request) (model.MapSpec, error) {
	f.last = req
	if f.err != nil {
		return model.MapSpec{}, f.err
	}
	return model.MapSpec{CatalogVersion: "test", Unmatched: []string{}}, nil
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func get(t *testing.T, h http.HandlerFunc, q url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/mapspec", nil)
	req.URL.RawQuery = q.Encode()
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestHandleMapSpec_GetDispatch(t *testing.T) {
	p := &fakePlanner{}
	h := HandleMapSpec(quiet(), p)

	q := url.Values{}
	q.Set("names", "Washington, D.C.; Texas ;")
	q.Add("hint", "us-states")
	q.Set("quality", "high")
	q.Set("w", "800")
	q.Set("h", "600")
	q.Set("projection", "mercator")
	rr := get(t, h, q)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}
	want := model.Request{
		Names:      []string{"Washington, D.C.", "Texas"},
		Hints:      []string{"us-states"},
		Quality:    "high",
		Width:      800,
		Height:     600,
		Projection: "mercator",
	}
	if !reflect.DeepEqual(p.last, want) {
		t.Fatalf("planner got %+v want %+v", p.last, want)
	}
	var spec model.MapSpec
	if err := json.Unmarshal(rr.Body.Bytes(), &spec); err != nil || spec.CatalogVersion != "test" {
		t.Fatalf("body %q err=%v", rr.Body.String(), err)
	}
}

func TestHandleMapSpec_PostBody(t *testing.T) {
	p := &fakePlanner{}
	h := HandleMapSpec(quiet(), p)

	body := `{"points":[[2.3,48.8],[13.4,52.5]],"width":400}`
	req := httptest.NewRequest(http.MethodPost, "/mapspec", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if len(p.last.Points) != 2 || p.last.Width != 400 {
		t.Fatalf("planner got %+v", p.last)
	}

	req = httptest.NewRequest(http.MethodPost, "/mapspec", strings.NewReader(`{"nmes":["x"]}`))
	rr = httptest.NewRecorder()
	h(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown field should be rejected, got %d", rr.Code)
	}
}

func TestHandleMapSpec_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: viewport", model.ErrInvalidRequest), http.StatusBadRequest},
		{errors.New("catalog: disk on fire"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		h := HandleMapSpec(quiet(), &fakePlanner{err: c.err})
		rr := get(t, h, url.Values{"names": {"France"}})
		if rr.Code != c.want {
			t.Fatalf("%v: status=%d want %d", c.err, rr.Code, c.want)
		}
		if c.want == http.StatusInternalServerError && strings.Contains(rr.Body.String(), "disk") {
			t.Fatalf("internal error details leaked: %q", rr.Body.String())
		}
	}
}

func TestParseMapSpecRequest_NamesWinOverPoints(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/mapspec", nil)
	req.URL.RawQuery = url.Values{"names": {"France"}, "points": {"1,2;3,4"}}.Encode()

	got, warn, err := ParseMapSpecRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warn == "" {
		t.Fatalf("expected a warning when both names and points are supplied")
	}
	if got.Points != nil {
		t.Fatalf("points should be dropped, got %v", got.Points)
	}
}

func TestParseMapSpecRequest_Invalid(t *testing.T) {
	cases := map[string]url.Values{
		"nothing":     {},
		"blank names": {"names": {" ; "}},
		"bad pair":    {"points": {"1;2"}},
		"bad number":  {"points": {"1,x"}},
		"zero width":  {"names": {"France"}, "w": {"0"}},
		"bad height":  {"names": {"France"}, "h": {"tall"}},
		"bad geojson": {"points": {`{"type":"Point","coordinates":"x"}`}},
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/mapspec", nil)
			req.URL.RawQuery = q.Encode()
			if _, _, err := ParseMapSpecRequest(req); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParsePoints(t *testing.T) {
	got, err := ParsePoints("11.5,55; 12,56.25")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if want := [][2]float64{{11.5, 55}, {12, 56.25}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}

	poly := `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`
	got, err = ParsePoints(poly)
	if err != nil || len(got) != 4 {
		t.Fatalf("polygon got %v err=%v", got, err)
	}

	fc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[5,6]}},
		{"type":"Feature","properties":{},"geometry":{"type":"MultiPoint","coordinates":[[7,8],[9,10]]}}]}`
	got, err = ParsePoints(fc)
	if want := [][2]float64{{5, 6}, {7, 8}, {9, 10}}; err != nil || !reflect.DeepEqual(got, want) {
		t.Fatalf("feature collection got %v err=%v", got, err)
	}
}
