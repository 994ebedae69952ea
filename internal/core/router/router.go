package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/geomap-resolver/internal/core/model"
	"github.com/mohammed-shakir/geomap-resolver/internal/core/observability"
)

const (
	route        = "/mapspec"
	maxBodyBytes = 1 << 20
)

// builds a map spec for a validated request
type Planner interface {
	Build(ctx context.Context, req model.Request) (model.MapSpec, error)
}

// parses GET query params or a POST JSON body and writes the spec as JSON
func HandleMapSpec(logger *slog.Logger, p Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
		}()

		var (
			req  model.Request
			warn string
			err  error
		)
		if r.Method == http.MethodPost {
			req, err = decodeBody(w, r)
		} else {
			req, warn, err = ParseMapSpecRequest(r)
		}
		if warn != "" {
			logger.WarnContext(r.Context(), warn)
		}
		if err != nil {
			http.Error(sw, err.Error(), http.StatusBadRequest)
			return
		}

		spec, err := p.Build(r.Context(), req)
		switch {
		case errors.Is(err, model.ErrInvalidRequest):
			http.Error(sw, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			logger.ErrorContext(r.Context(), "build map spec", "err", err)
			http.Error(sw, "internal server error", http.StatusInternalServerError)
			return
		}

		sw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(sw).Encode(spec); err != nil {
			logger.WarnContext(r.Context(), "encode map spec", "err", err)
		}
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func decodeBody(w http.ResponseWriter, r *http.Request) (model.Request, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	var req model.Request
	if err := dec.Decode(&req); err != nil {
		return model.Request{}, fmt.Errorf("invalid body: %w", err)
	}
	return req, nil
}

// ParseMapSpecRequest reads names=a;b, points=lon,lat;lon,lat (or a GeoJSON
// geometry), hint, quality, w, h and projection. Names and hints are split
// on ';' because place names may contain commas.
func ParseMapSpecRequest(r *http.Request) (model.Request, string, error) {
	var warn string
	q := r.URL.Query()

	req := model.Request{
		Names:      splitList(q["names"]),
		Hints:      splitList(q["hint"]),
		Quality:    strings.TrimSpace(q.Get("quality")),
		Projection: strings.TrimSpace(q.Get("projection")),
	}

	rawPoints := strings.TrimSpace(q.Get("points"))
	// drop points if names are given (names win)
	if rawPoints != "" && len(req.Names) > 0 {
		warn = "both names and points supplied; preferring names"
		rawPoints = ""
	}
	if rawPoints != "" {
		pts, err := ParsePoints(rawPoints)
		if err != nil {
			return model.Request{}, warn, fmt.Errorf("invalid points: %w", err)
		}
		req.Points = pts
	}
	if len(req.Names) == 0 && len(req.Points) == 0 {
		return model.Request{}, warn, errors.New("missing required parameter: names or points")
	}

	var err error
	if req.Width, err = parseDim(q.Get("w")); err != nil {
		return model.Request{}, warn, fmt.Errorf("invalid w: %w", err)
	}
	if req.Height, err = parseDim(q.Get("h")); err != nil {
		return model.Request{}, warn, fmt.Errorf("invalid h: %w", err)
	}
	return req, warn, nil
}

func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for part := range strings.SplitSeq(v, ";") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseDim(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	f, err := parseFloat(v)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, errors.New("must be positive")
	}
	return f, nil
}

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}

// ParsePoints reads "lon,lat;lon,lat" pairs, or a GeoJSON geometry, Feature
// or FeatureCollection when raw starts with '{'.
func ParsePoints(raw string) ([][2]float64, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		return parseGeoJSONPoints(raw)
	}
	var out [][2]float64
	for pair := range strings.SplitSeq(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		lon, lat, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("%q: expected lon,lat", pair)
		}
		x, err := parseFloat(lon)
		if err != nil {
			return nil, fmt.Errorf("%q lon: %w", pair, err)
		}
		y, err := parseFloat(lat)
		if err != nil {
			return nil, fmt.Errorf("%q lat: %w", pair, err)
		}
		out = append(out, [2]float64{x, y})
	}
	if len(out) == 0 {
		return nil, errors.New("no coordinates")
	}
	return out, nil
}

func parseGeoJSONPoints(raw string) ([][2]float64, error) {
	var tmp struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(raw), &tmp); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	var out [][2]float64
	switch strings.TrimSpace(tmp.Type) {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("parse geojson: %w", err)
		}
		for _, f := range fc.Features {
			out = appendVertices(out, f.Geometry)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("parse geojson: %w", err)
		}
		out = appendVertices(out, f.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("parse geojson: %w", err)
		}
		out = appendVertices(out, g.Geometry())
	}
	if len(out) == 0 {
		return nil, errors.New("geojson has no coordinates")
	}
	return out, nil
}

// appendVertices flattens any orb geometry into its (lon, lat) vertices.
func appendVertices(out [][2]float64, g orb.Geometry) [][2]float64 {
	switch g := g.(type) {
	case orb.Point:
		out = append(out, [2]float64{g.Lon(), g.Lat()})
	case orb.MultiPoint:
		for _, p := range g {
			out = appendVertices(out, p)
		}
	case orb.LineString:
		for _, p := range g {
			out = appendVertices(out, p)
		}
	case orb.Ring:
		for _, p := range g {
			out = appendVertices(out, p)
		}
	case orb.MultiLineString:
		for _, ls := range g {
			out = appendVertices(out, ls)
		}
	case orb.Polygon:
		for _, ring := range g {
			out = appendVertices(out, ring)
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			out = appendVertices(out, poly)
		}
	case orb.Collection:
		for _, sub := range g {
			out = appendVertices(out, sub)
		}
	case orb.Bound:
		out = append(out, [2]float64{g.Min.Lon(), g.Min.Lat()}, [2]float64{g.Max.Lon(), g.Max.Lat()})
	}
	return out
}
