package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/mohammed-shakir/geomap-resolver/internal/catalog"
	"github.com/mohammed-shakir/geomap-resolver/internal/core/model"
	"github.com/mohammed-shakir/geomap-resolver/internal/mapspec"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := mapspec.New(catalog.NewProvider(catalog.Embedded), logger)
	ts := httptest.NewServer(Routes(logger, p))
	t.Cleanup(ts.Close)
	return ts
}

func TestRoutes_ReadinessFollowsCatalog(t *testing.T) {
	ts := newServer(t)

	resp, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("readyz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("catalog not loaded yet, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/mapspec?" + url.Values{"names": {"France;Germany"}}.Encode())
	if err != nil {
		t.Fatalf("mapspec: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mapspec status=%d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID")
	}
	var spec model.MapSpec
	if err := json.NewDecoder(resp.Body).Decode(&spec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(spec.Files) != 1 || spec.Files[0].Name != "europe" {
		t.Fatalf("files got %+v", spec.Files)
	}

	resp, err = http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("readyz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ready after first build, got %d", resp.StatusCode)
	}
}

func TestRoutes_PostAndBadRequest(t *testing.T) {
	ts := newServer(t)

	resp, err := http.Post(ts.URL+"/mapspec", "application/json",
		strings.NewReader(`{"points":[[-97.7,30.3],[-122.4,37.8]],"projection":"albers"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var spec model.MapSpec
	err = json.NewDecoder(resp.Body).Decode(&spec)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || err != nil {
		t.Fatalf("status=%d err=%v", resp.StatusCode, err)
	}
	if len(spec.Hull) != 2 || spec.Projection.Kind.String() != "albers" {
		t.Fatalf("spec got %+v", spec)
	}

	resp, err = http.Get(ts.URL + "/mapspec?names=France&w=4")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("tiny viewport should be a 400, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status=%d", resp.StatusCode)
	}
}
