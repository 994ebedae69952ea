// Package model defines the request and response types shared across the service.
package model

import (
	"errors"

	"github.com/mohammed-shakir/geomap-resolver/internal/projection"
)

// ErrInvalidRequest marks errors caused by the caller's input.
var ErrInvalidRequest = errors.New("invalid request")

// Request asks for a map spec either by place names or by raw (lon, lat)
// samples. Zero Width/Height fall back to the configured viewport.
type Request struct {
	Names      []string     `json:"names,omitempty"`
	Points     [][2]float64 `json:"points,omitempty"`
	Hints      []string     `json:"hints,omitempty"`
	Quality    string       `json:"quality,omitempty"`
	Width      float64      `json:"width,omitempty"`
	Height     float64      `json:"height,omitempty"`
	Projection string       `json:"projection,omitempty"`
}

func (r Request) PointMode() bool { return len(r.Names) == 0 && len(r.Points) > 0 }

type FileRef struct {
	Name   string     `json:"name"`
	ID     string     `json:"id"`
	Bounds [4]float64 `json:"bounds"`
}

// Entry points an input identifier at a file ordinal and a feature in it.
type Entry struct {
	File    int    `json:"file"`
	Feature string `json:"feature"`
}

type MapSpec struct {
	CatalogVersion string            `json:"catalog_version"`
	Files          []FileRef         `json:"files"`
	Index          map[string]Entry  `json:"index"`
	Unmatched      []string          `json:"unmatched"`
	Bounds         [4]float64        `json:"bounds"`
	Projection     projection.Choice `json:"projection"`
	// Hull is the convex hull of the input points, point mode only.
	Hull [][2]float64 `json:"hull,omitempty"`
}
