// Package assembly turns a list of place identifiers into a file set and a
// per-identifier index into it, using the catalog for lookup and the
// coverage search for file selection.
package assembly

import (
	"strings"

	"github.com/mohammed-shakir/geomap-resolver/internal/catalog"
	"github.com/mohammed-shakir/geomap-resolver/internal/coverage"
	"github.com/mohammed-shakir/geomap-resolver/internal/geom"
)

type FileRef struct {
	// catalog name and the tier specific identifier to fetch
	Name   string
	ID     string
	Index  int
	Bounds geom.Rect
}

// Entry locates an identifier: File is an ordinal into Mapping.Files.
type Entry struct {
	File    int
	Feature string
}

type Mapping struct {
	Files     []FileRef
	Index     map[string]Entry
	Unmatched []string
	// union of the matched features' bounds; Empty when nothing matched
	Bounds geom.Rect
}

type Options struct {
	Hints    []string
	Quality  catalog.Quality
	MaxFiles int
}

// Assemble resolves ids against cat. Identifiers are reported exactly as
// supplied; blank identifiers are skipped.
func Assemble(cat *catalog.Catalog, ids []string, opts Options) Mapping {
	q := opts.Quality
	if q == "" {
		q = catalog.QualityMed
	}

	var order []string
	found := map[string][]catalog.FeatureCandidate{}
	cands := map[string][]coverage.Candidate{}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			continue
		}
		order = append(order, id)
		if _, seen := found[id]; seen {
			continue
		}
		fc, ok := cat.FeatureByName(id)
		if !ok {
			found[id] = nil
			continue
		}
		found[id] = fc
		cc := make([]coverage.Candidate, len(fc))
		for i, c := range fc {
			cc[i] = coverage.Candidate{File: c.File, Feature: c.ID}
		}
		cands[id] = cc
	}

	var seed []int
	for _, h := range opts.Hints {
		if f, ok := cat.ResolveHint(h); ok {
			seed = append(seed, f)
		}
	}

	res := coverage.Search(order, cands, coverage.Options{
		MaxFiles: opts.MaxFiles,
		Seed:     seed,
		Size:     func(f int) int64 { return cat.File(f).Size },
	})

	m := Mapping{
		Files:     make([]FileRef, len(res.Files)),
		Index:     make(map[string]Entry, len(res.Matches)),
		Unmatched: res.Unmatched,
		Bounds:    geom.EmptyRect(),
	}
	for ord, fi := range res.Files {
		f := cat.File(fi)
		m.Files[ord] = FileRef{Name: f.Name, ID: f.ID(q), Index: fi, Bounds: f.Bounds}
	}
	for id, match := range res.Matches {
		m.Index[id] = Entry{File: match.File, Feature: match.Feature}
		global := res.Files[match.File]
		for _, c := range found[id] {
			if c.File == global {
				m.Bounds = m.Bounds.Union(c.Bounds)
				break
			}
		}
	}
	return m
}

// Matched reports how many distinct identifiers were placed in a file.
func (m Mapping) Matched() int { return len(m.Index) }
