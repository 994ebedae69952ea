// Package keys builds the deterministic cache key of a map spec request.
package keys

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/geomap-resolver/internal/core/model"
)

const prefix = "mapspec"

// Plan returns "mapspec:<catalog>:<quality>:<w>x<h>:<projection>:f=<hash>".
// Names are hashed exactly as given, in order, because the response index
// is keyed by them; callers trim them first. Width and height must already
// have their defaults applied.
func Plan(catalogVersion string, r model.Request) string {
	h := xxhash.New()
	write := func(tag string, parts ...string) {
		_, _ = h.WriteString(tag)
		for _, p := range parts {
			_, _ = h.WriteString(strconv.Itoa(len(p)))
			_, _ = h.WriteString(":")
			_, _ = h.WriteString(p)
		}
		_, _ = h.WriteString(";")
	}
	write("n", r.Names...)
	write("h", r.Hints...)
	pts := make([]string, 0, len(r.Points))
	for _, p := range r.Points {
		pts = append(pts, strconv.FormatFloat(p[0], 'g', -1, 64)+","+strconv.FormatFloat(p[1], 'g', -1, 64))
	}
	write("p", pts...)

	quality := sanitizeForKey(strings.ToLower(strings.TrimSpace(r.Quality)))
	if quality == "" {
		quality = "default"
	}
	proj := sanitizeForKey(strings.ToLower(strings.TrimSpace(r.Projection)))
	if proj == "" {
		proj = "auto"
	}
	return fmt.Sprintf("%s:%s:%s:%sx%s:%s:f=%016x",
		prefix,
		sanitizeForKey(strings.TrimSpace(catalogVersion)),
		quality,
		strconv.FormatFloat(r.Width, 'f', -1, 64),
		strconv.FormatFloat(r.Height, 'f', -1, 64),
		proj,
		h.Sum64(),
	)
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case unicode.IsSpace(r):
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == '.':
			out = r
		default:
			// any other rune (including non-ASCII and ':') becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
