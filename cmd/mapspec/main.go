// Command mapspec prints the map spec for place names given as arguments,
// or for -points, as JSON on stdout.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mohammed-shakir/geomap-resolver/internal/catalog"
	"github.com/mohammed-shakir/geomap-resolver/internal/core/model"
	"github.com/mohammed-shakir/geomap-resolver/internal/core/router"
	"github.com/mohammed-shakir/geomap-resolver/internal/logger"
	"github.com/mohammed-shakir/geomap-resolver/internal/mapspec"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mapspec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	points := fs.String("points", "", "lon,lat;lon,lat or GeoJSON instead of names")
	hint := fs.String("hint", "", "preferred files, ';' separated")
	quality := fs.String("quality", "", "low, med or high")
	width := fs.Float64("w", 0, "viewport width")
	height := fs.Float64("h", 0, "viewport height")
	proj := fs.String("projection", "", "mercator, albers, winkel-tripel, albers-usa or auto")
	catPath := fs.String("catalog", "", "catalog manifest; embedded when empty")
	logLevel := fs.String("log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	zl := logger.Build(logger.Config{Level: *logLevel, Console: true, Component: "mapspec-cli"}, stderr)
	log := logger.NewSlog(&zl)

	req := model.Request{
		Names:      fs.Args(),
		Hints:      splitList(*hint),
		Quality:    *quality,
		Width:      *width,
		Height:     *height,
		Projection: *proj,
	}
	if *points != "" {
		pts, err := router.ParsePoints(*points)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "mapspec: -points: %v\n", err)
			return 2
		}
		req.Points = pts
	}

	p := mapspec.New(catalog.NewProvider(catalog.FileLoader(*catPath)), log)
	spec, err := p.Build(context.Background(), req)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "mapspec: %v\n", err)
		if errors.Is(err, model.ErrInvalidRequest) {
			return 2
		}
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(spec); err != nil {
		_, _ = fmt.Fprintf(stderr, "mapspec: %v\n", err)
		return 1
	}
	return 0
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
