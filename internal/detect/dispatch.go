// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package detect

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ostafen/trailscan/internal/format"
	"github.com/ostafen/trailscan/internal/marker"
	"github.com/ostafen/trailscan/internal/mime"
)

// detector finds the end of the legitimate content of in.
type detector func(ctx context.Context, in *Input) (off uint64, exact bool, err error)

// Detection families.
const (
	FamilyEnding = "ending"
	FamilyMagic  = "magic"
	FamilyMarker = "marker"
	FamilyProbe  = "probe"
)

type route struct {
	Route
	detect   detector
	trailers [][]byte
}

// Route describes how one format is handled.
type Route struct {
	Name        string
	Description string
	Family      string
	MIME        []string
	Signatures  [][]byte
}

// errTerminal marks types after which nothing is searched for.
var errTerminal = errors.New("terminal type")

func (e *Engine) buildRoutes() {
	e.routes = make(map[string]*route)

	add := func(rt *route) {
		e.routeList = append(e.routeList, rt.Route)
		if rt.detect == nil {
			return
		}
		for _, minor := range rt.MIME {
			if _, ok := e.routes[minor]; !ok {
				e.routes[minor] = rt
			}
		}
	}

	for _, hdr := range e.registry.Headers() {
		rt := &route{
			Route: Route{
				Name:        hdr.Name,
				Description: hdr.Description,
				Family:      hdr.Family(),
				MIME:        hdr.MIME,
				Signatures:  hdr.Signatures,
			},
			trailers: hdr.Trailers,
		}
		if !hdr.Magic {
			rt.detect = e.parser(hdr)
		}
		add(rt)
	}

	// ISO 32000-1, 7.5.5: the last line of the file holds only %%EOF.
	// Incremental updates append further ones.
	add(&route{
		Route:  Route{Name: "pdf", Description: "PDF document", Family: FamilyMarker, MIME: []string{"pdf", "x-pdf"}},
		detect: markerDetector(marker.PDF),
	})
	add(&route{
		Route:  Route{Name: "svg", Description: "SVG image", Family: FamilyMarker, MIME: []string{"svg+xml", "svg", "xml"}},
		detect: markerDetector(marker.SVG),
	})
	add(&route{
		Route:  Route{Name: "flac", Description: "FLAC audio", Family: FamilyProbe, MIME: []string{"flac", "x-flac"}},
		detect: e.probe,
	})
}

// Routes lists every format the engine knows, ordered by family and name.
func (e *Engine) Routes() []Route {
	routes := slices.Clone(e.routeList)
	slices.SortStableFunc(routes, func(a, b Route) int {
		if c := strings.Compare(a.Family, b.Family); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return routes
}

func (e *Engine) route(m mime.MIME) (*route, error) {
	minor := m.Minor()
	if rt, ok := e.routes[minor]; ok {
		return rt, nil
	}
	if m.IsArchive() || m.IsUnknown() || m.Type == mime.Empty.Type || e.registry.IsMagicType(minor) {
		return nil, errTerminal
	}
	return nil, fmt.Errorf("%w: %s", format.ErrUnsupported, m.Type)
}

func (e *Engine) parser(hdr *format.FileHeader) detector {
	return func(_ context.Context, in *Input) (uint64, bool, error) {
		out := format.Parse(hdr, format.NewReader(in.R, in.Size))
		if out.Encrypted {
			return 0, false, format.ErrEncrypted
		}
		if out.Err != nil {
			in.log.Debug("structural violation", "format", hdr.Name, "offset", out.Offset, "err", out.Err)
		}

		if out.Offset == 0 && out.Err != nil && hdr.Fallback != nil {
			off, err := hdr.Fallback(format.NewReader(in.R, in.Size))
			if err != nil {
				return 0, false, fmt.Errorf("%s decoder: %w", hdr.Name, err)
			}
			return off, false, nil
		}
		return out.Offset, out.Exact, nil
	}
}

func markerDetector(set marker.Set) detector {
	return func(_ context.Context, in *Input) (uint64, bool, error) {
		off, found, err := set.Scan(in.R, in.Size)
		if err != nil || !found {
			return 0, false, err
		}
		return off, true, nil
	}
}

func (e *Engine) probe(ctx context.Context, in *Input) (uint64, bool, error) {
	if e.prober == nil {
		return 0, false, fmt.Errorf("%w: probing is disabled", format.ErrUnsupported)
	}

	path, err := in.Path()
	if err != nil {
		return 0, false, err
	}
	off, err := e.prober.Probe(ctx, path)
	return off, false, err
}
