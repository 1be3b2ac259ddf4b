// Package boundary loads the administrative area polygon dataset used by the
// choropleth renderer. The core never runs point-in-polygon tests; geometry
// is carried through for the consumer and for centroid fallbacks only.
package boundary

import (
	"sort"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/openroads/crashmap/internal/aggregate"
)

// Area is one administrative area with its polygon and centroid.
type Area struct {
	Name     string // canonical
	Geometry *geom.MultiPolygon
	Centroid [2]float64 // lng, lat
}

// Index holds the loaded areas keyed by canonical name. A nil or empty Index
// is valid: aggregation and statistics proceed name-only and only the
// boundary geometry output degrades.
type Index struct {
	areas map[string]*Area
}

// None returns the degraded, geometry-free index used when the boundary
// dataset is unavailable.
func None() *Index { return &Index{areas: map[string]*Area{}} }

// Load reads area polygons from a shapefile. nameField is the attribute
// carrying the area name; names are canonicalized through the alias table so
// boundary names and crash-record names land in the same buckets.
func Load(shpPath, nameField string, canon *aggregate.Canonicalizer) (*Index, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	nameIdx := -1
	for i, f := range fields {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), nameField) {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, eris.Errorf("boundary: shapefile has no %q attribute", nameField)
	}

	idx := &Index{areas: make(map[string]*Area)}
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		rawName := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		if rawName == "" {
			skipped++
			continue
		}
		name := canon.Resolve(rawName)

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		mp := toMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		// Some councils span multiple shapefile records; merge their parts.
		if existing, dup := idx.areas[name]; dup {
			for i := 0; i < mp.NumPolygons(); i++ {
				_ = existing.Geometry.Push(mp.Polygon(i))
			}
			existing.Centroid = centroid(existing.Geometry)
			continue
		}

		idx.areas[name] = &Area{Name: name, Geometry: mp, Centroid: centroid(mp)}
	}

	if skipped > 0 {
		zap.L().Debug("boundary: skipped shapefile records", zap.Int("skipped", skipped))
	}
	zap.L().Info("boundaries loaded", zap.Int("areas", len(idx.areas)))
	return idx, nil
}

// Names returns the canonical area names in sorted order.
func (i *Index) Names() []string {
	out := make([]string, 0, len(i.areas))
	for n := range i.areas {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Area returns the named area, or nil when unknown.
func (i *Index) Area(name string) *Area { return i.areas[name] }

// Len reports the number of loaded areas.
func (i *Index) Len() int { return len(i.areas) }

// toMultiPolygon converts a shapefile polygon record, treating each part as
// its own exterior ring.
func toMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("boundary: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("boundary: skipping malformed part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// centroid computes an area-weighted centroid over the exterior rings,
// falling back to the bounds center for degenerate geometry.
func centroid(mp *geom.MultiPolygon) [2]float64 {
	var cx, cy, totalArea float64

	for p := 0; p < mp.NumPolygons(); p++ {
		ring := mp.Polygon(p).LinearRing(0)
		coords := ring.FlatCoords()

		var a, sx, sy float64
		n := len(coords) / 2
		for i := 0; i < n; i++ {
			x1, y1 := coords[2*i], coords[2*i+1]
			j := (i + 1) % n
			x2, y2 := coords[2*j], coords[2*j+1]
			cross := x1*y2 - x2*y1
			a += cross
			sx += (x1 + x2) * cross
			sy += (y1 + y2) * cross
		}
		if a == 0 {
			continue
		}
		area := a / 2
		cx += sx / (6 * area) * abs(area)
		cy += sy / (6 * area) * abs(area)
		totalArea += abs(area)
	}

	if totalArea == 0 {
		b := mp.Bounds()
		return [2]float64{(b.Min(0) + b.Max(0)) / 2, (b.Min(1) + b.Max(1)) / 2}
	}
	return [2]float64{cx / totalArea, cy / totalArea}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
