package boundary

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/openroads/crashmap/internal/viz"
)

// FeatureCollection renders the choropleth geometry: one polygon feature per
// bucket whose area has boundary geometry, and a centroid-circle
// approximation for buckets without it. With a fully degraded index the
// collection is empty and the consumer falls back to tabular display — the
// buckets themselves are still valid.
func (i *Index) FeatureCollection(buckets []viz.Bucket) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}

	for _, b := range buckets {
		area := i.areas[b.Area]
		if area == nil {
			continue
		}

		var g geom.T = area.Geometry
		props := map[string]interface{}{
			"area":      b.Area,
			"count":     b.Count,
			"intensity": b.Intensity,
			"fill":      b.Color,
		}

		if area.Geometry == nil {
			// Centroid-circle approximation: a point plus a radius the
			// renderer can draw as a scaled circle.
			g = geom.NewPointFlat(geom.XY, []float64{area.Centroid[0], area.Centroid[1]})
			props["radius"] = circleRadius(b.Count)
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         b.Area,
			Geometry:   g,
			Properties: props,
		})
	}
	return fc
}

// circleRadius scales a count to a pixel radius, square-root damped so area
// tracks count.
func circleRadius(count int) float64 {
	if count <= 0 {
		return 4
	}
	return 4 + 3*math.Sqrt(float64(count))
}
