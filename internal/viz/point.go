package viz

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/openroads/crashmap/internal/model"
)

// DefaultPointBatch is the feature count per emitted batch.
const DefaultPointBatch = 2000

// EmitPoints streams the point projection as GeoJSON feature collections in
// bounded batches, so the consumer can render progressively instead of
// waiting for the full set. Records without a valid cached coordinate are
// skipped: they remain visible in statistics and the choropleth, just not as
// markers. Emission stops on the first callback error.
func EmitPoints(records []*model.Crash, batchSize int, emit func(*geojson.FeatureCollection) error) error {
	if batchSize <= 0 {
		batchSize = DefaultPointBatch
	}

	batch := make([]*geojson.Feature, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		fc := &geojson.FeatureCollection{Features: batch}
		batch = make([]*geojson.Feature, 0, batchSize)
		return emit(fc)
	}

	for _, c := range records {
		if !c.HasCoord() {
			continue
		}
		batch = append(batch, pointFeature(c))
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// Points builds the full point projection in one collection; small result
// sets do not need batching.
func Points(records []*model.Crash) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	_ = EmitPoints(records, len(records)+1, func(b *geojson.FeatureCollection) error {
		fc.Features = append(fc.Features, b.Features...)
		return nil
	})
	return fc
}

func pointFeature(c *model.Crash) *geojson.Feature {
	// GeoJSON positions are lng,lat order.
	pt := geom.NewPointFlat(geom.XY, []float64{c.Coord.Lng, c.Coord.Lat})
	return &geojson.Feature{
		ID:       c.ReportID,
		Geometry: pt,
		Properties: map[string]interface{}{
			"severity": c.SeverityC.String(),
			"color":    SeverityColor(c.SeverityC),
			"year":     c.Year,
			"type":     c.CrashType,
		},
	}
}
