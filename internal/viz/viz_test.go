package viz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/openroads/crashmap/internal/model"
)

func located(id string, sev model.Severity, lat, lng float64) *model.Crash {
	return &model.Crash{
		ReportID:  id,
		SeverityC: sev,
		Coord:     &model.LatLng{Lat: lat, Lng: lng},
	}
}

func TestEmitPoints_SkipsUnlocatedAndBatches(t *testing.T) {
	records := []*model.Crash{
		located("R1", model.SeverityFatal, -34.9, 138.6),
		{ReportID: "R2", SeverityC: model.SeverityMinor}, // no coordinates
		located("R3", model.SeverityPDO, -35.0, 138.5),
		located("R4", model.SeveritySerious, -34.8, 138.7),
	}

	var batches [][]*geojson.Feature
	err := EmitPoints(records, 2, func(fc *geojson.FeatureCollection) error {
		batches = append(batches, fc.Features)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 1)

	f := batches[0][0]
	assert.Equal(t, "R1", f.ID)
	assert.Equal(t, "#d7191c", f.Properties["color"])
	pt, ok := f.Geometry.(*geom.Point)
	require.True(t, ok)
	assert.InDelta(t, 138.6, pt.X(), 1e-9) // lng first in GeoJSON
	assert.InDelta(t, -34.9, pt.Y(), 1e-9)
}

func TestPoints_FullCollection(t *testing.T) {
	records := []*model.Crash{
		located("R1", model.SeverityFatal, -34.9, 138.6),
		{ReportID: "R2"},
	}
	fc := Points(records)
	assert.Len(t, fc.Features, 1)
}

func TestDensitySamples_WeightsMonotonic(t *testing.T) {
	records := []*model.Crash{
		located("a", model.SeverityPDO, -34, 138),
		located("b", model.SeverityMinor, -34, 138),
		located("c", model.SeveritySerious, -34, 138),
		located("d", model.SeverityFatal, -34, 138),
		{ReportID: "e", SeverityC: model.SeverityFatal}, // dropped
	}
	samples := DensitySamples(records)
	require.Len(t, samples, 4)
	for i := 1; i < len(samples); i++ {
		assert.Greater(t, samples[i].Weight, samples[i-1].Weight)
	}
}

func TestChoropleth_LogScaleMonotonic(t *testing.T) {
	counts := map[string]int{"A": 1, "B": 10, "C": 100, "D": 1000}
	buckets := Choropleth(counts, nil)
	require.Len(t, buckets, 4)

	byArea := map[string]Bucket{}
	for _, b := range buckets {
		byArea[b.Area] = b
	}
	assert.Less(t, byArea["A"].Intensity, byArea["B"].Intensity)
	assert.Less(t, byArea["B"].Intensity, byArea["C"].Intensity)
	assert.Less(t, byArea["C"].Intensity, byArea["D"].Intensity)
	assert.InDelta(t, 1.0, byArea["D"].Intensity, 1e-9)
}

func TestChoropleth_ZeroCountGetsNoDataColor(t *testing.T) {
	counts := map[string]int{"Busy": 50}
	buckets := Choropleth(counts, []string{"Quiet", "Busy"})
	require.Len(t, buckets, 2)

	for _, b := range buckets {
		switch b.Area {
		case "Quiet":
			assert.Equal(t, NoDataColor, b.Color)
			assert.Zero(t, b.Intensity)
		case "Busy":
			assert.NotEqual(t, NoDataColor, b.Color)
		}
	}
}

func TestChoropleth_SortedByArea(t *testing.T) {
	buckets := Choropleth(map[string]int{"Z": 1, "A": 2, "M": 3}, nil)
	require.Len(t, buckets, 3)
	assert.Equal(t, "A", buckets[0].Area)
	assert.Equal(t, "M", buckets[1].Area)
	assert.Equal(t, "Z", buckets[2].Area)
}

func TestRampColor_ClampsAndCoversRamp(t *testing.T) {
	assert.Equal(t, choroplethRamp[0], RampColor(-0.5))
	assert.Equal(t, choroplethRamp[0], RampColor(0))
	assert.Equal(t, choroplethRamp[len(choroplethRamp)-1], RampColor(1))
	assert.Equal(t, choroplethRamp[len(choroplethRamp)-1], RampColor(2))
	assert.GreaterOrEqual(t, len(choroplethRamp), 40)
}

func TestSeverityColor_UnknownFallsBack(t *testing.T) {
	assert.Equal(t, SeverityColor(model.SeverityPDO), SeverityColor(model.SeverityUnknown))
}
