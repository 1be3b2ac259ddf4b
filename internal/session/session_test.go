package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openroads/crashmap/internal/dataset"
	"github.com/openroads/crashmap/internal/filter"
	"github.com/openroads/crashmap/internal/viz"
)

func writeFixtures(t *testing.T) dataset.Paths {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	crashes := write("crashes.csv",
		"REPORT_ID,ACCLOC_X,ACCLOC_Y,YEAR,STATS_DATE_TIME,CSEF_SEVERITY,CRASH_TYPE,LGA_NAME,TOTAL_FATS,TOTAL_SI,TOTAL_MI\n"+
			"R1,1330000,1710000,2019,02/01/2019 23:30,4: Fatal,Hit Pedestrian,ADELAIDE,1,0,0\n"+
			"R2,1200000,1800000,2020,15/06/2020 09:10,1: PDO,Rear End,PT ADELAIDE ENFIELD,0,0,0\n"+
			"R3,1335000,1705000,2019,09/03/2019 12:00,2: MI,Right Angle,PORT ADELAIDE ENFIELD,0,0,1\n")
	casualties := write("casualties.csv",
		"REPORT_ID,CASUALTY_TYPE,AGE,SEX,INJURY_EXTENT\n"+
			"R1,Pedestrian,40,Female,Fatality\n"+
			"R3,Driver,22,Male,Treated at Scene\n")
	units := write("units.csv",
		"REPORT_ID,UNIT_TYPE,VEH_YEAR,NO_OCCUPANTS,TOWING\n"+
			"R1,Car,2015,1,N\n"+
			"R2,Semi Trailer,1998,1,Y\n"+
			"R3,Car,2021,3,N\n")

	return dataset.Paths{Crashes: crashes, Casualties: casualties, Units: units}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(context.Background(), Options{Data: writeFixtures(t), ChunkSize: 2})
	require.NoError(t, err)
	return s
}

func TestNew_LoadsLinksAndDegradesBoundaries(t *testing.T) {
	paths := writeFixtures(t)
	s, err := New(context.Background(), Options{
		Data:        paths,
		BoundaryShp: "/nonexistent/lga.shp",
		BoundaryFld: "LGA_NAME",
	})
	require.NoError(t, err, "missing boundary data must degrade, not fail")

	assert.Len(t, s.Records(), 3)
	assert.Zero(t, s.Boundaries().Len())

	// Children attached by report id.
	assert.Len(t, s.Records()[0].Casualties, 1)
	assert.Len(t, s.Records()[0].Units, 1)
}

func TestApplyFilter_NoConstraintReturnsFullSet(t *testing.T) {
	s := newTestSession(t)

	view, err := s.ApplyFilter(context.Background(), &filter.Spec{}, nil)
	require.NoError(t, err)

	assert.Len(t, view.Records, 3)
	assert.Equal(t, 3, view.Totals.Crashes)
	assert.Equal(t, 1, view.Totals.Fatalities)
	assert.Equal(t, 1, view.Totals.MinorInjuries)
	assert.Same(t, view, s.Latest())
}

func TestApplyFilter_AliasSpellingsMergeInAreaCounts(t *testing.T) {
	s := newTestSession(t)

	view, err := s.ApplyFilter(context.Background(), &filter.Spec{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, view.ByArea["City of Port Adelaide Enfield"])
	assert.Equal(t, 1, view.ByArea["City of Adelaide"])
}

func TestApplyFilter_CombinedConstraints(t *testing.T) {
	s := newTestSession(t)

	spec := &filter.Spec{
		Severities:    filter.NewSet("Fatal"),
		RoadUserTypes: filter.NewSet("Pedestrian"),
		TimeFrom:      "22:00",
		TimeTo:        "02:00",
	}
	view, err := s.ApplyFilter(context.Background(), spec, nil)
	require.NoError(t, err)

	require.Len(t, view.Records, 1)
	assert.Equal(t, "R1", view.Records[0].ReportID)
}

func TestChoropleth_FromView(t *testing.T) {
	s := newTestSession(t)
	view, err := s.ApplyFilter(context.Background(), &filter.Spec{}, nil)
	require.NoError(t, err)

	buckets := s.Choropleth(view)
	require.Len(t, buckets, 2)
	for _, b := range buckets {
		assert.NotEqual(t, viz.NoDataColor, b.Color)
	}
}

func TestLayerToggles(t *testing.T) {
	s := newTestSession(t)
	assert.True(t, s.ActiveLayers().Points)

	s.SetLayers(Layers{Choropleth: true})
	l := s.ActiveLayers()
	assert.False(t, l.Points)
	assert.False(t, l.Density)
	assert.True(t, l.Choropleth)
}
