package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openroads/crashmap/internal/model"
)

func crashFixture() *model.Crash {
	return &model.Crash{
		ReportID:  "R1",
		Year:      2019,
		DateTime:  "02/01/2019 14:30",
		Severity:  "4: Fatal",
		SeverityC: model.SeverityFatal,
		CrashType: "Hit Fixed Object",
		Weather:   "Raining",
		DayNight:  "Night",
		DUI:       "Y",
		Drugs:     "N",
		LGAName:   "ADELAIDE",
		Suburb:    "ADELAIDE",
		Casualties: []model.Casualty{
			{CasualtyType: "Driver", Age: "16", Sex: "Male", InjuryExtent: "Treated at Scene"},
			{CasualtyType: "Pedestrian", Age: "40", Sex: "Female", InjuryExtent: "Admitted to Hospital"},
		},
		Units: []model.Unit{
			{UnitType: "Car", VehicleYear: "2015", Occupants: "2", RegoState: "SA", Towing: "N"},
			{UnitType: "Semi Trailer", VehicleYear: "1998", Occupants: "1", RegoState: "VIC", Towing: "Y"},
		},
	}
}

func fleet() []*model.Crash {
	a := crashFixture()
	b := &model.Crash{
		ReportID:  "R2",
		Year:      2021,
		DateTime:  "10/08/2021 08:00",
		SeverityC: model.SeverityPDO,
		CrashType: "Rear End",
		Weather:   "Not Raining",
		DayNight:  "Day",
		LGAName:   "BURNSIDE",
	}
	return []*model.Crash{a, b}
}

func TestApply_EmptySpecMatchesEverything(t *testing.T) {
	records := fleet()
	got := Apply(records, &Spec{})
	require.Len(t, got, len(records))
	assert.Equal(t, records, got)
}

func TestApply_EmptySetIsNoConstraint(t *testing.T) {
	// An explicitly empty set must behave exactly like no constraint.
	got := Apply(fleet(), &Spec{CrashTypes: NewSet(), Weather: Set{}})
	assert.Len(t, got, 2)
}

func TestApply_FullSeverityDomainIsNoConstraint(t *testing.T) {
	records := fleet()
	records[1].SeverityC = model.SeverityUnknown // dirty row
	spec := &Spec{Severities: NewSet("Property Damage Only", "Minor Injury", "Serious Injury", "Fatal")}
	got := Apply(records, spec)
	assert.Len(t, got, 2)
}

func TestApply_SeveritySetPaddedWithJunkStillConstrains(t *testing.T) {
	records := fleet()
	records[1].SeverityC = model.SeverityUnknown

	// Four members, but not the four severity classes: this is a real
	// constraint, not a select-all state.
	spec := &Spec{Severities: NewSet("Fatal", "Junk A", "Junk B", "Junk C")}
	got := Apply(records, spec)
	require.Len(t, got, 1)
	assert.Equal(t, "R1", got[0].ReportID)
}

func TestApply_CrashLevelPredicatesAND(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want []string
	}{
		{"year range", Spec{YearFrom: 2020, YearTo: 2022}, []string{"R2"}},
		{"severity", Spec{Severities: NewSet("Fatal")}, []string{"R1"}},
		{"crash type", Spec{CrashTypes: NewSet("Rear End")}, []string{"R2"}},
		{"lga", Spec{LGAs: NewSet("adelaide")}, []string{"R1"}},
		{"dui toggle", Spec{DUIOnly: true}, []string{"R1"}},
		{"and across groups", Spec{Severities: NewSet("Fatal"), CrashTypes: NewSet("Rear End")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(fleet(), &tt.spec)
			ids := make([]string, 0, len(got))
			for _, c := range got {
				ids = append(ids, c.ReportID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestMatch_CasualtyCombinedSemantics(t *testing.T) {
	c := crashFixture()

	// No single casualty is both a pedestrian and 0-17.
	reject := &Spec{RoadUserTypes: NewSet("Pedestrian"), AgeGroups: NewSet(AgeGroup0to17)}
	assert.False(t, Match(c, reject))

	// The pedestrian is 40, so pedestrian + 36-50 matches on one casualty.
	accept := &Spec{RoadUserTypes: NewSet("Pedestrian"), AgeGroups: NewSet(AgeGroup36to50)}
	assert.True(t, Match(c, accept))
}

func TestMatch_NoCasualtiesFailsActiveCasualtyPredicate(t *testing.T) {
	c := crashFixture()
	c.Casualties = nil
	assert.False(t, Match(c, &Spec{Sexes: NewSet("Male")}))
	assert.True(t, Match(c, &Spec{}))
}

func TestMatch_CasualtyAgeUnparseableFailsActiveAgePredicate(t *testing.T) {
	c := crashFixture()
	c.Casualties = []model.Casualty{{CasualtyType: "Driver", Age: "XX"}}
	assert.False(t, Match(c, &Spec{AgeGroups: NewSet(AgeGroup0to17)}))
	// Without an age constraint the same casualty still counts.
	assert.True(t, Match(c, &Spec{RoadUserTypes: NewSet("Driver")}))
}

func TestMatch_UnitCombinedSemantics(t *testing.T) {
	c := crashFixture()

	// Car is 2011-2020, Semi Trailer is pre-2000: no unit is both a car and
	// pre-2000.
	reject := &Spec{UnitTypes: NewSet("Car"), VehicleYearBuckets: NewSet(VehYearPre2000)}
	assert.False(t, Match(c, reject))

	accept := &Spec{UnitTypes: NewSet("Car"), VehicleYearBuckets: NewSet(VehYear2010s)}
	assert.True(t, Match(c, accept))
}

func TestMatch_TowingAndHeavyIndependentOfCombinedMatch(t *testing.T) {
	c := crashFixture()

	// The towing unit is the semi trailer, the car satisfies the type
	// constraint: both constraints hold, on different units.
	spec := &Spec{UnitTypes: NewSet("Car"), TowingOnly: true}
	assert.True(t, Match(c, spec))

	spec = &Spec{UnitTypes: NewSet("Car"), HeavyOnly: true}
	assert.True(t, Match(c, spec))

	c.Units = c.Units[:1] // drop the semi trailer
	assert.False(t, Match(c, &Spec{TowingOnly: true}))
	assert.False(t, Match(c, &Spec{HeavyOnly: true}))
}

func TestMatch_OccupantBucketExcludesUnparseable(t *testing.T) {
	c := crashFixture()
	c.Units = []model.Unit{{UnitType: "Car", Occupants: ""}}
	assert.False(t, Match(c, &Spec{OccupantBuckets: NewSet("1")}))

	c.Units[0].Occupants = "7"
	assert.True(t, Match(c, &Spec{OccupantBuckets: NewSet("5+")}))
}

func TestMatch_TimeRangeWrapsMidnight(t *testing.T) {
	spec := &Spec{TimeFrom: "22:00", TimeTo: "02:00"}

	c := crashFixture()
	for ts, want := range map[string]bool{
		"02/01/2019 23:30": true,
		"02/01/2019 01:00": true,
		"02/01/2019 12:00": false,
		"02/01/2019 22:00": true,
		"02/01/2019 02:00": true,
	} {
		c.DateTime = ts
		assert.Equal(t, want, Match(c, spec), "timestamp %s", ts)
	}
}

func TestMatch_DateTimeFailsClosed(t *testing.T) {
	c := crashFixture()
	c.DateTime = "not a timestamp"

	// Active constraint + malformed field → excluded.
	assert.False(t, Match(c, &Spec{TimeFrom: "08:00", TimeTo: "17:00"}))
	assert.False(t, Match(c, &Spec{DateFrom: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)}))

	// No date/time constraint → the malformed field is irrelevant.
	assert.True(t, Match(c, &Spec{}))
}

func TestMatch_DateRangeInclusive(t *testing.T) {
	c := crashFixture() // 02/01/2019
	spec := &Spec{
		DateFrom: time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, Match(c, spec))

	spec.DateTo = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	spec.DateFrom = time.Time{}
	assert.False(t, Match(c, spec))
}

func TestAgeGroupPartition(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{0, AgeGroup0to17}, {17, AgeGroup0to17},
		{18, AgeGroup18to25}, {25, AgeGroup18to25},
		{26, AgeGroup26to35}, {35, AgeGroup26to35},
		{36, AgeGroup36to50}, {50, AgeGroup36to50},
		{51, AgeGroup51to65}, {65, AgeGroup51to65},
		{66, AgeGroup66Plus}, {99, AgeGroup66Plus},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AgeGroup(tt.age), "age %d", tt.age)
	}
}

func TestVehicleYearBuckets(t *testing.T) {
	assert.Equal(t, VehYearPre2000, VehicleYearBucket("1999"))
	assert.Equal(t, VehYear2000s, VehicleYearBucket("2000"))
	assert.Equal(t, VehYear2000s, VehicleYearBucket("2010"))
	assert.Equal(t, VehYear2010s, VehicleYearBucket("2011"))
	assert.Equal(t, VehYear2010s, VehicleYearBucket("2020"))
	assert.Equal(t, VehYear2021Plus, VehicleYearBucket("2021"))
	assert.Equal(t, "", VehicleYearBucket(""))
	assert.Equal(t, "", VehicleYearBucket("n/a"))
}

func TestSeverityWeightMonotonic(t *testing.T) {
	prev := 0.0
	for _, s := range []model.Severity{model.SeverityPDO, model.SeverityMinor, model.SeveritySerious, model.SeverityFatal} {
		assert.Greater(t, s.Weight(), prev)
		prev = s.Weight()
	}
}
