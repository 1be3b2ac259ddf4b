// Package filter evaluates a composite filter specification against enriched
// crash records. Evaluation is a pure per-record predicate; no state survives
// a run.
package filter

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Set is a value constraint on one attribute. A nil or empty Set means "no
// constraint" — it never yields zero matches by omission. Values are
// normalized (trimmed, uppercased) on insert so that matching and the encoded
// share form are both canonical.
type Set map[string]struct{}

// NewSet builds a Set from raw values. Blank values are ignored.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s.Add(v)
	}
	if len(s) == 0 {
		return nil
	}
	return s
}

func (s Set) Add(v string) {
	n := strings.ToUpper(strings.TrimSpace(v))
	if n != "" {
		s[n] = struct{}{}
	}
}

// Empty reports whether the Set imposes no constraint.
func (s Set) Empty() bool { return len(s) == 0 }

// Has reports membership of the normalized form of v.
func (s Set) Has(v string) bool {
	_, ok := s[strings.ToUpper(strings.TrimSpace(v))]
	return ok
}

// Values returns the members in sorted order, for encoding and display.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// allows is the single membership rule: an empty set passes everything.
func (s Set) allows(v string) bool {
	return s.Empty() || s.Has(v)
}

// Spec is an immutable filter specification. The zero value matches every
// record.
type Spec struct {
	// Crash-level constraints.
	YearFrom int // 0 = unbounded
	YearTo   int
	DateFrom time.Time // zero = unbounded
	DateTo   time.Time
	TimeFrom string // "HH:MM", empty = unbounded
	TimeTo   string

	Severities   Set
	CrashTypes   Set
	Weather      Set
	DayNight     Set
	LGAs         Set
	Suburbs      Set
	RoadSurfaces Set
	Moistures    Set
	SpeedLimits  Set
	DUIOnly      bool
	DrugsOnly    bool
	RolloverOnly bool
	FireOnly     bool

	// Casualty-level constraints; combined-match across one casualty.
	RoadUserTypes Set
	AgeGroups     Set
	Sexes         Set
	InjuryExtents Set
	SeatBelts     Set
	Helmets       Set

	// Unit-level constraints; combined-match across one unit, except the two
	// trailing binary toggles which match any unit independently.
	UnitTypes          Set
	VehicleYearBuckets Set
	OccupantBuckets    Set
	LicenceTypes       Set
	RegoStates         Set
	Directions         Set
	Movements          Set
	TowingOnly         bool
	HeavyOnly          bool
}

// casualtyActive reports whether any casualty-level constraint is set.
func (s *Spec) casualtyActive() bool {
	return !s.RoadUserTypes.Empty() || !s.AgeGroups.Empty() || !s.Sexes.Empty() ||
		!s.InjuryExtents.Empty() || !s.SeatBelts.Empty() || !s.Helmets.Empty()
}

// unitActive reports whether any combined-match unit constraint is set.
// The towing and heavy-vehicle toggles are deliberately excluded: they are
// evaluated independently.
func (s *Spec) unitActive() bool {
	return !s.UnitTypes.Empty() || !s.VehicleYearBuckets.Empty() ||
		!s.OccupantBuckets.Empty() || !s.LicenceTypes.Empty() ||
		!s.RegoStates.Empty() || !s.Directions.Empty() || !s.Movements.Empty()
}

// Age group labels form a fixed partition of ages.
const (
	AgeGroup0to17  = "0-17"
	AgeGroup18to25 = "18-25"
	AgeGroup26to35 = "26-35"
	AgeGroup36to50 = "36-50"
	AgeGroup51to65 = "51-65"
	AgeGroup66Plus = "66+"
)

// AgeGroup buckets an age into its partition label.
func AgeGroup(age int) string {
	switch {
	case age <= 17:
		return AgeGroup0to17
	case age <= 25:
		return AgeGroup18to25
	case age <= 35:
		return AgeGroup26to35
	case age <= 50:
		return AgeGroup36to50
	case age <= 65:
		return AgeGroup51to65
	default:
		return AgeGroup66Plus
	}
}

// Vehicle build-year bucket labels.
const (
	VehYearPre2000  = "PRE-2000"
	VehYear2000s    = "2000-2010"
	VehYear2010s    = "2011-2020"
	VehYear2021Plus = "2021+"
)

// VehicleYearBucket buckets a build year; empty string for unparseable input.
func VehicleYearBucket(raw string) string {
	y, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || y <= 0 {
		return ""
	}
	switch {
	case y < 2000:
		return VehYearPre2000
	case y <= 2010:
		return VehYear2000s
	case y <= 2020:
		return VehYear2010s
	default:
		return VehYear2021Plus
	}
}

// OccupantBucket buckets an occupant count; empty string when the count is
// missing, zero or unparseable — an active occupant predicate then excludes
// the unit rather than wildcarding it.
func OccupantBucket(raw string) string {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return ""
	}
	if n >= 5 {
		return "5+"
	}
	return strconv.Itoa(n)
}

// heavyVehicleTypes is the membership list behind the heavy-vehicle toggle.
var heavyVehicleTypes = NewSet(
	"Semi Trailer",
	"Rigid Truck > 4.5T",
	"B-Double",
	"Road Train",
	"Bus/Coach",
	"Omnibus",
	"Prime Mover",
)

// HeavyVehicle reports whether a unit type counts as a heavy vehicle.
func HeavyVehicle(unitType string) bool { return heavyVehicleTypes.Has(unitType) }
