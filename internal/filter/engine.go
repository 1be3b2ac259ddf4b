package filter

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openroads/crashmap/internal/model"
)

// dateTimeLayout is the source's combined date-time format (day first).
const dateTimeLayout = "02/01/2006 15:04"

// evaluator is a Spec compiled for repeated per-record matching: clock bounds
// are parsed once, not per record.
type evaluator struct {
	spec *Spec

	timeFrom int // minutes since midnight, -1 when unbounded
	timeTo   int
	needTime bool
	needDate bool
}

func newEvaluator(spec *Spec) *evaluator {
	ev := &evaluator{spec: spec, timeFrom: -1, timeTo: -1}
	ev.timeFrom = parseClock(spec.TimeFrom)
	ev.timeTo = parseClock(spec.TimeTo)
	ev.needTime = ev.timeFrom >= 0 || ev.timeTo >= 0
	ev.needDate = !spec.DateFrom.IsZero() || !spec.DateTo.IsZero()
	return ev
}

// parseClock parses "HH:MM" into minutes since midnight, -1 when absent or
// malformed (a malformed bound in the spec itself is no constraint).
func parseClock(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return -1
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return -1
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return -1
	}
	return h*60 + m
}

// Apply returns the subset of records matching spec. A record whose
// evaluation panics (unexpected nil field in dirty data) is treated as
// non-matching; one bad record never aborts the run.
func Apply(records []*model.Crash, spec *Spec) []*model.Crash {
	ev := newEvaluator(spec)
	out := make([]*model.Crash, 0, len(records))
	for _, c := range records {
		if ev.matchSafe(c) {
			out = append(out, c)
		}
	}
	return out
}

// Match reports whether a single record satisfies spec.
func Match(c *model.Crash, spec *Spec) bool {
	return newEvaluator(spec).matchSafe(c)
}

func (ev *evaluator) matchSafe(c *model.Crash) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("filter evaluation panicked; record treated as non-matching",
				zap.String("report_id", c.ReportID),
				zap.Any("panic", r),
			)
			matched = false
		}
	}()
	// All four groups are independently required.
	return ev.matchCrash(c) && ev.matchDateTime(c) && ev.matchCasualties(c) && ev.matchUnits(c)
}

func (ev *evaluator) matchCrash(c *model.Crash) bool {
	s := ev.spec

	if s.YearFrom != 0 && c.Year < s.YearFrom {
		return false
	}
	if s.YearTo != 0 && c.Year > s.YearTo {
		return false
	}

	if !ev.severityAllows(c.SeverityC) {
		return false
	}
	if !s.CrashTypes.allows(c.CrashType) ||
		!s.Weather.allows(c.Weather) ||
		!s.DayNight.allows(c.DayNight) ||
		!s.LGAs.allows(c.LGAName) ||
		!s.Suburbs.allows(c.Suburb) ||
		!s.RoadSurfaces.allows(c.RoadSurface) ||
		!s.Moistures.allows(c.Moisture) ||
		!s.SpeedLimits.allows(c.SpeedLimit) {
		return false
	}

	if s.DUIOnly && !yes(c.DUI) {
		return false
	}
	if s.DrugsOnly && !yes(c.Drugs) {
		return false
	}
	if s.RolloverOnly && !yes(c.Rollover) {
		return false
	}
	if s.FireOnly && !yes(c.Fire) {
		return false
	}
	return true
}

// severityAllows treats a set naming every severity class as no constraint,
// so a select-all UI state cannot exclude rows with an unknown severity.
func (ev *evaluator) severityAllows(sev model.Severity) bool {
	set := ev.spec.Severities
	if set.Empty() || coversAllSeverities(set) {
		return true
	}
	return set.Has(sev.String())
}

// coversAllSeverities checks for the four domain labels explicitly; a set
// padded to size four with junk values is still a constraint.
func coversAllSeverities(set Set) bool {
	for _, s := range []model.Severity{
		model.SeverityPDO, model.SeverityMinor, model.SeveritySerious, model.SeverityFatal,
	} {
		if !set.Has(s.String()) {
			return false
		}
	}
	return true
}

// matchDateTime fails closed: when a date or time constraint is active and
// the record's combined field is absent or malformed, the record is excluded.
// This is deliberately stricter than the coordinate policy — a date/time
// filter is a user-requested hard constraint.
func (ev *evaluator) matchDateTime(c *model.Crash) bool {
	if !ev.needDate && !ev.needTime {
		return true
	}

	ts, err := time.Parse(dateTimeLayout, strings.TrimSpace(c.DateTime))
	if err != nil {
		return false
	}

	if ev.needDate {
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		if !ev.spec.DateFrom.IsZero() && day.Before(truncateDay(ev.spec.DateFrom)) {
			return false
		}
		if !ev.spec.DateTo.IsZero() && day.After(truncateDay(ev.spec.DateTo)) {
			return false
		}
	}

	if ev.needTime {
		minutes := ts.Hour()*60 + ts.Minute()
		if !clockInRange(minutes, ev.timeFrom, ev.timeTo) {
			return false
		}
	}
	return true
}

// clockInRange handles ranges that wrap midnight: when from > to, a time
// matches if it is at or after from OR at or before to.
func clockInRange(m, from, to int) bool {
	switch {
	case from < 0 && to < 0:
		return true
	case from < 0:
		return m <= to
	case to < 0:
		return m >= from
	case from > to:
		return m >= from || m <= to
	default:
		return m >= from && m <= to
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// matchCasualties implements the combined-match rule: at least one casualty
// must satisfy every active casualty predicate simultaneously. A crash with
// no casualties fails any active casualty predicate.
func (ev *evaluator) matchCasualties(c *model.Crash) bool {
	s := ev.spec
	if !s.casualtyActive() {
		return true
	}
	for i := range c.Casualties {
		if ev.casualtyMatches(&c.Casualties[i]) {
			return true
		}
	}
	return false
}

func (ev *evaluator) casualtyMatches(cas *model.Casualty) bool {
	s := ev.spec
	if !s.RoadUserTypes.allows(cas.CasualtyType) {
		return false
	}
	if !s.AgeGroups.Empty() {
		age, err := strconv.Atoi(strings.TrimSpace(cas.Age))
		if err != nil || age < 0 || !s.AgeGroups.Has(AgeGroup(age)) {
			return false
		}
	}
	return s.Sexes.allows(cas.Sex) &&
		s.InjuryExtents.allows(cas.InjuryExtent) &&
		s.SeatBelts.allows(cas.SeatBelt) &&
		s.Helmets.allows(cas.Helmet)
}

// matchUnits applies the combined-match rule over units, then the towing and
// heavy-vehicle toggles independently: the unit satisfying a toggle need not
// be the one satisfying the combined constraints.
func (ev *evaluator) matchUnits(c *model.Crash) bool {
	s := ev.spec

	if s.unitActive() {
		found := false
		for i := range c.Units {
			if ev.unitMatches(&c.Units[i]) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if s.TowingOnly && !anyUnit(c, func(u *model.Unit) bool { return yes(u.Towing) }) {
		return false
	}
	if s.HeavyOnly && !anyUnit(c, func(u *model.Unit) bool { return HeavyVehicle(u.UnitType) }) {
		return false
	}
	return true
}

func (ev *evaluator) unitMatches(u *model.Unit) bool {
	s := ev.spec
	if !s.UnitTypes.allows(u.UnitType) {
		return false
	}
	if !s.VehicleYearBuckets.Empty() {
		b := VehicleYearBucket(u.VehicleYear)
		if b == "" || !s.VehicleYearBuckets.Has(b) {
			return false
		}
	}
	if !s.OccupantBuckets.Empty() {
		b := OccupantBucket(u.Occupants)
		if b == "" || !s.OccupantBuckets.Has(b) {
			return false
		}
	}
	return s.LicenceTypes.allows(u.LicenceType) &&
		s.RegoStates.allows(u.RegoState) &&
		s.Directions.allows(u.Direction) &&
		s.Movements.allows(u.Movement)
}

func anyUnit(c *model.Crash, pred func(*model.Unit) bool) bool {
	for i := range c.Units {
		if pred(&c.Units[i]) {
			return true
		}
	}
	return false
}

// yes interprets the dataset's assorted affirmative flag spellings.
func yes(v string) bool {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "Y", "YES", "TRUE", "1":
		return true
	default:
		return false
	}
}
