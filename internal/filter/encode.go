package filter

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// The shareable form is a URL query string carrying only non-default values.
// Keys are short and stable; the sharing layer treats the string as opaque.

const dateLayout = "2006-01-02"

// Encode renders the spec's active, non-default constraints as a compact
// query string. Decode(Encode(s)) is equivalent to s.
func Encode(s *Spec) string {
	v := url.Values{}

	putInt := func(key string, n int) {
		if n != 0 {
			v.Set(key, strconv.Itoa(n))
		}
	}
	putDate := func(key string, t time.Time) {
		if !t.IsZero() {
			v.Set(key, t.Format(dateLayout))
		}
	}
	putStr := func(key, s string) {
		if strings.TrimSpace(s) != "" {
			v.Set(key, s)
		}
	}
	// One repeated key per member, so members containing the separator of
	// any joined form survive the round trip untouched.
	putSet := func(key string, set Set) {
		for _, m := range set.Values() {
			v.Add(key, m)
		}
	}
	putBool := func(key string, b bool) {
		if b {
			v.Set(key, "1")
		}
	}

	putInt("yf", s.YearFrom)
	putInt("yt", s.YearTo)
	putDate("df", s.DateFrom)
	putDate("dt", s.DateTo)
	putStr("tf", s.TimeFrom)
	putStr("tt", s.TimeTo)

	putSet("sev", s.Severities)
	putSet("ct", s.CrashTypes)
	putSet("wx", s.Weather)
	putSet("dn", s.DayNight)
	putSet("lga", s.LGAs)
	putSet("sub", s.Suburbs)
	putSet("surf", s.RoadSurfaces)
	putSet("moist", s.Moistures)
	putSet("spd", s.SpeedLimits)
	putBool("dui", s.DUIOnly)
	putBool("drug", s.DrugsOnly)
	putBool("roll", s.RolloverOnly)
	putBool("fire", s.FireOnly)

	putSet("ru", s.RoadUserTypes)
	putSet("age", s.AgeGroups)
	putSet("sex", s.Sexes)
	putSet("inj", s.InjuryExtents)
	putSet("belt", s.SeatBelts)
	putSet("helm", s.Helmets)

	putSet("unit", s.UnitTypes)
	putSet("vyr", s.VehicleYearBuckets)
	putSet("occ", s.OccupantBuckets)
	putSet("lic", s.LicenceTypes)
	putSet("reg", s.RegoStates)
	putSet("dir", s.Directions)
	putSet("mov", s.Movements)
	putBool("tow", s.TowingOnly)
	putBool("hvy", s.HeavyOnly)

	return v.Encode()
}

// Decode parses a query string produced by Encode back into a Spec.
func Decode(encoded string) (*Spec, error) {
	v, err := url.ParseQuery(encoded)
	if err != nil {
		return nil, eris.Wrap(err, "filter: parse encoded spec")
	}

	s := &Spec{}

	getInt := func(key string) (int, error) {
		raw := v.Get(key)
		if raw == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, eris.Wrapf(err, "filter: bad %s", key)
		}
		return n, nil
	}
	getDate := func(key string) (time.Time, error) {
		raw := v.Get(key)
		if raw == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, eris.Wrapf(err, "filter: bad %s", key)
		}
		return t, nil
	}
	getSet := func(key string) Set {
		if len(v[key]) == 0 {
			return nil
		}
		return NewSet(v[key]...)
	}

	if s.YearFrom, err = getInt("yf"); err != nil {
		return nil, err
	}
	if s.YearTo, err = getInt("yt"); err != nil {
		return nil, err
	}
	if s.DateFrom, err = getDate("df"); err != nil {
		return nil, err
	}
	if s.DateTo, err = getDate("dt"); err != nil {
		return nil, err
	}
	s.TimeFrom = v.Get("tf")
	s.TimeTo = v.Get("tt")

	s.Severities = getSet("sev")
	s.CrashTypes = getSet("ct")
	s.Weather = getSet("wx")
	s.DayNight = getSet("dn")
	s.LGAs = getSet("lga")
	s.Suburbs = getSet("sub")
	s.RoadSurfaces = getSet("surf")
	s.Moistures = getSet("moist")
	s.SpeedLimits = getSet("spd")
	s.DUIOnly = v.Get("dui") == "1"
	s.DrugsOnly = v.Get("drug") == "1"
	s.RolloverOnly = v.Get("roll") == "1"
	s.FireOnly = v.Get("fire") == "1"

	s.RoadUserTypes = getSet("ru")
	s.AgeGroups = getSet("age")
	s.Sexes = getSet("sex")
	s.InjuryExtents = getSet("inj")
	s.SeatBelts = getSet("belt")
	s.Helmets = getSet("helm")

	s.UnitTypes = getSet("unit")
	s.VehicleYearBuckets = getSet("vyr")
	s.OccupantBuckets = getSet("occ")
	s.LicenceTypes = getSet("lic")
	s.RegoStates = getSet("reg")
	s.Directions = getSet("dir")
	s.Movements = getSet("mov")
	s.TowingOnly = v.Get("tow") == "1"
	s.HeavyOnly = v.Get("hvy") == "1"

	return s, nil
}
