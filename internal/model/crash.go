// Package model defines the typed record structs for the three crash tables.
// Fields are mapped from CSV headers once at load time; nothing in the rest of
// the codebase addresses a record by header string.
package model

import "strings"

// Severity is the crash-level ordinal classification. It is distinct from the
// per-casualty injury extent, which uses its own scale.
type Severity int

const (
	SeverityUnknown Severity = 0
	SeverityPDO     Severity = 1
	SeverityMinor   Severity = 2
	SeveritySerious Severity = 3
	SeverityFatal   Severity = 4
)

// String returns the display label used in source data and output properties.
func (s Severity) String() string {
	switch s {
	case SeverityPDO:
		return "Property Damage Only"
	case SeverityMinor:
		return "Minor Injury"
	case SeveritySerious:
		return "Serious Injury"
	case SeverityFatal:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// Weight returns the density-sample weight for the severity. Monotonically
// increasing with severity; unknown severities weigh the same as PDO so a
// dirty row still contributes to the surface.
func (s Severity) Weight() float64 {
	if s < SeverityPDO || s > SeverityFatal {
		return float64(SeverityPDO)
	}
	return float64(s)
}

// LatLng is a resolved geographic coordinate pair (WGS84 / GDA94 degrees).
type LatLng struct {
	Lat float64
	Lng float64
}

// Crash is one crash event row, enriched after linking with its casualty and
// unit children and a cached coordinate transform result.
type Crash struct {
	ReportID string `csv:"REPORT_ID"`

	// Native projected coordinates, kept as strings: the source carries
	// blanks and garbage, and parsing is the transformer's job.
	XCoord string `csv:"ACCLOC_X"`
	YCoord string `csv:"ACCLOC_Y"`

	Year        int    `csv:"YEAR"`
	DateTime    string `csv:"STATS_DATE_TIME"` // "02/01/2019 14:30" locale format
	Severity    string `csv:"CSEF_SEVERITY"`
	CrashType   string `csv:"CRASH_TYPE"`
	Weather     string `csv:"WEATHER_COND"`
	DayNight    string `csv:"DAY_NIGHT"`
	DUI         string `csv:"DUI_INVOLVED"`
	Drugs       string `csv:"DRUGS_INVOLVED"`
	RoadSurface string `csv:"ROAD_SURFACE"`
	Moisture    string `csv:"MOISTURE_COND"`
	Rollover    string `csv:"ROLLOVER"`
	Fire        string `csv:"FIRE"`

	LGAName string `csv:"LGA_NAME"`
	// AssignedLGA is the upstream point-in-polygon assignment, used as a
	// fallback when LGAName is blank or a placeholder.
	AssignedLGA string `csv:"LGA_ASSIGNED"`
	Suburb      string `csv:"SUBURB"`

	// Authoritative per-crash casualty totals. Statistics sum these rather
	// than re-deriving from the casualty table.
	TotalFatalities int `csv:"TOTAL_FATS"`
	TotalSerious    int `csv:"TOTAL_SI"`
	TotalMinor      int `csv:"TOTAL_MI"`

	SpeedLimit string `csv:"AREA_SPEED"`

	// Derived at link time, immutable afterwards.
	Casualties []Casualty `csv:"-"`
	Units      []Unit     `csv:"-"`
	Coord      *LatLng    `csv:"-"` // nil when the transform rejected the row
	SeverityC  Severity   `csv:"-"`
}

// HasCoord reports whether the crash carries a usable geographic coordinate.
// Crashes without one are still counted in statistics and the choropleth but
// are dropped from the point and density layers.
func (c *Crash) HasCoord() bool { return c.Coord != nil }

// Casualty is one injured or involved person row.
type Casualty struct {
	ReportID     string `csv:"REPORT_ID"`
	CasualtyType string `csv:"CASUALTY_TYPE"` // Driver, Passenger, Pedestrian, Rider, Cyclist
	Age          string `csv:"AGE"`
	Sex          string `csv:"SEX"`
	InjuryExtent string `csv:"INJURY_EXTENT"`
	SeatBelt     string `csv:"SEAT_BELT"`
	Helmet       string `csv:"HELMET"`
	Hospital     string `csv:"HOSPITAL"` // optional, often blank
}

// Unit is one vehicle or non-vehicle entity row (pedestrians, fixed objects
// and animals appear here too).
type Unit struct {
	ReportID    string `csv:"REPORT_ID"`
	UnitType    string `csv:"UNIT_TYPE"`
	VehicleYear string `csv:"VEH_YEAR"`
	Occupants   string `csv:"NO_OCCUPANTS"`
	Towing      string `csv:"TOWING"`
	LicenceType string `csv:"LICENCE_TYPE"`
	RegoState   string `csv:"REGISTERED_STATE"`
	Direction   string `csv:"DIRECTION_OF_TRAVEL"`
	Movement    string `csv:"VEHICLE_MOVEMENT"`
}

// ParseSeverity maps the source severity label to its ordinal class.
// Source values look like "1: PDO", "4: Fatal" or bare labels.
func ParseSeverity(raw string) Severity {
	switch normalizeSeverity(raw) {
	case "PDO", "PROPERTY DAMAGE ONLY":
		return SeverityPDO
	case "MI", "MINOR INJURY", "MINOR":
		return SeverityMinor
	case "SI", "SERIOUS INJURY", "SERIOUS":
		return SeveritySerious
	case "FATAL":
		return SeverityFatal
	default:
		return SeverityUnknown
	}
}

func normalizeSeverity(raw string) string {
	s := raw
	// Strip a leading "N: " ordinal prefix if present.
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	return strings.ToUpper(strings.TrimSpace(s))
}
