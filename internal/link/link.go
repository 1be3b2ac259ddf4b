// Package link joins the three raw tables into enriched crash records.
// It runs exactly once per session.
package link

import (
	"strings"

	"go.uber.org/zap"

	"github.com/openroads/crashmap/internal/dataset"
	"github.com/openroads/crashmap/internal/geo"
	"github.com/openroads/crashmap/internal/model"
)

// placeholderLGAs are source values that mean "no usable area name".
var placeholderLGAs = map[string]struct{}{
	"":               {},
	"UNKNOWN":        {},
	"N/A":            {},
	"OUT OF COUNCIL": {},
}

// Build attaches casualty and unit children to each crash by report id and
// caches the coordinate transform result per record. Grouping indices are
// built in a single pass over each child table.
func Build(t *dataset.Tables) []*model.Crash {
	casByReport := make(map[string][]model.Casualty, len(t.Crashes))
	for _, c := range t.Casualties {
		casByReport[c.ReportID] = append(casByReport[c.ReportID], c)
	}
	unitsByReport := make(map[string][]model.Unit, len(t.Crashes))
	for _, u := range t.Units {
		unitsByReport[u.ReportID] = append(unitsByReport[u.ReportID], u)
	}

	var noCoord int
	crashes := make([]*model.Crash, 0, len(t.Crashes))
	for i := range t.Crashes {
		c := t.Crashes[i]

		// Most crashes have no recorded casualties; an empty slice is the
		// normal case, not an error.
		c.Casualties = casByReport[c.ReportID]
		c.Units = unitsByReport[c.ReportID]

		if lat, lng, ok := geo.Transform(c.XCoord, c.YCoord); ok {
			c.Coord = &model.LatLng{Lat: lat, Lng: lng}
		} else {
			noCoord++
		}

		c.SeverityC = model.ParseSeverity(c.Severity)

		if _, bad := placeholderLGAs[strings.ToUpper(strings.TrimSpace(c.LGAName))]; bad {
			// Fall back to the upstream spatial assignment when present.
			c.LGAName = strings.TrimSpace(c.AssignedLGA)
		}

		crashes = append(crashes, &c)
	}

	zap.L().Info("records linked",
		zap.Int("crashes", len(crashes)),
		zap.Int("without_coordinates", noCoord),
	)
	return crashes
}
