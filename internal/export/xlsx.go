// Package export writes filtered statistics to a spreadsheet workbook.
package export

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/openroads/crashmap/internal/aggregate"
)

// Workbook writes a two-sheet workbook: scalar totals and per-area counts.
// Area rows are sorted by descending count so the dominant councils lead.
func Workbook(path string, totals aggregate.Totals, byArea map[string]int, canon *aggregate.Canonicalizer) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	addPair := func(label string, n int) {
		row := summary.AddRow()
		row.AddCell().Value = label
		row.AddCell().SetInt(n)
	}
	addPair("Crashes", totals.Crashes)
	addPair("Fatalities", totals.Fatalities)
	addPair("Serious injuries", totals.SeriousInjuries)
	addPair("Minor injuries", totals.MinorInjuries)

	areas, err := f.AddSheet("By LGA")
	if err != nil {
		return eris.Wrap(err, "export: add area sheet")
	}
	header := areas.AddRow()
	header.AddCell().Value = "LGA"
	header.AddCell().Value = "Crashes"

	type areaCount struct {
		name  string
		count int
	}
	rows := make([]areaCount, 0, len(byArea))
	for name, n := range byArea {
		rows = append(rows, areaCount{name: name, count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].name < rows[j].name
	})

	for _, r := range rows {
		row := areas.AddRow()
		row.AddCell().Value = canon.DisplayName(r.name)
		row.AddCell().SetInt(r.count)
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}
