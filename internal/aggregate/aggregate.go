package aggregate

import (
	"github.com/openroads/crashmap/internal/model"
)

// Totals are the scalar statistics for a filtered subset. Casualty figures
// are summed from the authoritative per-crash count fields, not re-derived
// from the casualty table.
type Totals struct {
	Crashes         int `json:"crashes"`
	Fatalities      int `json:"fatalities"`
	SeriousInjuries int `json:"serious_injuries"`
	MinorInjuries   int `json:"minor_injuries"`
}

// Summarize computes Totals over the subset.
func Summarize(records []*model.Crash) Totals {
	var t Totals
	t.Crashes = len(records)
	for _, c := range records {
		t.Fatalities += c.TotalFatalities
		t.SeriousInjuries += c.TotalSerious
		t.MinorInjuries += c.TotalMinor
	}
	return t
}

// CountByArea maps canonical area names to crash counts. Records without an
// area name are excluded here but still counted in Totals. Distinct raw
// spellings of the same council merge into one bucket.
func CountByArea(records []*model.Crash, canon *Canonicalizer) map[string]int {
	counts := make(map[string]int)
	for _, c := range records {
		name := canon.Resolve(c.LGAName)
		if name == "" {
			continue
		}
		counts[name]++
	}
	return counts
}
