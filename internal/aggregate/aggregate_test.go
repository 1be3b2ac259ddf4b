package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openroads/crashmap/internal/model"
)

func TestSummarize_SumsAuthoritativeCrashCounts(t *testing.T) {
	records := []*model.Crash{
		{TotalFatalities: 1, TotalSerious: 0, TotalMinor: 2},
		{TotalFatalities: 0, TotalSerious: 3, TotalMinor: 1},
		{}, // PDO crash, all zero
	}
	got := Summarize(records)
	assert.Equal(t, Totals{Crashes: 3, Fatalities: 1, SeriousInjuries: 3, MinorInjuries: 3}, got)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Totals{}, Summarize(nil))
}

func TestCountByArea_MergesAliases(t *testing.T) {
	canon, err := NewCanonicalizer()
	require.NoError(t, err)

	records := []*model.Crash{
		{LGAName: "PORT ADELAIDE ENFIELD"},
		{LGAName: "PT ADELAIDE ENFIELD"},
		{LGAName: "Port Adel Enfield"},
		{LGAName: "ADELAIDE"},
	}
	counts := CountByArea(records, canon)

	assert.Equal(t, 3, counts["City of Port Adelaide Enfield"])
	assert.Equal(t, 1, counts["City of Adelaide"])
	assert.Len(t, counts, 2)
}

func TestCountByArea_MissingNameExcludedFromAreasOnly(t *testing.T) {
	canon, err := NewCanonicalizer()
	require.NoError(t, err)

	records := []*model.Crash{
		{LGAName: ""},
		{LGAName: "  "},
		{LGAName: "BURNSIDE"},
	}
	counts := CountByArea(records, canon)
	assert.Len(t, counts, 1)
	assert.Equal(t, 1, counts["City of Burnside"])

	// Scalar totals still see all three records.
	assert.Equal(t, 3, Summarize(records).Crashes)
}

func TestResolve_UnknownPassesThroughVerbatim(t *testing.T) {
	canon, err := NewCanonicalizer()
	require.NoError(t, err)

	assert.Equal(t, "OUTBACK COMMUNITIES AUTHORITY", canon.Resolve("OUTBACK COMMUNITIES AUTHORITY"))
	assert.Equal(t, "", canon.Resolve("   "))
}

func TestResolve_CaseAndPunctuationInsensitive(t *testing.T) {
	canon, err := NewCanonicalizer()
	require.NoError(t, err)

	assert.Equal(t, "City of Mount Gambier", canon.Resolve("mt. gambier"))
	assert.Equal(t, "City of Tea Tree Gully", canon.Resolve("ttg"))
}

func TestDisplayName_TitleCasesRawPassthrough(t *testing.T) {
	canon, err := NewCanonicalizer()
	require.NoError(t, err)

	assert.Equal(t, "Coober Pedy", canon.DisplayName("COOBER PEDY"))
	assert.Equal(t, "City of Unley", canon.DisplayName("City of Unley"))
}

func TestParseAliases_RejectsAmbiguousAlias(t *testing.T) {
	_, err := parseAliases([]byte("A:\n  - SAME\nB:\n  - SAME\n"))
	assert.Error(t, err)
}
