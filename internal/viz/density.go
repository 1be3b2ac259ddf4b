package viz

import "github.com/openroads/crashmap/internal/model"

// Sample is one weighted input to the consumer's kernel-density rendering.
type Sample struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Weight float64 `json:"weight"`
}

// DensitySamples produces one sample per record with valid coordinates,
// weighted by severity ordinal so severe crashes pull the surface harder.
func DensitySamples(records []*model.Crash) []Sample {
	out := make([]Sample, 0, len(records))
	for _, c := range records {
		if !c.HasCoord() {
			continue
		}
		out = append(out, Sample{
			Lat:    c.Coord.Lat,
			Lng:    c.Coord.Lng,
			Weight: c.SeverityC.Weight(),
		})
	}
	return out
}
