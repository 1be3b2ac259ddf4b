package viz

import (
	"math"
	"sort"
)

// Bucket is one area's choropleth entry.
type Bucket struct {
	Area      string  `json:"area"`
	Count     int     `json:"count"`
	Intensity float64 `json:"intensity"`
	Color     string  `json:"color"`
}

// Choropleth buckets per-area counts onto the logarithmic color ramp:
// intensity = log(count+1) / log(max+1), which keeps rural areas
// distinguishable when a few urban councils dominate the counts. Areas listed
// in knownAreas but absent from counts appear with the no-data color. Output
// is sorted by area name for stable rendering and diffing.
func Choropleth(counts map[string]int, knownAreas []string) []Bucket {
	maxCount := 0
	for _, n := range counts {
		if n > maxCount {
			maxCount = n
		}
	}

	seen := make(map[string]struct{}, len(counts)+len(knownAreas))
	buckets := make([]Bucket, 0, len(counts)+len(knownAreas))

	add := func(area string, count int) {
		if _, dup := seen[area]; dup || area == "" {
			return
		}
		seen[area] = struct{}{}
		buckets = append(buckets, bucket(area, count, maxCount))
	}

	for area, n := range counts {
		add(area, n)
	}
	for _, area := range knownAreas {
		add(area, 0)
	}

	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Area < buckets[j].Area })
	return buckets
}

func bucket(area string, count, maxCount int) Bucket {
	b := Bucket{Area: area, Count: count}
	if count == 0 || maxCount == 0 {
		b.Color = NoDataColor
		return b
	}
	b.Intensity = Intensity(count, maxCount)
	b.Color = RampColor(b.Intensity)
	return b
}

// Intensity is the logarithmic scale position of count within [0, max].
func Intensity(count, maxCount int) float64 {
	if count <= 0 || maxCount <= 0 {
		return 0
	}
	return math.Log(float64(count)+1) / math.Log(float64(maxCount)+1)
}
