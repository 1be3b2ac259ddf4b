// Package viz maps filtered and aggregated crash data into the three shapes
// the rendering surface consumes: point features, weighted density samples
// and per-area choropleth buckets.
package viz

import "github.com/openroads/crashmap/internal/model"

// severityColors is the fixed four-class palette for the point layer.
var severityColors = map[model.Severity]string{
	model.SeverityPDO:     "#2b83ba",
	model.SeverityMinor:   "#ffffbf",
	model.SeveritySerious: "#fdae61",
	model.SeverityFatal:   "#d7191c",
}

// SeverityColor returns the marker color for a severity class. Unknown
// severities render as PDO.
func SeverityColor(s model.Severity) string {
	if c, ok := severityColors[s]; ok {
		return c
	}
	return severityColors[model.SeverityPDO]
}

// NoDataColor is the distinguished fill for areas with zero crashes. It is
// deliberately not the bottom of the ramp: "no data" must read differently
// from "few crashes".
const NoDataColor = "#d9d9d9"

// choroplethRamp is a 44-step yellow-to-dark-red perceptual ramp. The step
// count keeps visual differentiation under the heavily skewed count
// distribution, where a handful of urban councils dominate.
var choroplethRamp = []string{
	"#ffffcc", "#fffec4", "#fffcbc", "#fffab4", "#fff8ac",
	"#fff5a4", "#fff29c", "#ffee94", "#ffe98d", "#ffe485",
	"#ffde7e", "#ffd877", "#ffd170", "#ffca6a", "#ffc263",
	"#ffba5d", "#ffb157", "#ffa852", "#ff9f4c", "#fd9547",
	"#fb8b42", "#f8813d", "#f57739", "#f16d34", "#ed6330",
	"#e9592c", "#e45028", "#df4724", "#d93e21", "#d3361d",
	"#cd2e1a", "#c62717", "#bf2014", "#b81a11", "#b0140f",
	"#a80f0c", "#a00b0a", "#970707", "#8e0506", "#850304",
	"#7c0203", "#720102", "#680001", "#5e0000",
}

// RampColor maps an intensity in [0,1] to a ramp color. Intensities outside
// the range clamp to the ends.
func RampColor(intensity float64) string {
	if intensity <= 0 {
		return choroplethRamp[0]
	}
	if intensity >= 1 {
		return choroplethRamp[len(choroplethRamp)-1]
	}
	idx := int(intensity * float64(len(choroplethRamp)))
	if idx >= len(choroplethRamp) {
		idx = len(choroplethRamp) - 1
	}
	return choroplethRamp[idx]
}
