// Package geo converts the dataset's native projected coordinates to
// geographic latitude/longitude. The source uses the GDA94 / SA Lambert
// projection (EPSG:3107), a two-standard-parallel Lambert Conformal Conic on
// the GRS80 ellipsoid.
package geo

import (
	"math"
	"strconv"
)

// GRS80 ellipsoid.
const (
	semiMajor = 6378137.0
	invFlat   = 298.257222101
)

// GDA94 / SA Lambert projection parameters.
const (
	stdParallel1 = -28.0 // degrees
	stdParallel2 = -36.0
	latOrigin    = -32.0
	lngOrigin    = 135.0
	falseEasting = 1000000.0
	falseNorth   = 2000000.0
)

// Sanity bounding box for South Australia. A transform result outside this
// window is treated as a malformed record, not an error.
const (
	minLat = -39.0
	maxLat = -25.0
	minLng = 128.0
	maxLng = 142.0
)

const deg = math.Pi / 180

// Derived projection constants, computed once at package init.
var (
	ecc   float64 // first eccentricity
	coneN float64 // cone constant
	coneF float64
	rho0  float64
)

func init() {
	f := 1 / invFlat
	e2 := 2*f - f*f
	ecc = math.Sqrt(e2)

	phi1 := stdParallel1 * deg
	phi2 := stdParallel2 * deg
	phi0 := latOrigin * deg

	m1 := mFunc(phi1)
	m2 := mFunc(phi2)
	t0 := tFunc(phi0)
	t1 := tFunc(phi1)
	t2 := tFunc(phi2)

	coneN = (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	coneF = m1 / (coneN * math.Pow(t1, coneN))
	rho0 = semiMajor * coneF * math.Pow(t0, coneN)
}

func mFunc(phi float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-ecc*ecc*s*s)
}

func tFunc(phi float64) float64 {
	s := ecc * math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-s)/(1+s), ecc/2)
}

// Transform converts a projected easting/northing pair given as numeric
// strings to latitude/longitude degrees. ok is false when either input fails
// to parse as a finite number or the computed position falls outside the
// region's sanity bounding box. Pure function; safe to memoize.
func Transform(xRaw, yRaw string) (lat, lng float64, ok bool) {
	x, err := strconv.ParseFloat(xRaw, 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, 0, false
	}
	y, err := strconv.ParseFloat(yRaw, 64)
	if err != nil || math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, 0, false
	}

	lat, lng = inverse(x, y)
	if lat < minLat || lat > maxLat || lng < minLng || lng > maxLng {
		return 0, 0, false
	}
	return lat, lng, true
}

// inverse is the ellipsoidal LCC inverse (Snyder 1987, eqs. 15-1..15-11).
func inverse(easting, northing float64) (lat, lng float64) {
	dx := easting - falseEasting
	dy := rho0 - (northing - falseNorth)

	rho := math.Hypot(dx, dy)
	if coneN < 0 {
		rho = -rho
		dx = -dx
		dy = -dy
	}

	theta := math.Atan2(dx, dy)
	t := math.Pow(rho/(semiMajor*coneF), 1/coneN)

	// Iterate the conformal latitude series to convergence.
	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 15; i++ {
		s := ecc * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-s)/(1+s), ecc/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}

	lat = phi / deg
	lng = theta/coneN/deg + lngOrigin
	return lat, lng
}
