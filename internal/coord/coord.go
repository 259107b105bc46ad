package coord

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// DefaultScale is the fixed-point factor used for latitude/longitude on the wire
const DefaultScale = 100

// Valid coordinate ranges in degrees
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// gridTolerance absorbs float error in scaled grid values (0.29*100 is
// 28.999999999999996)
const gridTolerance = 1e-6

// Encode converts a component in degrees to a fixed-point integer by
// multiplying by scale and truncating toward zero. Products within
// gridTolerance of a whole number are taken as that number, so a value
// already on the 1/scale grid keeps its last digit.
// A non-positive scale falls back to DefaultScale. NaN encodes as 0 and
// results outside the int32 range saturate.
func Encode(component float64, scale int) int32 {
	if scale <= 0 {
		scale = DefaultScale
	}
	if math.IsNaN(component) {
		return 0
	}

	scaled := component * float64(scale)
	if r := math.Round(scaled); math.Abs(scaled-r) < gridTolerance {
		scaled = r
	}
	scaled = math.Trunc(scaled)
	switch {
	case scaled >= math.MaxInt32:
		return math.MaxInt32
	case scaled <= math.MinInt32:
		return math.MinInt32
	}
	return int32(scaled)
}

// Decode converts a fixed-point integer back to degrees.
func Decode(n int32, scale int) float64 {
	if scale <= 0 {
		scale = DefaultScale
	}
	return float64(n) / float64(scale)
}

// Coordinate is a geographic position in decimal degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Encoded is the wire form of a Coordinate
type Encoded struct {
	Latitude  int32 `json:"latitude"`
	Longitude int32 `json:"longitude"`
}

// EncodeCoordinate encodes both components with the same scale.
func EncodeCoordinate(c Coordinate, scale int) Encoded {
	return Encoded{
		Latitude:  Encode(c.Latitude, scale),
		Longitude: Encode(c.Longitude, scale),
	}
}

// Decode converts the encoded pair back to degrees.
func (e Encoded) Decode(scale int) Coordinate {
	return Coordinate{
		Latitude:  Decode(e.Latitude, scale),
		Longitude: Decode(e.Longitude, scale),
	}
}

// Valid reports whether both components are finite and inside their ranges.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) ||
		math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= MinLatitude && c.Latitude <= MaxLatitude &&
		c.Longitude >= MinLongitude && c.Longitude <= MaxLongitude
}

// Point returns the coordinate as an orb point (orb uses [lon, lat] order).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// FromPoint builds a Coordinate from an orb point.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Latitude: p.Lat(), Longitude: p.Lon()}
}

// DistanceTo returns the great-circle distance to other in meters.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	return geo.Distance(c.Point(), other.Point())
}

// String formats the coordinate with two decimals, the precision the
// watch receives.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.2f, %.2f", c.Latitude, c.Longitude)
}
