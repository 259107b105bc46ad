package coord

import (
	"math"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name      string
		component float64
		scale     int
		want      int32
	}{
		{"positive latitude", 65.4321, 100, 6543},
		{"negative longitude", -147.8, 100, -14780},
		{"negative truncates toward zero", -0.006, 100, 0},
		{"positive truncates toward zero", 0.009, 100, 0},
		{"whole degrees", 65, 100, 6500},
		{"resolved latitude", 64.84, 100, 6484},
		{"resolved longitude", -147.72, 100, -14772},
		{"grid value below float product", 0.29, 100, 29},
		{"negative grid value", -147.29, 100, -14729},
		{"grid value 0.57", 0.57, 100, 57},
		{"just below grid still truncates", 0.2899, 100, 28},
		{"zero scale uses default", 12.345, 0, 1234},
		{"custom scale", 12.345, 10, 123},
		{"NaN", math.NaN(), 100, 0},
		{"saturates high", 1e12, 100, math.MaxInt32},
		{"saturates low", -1e12, 100, math.MinInt32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.component, tt.scale)
			if got != tt.want {
				t.Errorf("Encode(%v, %d) = %d, expected %d", tt.component, tt.scale, got, tt.want)
			}
		})
	}
}

// TestDecodeWithinPrecision sweeps the latitude range and checks that a
// round trip never drifts more than 1/scale.
func TestDecodeWithinPrecision(t *testing.T) {
	const tolerance = 1.0 / DefaultScale

	for x := -90.0; x <= 90.0; x += 0.0137 {
		got := Decode(Encode(x, DefaultScale), DefaultScale)
		if math.Abs(got-x) > tolerance {
			t.Fatalf("Decode(Encode(%v)) = %v, drift %v exceeds %v", x, got, math.Abs(got-x), tolerance)
		}
	}

	for _, x := range []float64{-90, 90, 0, -0.001, 0.29, -89.999} {
		got := Decode(Encode(x, DefaultScale), DefaultScale)
		if math.Abs(got-x) > tolerance {
			t.Errorf("Decode(Encode(%v)) = %v, drift exceeds %v", x, got, tolerance)
		}
	}
}

// TestEncodeGridValues checks every hundredth of a degree in the latitude
// range, built the way a stepped slider stores it.
func TestEncodeGridValues(t *testing.T) {
	for q := -9000; q <= 9000; q++ {
		x := float64(q) / DefaultScale
		if got := Encode(x, DefaultScale); got != int32(q) {
			t.Fatalf("Encode(%v) = %d, expected %d", x, got, q)
		}
	}
}

func TestEncodeCoordinate(t *testing.T) {
	c := Coordinate{Latitude: 64.84, Longitude: -147.72}

	enc := EncodeCoordinate(c, DefaultScale)
	if enc.Latitude != 6484 {
		t.Errorf("Expected latitude 6484, got %d", enc.Latitude)
	}
	if enc.Longitude != -14772 {
		t.Errorf("Expected longitude -14772, got %d", enc.Longitude)
	}

	back := enc.Decode(DefaultScale)
	if math.Abs(back.Latitude-64.84) > 0.01 || math.Abs(back.Longitude+147.72) > 0.01 {
		t.Errorf("Expected decoded coordinate near %v, got %v", c, back)
	}
}

func TestCoordinateValid(t *testing.T) {
	tests := []struct {
		name  string
		coord Coordinate
		want  bool
	}{
		{"Fairbanks", Coordinate{64.84, -147.72}, true},
		{"poles and antimeridian", Coordinate{-90, 180}, true},
		{"latitude too high", Coordinate{90.5, 0}, false},
		{"longitude too low", Coordinate{0, -180.1}, false},
		{"NaN", Coordinate{math.NaN(), 0}, false},
		{"Inf", Coordinate{0, math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.coord.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestPointRoundTrip(t *testing.T) {
	c := Coordinate{Latitude: 64.84, Longitude: -147.72}

	p := c.Point()
	if p[0] != -147.72 || p[1] != 64.84 {
		t.Errorf("Expected [lon, lat] ordering, got %v", p)
	}
	if FromPoint(p) != c {
		t.Errorf("Expected %v, got %v", c, FromPoint(p))
	}
}

func TestDistanceTo(t *testing.T) {
	a := Coordinate{Latitude: 0, Longitude: 0}
	b := Coordinate{Latitude: 0, Longitude: 1}

	// One degree of longitude at the equator is roughly 111 km.
	d := a.DistanceTo(b)
	if d < 110000 || d > 112500 {
		t.Errorf("Expected ~111km, got %.0fm", d)
	}

	if a.DistanceTo(a) != 0 {
		t.Errorf("Expected zero distance to self, got %v", a.DistanceTo(a))
	}
}

func TestCoordinateString(t *testing.T) {
	c := Coordinate{Latitude: 64.8412, Longitude: -147.7234}
	if got := c.String(); got != "64.84, -147.72" {
		t.Errorf("Expected '64.84, -147.72', got '%s'", got)
	}
}
