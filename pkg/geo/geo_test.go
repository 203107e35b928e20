package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		p1   Point
		p2   Point
		want float64
	}{
		{
			name: "Same Point",
			p1:   Point{Lat: 0, Lon: 0},
			p2:   Point{Lat: 0, Lon: 0},
			want: 0,
		},
		{
			name: "London to Paris",
			p1:   Point{Lat: 51.5074, Lon: -0.1278},
			p2:   Point{Lat: 48.8566, Lon: 2.3522},
			want: 344000, // Approx 344km
		},
		{
			name: "Equator 1 degree",
			p1:   Point{Lat: 0, Lon: 0},
			p2:   Point{Lat: 0, Lon: 1},
			want: 111319, // Approx 111km
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.p1, tt.p2)
			// Allow 1% margin of error due to float precision/earth radius var
			margin := tt.want * 0.01
			if math.Abs(got-tt.want) > margin && tt.want != 0 {
				t.Errorf("Distance() = %v, want %v (+/- %v)", got, tt.want, margin)
			}
		})
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name string
		p1   Point
		p2   Point
		want float64
	}{
		{
			name: "North",
			p1:   Point{Lat: 10, Lon: 20},
			p2:   Point{Lat: 11, Lon: 20},
			want: 0,
		},
		{
			name: "East",
			p1:   Point{Lat: 10, Lon: 20},
			p2:   Point{Lat: 10, Lon: 21},
			want: 90,
		},
		{
			name: "South",
			p1:   Point{Lat: 10, Lon: 20},
			p2:   Point{Lat: 9, Lon: 20},
			want: 180,
		},
		{
			name: "West",
			p1:   Point{Lat: 10, Lon: 20},
			p2:   Point{Lat: 10, Lon: 19},
			want: 270,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.p1, tt.p2)
			if math.Abs(got-tt.want) > 0.1 {
				t.Errorf("Bearing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGeoHelpers(t *testing.T) {
	tests := []struct {
		angle float64
		want  float64
	}{
		{370, 10},
		{-10, -10},
		{0, 0},
		{360, 0},
	}
	for _, tt := range tests {
		if got := NormalizeAngle(tt.angle); got != tt.want {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.angle, got, tt.want)
		}
	}

	p1 := Point{Lat: 0, Lon: 0}
	p2 := DestinationPoint(p1, 111320, 90)
	if math.Abs(p2.Lat-0) > 0.01 {
		t.Errorf("DestinationPoint Lat = %v, want 0", p2.Lat)
	}
	if math.Abs(p2.Lon-1) > 0.01 {
		t.Errorf("DestinationPoint Lon = %v, want 1", p2.Lon)
	}
}
