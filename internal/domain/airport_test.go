package domain

import (
	"errors"
	"math"
	"testing"
)

func TestGreatCircleMiles(t *testing.T) {
	jfk := Coordinates{Lat: 40.6413, Lon: -73.7781}
	lax := Coordinates{Lat: 33.9416, Lon: -118.4085}

	got := GreatCircleMiles(jfk, lax)
	if math.Abs(got-2469.69) > 0.5 {
		t.Fatalf("JFK-LAX = %.2f, want ~2469.69", got)
	}
	if back := GreatCircleMiles(lax, jfk); math.Abs(back-got) > 1e-9 {
		t.Fatalf("distance not symmetric: %.6f vs %.6f", got, back)
	}
	if d := GreatCircleMiles(jfk, jfk); d != 0 {
		t.Fatalf("self distance = %f, want 0", d)
	}
}

func TestNewDistanceTable(t *testing.T) {
	table := NewDistanceTable([]Airport{
		{Code: "A", Coordinates: Coordinates{Lat: 0, Lon: 0}},
		{Code: "B", Coordinates: Coordinates{Lat: 0, Lon: 1}},
		{Code: "C", Coordinates: Coordinates{Lat: 1, Lon: 0}},
	})

	if len(table) != 6 {
		t.Fatalf("len(table) = %d, want 6", len(table))
	}
	d, ok := table.Lookup("A", "B")
	if !ok || math.Abs(d-69.0976) > 0.01 {
		t.Fatalf("A-B = %.4f (ok=%v), want ~69.0976", d, ok)
	}
	if d, ok := table.Lookup("B", "B"); !ok || d != 0 {
		t.Fatalf("B-B = %f (ok=%v), want 0", d, ok)
	}
	if _, ok := table.Lookup("A", "Z"); ok {
		t.Fatalf("A-Z should be missing")
	}
}

func TestAnnotateFillsDistanceAndDuration(t *testing.T) {
	table := DistanceTable{{From: "A", To: "B"}: 500}
	flights := []Flight{
		{Number: 1, Origin: "A", Destination: "B", Departure: 1380, Arrival: 90},
		{Number: 2, Origin: "B", Destination: "A", Departure: 600, Arrival: 660, Distance: 510},
	}

	out, err := Annotate(flights, table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Distance != 500 || out[0].Duration != 2.5 {
		t.Fatalf("flight 1 = %+v, want distance 500 duration 2.5", out[0])
	}
	if out[1].Distance != 510 || out[1].Duration != 1 {
		t.Fatalf("flight 2 = %+v, want distance 510 duration 1", out[1])
	}
	if flights[0].Distance != 0 {
		t.Fatalf("input flight mutated: %+v", flights[0])
	}

	_, err = Annotate([]Flight{{Number: 3, Origin: "C", Destination: "D"}}, table)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
