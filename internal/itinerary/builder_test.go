package itinerary

import (
	"context"
	"errors"
	"fleet-planning-service/internal/domain"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func symmetric(pairs map[string]float64) domain.DistanceTable {
	t := domain.DistanceTable{}
	for k, d := range pairs {
		ends := strings.Split(k, "-")
		t[domain.Market{From: ends[0], To: ends[1]}] = d
		t[domain.Market{From: ends[1], To: ends[0]}] = d
	}
	return t
}

func fixture() ([]domain.Flight, domain.DistanceTable) {
	flights := []domain.Flight{
		{Number: 1, Origin: "A", Destination: "B", Departure: 480, Arrival: 540},
		{Number: 2, Origin: "B", Destination: "C", Departure: 600, Arrival: 660},
		{Number: 3, Origin: "B", Destination: "A", Departure: 570, Arrival: 630},
		{Number: 4, Origin: "B", Destination: "C", Departure: 840, Arrival: 900},
		{Number: 5, Origin: "C", Destination: "D", Departure: 705, Arrival: 765},
	}
	table := symmetric(map[string]float64{
		"A-B": 100, "B-C": 100, "A-C": 180, "C-D": 100, "B-D": 180, "A-D": 250,
	})
	return flights, table
}

func legs(its []domain.BuiltItinerary) []string {
	out := make([]string, 0, len(its))
	for _, it := range its {
		out = append(out, fmt.Sprint(it.Legs))
	}
	sort.Strings(out)
	return out
}

func TestBuildSingleAndDoubleStops(t *testing.T) {
	flights, table := fixture()

	its, err := Build(context.Background(), flights, table, DefaultOptions())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if got, want := legs(its), []string{"[1 2 5]", "[1 2]", "[2 5]"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("legs = %v, want %v", got, want)
	}

	first := its[0]
	if !reflect.DeepEqual(first.Legs, []int{1, 2}) || first.ID != 1 || first.Type != domain.SingleStop {
		t.Fatalf("its[0] = %+v, want single-stop 1 over [1 2]", first)
	}
	if first.Transit != 60 || first.Total != 180 || first.Distance != 200 {
		t.Fatalf("its[0] transit %d total %d distance %v, want 60, 180, 200", first.Transit, first.Total, first.Distance)
	}
	if first.Origin != "A" || first.Destination != "C" {
		t.Fatalf("its[0] market = %s-%s, want A-C", first.Origin, first.Destination)
	}

	if !reflect.DeepEqual(its[1].Legs, []int{2, 5}) {
		t.Fatalf("its[1].Legs = %v, want [2 5]", its[1].Legs)
	}

	last := its[2]
	if !reflect.DeepEqual(last.Legs, []int{1, 2, 5}) || last.ID != 3 || last.Type != domain.DoubleStop {
		t.Fatalf("its[2] = %+v, want double-stop 3 over [1 2 5]", last)
	}
	if last.Transit != 105 || last.Total != 285 {
		t.Fatalf("its[2] transit %d total %d, want 105 and 285", last.Transit, last.Total)
	}
}

func TestSingleStopCircuityCap(t *testing.T) {
	flights, table := fixture()
	table[domain.Market{From: "A", To: "C"}] = 120

	its, err := SingleStop(flights, table, DefaultOptions())
	if err != nil {
		t.Fatalf("SingleStop() error: %v", err)
	}
	if got := legs(its); !reflect.DeepEqual(got, []string{"[2 5]"}) {
		t.Fatalf("legs = %v, want [[2 5]]", got)
	}
}

func TestSingleStopAcrossMidnight(t *testing.T) {
	flights := []domain.Flight{
		{Number: 6, Origin: "C", Destination: "E", Departure: 1350, Arrival: 1410},
		{Number: 7, Origin: "E", Destination: "F", Departure: 15, Arrival: 75},
	}
	table := symmetric(map[string]float64{"C-E": 100, "E-F": 100, "C-F": 190})

	its, err := SingleStop(flights, table, DefaultOptions())
	if err != nil {
		t.Fatalf("SingleStop() error: %v", err)
	}
	if len(its) != 1 || its[0].Transit != 45 || its[0].Total != 165 {
		t.Fatalf("itineraries = %+v, want one with transit 45 and total 165", its)
	}
}

func TestSingleStopMissingDistance(t *testing.T) {
	flights, _ := fixture()
	if _, err := SingleStop(flights, domain.DistanceTable{}, DefaultOptions()); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestOptionsValidation(t *testing.T) {
	flights, table := fixture()
	bad := []Options{
		{MinConnection: 60, MaxConnection: 30, DistanceRatio: 1.5},
		{MinConnection: 0, MaxConnection: 30, DistanceRatio: 0.5},
	}
	for _, o := range bad {
		if _, err := SingleStop(flights, table, o); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("SingleStop(%+v) error = %v, want ErrInvalidInput", o, err)
		}
	}
}

func randomSchedule(seeds []int) ([]domain.Flight, domain.DistanceTable) {
	airports := []domain.Airport{
		{Code: "A", Coordinates: domain.Coordinates{Lat: 40.6, Lon: -73.8}},
		{Code: "B", Coordinates: domain.Coordinates{Lat: 41.9, Lon: -87.9}},
		{Code: "C", Coordinates: domain.Coordinates{Lat: 33.6, Lon: -84.4}},
		{Code: "D", Coordinates: domain.Coordinates{Lat: 39.8, Lon: -104.7}},
	}
	codes := []string{"A", "B", "C", "D"}

	flights := make([]domain.Flight, 0, len(seeds))
	for i, s := range seeds {
		o := s % 4
		d := (o + 1 + (s/4)%3) % 4
		dep := (s * 53) % domain.MinutesPerDay
		flights = append(flights, domain.Flight{
			Number:      i + 1,
			Origin:      codes[o],
			Destination: codes[d],
			Departure:   dep,
			Arrival:     (dep + 60 + s%120) % domain.MinutesPerDay,
		})
	}
	return flights, domain.NewDistanceTable(airports)
}

func TestSingleStopProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	properties.Property("connections are invariant under a clock shift", prop.ForAll(
		func(seeds []int, offset int) bool {
			flights, table := randomSchedule(seeds)
			shifted := make([]domain.Flight, len(flights))
			for i, f := range flights {
				f.Departure = (f.Departure + offset) % domain.MinutesPerDay
				f.Arrival = (f.Arrival + offset) % domain.MinutesPerDay
				shifted[i] = f
			}

			a, err1 := SingleStop(flights, table, DefaultOptions())
			b, err2 := SingleStop(shifted, table, DefaultOptions())
			if err1 != nil || err2 != nil {
				return false
			}
			return fmt.Sprint(legs(a)) == fmt.Sprint(legs(b))
		},
		gen.SliceOfN(12, gen.IntRange(0, 5000)),
		gen.IntRange(0, domain.MinutesPerDay-1),
	))

	properties.Property("raising the distance ratio never drops an itinerary", prop.ForAll(
		func(seeds []int, r1, r2 float64) bool {
			if r1 > r2 {
				r1, r2 = r2, r1
			}
			flights, table := randomSchedule(seeds)
			lo := DefaultOptions()
			lo.DistanceRatio = r1
			hi := DefaultOptions()
			hi.DistanceRatio = r2

			a, err1 := SingleStop(flights, table, lo)
			b, err2 := SingleStop(flights, table, hi)
			if err1 != nil || err2 != nil {
				return false
			}
			kept := make(map[string]bool)
			for _, k := range legs(b) {
				kept[k] = true
			}
			for _, k := range legs(a) {
				if !kept[k] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(12, gen.IntRange(0, 5000)),
		gen.Float64Range(1, 3),
		gen.Float64Range(1, 3),
	))

	properties.TestingRun(t)
}
