package itinerary

import (
	"fleet-planning-service/internal/domain"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSpillTargets(t *testing.T) {
	its := []domain.Itinerary{
		{ID: 1, Origin: "A", Destination: "B", Type: domain.NonStop},
		{ID: 2, Origin: "A", Destination: "B", Type: domain.SingleStop},
		{ID: 3, Origin: "A", Destination: "B", Type: domain.SingleStop},
		{ID: 4, Origin: "B", Destination: "A", Type: domain.NonStop},
	}

	targets := SpillTargets(its)
	want := map[int][]int{1: {2, 3, 5}, 2: {3, 5}, 3: {2, 5}, 4: {5}}
	for id, w := range want {
		if !reflect.DeepEqual(targets[id], w) {
			t.Fatalf("targets[%d] = %v, want %v", id, targets[id], w)
		}
	}

	keys := SpillKeys(its, targets)
	if len(keys) != 8 {
		t.Fatalf("len(keys) = %d, want 8", len(keys))
	}
	if keys[0] != (SpillKey{P: 1, Q: 2}) || keys[7] != (SpillKey{P: 4, Q: 5}) {
		t.Fatalf("keys = %v, want [1,2] first and [4,5] last", keys)
	}
}

func TestSpillTargetsProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	markets := []string{"A", "B", "C"}

	properties.Property("dummy always present, self never", prop.ForAll(
		func(codes []int) bool {
			its := make([]domain.Itinerary, 0, len(codes))
			for i, c := range codes {
				its = append(its, domain.Itinerary{
					ID:          i + 1,
					Origin:      markets[c%3],
					Destination: markets[(c/3)%3],
					Type:        domain.ItineraryType(1 + c%4),
				})
			}
			targets := SpillTargets(its)
			dummy := len(its) + 1
			for _, it := range its {
				list := targets[it.ID]
				if len(list) == 0 || list[len(list)-1] != dummy {
					return false
				}
				for _, q := range list {
					if q == it.ID {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}

func TestDemandCorrections(t *testing.T) {
	flights, err := domain.NewFlightIndex([]domain.Flight{
		{Number: 10, Origin: "A", Destination: "B", Optional: true},
		{Number: 20, Origin: "A", Destination: "B"},
		{Number: 30, Origin: "B", Destination: "A"},
	})
	if err != nil {
		t.Fatal(err)
	}

	its := []domain.Itinerary{
		{ID: 1, Legs: []int{10}, Demand: 7, Type: domain.NonStop, Optional: true, Origin: "A", Destination: "B"},
		{ID: 2, Legs: []int{20}, Demand: 50, Type: domain.NonStop, Origin: "A", Destination: "B"},
		{ID: 3, Legs: []int{30}, Demand: 40, Type: domain.NonStop, Origin: "B", Destination: "A"},
		{ID: 4, Legs: []int{10}, Demand: 20, Type: domain.SingleStop, Optional: true, Origin: "A", Destination: "B"},
		{ID: 5, Legs: []int{20}, Demand: 30, Type: domain.SingleStop, Origin: "A", Destination: "B"},
	}

	got := DemandCorrections(its, flights, CorrectionRates{IncreasePct: 15, DecreasePct: 5})

	// 1 and 4 share optional flight 10 and never correct each other. The
	// single-stop 4 loses to the better non-stop 2 but gains on its peer 5.
	want := map[CorrectionKey]int{
		{Cancelled: 1, Alternative: 2}: 2,
		{Cancelled: 1, Alternative: 3}: -1,
		{Cancelled: 1, Alternative: 5}: 2,
		{Cancelled: 4, Alternative: 2}: -1,
		{Cancelled: 4, Alternative: 3}: -1,
		{Cancelled: 4, Alternative: 5}: 3,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DemandCorrections = %v, want %v", got, want)
	}
}

func TestRoundAway(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{0.15 * 7, 2},
		{-0.05 * 7, -1},
		{0.15 * 20, 3},
		{0, 0},
	}
	for _, c := range cases {
		if got := roundAway(c.in); got != c.want {
			t.Fatalf("roundAway(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}
