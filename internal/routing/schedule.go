// Package routing searches multi-day aircraft rotations over a one-fleet
// daily schedule and picks which rotations to fly.
package routing

import (
	"fleet-planning-service/internal/domain"
	"fmt"
	"sort"
)

func byDeparture(flights []domain.Flight) []domain.Flight {
	out := append([]domain.Flight(nil), flights...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Departure != out[j].Departure {
			return out[i].Departure < out[j].Departure
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// MaxFlightsPerDay is the greedy count of flights one aircraft could fly
// in departure order when each departure must follow the previous
// arrival by at least the turnaround. Stations are ignored, so the value
// bounds any useful flights-per-day choice from above.
func MaxFlightsPerDay(flights []domain.Flight, turnaround int) int {
	n := 0
	lastArrival := 0
	for _, f := range byDeparture(flights) {
		if n == 0 || f.Departure >= lastArrival+turnaround {
			lastArrival = f.Arrival
			n++
		}
	}
	return n
}

// Connects reports whether an aircraft arriving on in can fly out next.
func Connects(in, out domain.Flight, turnaround int) bool {
	return in.Destination == out.Origin && out.Departure-in.Arrival >= turnaround
}

// DayChains lists every sequence of exactly k distinct flights where each
// flight connects to the next. limit caps the number of chains; zero
// means no cap.
func DayChains(flights []domain.Flight, k, turnaround, limit int) ([][]domain.Flight, error) {
	if k <= 0 {
		return nil, nil
	}
	sorted := byDeparture(flights)
	used := make([]bool, len(sorted))
	chain := make([]domain.Flight, 0, k)

	var out [][]domain.Flight
	var walk func() error
	walk = func() error {
		if len(chain) == k {
			if limit > 0 && len(out) >= limit {
				return fmt.Errorf("day chains of %d flights: more than %d: %w", k, limit, domain.ErrBudgetExceeded)
			}
			out = append(out, append([]domain.Flight(nil), chain...))
			return nil
		}
		for i, f := range sorted {
			if used[i] {
				continue
			}
			if len(chain) > 0 && !Connects(chain[len(chain)-1], f, turnaround) {
				continue
			}
			used[i] = true
			chain = append(chain, f)
			err := walk()
			chain = chain[:len(chain)-1]
			used[i] = false
			if err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(); err != nil {
		return nil, err
	}
	return out, nil
}

// ScheduleFor returns the day chains for k flights, stepping down to
// k-1, k-2, ... 1 when no chain of the requested length exists. used is
// the length actually found, or zero when there are no flights at all.
func ScheduleFor(flights []domain.Flight, k, turnaround, limit int) (chains [][]domain.Flight, used int, err error) {
	for n := k; n >= 1; n-- {
		chains, err = DayChains(flights, n, turnaround, limit)
		if err != nil {
			return nil, 0, err
		}
		if len(chains) > 0 {
			return chains, n, nil
		}
	}
	return nil, 0, nil
}
