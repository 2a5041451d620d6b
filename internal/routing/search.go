package routing

import (
	"context"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/platform/obs"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

type Options struct {
	FlightsPerDay     int
	Days              int
	Aircraft          int
	Hubs              []string
	TurnaroundMinutes int

	// MaxProduct caps Days*FlightsPerDay before any enumeration starts.
	MaxProduct      int
	MaxCombinations int
	// MaxRoutes caps the candidate routes and the chains of any one day.
	MaxRoutes int
	Workers   int
	Timeout   time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxProduct:      20,
		MaxCombinations: 100000,
		MaxRoutes:       50000,
		Workers:         runtime.GOMAXPROCS(0),
		Timeout:         30 * time.Second,
	}
}

func (o Options) validate() error {
	switch {
	case o.FlightsPerDay < 1:
		return fmt.Errorf("flights per day %d < 1: %w", o.FlightsPerDay, domain.ErrInvalidInput)
	case o.Days < 1:
		return fmt.Errorf("cycle days %d < 1: %w", o.Days, domain.ErrInvalidInput)
	case o.Aircraft < 1:
		return fmt.Errorf("aircraft %d < 1: %w", o.Aircraft, domain.ErrInvalidInput)
	case len(o.Hubs) == 0:
		return fmt.Errorf("no hub stations: %w", domain.ErrInvalidInput)
	case o.TurnaroundMinutes < 0:
		return fmt.Errorf("turnaround %d < 0: %w", o.TurnaroundMinutes, domain.ErrInvalidInput)
	case o.MaxProduct > 0 && o.Days*o.FlightsPerDay > o.MaxProduct:
		return fmt.Errorf("days*fpd = %d exceeds %d: %w", o.Days*o.FlightsPerDay, o.MaxProduct, domain.ErrBudgetExceeded)
	}
	return nil
}

// Route is one candidate multi-day rotation: a chain of flights per day,
// each day starting where the previous one ended, the last day ending
// where the first began.
type Route struct {
	Combo      []int
	Days       [][]domain.Flight
	HubTouches int
}

func (r Route) key() string {
	var b strings.Builder
	for d, day := range r.Days {
		if d > 0 {
			b.WriteByte('|')
		}
		for i, f := range day {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(f.Number))
		}
	}
	return b.String()
}

// SearchResult is the outcome of a combination search.
type SearchResult struct {
	Combinations int
	// Rejected counts combinations that produced no route.
	Rejected int
	Routes   []Route
}

// Search enumerates the per-day flight-count combinations and keeps
// every resulting route that closes its cycle and ends at least one day
// at a hub. Combinations are checked in parallel; routes come back in
// combination order with duplicates removed.
func Search(ctx context.Context, flights []domain.Flight, opts Options) (_ *SearchResult, err error) {
	defer obs.Time(ctx, "routing.Search")(&err)

	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("routing search: %w", err)
	}
	if len(flights) == 0 {
		return nil, fmt.Errorf("routing search: no flights: %w", domain.ErrInvalidInput)
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	combos, err := Combinations(opts.FlightsPerDay, opts.Days, opts.MaxCombinations)
	if err != nil {
		return nil, fmt.Errorf("routing search: %w", err)
	}

	// Day schedules depend only on the digit, so they are built once and
	// shared read-only by the workers.
	chains := make(map[int][][]domain.Flight, opts.FlightsPerDay)
	for k := 1; k <= opts.FlightsPerDay; k++ {
		c, _, err := ScheduleFor(flights, k, opts.TurnaroundMinutes, opts.MaxRoutes)
		if err != nil {
			return nil, fmt.Errorf("routing search: %w", err)
		}
		chains[k] = c
	}

	hubs := make(map[string]bool, len(opts.Hubs))
	for _, h := range opts.Hubs {
		hubs[h] = true
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var found atomic.Int64
	results := make([][]Route, len(combos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, combo := range combos {
		g.Go(func() error {
			routes, err := routesFor(gctx, combo, chains, hubs, &found, opts.MaxRoutes)
			if err != nil {
				return err
			}
			results[i] = routes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("routing search: %w", err)
	}

	res := &SearchResult{Combinations: len(combos)}
	seen := make(map[string]struct{})
	for _, routes := range results {
		if len(routes) == 0 {
			res.Rejected++
		}
		for _, r := range routes {
			k := r.key()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			res.Routes = append(res.Routes, r)
		}
	}
	return res, nil
}

func budgetErr(ctx context.Context) error {
	return fmt.Errorf("%w: %w", domain.ErrBudgetExceeded, ctx.Err())
}

// routesFor expands one combination into its valid routes by walking the
// day chains depth first and pruning on station continuity.
func routesFor(ctx context.Context, combo []int, chains map[int][][]domain.Flight, hubs map[string]bool, found *atomic.Int64, limit int) ([]Route, error) {
	days := make([][]domain.Flight, len(combo))
	var out []Route

	var walk func(d int) error
	walk = func(d int) error {
		if d == len(combo) {
			first, last := days[0], days[d-1]
			if last[len(last)-1].Destination != first[0].Origin {
				return nil
			}
			touches := 0
			for _, day := range days {
				if hubs[day[len(day)-1].Destination] {
					touches++
				}
			}
			if touches == 0 {
				return nil
			}
			if n := found.Add(1); limit > 0 && n > int64(limit) {
				return fmt.Errorf("more than %d candidate routes: %w", limit, domain.ErrBudgetExceeded)
			}
			out = append(out, Route{
				Combo:      combo,
				Days:       append([][]domain.Flight(nil), days...),
				HubTouches: touches,
			})
			return nil
		}

		if ctx.Err() != nil {
			return budgetErr(ctx)
		}
		for _, c := range chains[combo[d]] {
			if d > 0 {
				prev := days[d-1]
				if prev[len(prev)-1].Destination != c[0].Origin {
					continue
				}
			}
			days[d] = c
			if err := walk(d + 1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(0); err != nil {
		return nil, err
	}
	return out, nil
}
