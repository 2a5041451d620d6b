package services

import (
	"context"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/platform/obs"
	"fleet-planning-service/internal/ports"
	"fmt"
	"sync"
)

type pairwiseResult struct {
	origin  string
	results map[string]ports.DistanceResult
	err     error
}

// BuildDistanceTable fetches the distance of every ordered station pair.
// Each origin is fetched on its own goroutine, at most five at a time.
func BuildDistanceTable(
	ctx context.Context,
	stations []string,
	provider ports.DistanceProvider,
) (_ domain.DistanceTable, err error) {
	defer obs.Time(ctx, "services.BuildDistanceTable")(&err)

	table := make(domain.DistanceTable, len(stations)*len(stations))
	if len(stations) < 2 {
		return table, nil
	}

	// Prefer a single origin->many lookup when supported.
	mp, hasMatrix := provider.(ports.DistanceMatrixProvider)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, 5)
	resultsCh := make(chan pairwiseResult, len(stations))
	var wg sync.WaitGroup

	for _, origin := range stations {
		targets := make([]string, 0, len(stations)-1)
		for _, t := range stations {
			if t != origin {
				targets = append(targets, t)
			}
		}

		wg.Add(1)
		go func(orig string) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			var res map[string]ports.DistanceResult
			if hasMatrix {
				var e error
				res, e = mp.GetDistances(ctx, orig, targets)
				if e != nil {
					resultsCh <- pairwiseResult{origin: orig, err: fmt.Errorf("build distance table: get distances from %q: %w", orig, e)}
					cancel()
					return
				}
			} else {
				res = make(map[string]ports.DistanceResult, len(targets))
				for _, t := range targets {
					r, e := provider.GetDistance(ctx, orig, t)
					if e != nil {
						resultsCh <- pairwiseResult{origin: orig, err: fmt.Errorf("build distance table: get distance from %q to %q: %w", orig, t, e)}
						cancel()
						return
					}
					res[t] = r
				}
			}

			resultsCh <- pairwiseResult{origin: orig, results: res}
		}(origin)
	}

	wg.Wait()
	close(resultsCh)

	var pairwiseErr error
	for res := range resultsCh {
		if res.err != nil {
			if pairwiseErr == nil {
				pairwiseErr = res.err
			}
			continue
		}
		for _, t := range stations {
			if t == res.origin {
				continue
			}
			r, ok := res.results[t]
			if !ok {
				return nil, fmt.Errorf("build distance table: missing distance from %q to %q: %w", res.origin, t, domain.ErrInvalidInput)
			}
			table[domain.Market{From: res.origin, To: t}] = r.Miles
		}
	}
	if pairwiseErr != nil {
		return nil, pairwiseErr
	}

	return table, nil
}
