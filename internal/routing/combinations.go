package routing

import (
	"fleet-planning-service/internal/domain"
	"fmt"
)

// CountCombinations is fpd^days, or -1 once it passes limit.
func CountCombinations(fpd, days, limit int) int {
	n := 1
	for range days {
		n *= fpd
		if n > limit {
			return -1
		}
	}
	return n
}

// Combinations lists every per-day flight count of a days-long cycle,
// each digit in 1..fpd, in lexicographic order.
func Combinations(fpd, days, limit int) ([][]int, error) {
	if fpd < 1 || days < 1 {
		return nil, fmt.Errorf("combinations: fpd=%d days=%d: %w", fpd, days, domain.ErrInvalidInput)
	}
	total := CountCombinations(fpd, days, limit)
	if total < 0 {
		return nil, fmt.Errorf("combinations: %d^%d exceeds %d: %w", fpd, days, limit, domain.ErrBudgetExceeded)
	}

	out := make([][]int, 0, total)
	combo := make([]int, days)
	for i := range combo {
		combo[i] = 1
	}
	for {
		out = append(out, append([]int(nil), combo...))

		d := days - 1
		for d >= 0 && combo[d] == fpd {
			combo[d] = 1
			d--
		}
		if d < 0 {
			return out, nil
		}
		combo[d]++
	}
}
