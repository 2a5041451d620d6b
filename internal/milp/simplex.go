package milp

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	pivotEps    = 1e-9
	costEps     = 1e-9
	feasibleTol = 1e-6
	blandAfter  = 50
	checkEvery  = 64
)

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
	lpIterLimit
	lpCancelled
)

type lpResult struct {
	status lpStatus
	x      []float64
	obj    float64
	iters  int
}

// tableau is a dense simplex tableau backed by a gonum matrix. The last
// column of every row holds the right-hand side. d is the reduced-cost
// row; d[rhs] is minus the current objective.
type tableau struct {
	a     *mat.Dense
	nrow  int
	d     []float64
	basis []int
	ncol  int
}

func newTableau(nrow, ncol int) *tableau {
	t := &tableau{
		nrow:  nrow,
		d:     make([]float64, ncol+1),
		basis: make([]int, nrow),
		ncol:  ncol,
	}
	if nrow > 0 {
		t.a = mat.NewDense(nrow, ncol+1, nil)
	}
	return t
}

func (t *tableau) rhs() int { return t.ncol }

// row aliases the backing storage of row i.
func (t *tableau) row(i int) []float64 { return t.a.RawRowView(i) }

func (t *tableau) pivot(r, s int) {
	pr := t.row(r)
	floats.Scale(1/pr[s], pr)
	pr[s] = 1

	for i := 0; i < t.nrow; i++ {
		if i == r {
			continue
		}
		row := t.row(i)
		if f := row[s]; f != 0 {
			floats.AddScaled(row, -f, pr)
			row[s] = 0
		}
	}

	if f := t.d[s]; f != 0 {
		floats.AddScaled(t.d, -f, pr)
		t.d[s] = 0
	}
	t.basis[r] = s
}

// price rebuilds the reduced-cost row for cost against the current basis.
func (t *tableau) price(cost []float64) {
	copy(t.d, cost)
	for i := 0; i < t.nrow; i++ {
		if cb := cost[t.basis[i]]; cb != 0 {
			floats.AddScaled(t.d, -cb, t.row(i))
		}
	}
}

// entering picks the column to bring into the basis, or -1 at optimality.
// Dantzig's rule takes the most negative reduced cost; Bland's rule takes
// the first negative one.
func (t *tableau) entering(banned []bool, bland bool) int {
	s := -1
	best := -costEps
	for j, dj := range t.d[:t.ncol] {
		if banned[j] || dj >= best {
			continue
		}
		if bland {
			return j
		}
		best, s = dj, j
	}
	return s
}

// leaving runs the ratio test for column s. Ties go to the lowest basic
// column index.
func (t *tableau) leaving(s int) (int, float64) {
	rhs := t.rhs()
	r := -1
	var ratio float64
	for i := 0; i < t.nrow; i++ {
		row := t.row(i)
		if row[s] <= pivotEps {
			continue
		}
		q := row[rhs] / row[s]
		if r < 0 || q < ratio-pivotEps || (math.Abs(q-ratio) <= pivotEps && t.basis[i] < t.basis[r]) {
			r, ratio = i, q
		}
	}
	return r, ratio
}

// optimize runs primal simplex iterations for the priced cost row.
// Columns marked banned never enter the basis. Dantzig pricing is used
// until the objective stalls, then Bland's rule guarantees termination.
func (t *tableau) optimize(ctx context.Context, banned []bool, maxIter int, iters *int) lpStatus {
	stall := 0
	for {
		if *iters >= maxIter {
			return lpIterLimit
		}
		if *iters%checkEvery == 0 && ctx.Err() != nil {
			return lpCancelled
		}

		s := t.entering(banned, stall >= blandAfter)
		if s < 0 {
			return lpOptimal
		}
		r, ratio := t.leaving(s)
		if r < 0 {
			return lpUnbounded
		}

		if ratio <= pivotEps {
			stall++
		} else {
			stall = 0
		}

		t.pivot(r, s)
		*iters++
	}
}

// relaxation is the LP data shared by every branch-and-bound node.
type relaxation struct {
	m       *Model
	cost    []float64 // minimization form
	maxIter int
}

type stdRow struct {
	coef []float64
	op   Op
	rhs  float64
}

// standardize substitutes fixed columns, shifts the rest to a zero lower
// bound and appends one row per finite upper bound. Every returned row
// has a non-negative right-hand side. ok is false when a row with no free
// column is violated.
func (p *relaxation) standardize(lb, ub []float64, col []int, free int) (rows []stdRow, ok bool) {
	rows = make([]stdRow, 0, len(p.m.rows)+free)

	for _, c := range p.m.rows {
		coef := make([]float64, free)
		b := c.RHS
		nonzero := false
		for _, t := range c.Terms {
			b -= t.Coef * lb[t.Var]
			if k := col[t.Var]; k >= 0 {
				coef[k] += t.Coef
				nonzero = nonzero || t.Coef != 0
			}
		}
		if !nonzero {
			if !holds(0, c.Op, b) {
				return nil, false
			}
			continue
		}
		rows = append(rows, stdRow{coef: coef, op: c.Op, rhs: b})
	}
	for j, k := range col {
		if k < 0 || math.IsInf(ub[j], 1) {
			continue
		}
		coef := make([]float64, free)
		coef[k] = 1
		rows = append(rows, stdRow{coef: coef, op: LE, rhs: ub[j] - lb[j]})
	}

	for i := range rows {
		if rows[i].rhs >= 0 {
			continue
		}
		floats.Scale(-1, rows[i].coef)
		rows[i].rhs = -rows[i].rhs
		switch rows[i].op {
		case LE:
			rows[i].op = GE
		case GE:
			rows[i].op = LE
		}
	}
	return rows, true
}

// solve optimizes the LP relaxation under the given column bounds.
func (p *relaxation) solve(ctx context.Context, lb, ub []float64) lpResult {
	n := len(p.m.vars)

	// Columns with lb == ub are substituted out; the rest are shifted so
	// that every free column starts at zero.
	col := make([]int, n)
	varOf := make([]int, 0, n)
	free := 0
	for j := 0; j < n; j++ {
		if ub[j] < lb[j]-feasibleTol {
			return lpResult{status: lpInfeasible}
		}
		if ub[j]-lb[j] <= pivotEps {
			col[j] = -1
			continue
		}
		col[j] = free
		varOf = append(varOf, j)
		free++
	}

	rows, ok := p.standardize(lb, ub, col, free)
	if !ok {
		return lpResult{status: lpInfeasible}
	}

	nSlack, nArt := 0, 0
	for _, r := range rows {
		switch r.op {
		case LE:
			nSlack++
		case GE:
			nSlack++
			nArt++
		case EQ:
			nArt++
		}
	}

	ncol := free + nSlack + nArt
	firstArt := free + nSlack
	t := newTableau(len(rows), ncol)

	slack, art := free, firstArt
	for i, r := range rows {
		line := t.row(i)
		copy(line, r.coef)
		line[ncol] = r.rhs
		switch r.op {
		case LE:
			line[slack] = 1
			t.basis[i] = slack
			slack++
		case GE:
			line[slack] = -1
			slack++
			line[art] = 1
			t.basis[i] = art
			art++
		case EQ:
			line[art] = 1
			t.basis[i] = art
			art++
		}
	}

	banned := make([]bool, ncol)
	iters := 0

	if nArt > 0 {
		phase1 := make([]float64, ncol+1)
		for j := firstArt; j < ncol; j++ {
			phase1[j] = 1
		}
		t.price(phase1)
		switch st := t.optimize(ctx, banned, p.maxIter, &iters); st {
		case lpOptimal:
		case lpUnbounded:
			// Phase one is bounded below by zero; treat as numerical failure.
			return lpResult{status: lpInfeasible, iters: iters}
		default:
			return lpResult{status: st, iters: iters}
		}
		if -t.d[ncol] > feasibleTol {
			return lpResult{status: lpInfeasible, iters: iters}
		}

		// Drive zero-level artificials out of the basis. Rows where no
		// structural entry is nonzero are redundant and keep theirs.
		for i := 0; i < t.nrow; i++ {
			if t.basis[i] < firstArt {
				continue
			}
			line := t.row(i)
			for j := 0; j < firstArt; j++ {
				if math.Abs(line[j]) > pivotEps {
					t.pivot(i, j)
					break
				}
			}
		}
		for j := firstArt; j < ncol; j++ {
			banned[j] = true
		}
	}

	phase2 := make([]float64, ncol+1)
	for j, k := range col {
		if k >= 0 {
			phase2[k] = p.cost[j]
		}
	}
	t.price(phase2)
	if st := t.optimize(ctx, banned, p.maxIter, &iters); st != lpOptimal {
		return lpResult{status: st, iters: iters}
	}

	x := make([]float64, n)
	copy(x, lb)
	for i, b := range t.basis {
		if b >= free {
			continue
		}
		v := t.row(i)[ncol]
		if v < 0 && v > -feasibleTol {
			v = 0
		}
		j := varOf[b]
		x[j] = lb[j] + v
	}

	return lpResult{status: lpOptimal, x: x, obj: floats.Dot(p.cost, x), iters: iters}
}

func holds(lhs float64, op Op, rhs float64) bool {
	switch op {
	case LE:
		return lhs <= rhs+feasibleTol
	case GE:
		return lhs >= rhs-feasibleTol
	default:
		return math.Abs(lhs-rhs) <= feasibleTol
	}
}
