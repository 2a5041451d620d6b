package milp

import (
	"container/heap"
	"context"
	"fleet-planning-service/internal/domain"
	"fmt"
	"math"
	"time"
)

type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusNodeLimit
	StatusTimeLimit
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusNodeLimit:
		return "node_limit"
	case StatusTimeLimit:
		return "time_limit"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Err maps the status onto the domain error taxonomy; nil means optimal.
func (s Status) Err() error {
	switch s {
	case StatusOptimal:
		return nil
	case StatusInfeasible:
		return domain.ErrInfeasible
	case StatusUnbounded:
		return domain.ErrUnbounded
	case StatusNodeLimit, StatusTimeLimit:
		return fmt.Errorf("%w: %s", domain.ErrBudgetExceeded, s)
	}
	return fmt.Errorf("%w: %s", domain.ErrSolver, s)
}

// Options bounds the search. Zero values fall back to DefaultOptions.
type Options struct {
	TimeLimit     time.Duration
	MaxNodes      int
	MaxIterations int
	IntTolerance  float64
}

func DefaultOptions() Options {
	return Options{
		TimeLimit:     60 * time.Second,
		MaxNodes:      200000,
		MaxIterations: 100000,
		IntTolerance:  1e-6,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TimeLimit <= 0 {
		o.TimeLimit = d.TimeLimit
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = d.MaxNodes
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.IntTolerance <= 0 {
		o.IntTolerance = d.IntTolerance
	}
	return o
}

// Solution is the solver outcome. Values are only meaningful when
// HasIncumbent is true, which always holds for StatusOptimal.
type Solution struct {
	Status       Status
	Objective    float64
	Nodes        int
	Iterations   int
	HasIncumbent bool
	values       []float64
}

func (s *Solution) Value(v Var) float64 {
	if s == nil || int(v) >= len(s.values) {
		return 0
	}
	return s.values[v]
}

type bbNode struct {
	lb    []float64
	ub    []float64
	bound float64 // parent relaxation objective, minimization form
	seq   int
}

// nodeQueue orders open nodes by bound, oldest first on ties.
type nodeQueue []*bbNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].bound != q[j].bound {
		return q[i].bound < q[j].bound
	}
	return q[i].seq < q[j].seq
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(*bbNode)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return n
}

// Solve runs branch and bound over the LP relaxation. The returned error
// is non-nil only for malformed models and simplex breakdowns; infeasible,
// unbounded and budget outcomes are reported through Solution.Status.
//
// After each branching the child nearer the relaxed value is solved next
// and its sibling is queued. When a dive ends the open node with the best
// bound is resumed.
func (m *Model) Solve(ctx context.Context, opts Options) (*Solution, error) {
	if err := m.validate(); err != nil {
		return &Solution{Status: StatusError}, err
	}
	opts = opts.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, opts.TimeLimit)
	defer cancel()

	n := len(m.vars)
	cost := make([]float64, n)
	sign := 1.0
	if m.sense == Maximize {
		sign = -1
	}
	for _, t := range m.obj.Terms {
		cost[t.Var] += sign * t.Coef
	}

	rel := &relaxation{m: m, cost: cost, maxIter: opts.MaxIterations}

	root := &bbNode{lb: make([]float64, n), ub: make([]float64, n), bound: math.Inf(-1)}
	for j, v := range m.vars {
		root.lb[j] = v.lb
		root.ub[j] = v.ub
		if v.kind != Continuous {
			root.lb[j] = math.Ceil(v.lb - opts.IntTolerance)
			if !math.IsInf(v.ub, 1) {
				root.ub[j] = math.Floor(v.ub + opts.IntTolerance)
			}
		}
	}

	sol := &Solution{}
	best := math.Inf(1)
	var bestX []float64
	pruned := func(bound float64) bool {
		return bestX != nil && bound >= best-1e-9*math.Max(1, math.Abs(best))
	}

	finish := func(st Status) (*Solution, error) {
		sol.Status = st
		if bestX != nil {
			sol.HasIncumbent = true
			sol.values = m.round(bestX, opts.IntTolerance)
			sol.Objective = sign*best + m.obj.Constant
		}
		return sol, nil
	}

	var open nodeQueue
	seq := 0
	next := root
	for {
		if next == nil {
			if open.Len() == 0 {
				break
			}
			next = heap.Pop(&open).(*bbNode)
			if pruned(next.bound) {
				next = nil
				continue
			}
		}
		node := next
		next = nil

		if ctx.Err() != nil {
			return finish(StatusTimeLimit)
		}
		if sol.Nodes >= opts.MaxNodes {
			return finish(StatusNodeLimit)
		}
		sol.Nodes++

		res := rel.solve(ctx, node.lb, node.ub)
		sol.Iterations += res.iters

		switch res.status {
		case lpInfeasible:
			continue
		case lpUnbounded:
			return finish(StatusUnbounded)
		case lpCancelled:
			return finish(StatusTimeLimit)
		case lpIterLimit:
			sol.Status = StatusError
			return sol, fmt.Errorf("solve %s: node %d: %w", m.name, sol.Nodes, ErrIterationLimit)
		}

		if pruned(res.obj) {
			continue
		}

		j := m.branchVar(res.x, opts.IntTolerance)
		if j < 0 {
			best = res.obj
			bestX = res.x
			continue
		}

		v := res.x[j]
		down := &bbNode{lb: node.lb, ub: append([]float64(nil), node.ub...), bound: res.obj}
		down.ub[j] = math.Floor(v)
		up := &bbNode{lb: append([]float64(nil), node.lb...), ub: node.ub, bound: res.obj}
		up.lb[j] = math.Ceil(v)

		near, far := down, up
		if v-math.Floor(v) >= 0.5 {
			near, far = up, down
		}
		seq++
		far.seq = seq
		heap.Push(&open, far)
		next = near
	}

	if bestX == nil {
		return finish(StatusInfeasible)
	}
	return finish(StatusOptimal)
}

// branchClass ranks integer columns for branching. Binaries come first,
// then integers with a finite upper bound, then unbounded integers, whose
// values mostly follow once the others are fixed.
func (v variable) branchClass() int {
	switch {
	case v.kind == Binary:
		return 0
	case !math.IsInf(v.ub, 1):
		return 1
	}
	return 2
}

// branchVar picks the fractional integer column to branch on: the most
// fractional one in the lowest branch class, lowest index first on ties.
// It returns -1 when all are integral.
func (m *Model) branchVar(x []float64, tol float64) int {
	pick, class, worst := -1, math.MaxInt, tol
	for j, v := range m.vars {
		if v.kind == Continuous {
			continue
		}
		f := x[j] - math.Floor(x[j])
		d := math.Min(f, 1-f)
		if d <= tol {
			continue
		}
		c := v.branchClass()
		if c < class || (c == class && d > worst) {
			pick, class, worst = j, c, d
		}
	}
	return pick
}

func (m *Model) round(x []float64, tol float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		if m.vars[j].kind != Continuous {
			out[j] = math.Round(v)
			continue
		}
		if math.Abs(v) < tol {
			v = 0
		}
		out[j] = v
	}
	return out
}
