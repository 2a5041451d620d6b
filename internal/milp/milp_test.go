package milp

import (
	"context"
	"errors"
	"fleet-planning-service/internal/domain"
	"math"
	"testing"
)

func mustSolve(t *testing.T, m *Model, opts Options) *Solution {
	t.Helper()
	sol, err := m.Solve(context.Background(), opts)
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	return sol
}

func near(a, b float64) bool { return math.Abs(a-b) <= 1e-6 }

func knapsack() (*Model, Var, Var) {
	// LP optimum is (3.75, 2.25); the integer optimum is (5, 0).
	m := NewModel("ip")
	x := m.AddVar("x", Integer, 0, math.Inf(1))
	y := m.AddVar("y", Integer, 0, math.Inf(1))

	m.AddConstraint("c1", Sum(x, y), LE, 6)
	c2 := Expr{}
	c2.Add(x, 9)
	c2.Add(y, 5)
	m.AddConstraint("c2", c2, LE, 45)

	obj := Expr{}
	obj.Add(x, 8)
	obj.Add(y, 5)
	m.SetObjective(Maximize, obj)
	return m, x, y
}

func TestSolveContinuousLP(t *testing.T) {
	m := NewModel("lp")
	x := m.AddVar("x", Continuous, 0, math.Inf(1))
	y := m.AddVar("y", Continuous, 0, math.Inf(1))

	m.AddConstraint("c1", Sum(x, y), LE, 4)
	c2 := Expr{}
	c2.Add(x, 1)
	c2.Add(y, 3)
	m.AddConstraint("c2", c2, LE, 6)
	m.AddConstraint("c3", Sum(x), LE, 3)

	obj := Expr{}
	obj.Add(x, 3)
	obj.Add(y, 2)
	m.SetObjective(Maximize, obj)

	sol := mustSolve(t, m, Options{})
	if sol.Status != StatusOptimal {
		t.Fatalf("Status = %v, want optimal", sol.Status)
	}
	if !near(sol.Objective, 11) {
		t.Fatalf("Objective = %v, want 11", sol.Objective)
	}
	if !near(sol.Value(x), 3) || !near(sol.Value(y), 1) {
		t.Fatalf("(x, y) = (%v, %v), want (3, 1)", sol.Value(x), sol.Value(y))
	}
}

func TestSolveIntegerProgramBranches(t *testing.T) {
	m, x, y := knapsack()

	sol := mustSolve(t, m, Options{})
	if sol.Status != StatusOptimal {
		t.Fatalf("Status = %v, want optimal", sol.Status)
	}
	if !near(sol.Objective, 40) {
		t.Fatalf("Objective = %v, want 40", sol.Objective)
	}
	if sol.Value(x) != 5 || sol.Value(y) != 0 {
		t.Fatalf("(x, y) = (%v, %v), want (5, 0)", sol.Value(x), sol.Value(y))
	}
	if sol.Nodes <= 1 {
		t.Fatalf("Nodes = %d, want branching", sol.Nodes)
	}
}

func TestSolveNodeLimit(t *testing.T) {
	m, _, _ := knapsack()

	sol := mustSolve(t, m, Options{MaxNodes: 1})
	if sol.Status != StatusNodeLimit {
		t.Fatalf("Status = %v, want node_limit", sol.Status)
	}
}

func TestSolveInfeasible(t *testing.T) {
	m := NewModel("infeasible")
	x := m.AddVar("x", Continuous, 0, math.Inf(1))
	m.AddConstraint("lo", Sum(x), GE, 3)
	m.AddConstraint("hi", Sum(x), LE, 2)
	m.SetObjective(Minimize, Sum(x))

	sol := mustSolve(t, m, Options{})
	if sol.Status != StatusInfeasible || sol.HasIncumbent {
		t.Fatalf("Status = %v, HasIncumbent = %v, want infeasible without incumbent", sol.Status, sol.HasIncumbent)
	}
}

func TestSolveUnbounded(t *testing.T) {
	m := NewModel("unbounded")
	x := m.AddVar("x", Continuous, 0, math.Inf(1))
	y := m.AddVar("y", Continuous, 0, math.Inf(1))
	c := Expr{}
	c.Add(x, 1)
	c.Add(y, -1)
	m.AddConstraint("c", c, LE, 1)
	m.SetObjective(Maximize, Sum(x, y))

	if sol := mustSolve(t, m, Options{}); sol.Status != StatusUnbounded {
		t.Fatalf("Status = %v, want unbounded", sol.Status)
	}
}

func TestSolveWithoutRows(t *testing.T) {
	m := NewModel("bare")
	x := m.AddVar("x", Continuous, 1, math.Inf(1))
	obj := Expr{}
	obj.Add(x, 2)
	m.SetObjective(Minimize, obj)

	sol := mustSolve(t, m, Options{})
	if sol.Status != StatusOptimal || !near(sol.Value(x), 1) {
		t.Fatalf("Status = %v, x = %v, want optimal at 1", sol.Status, sol.Value(x))
	}

	m.SetObjective(Maximize, obj)
	if sol := mustSolve(t, m, Options{}); sol.Status != StatusUnbounded {
		t.Fatalf("Status = %v, want unbounded", sol.Status)
	}
}

func TestSolveRedundantEqualities(t *testing.T) {
	m := NewModel("redundant")
	x := m.AddVar("x", Continuous, 0, math.Inf(1))
	y := m.AddVar("y", Continuous, 0, math.Inf(1))

	m.AddConstraint("e1", Sum(x, y), EQ, 2)
	e2 := Expr{}
	e2.Add(x, 2)
	e2.Add(y, 2)
	m.AddConstraint("e2", e2, EQ, 4)

	obj := Expr{}
	obj.Add(x, 1)
	obj.Add(y, -1)
	obj.AddConstant(10)
	m.SetObjective(Minimize, obj)

	sol := mustSolve(t, m, Options{})
	if sol.Status != StatusOptimal {
		t.Fatalf("Status = %v, want optimal", sol.Status)
	}
	if !near(sol.Objective, 8) || !near(sol.Value(x), 0) || !near(sol.Value(y), 2) {
		t.Fatalf("objective %v at (%v, %v), want 8 at (0, 2)", sol.Objective, sol.Value(x), sol.Value(y))
	}
}

func TestSolveShiftedBounds(t *testing.T) {
	m := NewModel("bounds")
	x := m.AddVar("x", Integer, -5, 5)
	y := m.AddVar("y", Binary, 0, 1)
	m.AddConstraint("link", Sum(x, y), GE, -4.5)
	m.SetObjective(Minimize, Sum(x, y))

	sol := mustSolve(t, m, Options{})
	if sol.Status != StatusOptimal || !near(sol.Objective, -4) {
		t.Fatalf("Status = %v, Objective = %v, want optimal -4", sol.Status, sol.Objective)
	}
	if got := sol.Value(x) + sol.Value(y); got != -4 {
		t.Fatalf("x + y = %v, want -4", got)
	}
}

func TestSolveFixedVariables(t *testing.T) {
	m := NewModel("fixed")
	x := m.AddVar("x", Binary, 0, 1)
	y := m.AddVar("y", Binary, 0, 1)
	m.AddConstraint("pick", Sum(x, y), EQ, 1)
	obj := Expr{}
	obj.Add(x, 1)
	obj.Add(y, 5)
	m.SetObjective(Minimize, obj)

	m.SetBounds(x, 0, 0)
	sol := mustSolve(t, m, Options{})
	if sol.Status != StatusOptimal || sol.Value(y) != 1 || !near(sol.Objective, 5) {
		t.Fatalf("Status = %v, y = %v, Objective = %v, want optimal with y = 1 at 5", sol.Status, sol.Value(y), sol.Objective)
	}

	m.SetBounds(y, 0, 0)
	if sol := mustSolve(t, m, Options{}); sol.Status != StatusInfeasible {
		t.Fatalf("Status = %v, want infeasible", sol.Status)
	}
}

func TestSolveCancelledContext(t *testing.T) {
	m := NewModel("cancelled")
	x := m.AddVar("x", Continuous, 0, 1)
	m.SetObjective(Maximize, Sum(x))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sol, err := m.Solve(ctx, Options{})
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if sol.Status != StatusTimeLimit {
		t.Fatalf("Status = %v, want time_limit", sol.Status)
	}
}

func TestSolveRejectsUnboundedBelow(t *testing.T) {
	m := NewModel("invalid")
	m.AddVar("x", Continuous, math.Inf(-1), 0)

	if _, err := m.Solve(context.Background(), Options{}); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("Solve() error = %v, want ErrInvalidModel", err)
	}
}

func TestBranchVarPrefersBinariesThenBoundedIntegers(t *testing.T) {
	m := NewModel("order")
	free := m.AddVar("free", Integer, 0, math.Inf(1))
	bounded := m.AddVar("bounded", Integer, 0, 9)
	flag := m.AddVar("flag", Binary, 0, 1)
	m.AddVar("c", Continuous, 0, 1)

	x := []float64{2.5, 3.4, 0.9, 0.5}
	if got := m.branchVar(x, 1e-6); got != int(flag) {
		t.Fatalf("branchVar = %d, want binary column %d", got, flag)
	}
	x[flag] = 1
	if got := m.branchVar(x, 1e-6); got != int(bounded) {
		t.Fatalf("branchVar = %d, want bounded column %d", got, bounded)
	}
	x[bounded] = 3
	if got := m.branchVar(x, 1e-6); got != int(free) {
		t.Fatalf("branchVar = %d, want unbounded column %d", got, free)
	}
	x[free] = 2
	if got := m.branchVar(x, 1e-6); got != -1 {
		t.Fatalf("branchVar = %d, want -1 once integral", got)
	}
}

func TestAddConstraintMergesTerms(t *testing.T) {
	m := NewModel("merge")
	x := m.AddVar("x", Continuous, 0, 1)
	y := m.AddVar("y", Continuous, 0, 1)

	e := Expr{}
	e.Add(x, 1)
	e.Add(y, 2)
	e.Add(x, 3)
	e.Add(y, -2)
	e.AddConstant(4)
	m.AddConstraint("c", e, LE, 10)

	c, ok := m.ConstraintByName("c")
	if !ok {
		t.Fatal("constraint c not found")
	}
	if len(c.Terms) != 1 || c.Coef(x) != 4 || c.Coef(y) != 0 || c.RHS != 6 {
		t.Fatalf("constraint = %+v, want 4x <= 6", c)
	}
}

func TestStatusErr(t *testing.T) {
	if err := StatusOptimal.Err(); err != nil {
		t.Fatalf("optimal Err() = %v, want nil", err)
	}
	cases := []struct {
		status Status
		want   error
	}{
		{StatusInfeasible, domain.ErrInfeasible},
		{StatusUnbounded, domain.ErrUnbounded},
		{StatusNodeLimit, domain.ErrBudgetExceeded},
		{StatusTimeLimit, domain.ErrBudgetExceeded},
		{StatusError, domain.ErrSolver},
	}
	for _, c := range cases {
		if err := c.status.Err(); !errors.Is(err, c.want) {
			t.Fatalf("%v.Err() = %v, want %v", c.status, err, c.want)
		}
	}
}

func TestBinaryVarsAreClamped(t *testing.T) {
	m := NewModel("clamp")
	b := m.AddVar("b", Binary, -3, 7)

	if lb, ub := m.Bounds(b); lb != 0 || ub != 1 {
		t.Fatalf("Bounds = (%v, %v), want (0, 1)", lb, ub)
	}
	if m.VarName(b) != "b" || m.VarKind(b) != Binary {
		t.Fatalf("VarName = %q, VarKind = %v", m.VarName(b), m.VarKind(b))
	}

	m.SetBounds(b, 1, 1)
	if lb, ub := m.Bounds(b); lb != 1 || ub != 1 {
		t.Fatalf("Bounds = (%v, %v), want (1, 1)", lb, ub)
	}
}
