// Package milp holds mixed-integer linear models and solves them with a
// dense two-phase simplex on gonum matrices, driven by best-bound branch
// and bound with diving.
package milp

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrInvalidModel   = errors.New("milp: invalid model")
	ErrIterationLimit = errors.New("milp: simplex iteration limit")
)

type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

func (k VarKind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Var is a column handle returned by AddVar.
type Var int

type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression with a constant offset.
type Expr struct {
	Terms    []Term
	Constant float64
}

// Add appends coef*v. Zero coefficients are dropped.
func (e *Expr) Add(v Var, coef float64) {
	if coef == 0 {
		return
	}
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
}

func (e *Expr) AddConstant(c float64) { e.Constant += c }

// AddExpr appends scale*o.
func (e *Expr) AddExpr(o Expr, scale float64) {
	for _, t := range o.Terms {
		e.Add(t.Var, t.Coef*scale)
	}
	e.Constant += o.Constant * scale
}

// Sum is the unit-coefficient sum of vars.
func Sum(vars ...Var) Expr {
	var e Expr
	for _, v := range vars {
		e.Add(v, 1)
	}
	return e
}

type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

type Op int

const (
	LE Op = iota
	GE
	EQ
)

func (o Op) String() string {
	switch o {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "=="
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Constraint is a normalized row: sum(Terms) Op RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Op    Op
	RHS   float64
}

// Coef returns the coefficient of v in the row.
func (c Constraint) Coef(v Var) float64 {
	for _, t := range c.Terms {
		if t.Var == v {
			return t.Coef
		}
	}
	return 0
}

type variable struct {
	name string
	kind VarKind
	lb   float64
	ub   float64
}

// Model is a MILP under construction. It is not safe for concurrent use.
type Model struct {
	name  string
	vars  []variable
	rows  []Constraint
	obj   Expr
	sense Sense
}

func NewModel(name string) *Model {
	return &Model{name: name}
}

func (m *Model) Name() string { return m.name }

// AddVar registers a column. Binary variables are clamped to [0, 1].
// Use math.Inf(1) for an unbounded upper side.
func (m *Model) AddVar(name string, kind VarKind, lb, ub float64) Var {
	if kind == Binary {
		lb = math.Max(lb, 0)
		ub = math.Min(ub, 1)
	}
	m.vars = append(m.vars, variable{name: name, kind: kind, lb: lb, ub: ub})
	return Var(len(m.vars) - 1)
}

// SetBounds replaces the bounds of v.
func (m *Model) SetBounds(v Var, lb, ub float64) {
	m.vars[v].lb = lb
	m.vars[v].ub = ub
}

func (m *Model) Bounds(v Var) (float64, float64) {
	return m.vars[v].lb, m.vars[v].ub
}

func (m *Model) VarName(v Var) string { return m.vars[v].name }

func (m *Model) VarKind(v Var) VarKind { return m.vars[v].kind }

func (m *Model) NumVars() int { return len(m.vars) }

func (m *Model) NumConstraints() int { return len(m.rows) }

// AddConstraint adds expr op rhs. The expression constant moves to the
// right-hand side and repeated variables are merged.
func (m *Model) AddConstraint(name string, expr Expr, op Op, rhs float64) {
	m.rows = append(m.rows, Constraint{
		Name:  name,
		Terms: merge(expr.Terms),
		Op:    op,
		RHS:   rhs - expr.Constant,
	})
}

// Constraints returns the rows added so far.
func (m *Model) Constraints() []Constraint { return m.rows }

// ConstraintByName returns the first row with the given name.
func (m *Model) ConstraintByName(name string) (Constraint, bool) {
	for _, c := range m.rows {
		if c.Name == name {
			return c, true
		}
	}
	return Constraint{}, false
}

func (m *Model) SetObjective(sense Sense, expr Expr) {
	m.sense = sense
	m.obj = Expr{Terms: merge(expr.Terms), Constant: expr.Constant}
}

func (m *Model) Objective() (Sense, Expr) { return m.sense, m.obj }

func (m *Model) validate() error {
	for _, v := range m.vars {
		if math.IsInf(v.lb, 0) || math.IsNaN(v.lb) {
			return fmt.Errorf("%w: variable %q needs a finite lower bound", ErrInvalidModel, v.name)
		}
		if math.IsNaN(v.ub) || math.IsInf(v.ub, -1) {
			return fmt.Errorf("%w: variable %q has an invalid upper bound", ErrInvalidModel, v.name)
		}
	}
	n := Var(len(m.vars))
	check := func(where string, terms []Term) error {
		for _, t := range terms {
			if t.Var < 0 || t.Var >= n {
				return fmt.Errorf("%w: %s references unknown variable %d", ErrInvalidModel, where, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("%w: %s has a non-finite coefficient", ErrInvalidModel, where)
			}
		}
		return nil
	}
	for _, r := range m.rows {
		if err := check("constraint "+r.Name, r.Terms); err != nil {
			return err
		}
		if math.IsNaN(r.RHS) || math.IsInf(r.RHS, 0) {
			return fmt.Errorf("%w: constraint %s has a non-finite right-hand side", ErrInvalidModel, r.Name)
		}
	}
	return check("objective", m.obj.Terms)
}

func merge(terms []Term) []Term {
	acc := make(map[Var]float64, len(terms))
	for _, t := range terms {
		acc[t.Var] += t.Coef
	}
	out := make([]Term, 0, len(acc))
	for v, c := range acc {
		if c != 0 {
			out = append(out, Term{Var: v, Coef: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Var < out[j].Var })
	return out
}
