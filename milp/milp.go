/*
Copyright © 2015-2022 Leo Antunes <leo@costela.net>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

/*
Package milp holds a solver-independent description of a mixed-integer
linear program: tagged variables, linear constraint records and a linear
objective. Backends (lpsolve, glpk, highs) translate a Model into their
native representation on every Solve call, so a Model may keep growing
between solves (e.g. with no-good cuts).

	model := milp.NewModel("example")
	x := model.AddBinary("x")
	y := model.AddContinuous("y", 0, 10)
	model.AddConstraint("cap", milp.LessEqual, 4, milp.T(x, 3), milp.T(y, 1))
	model.SetObjective(milp.Maximize, milp.T(x, 2), milp.T(y, 1))

	res, err := solver.Solve(ctx, model)
*/
package milp

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrUnknownVariable = errors.New("unknown variable")
	ErrNoSolution      = errors.New("result carries no solution values")
)

/* Types */

type VariableKind int

const (
	Continuous VariableKind = iota
	Binary
	Integer
)

func (k VariableKind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Binary:
		return "binary"
	case Integer:
		return "integer"
	default:
		return fmt.Sprintf("VariableKind(%d)", int(k))
	}
}

// Var is a handle to a variable of one Model. Using a handle with a
// different model results in undefined behaviour.
type Var int

type Variable struct {
	Name  string
	Kind  VariableKind
	Lower float64
	Upper float64
}

type Relation int

const (
	LessEqual Relation = iota
	Equal
	GreaterEqual
)

func (r Relation) String() string {
	switch r {
	case LessEqual:
		return "<="
	case Equal:
		return "="
	case GreaterEqual:
		return ">="
	default:
		return fmt.Sprintf("Relation(%d)", int(r))
	}
}

type Direction int

const (
	Minimize Direction = iota
	Maximize
)

func (d Direction) String() string {
	if d == Maximize {
		return "max"
	}
	return "min"
}

// Term is a single coefficient·variable product.
type Term struct {
	Var  Var
	Coef float64
}

// T is shorthand for Term{Var: v, Coef: coef}.
func T(v Var, coef float64) Term {
	return Term{Var: v, Coef: coef}
}

type Constraint struct {
	Name     string
	Terms    []Term
	Relation Relation
	RHS      float64
}

type Objective struct {
	Direction Direction
	Terms     []Term
}

type Model struct {
	name        string
	vars        []Variable
	constraints []Constraint
	objective   Objective
}

/* Model related functions */

// NewModel instantiates an empty model. The name is purely informational.
func NewModel(name string) *Model {
	return &Model{name: name}
}

func (m *Model) Name() string {
	return m.name
}

/* Column-related functions */

// AddVariable adds a variable with the given kind and bounds. Binary
// variables always get bounds [0,1].
// Empty names will automatically replaced by a unique name.
func (m *Model) AddVariable(name string, kind VariableKind, lower, upper float64) Var {
	v := Var(len(m.vars))
	if name == "" {
		name = fmt.Sprintf("V%d", v)
	}
	if kind == Binary {
		lower, upper = 0, 1
	}
	m.vars = append(m.vars, Variable{Name: name, Kind: kind, Lower: lower, Upper: upper})
	return v
}

func (m *Model) AddBinary(name string) Var {
	return m.AddVariable(name, Binary, 0, 1)
}

func (m *Model) AddContinuous(name string, lower, upper float64) Var {
	return m.AddVariable(name, Continuous, lower, upper)
}

func (m *Model) VariableCount() int {
	return len(m.vars)
}

// Variable returns the definition behind a handle.
func (m *Model) Variable(v Var) (Variable, error) {
	if !m.valid(v) {
		return Variable{}, fmt.Errorf("%w: %d", ErrUnknownVariable, v)
	}
	return m.vars[v], nil
}

// Variables returns the model's variables in handle order. The slice must
// not be modified.
func (m *Model) Variables() []Variable {
	return m.vars
}

func (m *Model) valid(v Var) bool {
	return v >= 0 && int(v) < len(m.vars)
}

/* Constraint-related functions */

func (m *Model) ConstraintCount() int {
	return len(m.constraints)
}

// Constraints returns the model's constraints in insertion order. The
// slice must not be modified.
func (m *Model) Constraints() []Constraint {
	return m.constraints
}

// AddConstraint appends the constraint Σ terms (rel) rhs. Repeated
// variables are merged into one term and zero coefficients dropped, since
// some backends reject duplicate matrix entries.
func (m *Model) AddConstraint(name string, rel Relation, rhs float64, terms ...Term) error {
	merged, err := m.compact(terms)
	if err != nil {
		return fmt.Errorf("constraint %q: %w", name, err)
	}
	m.constraints = append(m.constraints, Constraint{
		Name:     name,
		Terms:    merged,
		Relation: rel,
		RHS:      rhs,
	})
	return nil
}

/* Objective-related functions */

// SetObjective replaces the model objective.
func (m *Model) SetObjective(dir Direction, terms ...Term) error {
	merged, err := m.compact(terms)
	if err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	m.objective = Objective{Direction: dir, Terms: merged}
	return nil
}

func (m *Model) Objective() Objective {
	return m.objective
}

// ObjectiveCoefficients returns a dense objective vector in handle order.
func (m *Model) ObjectiveCoefficients() []float64 {
	coefs := make([]float64, len(m.vars))
	for _, t := range m.objective.Terms {
		coefs[t.Var] += t.Coef
	}
	return coefs
}

func (m *Model) compact(terms []Term) ([]Term, error) {
	index := make(map[Var]int, len(terms))
	merged := make([]Term, 0, len(terms))
	for _, t := range terms {
		if !m.valid(t.Var) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownVariable, t.Var)
		}
		if i, ok := index[t.Var]; ok {
			merged[i].Coef += t.Coef
			continue
		}
		index[t.Var] = len(merged)
		merged = append(merged, t)
	}

	out := merged[:0]
	for _, t := range merged {
		if t.Coef != 0 {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Var < out[j].Var })
	return out, nil
}

/* Evaluation helpers */

// Evaluate returns Σ coef·values[var].
func Evaluate(terms []Term, values []float64) float64 {
	var sum float64
	for _, t := range terms {
		sum += t.Coef * values[t.Var]
	}
	return sum
}

// Holds reports whether the constraint is satisfied by values within tol.
func (c Constraint) Holds(values []float64, tol float64) bool {
	lhs := Evaluate(c.Terms, values)
	switch c.Relation {
	case LessEqual:
		return lhs <= c.RHS+tol
	case GreaterEqual:
		return lhs >= c.RHS-tol
	default:
		return math.Abs(lhs-c.RHS) <= tol
	}
}

// Violated returns the names of every bound or constraint the given
// assignment breaks. An empty result means the assignment is feasible.
func (m *Model) Violated(values []float64, tol float64) []string {
	if len(values) != len(m.vars) {
		return []string{fmt.Sprintf("assignment has %d values, model has %d variables", len(values), len(m.vars))}
	}

	var broken []string
	for i, v := range m.vars {
		x := values[i]
		if x < v.Lower-tol || x > v.Upper+tol {
			broken = append(broken, v.Name)
			continue
		}
		if v.Kind != Continuous && math.Abs(x-math.Round(x)) > tol {
			broken = append(broken, v.Name)
		}
	}
	for _, c := range m.constraints {
		if !c.Holds(values, tol) {
			broken = append(broken, c.Name)
		}
	}
	return broken
}
