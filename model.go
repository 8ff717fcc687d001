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

package blightlp

import (
	"context"
	"fmt"
	"math"

	"github.com/costela/blightlp/milp"
)

// Epsilon is the single tolerance used to turn solver values back into
// booleans, everywhere a demolition decision is read.
const Epsilon = 1e-6

func chosen(v float64) bool {
	return math.Abs(v-1) < Epsilon
}

// Problem gathers everything needed to build one model instance.
type Problem struct {
	Name      string
	Footprint *Footprint
	Prices    Prices
	Budget    float64
	// Pairs defaults to Footprint.ComparePairs() when nil.
	Pairs     []ComparePair
	Objective Strategy
}

// Builder owns the milp.Model of one problem and the handles of its
// decision variables:
//
//	x[i] = 1  demolish house i
//	z[e] = 1  exactly one end of edge e is demolished (x_a XOR x_b)
//	y[e] = 1  both ends of edge e are demolished   (x_a AND x_b)
type Builder struct {
	fp     *Footprint
	costs  *CostTable
	pairs  []ComparePair
	budget float64
	model  *milp.Model

	x []milp.Var
	z []milp.Var
	y []milp.Var
}

// Build runs every step of model construction: decision variables,
// linking constraints, fixing of non-demolishable houses, the budget
// constraint and finally the objective strategy.
func Build(ctx context.Context, p Problem) (*Builder, error) {
	if p.Footprint == nil {
		return nil, fmt.Errorf("%w: no footprint", ErrInvalidFootprint)
	}
	if p.Objective == nil {
		return nil, fmt.Errorf("no objective strategy")
	}
	costs, err := NewCostTable(p.Footprint, p.Prices)
	if err != nil {
		return nil, err
	}

	b := NewBuilder(p.Name, p.Footprint, costs)
	if err := b.SetPairs(p.Pairs); err != nil {
		return nil, err
	}
	b.AddDecisionVariables()

	for _, step := range []func() error{
		b.AddLinking,
		b.AddFixing,
		func() error { return b.AddBudget(p.Budget) },
	} {
		if err := step(); err != nil {
			return nil, err
		}
	}

	if err := p.Objective.Attach(ctx, b); err != nil {
		return nil, fmt.Errorf("attaching %s objective: %w", p.Objective.Name(), err)
	}
	return b, nil
}

// NewBuilder returns a builder with an empty model. Most callers want Build.
func NewBuilder(name string, fp *Footprint, costs *CostTable) *Builder {
	if name == "" {
		name = "demolition"
	}
	return &Builder{
		fp:    fp,
		costs: costs,
		pairs: fp.ComparePairs(),
		model: milp.NewModel(name),
	}
}

func (b *Builder) Model() *milp.Model {
	return b.model
}

func (b *Builder) Footprint() *Footprint {
	return b.fp
}

func (b *Builder) Costs() *CostTable {
	return b.costs
}

func (b *Builder) Budget() float64 {
	return b.budget
}

func (b *Builder) Pairs() []ComparePair {
	return b.pairs
}

// SetPairs replaces the compare pairs; nil restores the default pairing.
func (b *Builder) SetPairs(pairs []ComparePair) error {
	if pairs == nil {
		b.pairs = b.fp.ComparePairs()
		return nil
	}
	for _, p := range pairs {
		for _, id := range []HouseID{p.Occupied, p.Vacant} {
			if _, ok := b.fp.House(id); !ok {
				return fmt.Errorf("compare pair %s/%s: %w", p.Occupied, p.Vacant, unknownHouse(id))
			}
		}
	}
	b.pairs = append([]ComparePair(nil), pairs...)
	return nil
}

// X returns the demolition variable of a house.
func (b *Builder) X(id HouseID) (milp.Var, error) {
	i, ok := b.fp.index[id]
	if !ok || i >= len(b.x) {
		return 0, unknownHouse(id)
	}
	return b.x[i], nil
}

// AddDecisionVariables creates x per house and z, y per edge. Calling it
// twice is a no-op.
func (b *Builder) AddDecisionVariables() {
	if b.x != nil {
		return
	}
	b.x = make([]milp.Var, len(b.fp.houses))
	for i, h := range b.fp.houses {
		b.x[i] = b.model.AddBinary(fmt.Sprintf("x[%s]", h.ID))
	}
	b.z = make([]milp.Var, len(b.fp.edges))
	b.y = make([]milp.Var, len(b.fp.edges))
	for i, e := range b.fp.edges {
		b.z[i] = b.model.AddBinary(fmt.Sprintf("z[%s]", e))
		b.y[i] = b.model.AddBinary(fmt.Sprintf("y[%s]", e))
	}
}

func (b *Builder) edgeVars(e Edge) (xa, xb milp.Var) {
	return b.x[b.fp.index[e.A]], b.x[b.fp.index[e.B]]
}

// AddLinking ties z and y to x for every edge.
func (b *Builder) AddLinking() error {
	for i, e := range b.fp.edges {
		xa, xb := b.edgeVars(e)
		z, y := b.z[i], b.y[i]

		rows := []struct {
			name  string
			rhs   float64
			terms []milp.Term
		}{
			// z = xa XOR xb
			{"xor1", 0, []milp.Term{milp.T(xa, 1), milp.T(xb, -1), milp.T(z, -1)}},
			{"xor2", 0, []milp.Term{milp.T(xb, 1), milp.T(xa, -1), milp.T(z, -1)}},
			{"xor3", 2, []milp.Term{milp.T(xa, 1), milp.T(xb, 1), milp.T(z, 1)}},
			{"xor4", 0, []milp.Term{milp.T(xa, -1), milp.T(xb, -1), milp.T(z, 1)}},
			// y = xa AND xb
			{"and1", 1, []milp.Term{milp.T(xa, 1), milp.T(xb, 1), milp.T(y, -1)}},
			{"and2", 0, []milp.Term{milp.T(xb, -1), milp.T(y, 1)}},
			{"and3", 0, []milp.Term{milp.T(xa, -1), milp.T(y, 1)}},
		}
		for _, r := range rows {
			name := fmt.Sprintf("%s[%s]", r.name, e)
			if err := b.model.AddConstraint(name, milp.LessEqual, r.rhs, r.terms...); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddFixing pins x to 0 for every house whose class forbids demolition.
func (b *Builder) AddFixing() error {
	for i, h := range b.fp.houses {
		if !h.Occupancy.Fixed() {
			continue
		}
		name := fmt.Sprintf("keep[%s]", h.ID)
		if err := b.model.AddConstraint(name, milp.Equal, 0, milp.T(b.x[i], 1)); err != nil {
			return err
		}
	}
	return nil
}

// AddBudget adds the single budget row
//
//	Σ Cost·x + Σ Wallij·z − Σ Benefit·y − Σ Walli·x_a − Σ Wallj·x_b ≤ Budget − Σ Walli − Σ Wallj
//
// so the left side is the spend relative to demolishing nothing.
func (b *Builder) AddBudget(budget float64) error {
	if budget < 0 || math.IsNaN(budget) {
		return fmt.Errorf("budget must be non-negative, got %g", budget)
	}
	b.budget = budget

	terms := make([]milp.Term, 0, len(b.x)+4*len(b.fp.edges))
	for i, x := range b.x {
		terms = append(terms, milp.T(x, b.costs.Cost[i]))
	}
	for i, e := range b.fp.edges {
		xa, xb := b.edgeVars(e)
		terms = append(terms,
			milp.T(b.z[i], b.costs.Wallij[i]),
			milp.T(b.y[i], -b.costs.Benefit[i]),
			milp.T(xa, -b.costs.Walli[i]),
			milp.T(xb, -b.costs.Wallj[i]),
		)
	}
	return b.model.AddConstraint("budget", milp.LessEqual, budget-b.costs.Baseline(), terms...)
}

// AddNoGood forbids the demolished set S from recurring: Σ_{i∈S} x_i ≤ |S|−1.
func (b *Builder) AddNoGood(name string, demolished []HouseID) error {
	terms := make([]milp.Term, 0, len(demolished))
	for _, id := range demolished {
		x, err := b.X(id)
		if err != nil {
			return err
		}
		terms = append(terms, milp.T(x, 1))
	}
	return b.model.AddConstraint(name, milp.LessEqual, float64(len(demolished)-1), terms...)
}

// Demolished reads the houses chosen for demolition from a result.
func (b *Builder) Demolished(res *milp.Result) []HouseID {
	var ids []HouseID
	for i, h := range b.fp.houses {
		if chosen(res.Value(b.x[i])) {
			ids = append(ids, h.ID)
		}
	}
	return ids
}
