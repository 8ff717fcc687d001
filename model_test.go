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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costela/blightlp/milp"
)

func TestLinkingConstraints(t *testing.T) {
	fp := pairFootprint(t)
	ct, err := NewCostTable(fp, scenarioPrices())
	require.NoError(t, err)

	b := NewBuilder("linking", fp, ct)
	b.AddDecisionVariables()
	require.NoError(t, b.AddLinking())

	m := b.Model()
	require.Equal(t, 4, m.VariableCount())
	require.Equal(t, 7, m.ConstraintCount())

	for _, xa := range []float64{0, 1} {
		for _, xb := range []float64{0, 1} {
			var feasible [][2]float64
			for _, z := range []float64{0, 1} {
				for _, y := range []float64{0, 1} {
					values := make([]float64, 4)
					values[b.x[0]], values[b.x[1]], values[b.z[0]], values[b.y[0]] = xa, xb, z, y
					if len(m.Violated(values, delta)) == 0 {
						feasible = append(feasible, [2]float64{z, y})
					}
				}
			}

			xor, and := 0.0, 0.0
			if xa != xb {
				xor = 1
			}
			if xa == 1 && xb == 1 {
				and = 1
			}
			assert.Equal(t, [][2]float64{{xor, and}}, feasible, "x = (%g, %g)", xa, xb)
		}
	}
}

func TestFixingConstraints(t *testing.T) {
	b := build(t, Problem{
		Footprint: rowFootprint(t),
		Prices:    DefaultPrices(),
		Budget:    1e9,
		Objective: &Aggregated{Decay: DefaultDecay()},
	})

	var keep []milp.Constraint
	for _, c := range b.Model().Constraints() {
		if c.Relation == milp.Equal {
			keep = append(keep, c)
		}
	}
	require.Len(t, keep, 1)
	xp, err := b.X("p")
	require.NoError(t, err)
	assert.Equal(t, "keep[p]", keep[0].Name)
	assert.Equal(t, []milp.Term{milp.T(xp, 1)}, keep[0].Terms)
	assert.Equal(t, 0.0, keep[0].RHS)

	log, err := enumerator(t, b).Run(context.Background(), 1)
	require.NoError(t, err)
	assert.NotContains(t, log[0].Demolished, HouseID("p"))
}

func TestBudgetConstraint(t *testing.T) {
	fp := rowFootprint(t)
	p := DefaultPrices()
	p.Benefit = 1000
	b := build(t, Problem{
		Footprint: fp,
		Prices:    p,
		Budget:    185000,
		Objective: &Aggregated{Decay: DefaultDecay()},
	})

	var budget milp.Constraint
	for _, c := range b.Model().Constraints() {
		if c.Name == "budget" {
			budget = c
		}
	}
	require.Equal(t, "budget", budget.Name)
	assert.Equal(t, milp.LessEqual, budget.Relation)
	assert.InDelta(t, 185000-b.Costs().Baseline(), budget.RHS, delta)

	// the row evaluated at any consistent assignment equals CostTable.Spend
	for mask := 0; mask < 1<<len(fp.Houses()); mask++ {
		values := make([]float64, b.Model().VariableCount())
		demolished := func(id HouseID) bool {
			return mask&(1<<fp.index[id]) != 0
		}
		for i, h := range fp.Houses() {
			if demolished(h.ID) {
				values[b.x[i]] = 1
			}
		}
		for i, e := range fp.Edges() {
			if demolished(e.A) != demolished(e.B) {
				values[b.z[i]] = 1
			}
			if demolished(e.A) && demolished(e.B) {
				values[b.y[i]] = 1
			}
		}
		assert.InDelta(t, b.Costs().Spend(fp, demolished), milp.Evaluate(budget.Terms, values), delta)
	}
}

func TestBuildErrors(t *testing.T) {
	ctx := context.Background()
	fp := pairFootprint(t)

	_, err := Build(ctx, Problem{Objective: &Exact{}})
	assert.ErrorIs(t, err, ErrInvalidFootprint)

	_, err = Build(ctx, Problem{Footprint: fp})
	assert.Error(t, err)

	_, err = Build(ctx, Problem{Footprint: fp, Budget: -1, Objective: &Exact{}})
	assert.Error(t, err)

	_, err = Build(ctx, Problem{
		Footprint: fp,
		Pairs:     []ComparePair{{Occupied: "1", Vacant: "7"}},
		Objective: &Exact{},
	})
	assert.ErrorIs(t, err, ErrUnknownHouse)
}

func TestEndToEndExact(t *testing.T) {
	problem := Problem{
		Footprint: pairFootprint(t),
		Prices:    scenarioPrices(),
		Budget:    400000,
		Pairs:     []ComparePair{{Occupied: "1", Vacant: "2"}},
		Objective: &Exact{Decay: Decay{Cutoff: 100, Power: 1}},
	}

	t.Run("both demolished is feasible", func(t *testing.T) {
		b := build(t, problem)
		values := make([]float64, b.Model().VariableCount())
		values[b.x[0]], values[b.x[1]], values[b.y[0]] = 1, 1, 1
		assert.Empty(t, b.Model().Violated(values, delta))
	})

	t.Run("vacant house first", func(t *testing.T) {
		log, err := enumerator(t, build(t, problem)).Run(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, log, 3)

		assert.Equal(t, []HouseID{"2"}, log[0].Demolished)
		assert.InDelta(t, 0, log[0].Objective, delta)
		assert.InDelta(t, 27000, log[0].Spend, delta)

		// displacing the owner also clears the pair, at the tie-break price
		assert.Equal(t, []HouseID{"1"}, log[1].Demolished)
		assert.Greater(t, log[1].Objective, 0.0)

		assert.Empty(t, log[2].Demolished)
		assert.Greater(t, log[2].Objective, log[1].Objective)
		for _, s := range log {
			assert.True(t, s.Optimal())
		}
	})

	t.Run("vacant house when the owner is unaffordable", func(t *testing.T) {
		p := problem
		p.Budget = 100000
		log, err := enumerator(t, build(t, p)).Run(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, log, 1)
		assert.Equal(t, []HouseID{"2"}, log[0].Demolished)
		assert.Equal(t, 1, log[0].Count)
		assert.InDelta(t, 27000, log[0].Spend, delta)
	})
}

func TestBudgetMonotonicity(t *testing.T) {
	fp := rowFootprint(t)

	var previous float64
	for i, budget := range []float64{0, 20000, 40000, 120000, 250000, 1e6} {
		b := build(t, Problem{
			Footprint: fp,
			Prices:    DefaultPrices(),
			Budget:    budget + 30000,
			Objective: &Aggregated{Decay: DefaultDecay()},
		})
		log, err := enumerator(t, b).Run(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, log, 1)

		obj := log[0].Objective
		assert.LessOrEqual(t, log[0].Spend, budget+30000+delta)
		if i > 0 {
			assert.GreaterOrEqual(t, obj, previous-delta, "budget %g", budget)
		}
		previous = obj
	}
}
