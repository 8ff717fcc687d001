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

// Package solvertest holds the behaviour every milp.Solver backend must
// share, checked against small models with known optima and against the
// exhaustive reference solver on demolition models.
package solvertest

import (
	"context"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costela/blightlp"
	"github.com/costela/blightlp/internal/exhaustive"
	"github.com/costela/blightlp/milp"
)

const (
	delta = 0.0000001 // acceptable numerical deviation for test results
)

// Run exercises solver with every shared case as subtests.
func Run(t *testing.T, solver milp.Solver) {
	t.Run("MIP", func(t *testing.T) { testMIP(t, solver) })
	t.Run("LP", func(t *testing.T) { testLP(t, solver) })
	t.Run("Infeasible", func(t *testing.T) { testInfeasible(t, solver) })
	t.Run("Resolve", func(t *testing.T) { testResolve(t, solver) })
	t.Run("Demolition", func(t *testing.T) { testDemolition(t, solver) })
}

// MIPModel is
//
//	max  x1 + 2 x2 + 3 x3 + x4
//	0 ≤ −x1 + x2 + x3 + 10 x4 ≤ 20
//	0 ≤ x1 − 3 x2 + x3 ≤ 30
//	x2 − 3.5 x4 = 0
//
// with x1 ∈ [0,40], x2, x3 ≥ 0 and integer x4 ∈ [2,3]. Its optimum is
// (40, 10.5, 19.5, 3) with value 122.5.
func MIPModel() (*milp.Model, []milp.Var) {
	m := milp.NewModel("test")
	x1 := m.AddContinuous("x1", 0, 40)
	x2 := m.AddContinuous("x2", 0, math.Inf(1))
	x3 := m.AddContinuous("x3", 0, math.Inf(1))
	x4 := m.AddVariable("x4", milp.Integer, 2, 3)

	row1 := []milp.Term{milp.T(x1, -1), milp.T(x2, 1), milp.T(x3, 1), milp.T(x4, 10)}
	row2 := []milp.Term{milp.T(x1, 1), milp.T(x2, -3), milp.T(x3, 1)}
	mustAdd(m.AddConstraint("r1lo", milp.GreaterEqual, 0, row1...))
	mustAdd(m.AddConstraint("r1hi", milp.LessEqual, 20, row1...))
	mustAdd(m.AddConstraint("r2lo", milp.GreaterEqual, 0, row2...))
	mustAdd(m.AddConstraint("r2hi", milp.LessEqual, 30, row2...))
	mustAdd(m.AddConstraint("r3", milp.Equal, 0, milp.T(x2, 1), milp.T(x4, -3.5)))
	mustAdd(m.SetObjective(milp.Maximize, milp.T(x1, 1), milp.T(x2, 2), milp.T(x3, 3), milp.T(x4, 1)))

	return m, []milp.Var{x1, x2, x3, x4}
}

func mustAdd(err error) {
	if err != nil {
		panic(err)
	}
}

func testMIP(t *testing.T, solver milp.Solver) {
	model, vars := MIPModel()

	res, err := solver.Solve(context.Background(), model)
	require.NoError(t, err)

	expectedXs := []float64{40, 10.5, 19.5, 3}
	expectedObj := 122.5

	assert.Equal(t, milp.StatusOptimal, res.Status)

	// ignore numerical inaccuracies
	assert.InDelta(t, expectedObj, res.Objective, delta)

	for i, x := range vars {
		assert.InDelta(t, expectedXs[i], res.Value(x), delta)
	}
}

func testLP(t *testing.T, solver milp.Solver) {
	model := milp.NewModel("test")
	x1 := model.AddContinuous("x1", 0, math.Inf(1))
	x2 := model.AddContinuous("x2", 0, math.Inf(1))
	x3 := model.AddContinuous("x3", 0, math.Inf(1))

	for i, row := range []struct {
		coefs []float64
		upper float64
	}{
		{[]float64{2, 1, 1}, 14},
		{[]float64{4, 2, 3}, 28},
		{[]float64{2, 5, 5}, 30},
	} {
		terms := []milp.Term{milp.T(x1, row.coefs[0]), milp.T(x2, row.coefs[1]), milp.T(x3, row.coefs[2])}
		require.NoError(t, model.AddConstraint("", milp.LessEqual, row.upper, terms...), "row %d", i)
	}
	require.NoError(t, model.SetObjective(milp.Maximize, milp.T(x1, 1), milp.T(x2, 2), milp.T(x3, -1)))

	res, err := solver.Solve(context.Background(), model)
	require.NoError(t, err)

	expectedXs := []float64{5, 4, 0}
	expectedObj := 13.0

	assert.Equal(t, milp.StatusOptimal, res.Status)
	assert.InDelta(t, expectedObj, res.Objective, delta)
	for i, x := range []milp.Var{x1, x2, x3} {
		assert.InDelta(t, expectedXs[i], res.Value(x), delta)
	}
}

func testInfeasible(t *testing.T, solver milp.Solver) {
	model := milp.NewModel("infeasible")
	x := model.AddBinary("x")
	y := model.AddBinary("y")
	require.NoError(t, model.AddConstraint("both", milp.GreaterEqual, 2, milp.T(x, 1), milp.T(y, 1)))
	require.NoError(t, model.AddConstraint("one", milp.LessEqual, 1, milp.T(x, 1), milp.T(y, 1)))
	require.NoError(t, model.SetObjective(milp.Maximize, milp.T(x, 1)))

	res, err := solver.Solve(context.Background(), model)
	require.NoError(t, err)
	assert.Equal(t, milp.StatusInfeasible, res.Status)
	assert.False(t, res.HasSolution())
}

// testResolve grows a model between solves, the way no-good cuts do.
func testResolve(t *testing.T, solver milp.Solver) {
	model := milp.NewModel("resolve")
	xs := make([]milp.Var, 3)
	obj := make([]milp.Term, 3)
	for i := range xs {
		xs[i] = model.AddBinary("")
		obj[i] = milp.T(xs[i], float64(i+1))
	}
	require.NoError(t, model.AddConstraint("pick2", milp.LessEqual, 2, milp.T(xs[0], 1), milp.T(xs[1], 1), milp.T(xs[2], 1)))
	require.NoError(t, model.SetObjective(milp.Maximize, obj...))

	for _, expected := range []float64{5, 4, 3} {
		res, err := solver.Solve(context.Background(), model)
		require.NoError(t, err)
		require.Equal(t, milp.StatusOptimal, res.Status)
		assert.InDelta(t, expected, res.Objective, delta)

		var cut []milp.Term
		for _, x := range xs {
			if res.Value(x) > 0.5 {
				cut = append(cut, milp.T(x, 1))
			}
		}
		require.NoError(t, model.AddConstraint("cut", milp.LessEqual, float64(len(cut)-1), cut...))
	}
}

// Row returns a row of five houses, 6 m apart: an owner, a vacant house, a
// three-story renter, another vacant house and a police station.
func Row() (*blightlp.Footprint, error) {
	origin := orb.Point{-76.6450, 39.3060}
	at := func(east float64) orb.Point {
		return orb.Point{origin[0] + east/86200, origin[1]}
	}
	return blightlp.NewFootprint(
		[]blightlp.House{
			{ID: "o1", Stories: blightlp.TwoStory, Occupancy: blightlp.Owner, Centroid: at(0)},
			{ID: "v1", Stories: blightlp.TwoStory, Occupancy: blightlp.Vacant, Centroid: at(6)},
			{ID: "r1", Stories: blightlp.ThreeStory, Occupancy: blightlp.Renter, Centroid: at(12)},
			{ID: "v2", Stories: blightlp.TwoStory, Occupancy: blightlp.Vacant, Centroid: at(18)},
			{ID: "p", Stories: blightlp.TwoStory, Occupancy: blightlp.Police, Centroid: at(24)},
		},
		[]blightlp.Edge{{A: "o1", B: "v1"}, {A: "v1", B: "r1"}, {A: "r1", B: "v2"}, {A: "v2", B: "p"}},
	)
}

// testDemolition compares the first plan of every strategy with the
// exhaustive reference, then enumerates a few plans with solver alone.
func testDemolition(t *testing.T, solver milp.Solver) {
	decay := blightlp.DefaultDecay()

	for _, tc := range []struct {
		strategy blightlp.Strategy
		budget   float64
	}{
		{&blightlp.Exact{Decay: decay}, 100000},
		{&blightlp.Exact{Decay: decay, Maximize: true}, 100000},
		{&blightlp.Aggregated{Decay: decay}, 60000},
		{&blightlp.Aggregated{Decay: decay}, 1e9},
		{&blightlp.Maximin{}, 200000},
	} {
		tc := tc
		t.Run(tc.strategy.Name(), func(t *testing.T) {
			ctx := context.Background()

			first := func(s milp.Solver) blightlp.Solution {
				fp, err := Row()
				require.NoError(t, err)
				b, err := blightlp.Build(ctx, blightlp.Problem{
					Footprint: fp,
					Prices:    blightlp.DefaultPrices(),
					Budget:    tc.budget,
					Objective: tc.strategy,
				})
				require.NoError(t, err)
				e, err := blightlp.NewEnumerator(b, s)
				require.NoError(t, err)
				sol, err := e.Solve(ctx)
				require.NoError(t, err)
				return sol
			}

			want := first(exhaustive.New())
			got := first(solver)
			assert.InDelta(t, want.Objective, got.Objective, 1e-6)
			assert.LessOrEqual(t, got.Spend, tc.budget+1e-6)
		})
	}

	t.Run("enumerate", func(t *testing.T) {
		ctx := context.Background()
		fp, err := Row()
		require.NoError(t, err)
		b, err := blightlp.Build(ctx, blightlp.Problem{
			Footprint: fp,
			Prices:    blightlp.DefaultPrices(),
			Budget:    1e9,
			Objective: &blightlp.Aggregated{Decay: decay},
		})
		require.NoError(t, err)
		e, err := blightlp.NewEnumerator(b, solver)
		require.NoError(t, err)

		log, err := e.Run(ctx, 0)
		require.NoError(t, err)

		seen := map[string]bool{}
		for _, s := range log {
			key := ""
			for _, id := range s.Demolished {
				key += string(id) + ","
			}
			assert.False(t, seen[key], "plan %q repeated", key)
			seen[key] = true
		}
		assert.Equal(t, blightlp.StateExhausted, e.State())
	})
}
