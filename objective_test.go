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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costela/blightlp/internal/exhaustive"
	"github.com/costela/blightlp/milp"
)

func variableByName(t *testing.T, m *milp.Model, name string) milp.Var {
	t.Helper()

	for i, v := range m.Variables() {
		if v.Name == name {
			return milp.Var(i)
		}
	}
	t.Fatalf("no variable %q", name)
	return -1
}

func force(t *testing.T, b *Builder, value float64, ids ...HouseID) {
	t.Helper()

	for _, id := range ids {
		x, err := b.X(id)
		require.NoError(t, err)
		require.NoError(t, b.Model().AddConstraint("force", milp.Equal, value, milp.T(x, 1)))
	}
}

func solveOnce(t *testing.T, b *Builder) (*milp.Result, Solution) {
	t.Helper()

	res, err := exhaustive.New().Solve(context.Background(), b.Model())
	require.NoError(t, err)
	require.Equal(t, milp.StatusOptimal, res.Status)
	return res, b.Record(0, res)
}

func aggregatedProblem(t *testing.T, budget float64) Problem {
	return Problem{
		Footprint: rowFootprint(t),
		Prices:    DefaultPrices(),
		Budget:    budget,
		Objective: &Aggregated{Decay: Decay{Cutoff: 30, Power: 1}},
	}
}

func TestAggregatedDemolishedOccupied(t *testing.T) {
	b := build(t, aggregatedProblem(t, 1e9))
	force(t, b, 1, "o1")

	res, _ := solveOnce(t, b)
	assert.InDelta(t, 0, res.Value(variableByName(t, b.Model(), "bigM[o1]")), Epsilon)
}

func TestAggregatedNothingDemolished(t *testing.T) {
	b := build(t, aggregatedProblem(t, 0))
	res, sol := solveOnce(t, b)
	require.Empty(t, sol.Demolished)

	fp := b.Footprint()
	exposure := func(o HouseID) float64 {
		var sum float64
		oh, _ := fp.House(o)
		for _, v := range []HouseID{"v1", "v2"} {
			vh, _ := fp.House(v)
			d, err := GreatCircle.Distance(context.Background(), oh, vh)
			require.NoError(t, err)
			sum += Decay{Cutoff: 30, Power: 1}.Weight(d)
		}
		return sum
	}

	assert.InDelta(t, -exposure("o1"), res.Value(variableByName(t, b.Model(), "bigM[o1]")), 1e-6)
	assert.InDelta(t, -exposure("r1"), res.Value(variableByName(t, b.Model(), "bigM[r1]")), 1e-6)
	assert.InDelta(t, -exposure("o1")-exposure("r1"), sol.Objective, 1e-6)
}

func TestAggregatedAllVacantDemolished(t *testing.T) {
	b := build(t, aggregatedProblem(t, 1e9))
	force(t, b, 1, "v1", "v2")
	force(t, b, 0, "o1", "r1")

	res, sol := solveOnce(t, b)
	assert.ElementsMatch(t, []HouseID{"v1", "v2"}, sol.Demolished)
	assert.InDelta(t, 0, res.Value(variableByName(t, b.Model(), "bigM[o1]")), Epsilon)
	assert.InDelta(t, 0, sol.Objective, Epsilon)
}

func TestAggregatedPrefersCloserVacant(t *testing.T) {
	// enough for exactly one vacant house and its walls
	b := build(t, aggregatedProblem(t, 60000))
	_, sol := solveOnce(t, b)
	assert.Equal(t, []HouseID{"v1"}, sol.Demolished)
}

func TestExactMaximizeInverts(t *testing.T) {
	b := build(t, Problem{
		Footprint: pairFootprint(t),
		Prices:    scenarioPrices(),
		Budget:    400000,
		Objective: &Exact{Decay: DefaultDecay(), Maximize: true},
	})
	assert.Equal(t, milp.Maximize, b.Model().Objective().Direction)

	_, sol := solveOnce(t, b)
	assert.Empty(t, sol.Demolished)
	assert.Greater(t, sol.Objective, 0.0)
}

func TestTieBreak(t *testing.T) {
	eps := tieBreak([]float64{0, 0.5, 0.1, 0}, 4)
	assert.InDelta(t, 0.01, eps, delta)
	assert.Less(t, 4*eps, 0.1/2)

	// no exposure at all still yields a positive penalty
	assert.InDelta(t, 0.5, tieBreak(nil, 0), delta)
}

func TestExactPrefersVacant(t *testing.T) {
	b := build(t, Problem{
		Footprint: pairFootprint(t),
		Prices:    scenarioPrices(),
		Budget:    400000,
		Objective: &Exact{Decay: DefaultDecay()},
	})

	x1, err := b.X("1")
	require.NoError(t, err)
	var penalty float64
	for _, term := range b.Model().Objective().Terms {
		if term.Var == x1 {
			penalty = term.Coef
		}
	}
	assert.Greater(t, penalty, 0.0)

	_, sol := solveOnce(t, b)
	assert.Equal(t, []HouseID{"2"}, sol.Demolished)
}

func spreadFootprint(t *testing.T) *Footprint {
	t.Helper()

	fp, err := NewFootprint([]House{
		house("o", TwoStory, Owner, at(0, 0)),
		house("near", TwoStory, Vacant, at(0, 6)),
		house("far", TwoStory, Vacant, at(0, 18)),
	}, nil)
	require.NoError(t, err)
	return fp
}

func TestMaximin(t *testing.T) {
	b := build(t, Problem{
		Footprint: spreadFootprint(t),
		Prices:    DefaultPrices(),
		Budget:    13000,
		Objective: &Maximin{},
	})

	res, sol := solveOnce(t, b)
	assert.Equal(t, []HouseID{"near"}, sol.Demolished)
	assert.InDelta(t, 18, sol.Objective, 0.5)
	assert.InDelta(t, sol.Objective, res.Value(variableByName(t, b.Model(), "t[o]")), delta)
}

func TestMaximinDemolishedOccupied(t *testing.T) {
	b := build(t, Problem{
		Footprint: spreadFootprint(t),
		Prices:    DefaultPrices(),
		Budget:    1e9,
		Objective: &Maximin{Large: 1000},
	})
	force(t, b, 1, "o")

	res, _ := solveOnce(t, b)
	assert.InDelta(t, 0, res.Value(variableByName(t, b.Model(), "t[o]")), Epsilon)
}

func TestMaximinLargeTooSmall(t *testing.T) {
	_, err := Build(context.Background(), Problem{
		Footprint: spreadFootprint(t),
		Prices:    DefaultPrices(),
		Objective: &Maximin{Large: 5},
	})
	assert.Error(t, err)
}

func TestWalkingUsesMetric(t *testing.T) {
	walk := MetricFunc(func(_ context.Context, a, b House) (float64, error) {
		if b.ID == "far" {
			return 2, nil
		}
		return 50, nil
	})

	b := build(t, Problem{
		Footprint: spreadFootprint(t),
		Prices:    DefaultPrices(),
		Budget:    13000,
		Objective: &Walking{Decay: Decay{Cutoff: 30, Power: 1}, Metric: walk},
	})

	// by the network the far house is the close one
	_, sol := solveOnce(t, b)
	assert.Equal(t, []HouseID{"far"}, sol.Demolished)
	assert.InDelta(t, 0, sol.Objective, delta)
}

func TestMetricErrorAbortsBuild(t *testing.T) {
	boom := errors.New("boom")
	_, err := Build(context.Background(), Problem{
		Footprint: spreadFootprint(t),
		Prices:    DefaultPrices(),
		Objective: &Walking{Decay: DefaultDecay(), Metric: MetricFunc(func(context.Context, House, House) (float64, error) {
			return 0, boom
		})},
	})
	assert.ErrorIs(t, err, boom)

	_, err = Build(context.Background(), Problem{
		Footprint: spreadFootprint(t),
		Objective: &Walking{Decay: DefaultDecay()},
	})
	assert.Error(t, err)
}

func TestNewStrategy(t *testing.T) {
	network := MetricFunc(func(context.Context, House, House) (float64, error) { return 1, nil })

	for name, want := range map[string]string{
		"exact":      "exact",
		"aggregated": "aggregated",
		"":           "aggregated",
		"walking":    "walking",
		"maximin":    "maximin",
	} {
		s, err := NewStrategy(StrategyConfig{Name: name, Decay: DefaultDecay(), Network: network})
		require.NoError(t, err, name)
		assert.Equal(t, want, s.Name())
	}

	_, err := NewStrategy(StrategyConfig{Name: "walking", Decay: DefaultDecay()})
	assert.Error(t, err)
	_, err = NewStrategy(StrategyConfig{Name: "greedy", Decay: DefaultDecay()})
	assert.Error(t, err)
	_, err = NewStrategy(StrategyConfig{Name: "exact", Decay: Decay{Cutoff: -3}})
	assert.Error(t, err)
}
