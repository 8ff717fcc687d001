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

// Package exhaustive is a reference milp.Solver for tiny models. It walks
// every assignment of the integer variables and derives each continuous
// variable from the constraints in which it is the only continuous term,
// which covers epigraph-style models (t ≤ f(x), bounds on t). It exists to
// check linearizations without a native solver and is not meant for
// production footprints.
package exhaustive

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/costela/blightlp/milp"
)

// MaxIntegerVariables bounds the search space to 2^22 assignments.
const MaxIntegerVariables = 22

const tolerance = 1e-9

var ErrTooLarge = errors.New("model too large for exhaustive search")

type Solver struct{}

func New() *Solver {
	return &Solver{}
}

type column struct {
	index  int
	values []float64
}

func (s *Solver) Solve(ctx context.Context, model *milp.Model) (*milp.Result, error) {
	start := time.Now()

	vars := model.Variables()
	var discrete []column
	var continuous []int
	for i, v := range vars {
		if v.Kind == milp.Continuous {
			continuous = append(continuous, i)
			continue
		}
		lo, hi := math.Ceil(v.Lower), math.Floor(v.Upper)
		if math.IsInf(lo, 0) || math.IsInf(hi, 0) || hi-lo > 15 {
			return nil, fmt.Errorf("%w: integer variable %q needs finite small bounds", ErrTooLarge, v.Name)
		}
		col := column{index: i}
		for x := lo; x <= hi; x++ {
			col.values = append(col.values, x)
		}
		discrete = append(discrete, col)
	}
	if len(discrete) > MaxIntegerVariables {
		return nil, fmt.Errorf("%w: %d integer variables", ErrTooLarge, len(discrete))
	}

	objective := model.ObjectiveCoefficients()
	sense := 1.0
	if model.Objective().Direction == milp.Maximize {
		sense = -1.0
	}

	values := make([]float64, len(vars))
	var best []float64
	bestObj := math.Inf(1)

	counter := make([]int, len(discrete))
	for iteration := 0; ; iteration++ {
		if iteration%4096 == 0 && ctx.Err() != nil {
			if best == nil {
				return nil, ctx.Err()
			}
			return &milp.Result{
				Status:    milp.StatusTimeLimit,
				Values:    best,
				Objective: sense * bestObj,
				Runtime:   time.Since(start),
			}, nil
		}

		for i, col := range discrete {
			values[col.index] = col.values[counter[i]]
		}
		if fillContinuous(model, continuous, objective, sense, values) &&
			len(model.Violated(values, 1e-7)) == 0 {
			obj := sense * milp.Evaluate(model.Objective().Terms, values)
			if obj < bestObj-tolerance {
				bestObj = obj
				best = append(best[:0:0], values...)
			}
		}

		if !advance(counter, discrete) {
			break
		}
	}

	res := &milp.Result{Runtime: time.Since(start)}
	if best == nil {
		res.Status = milp.StatusInfeasible
		return res, nil
	}
	res.Status = milp.StatusOptimal
	res.Values = best
	res.Objective = sense * bestObj
	return res, nil
}

// advance steps the mixed-radix counter; false once it wraps around.
func advance(counter []int, discrete []column) bool {
	for i := range counter {
		counter[i]++
		if counter[i] < len(discrete[i].values) {
			return true
		}
		counter[i] = 0
	}
	return false
}

// fillContinuous sets each continuous variable to the tightest bound in
// the direction the objective pushes it. Constraints with more than one
// continuous term are left to the final feasibility check.
func fillContinuous(model *milp.Model, continuous []int, objective []float64, sense float64, values []float64) bool {
	vars := model.Variables()
	for _, i := range continuous {
		lower, upper := vars[i].Lower, vars[i].Upper
		for _, c := range model.Constraints() {
			coef, rest, ok := isolate(c, i, vars, values)
			if !ok {
				continue
			}
			bound := (c.RHS - rest) / coef
			switch {
			case c.Relation == milp.Equal:
				lower, upper = math.Max(lower, bound), math.Min(upper, bound)
			case (c.Relation == milp.LessEqual) == (coef > 0):
				upper = math.Min(upper, bound)
			default:
				lower = math.Max(lower, bound)
			}
		}
		if lower > upper+tolerance {
			return false
		}

		wantHigh := sense*objective[i] < 0
		switch {
		case wantHigh && !math.IsInf(upper, 1):
			values[i] = upper
		case !wantHigh && !math.IsInf(lower, -1):
			values[i] = lower
		case !math.IsInf(upper, 1):
			values[i] = upper
		case !math.IsInf(lower, -1):
			values[i] = lower
		default:
			values[i] = 0
		}
	}
	return true
}

// isolate splits constraint c into coef·x_i + rest when x_i is its only
// continuous variable.
func isolate(c milp.Constraint, i int, vars []milp.Variable, values []float64) (coef, rest float64, ok bool) {
	for _, t := range c.Terms {
		if int(t.Var) == i {
			coef = t.Coef
			ok = true
			continue
		}
		if vars[t.Var].Kind == milp.Continuous {
			return 0, 0, false
		}
		rest += t.Coef * values[t.Var]
	}
	return coef, rest, ok && coef != 0
}
