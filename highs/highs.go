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

// Package highs solves milp models with the HiGHS solver through
// github.com/lanl/highs.
package highs

import (
	"context"
	"fmt"
	"math"
	"time"

	gohighs "github.com/lanl/highs"

	"github.com/costela/blightlp/milp"
)

// feasibilityTol decides whether values reported with a non-optimal
// status are a usable incumbent.
const feasibilityTol = 1e-6

// Solver is safe for concurrent use. HiGHS offers no interruption hook, so
// ctx is only consulted before a solve starts; use WithTimeout to bound a
// solve.
type Solver struct {
	logger  Logger
	timeout time.Duration
}

var _ milp.Solver = (*Solver)(nil)

func New(opts ...Option) (*Solver, error) {
	s := &Solver{
		logger: noopLogger{},
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("applying solver option: %w", err)
		}
	}

	return s, nil
}

func (s *Solver) Solve(ctx context.Context, model *milp.Model) (*milp.Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lp, sign := convert(model)

	raw, err := lp.ToRawModel()
	if err != nil {
		return &milp.Result{Status: milp.StatusError, Runtime: time.Since(start)}, fmt.Errorf("highs: %w", err)
	}
	if s.timeout > 0 {
		if err := raw.SetFloat64Option("time_limit", s.timeout.Seconds()); err != nil {
			return &milp.Result{Status: milp.StatusError, Runtime: time.Since(start)}, fmt.Errorf("highs: setting time limit: %w", err)
		}
	}

	solution, err := raw.Solve()
	res := &milp.Result{Runtime: time.Since(start)}
	if err != nil {
		res.Status = milp.StatusError
		return res, fmt.Errorf("highs: %w", err)
	}

	switch solution.Status {
	case gohighs.Optimal:
		res.Status = milp.StatusOptimal
		res.Values = solution.ColumnPrimal
		res.Objective = sign * solution.Objective
	case gohighs.Infeasible:
		res.Status = milp.StatusInfeasible
	case gohighs.TimeLimit, gohighs.IterationLimit, gohighs.SolutionLimit, gohighs.Interrupt:
		res.Status = milp.StatusTimeLimit
		if len(solution.ColumnPrimal) == model.VariableCount() &&
			len(model.Violated(solution.ColumnPrimal, feasibilityTol)) == 0 {
			res.Values = solution.ColumnPrimal
			res.Objective = sign * solution.Objective
		}
	default:
		res.Status = milp.StatusError
		return res, fmt.Errorf("highs stopped with status %s", solution.Status.String())
	}

	s.logger.Print(fmt.Sprintf("highs: %s after %s", res.Status, res.Runtime))

	return res, nil
}

// convert translates model into a HiGHS model that is always minimized.
// Maximization negates the costs; sign maps the objective value back.
func convert(model *milp.Model) (lp *gohighs.Model, sign float64) {
	sign = 1
	if model.Objective().Direction == milp.Maximize {
		sign = -1
	}

	vars := model.Variables()
	lp = &gohighs.Model{
		ColCosts: model.ObjectiveCoefficients(),
		ColLower: make([]float64, len(vars)),
		ColUpper: make([]float64, len(vars)),
		VarTypes: make([]gohighs.VariableType, len(vars)),
	}
	for i := range lp.ColCosts {
		lp.ColCosts[i] *= sign
	}

	for i, v := range vars {
		lp.ColLower[i], lp.ColUpper[i] = v.Lower, v.Upper
		if v.Kind == milp.Continuous {
			lp.VarTypes[i] = gohighs.ContinuousType
		} else {
			lp.VarTypes[i] = gohighs.IntegerType
		}
	}

	for i, c := range model.Constraints() {
		lower, upper := math.Inf(-1), math.Inf(1)
		switch c.Relation {
		case milp.Equal:
			lower, upper = c.RHS, c.RHS
		case milp.GreaterEqual:
			lower = c.RHS
		default:
			upper = c.RHS
		}
		lp.RowLower = append(lp.RowLower, lower)
		lp.RowUpper = append(lp.RowUpper, upper)

		for _, t := range c.Terms {
			lp.ConstMatrix = append(lp.ConstMatrix, gohighs.Nonzero{Row: i, Col: int(t.Var), Val: t.Coef})
		}
	}

	return lp, sign
}
