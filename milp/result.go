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

package milp

import (
	"context"
	"fmt"
	"time"
)

/* Types */

type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	// StatusTimeLimit means the solver stopped early. Values, if present,
	// are the best known integer solution and carry no optimality guarantee.
	StatusTimeLimit
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusTimeLimit:
		return "time limit"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Solver is implemented by every MILP backend. Solve must not keep
// references to the model after returning; the caller may mutate it and
// call Solve again.
//
// A nil error with StatusInfeasible is a normal outcome. Errors are
// reserved for failures of the backend itself, in which case the result
// (if any) has StatusError.
type Solver interface {
	Solve(ctx context.Context, model *Model) (*Result, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, model *Model) (*Result, error)

func (f SolverFunc) Solve(ctx context.Context, model *Model) (*Result, error) {
	return f(ctx, model)
}

type Result struct {
	Status    Status
	Values    []float64
	Objective float64
	Runtime   time.Duration
}

// HasSolution reports whether the result carries variable values.
func (res *Result) HasSolution() bool {
	return res != nil && len(res.Values) > 0 &&
		(res.Status == StatusOptimal || res.Status == StatusTimeLimit)
}

// Value returns the computed value of the given variable for this
// optimization result, or 0 if there is none.
func (res *Result) Value(v Var) float64 {
	if res == nil || int(v) < 0 || int(v) >= len(res.Values) {
		return 0
	}
	return res.Values[v]
}
