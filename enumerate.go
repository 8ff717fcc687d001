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
	"fmt"

	"github.com/costela/blightlp/milp"
)

var (
	// ErrInfeasible is terminal for a configuration: no plan fits the
	// budget and constraints. Adjust parameters and rebuild.
	ErrInfeasible = errors.New("model is infeasible")
	// ErrExhausted is returned when solving past the last plan.
	ErrExhausted = errors.New("enumeration exhausted")
	// ErrSuboptimal is returned when a solve stopped at its time limit and
	// suboptimal cuts were not allowed.
	ErrSuboptimal = errors.New("solver stopped before proving optimality")
	ErrHalted     = errors.New("enumeration halted")
)

type State int

const (
	StateBuilt State = iota
	StateSolved
	StateCut
	StateExhausted
	// StateHalted follows an infeasible model, a solver failure or a
	// refused suboptimal cut.
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSolved:
		return "solved"
	case StateCut:
		return "cut"
	case StateExhausted:
		return "exhausted"
	case StateHalted:
		return "halted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Enumerator drives solve → record → no-good cut → re-solve over one
// model. It is not safe for concurrent use.
type Enumerator struct {
	builder        *Builder
	solver         milp.Solver
	logger         Logger
	suboptimalCuts bool

	state State
	log   StatusLog
	cuts  int
}

func NewEnumerator(b *Builder, solver milp.Solver, opts ...Option) (*Enumerator, error) {
	e := &Enumerator{
		builder: b,
		solver:  solver,
		logger:  noopLogger{},
		state:   StateBuilt,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("applying enumerator option: %w", err)
		}
	}

	m := b.Model()
	e.logger.Print(fmt.Sprintf("model %s: %d variables, %d constraints", m.Name(), m.VariableCount(), m.ConstraintCount()))

	return e, nil
}

func (e *Enumerator) State() State {
	return e.state
}

// Done reports whether no further plans will be produced.
func (e *Enumerator) Done() bool {
	return e.state == StateExhausted || e.state == StateHalted
}

// Log returns the status log so far. The slice must not be modified.
func (e *Enumerator) Log() StatusLog {
	return e.log
}

// Solve optimizes the current model and appends one record to the log.
func (e *Enumerator) Solve(ctx context.Context) (Solution, error) {
	switch e.state {
	case StateSolved:
		return Solution{}, fmt.Errorf("model already solved, cut before solving again")
	case StateExhausted:
		return Solution{}, ErrExhausted
	case StateHalted:
		return Solution{}, ErrHalted
	}

	iter := len(e.log)
	res, err := e.solver.Solve(ctx, e.builder.Model())
	if err != nil {
		e.state = StateHalted
		if res != nil {
			e.log = append(e.log, e.builder.Record(iter, res))
		}
		return Solution{}, fmt.Errorf("solving iteration %d: %w", iter, err)
	}

	sol := e.builder.Record(iter, res)
	e.log = append(e.log, sol)
	e.logger.Print(fmt.Sprintf("iteration %d: %s", sol.Iteration, sol))

	switch res.Status {
	case milp.StatusInfeasible:
		e.state = StateHalted
		return sol, ErrInfeasible
	case milp.StatusError:
		e.state = StateHalted
		return sol, fmt.Errorf("solving iteration %d: solver reported an error", sol.Iteration)
	case milp.StatusTimeLimit:
		if !res.HasSolution() {
			e.state = StateHalted
			return sol, fmt.Errorf("solving iteration %d: time limit: %w", sol.Iteration, milp.ErrNoSolution)
		}
		e.state = StateSolved
		if !e.suboptimalCuts {
			return sol, ErrSuboptimal
		}
		return sol, nil
	}

	e.state = StateSolved
	return sol, nil
}

// Cut adds a no-good constraint against the last plan. An empty plan
// exhausts the enumeration instead.
func (e *Enumerator) Cut() error {
	if e.state != StateSolved {
		return fmt.Errorf("cannot cut in state %s", e.state)
	}
	last := e.log[len(e.log)-1]

	if !last.Optimal() && !e.suboptimalCuts {
		e.state = StateHalted
		return ErrSuboptimal
	}

	if len(last.Demolished) == 0 {
		e.state = StateExhausted
		e.logger.Print(fmt.Sprintf("iteration %d demolishes nothing, enumeration exhausted", last.Iteration))
		return nil
	}

	e.cuts++
	name := fmt.Sprintf("nogood[%d]", e.cuts)
	if err := e.builder.AddNoGood(name, last.Demolished); err != nil {
		e.state = StateHalted
		return err
	}
	e.state = StateCut
	e.logger.Print(fmt.Sprintf("added %s excluding %d houses", name, len(last.Demolished)))
	return nil
}

// Next solves and, on success, cuts the plan it found.
func (e *Enumerator) Next(ctx context.Context) (Solution, error) {
	sol, err := e.Solve(ctx)
	if err != nil {
		return sol, err
	}
	return sol, e.Cut()
}

// Run enumerates up to limit plans (no limit if limit ≤ 0) and returns
// the status log. Exhaustion ends the run without an error.
func (e *Enumerator) Run(ctx context.Context, limit int) (StatusLog, error) {
	for n := 0; !e.Done() && (limit <= 0 || n < limit); n++ {
		if _, err := e.Next(ctx); err != nil {
			return e.log, err
		}
	}
	return e.log, nil
}
