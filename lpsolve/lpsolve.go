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
Package lpsolve solves milp models with lp_solve 5.5.

Every call to Solve translates the model into a fresh lp_solve problem,
which is deleted again before returning. The same model may therefore be
solved, extended with further constraints and solved again:

	solver, _ := lpsolve.New(lpsolve.WithTimeout(30 * time.Second))
	res, err := solver.Solve(ctx, model)
	if err != nil {
		// backend failure
	}
	if res.Status == milp.StatusOptimal {
		fmt.Printf("z = %f\n", res.Objective)
	}
*/
package lpsolve

// #cgo linux LDFLAGS: -llpsolve55
// #cgo darwin LDFLAGS: -L/usr/local/lib -llpsolve55
// #cgo darwin CFLAGS: -I/usr/local/include
// #cgo CFLAGS: -I/usr/include/lpsolve/
// #include <lp_lib.h>
// #include <stdlib.h>
/*
// https://golang.org/issue/19837
extern int abortCallback(lprec *lp, void *userhandle);
extern void logCallback(lprec *lp, void *userhandle, char *buf);
*/
import "C"

import (
	"context"
	"fmt"
	"math"
	"time"
	"unsafe"

	"github.com/costela/blightlp/internal/cref"
	"github.com/costela/blightlp/milp"
)

/* Types */

// Solver is safe for concurrent use: every Solve works on its own
// lp_solve problem.
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

/* Solving */

// Solve attempts to find an optimal solution to the model. An infeasible
// model is reported through the result status, not as an error. If ctx is
// cancelled before any integer solution was found, ctx.Err() is returned.
func (s *Solver) Solve(ctx context.Context, model *milp.Model) (*milp.Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, c := range model.Constraints() {
		// lp_solve cannot take rows without columns; decide them here
		if len(c.Terms) == 0 && !c.Holds(nil, 0) {
			return &milp.Result{Status: milp.StatusInfeasible, Runtime: time.Since(start)}, nil
		}
	}

	prob := C.make_lp(0, C.int(model.VariableCount()))
	if prob == nil {
		return nil, fmt.Errorf("could not allocate lp_solve problem")
	}
	defer C.delete_lp(prob)

	s.load(prob, model)

	logRef := cref.Save(s)
	defer cref.Release(logRef)
	// disable stdout logging and redirect to our internal logger
	C.put_logfunc(prob, (*C.lphandlestr_func)(C.logCallback), logRef)
	emptyName := C.CString("")
	defer C.free(unsafe.Pointer(emptyName))
	C.set_outputfile(prob, emptyName)

	ctxRef := cref.Save(ctx)
	defer cref.Release(ctxRef)
	C.put_abortfunc(prob, (*C.lphandle_intfunc)(C.abortCallback), ctxRef)

	if s.timeout > 0 {
		C.set_timeout(prob, C.long(math.Ceil(s.timeout.Seconds())))
	}

	ret := C.solve(prob)
	res := &milp.Result{Runtime: time.Since(start)}

	switch ret {
	case C.OPTIMAL, C.PRESOLVED:
		res.Status = milp.StatusOptimal
		readSolution(prob, model, res)
	case C.SUBOPTIMAL:
		res.Status = milp.StatusTimeLimit
		readSolution(prob, model, res)
	case C.TIMEOUT:
		res.Status = milp.StatusTimeLimit
	case C.INFEASIBLE:
		res.Status = milp.StatusInfeasible
	case C.USERABORT:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Status = milp.StatusError
		return res, SolveError(ret)
	default:
		res.Status = milp.StatusError
		return res, SolveError(ret)
	}

	s.logger.Print(fmt.Sprintf("lp_solve: %s after %s", res.Status, res.Runtime))

	return res, nil
}

// load copies columns, objective and rows into prob, which must have been
// created with one column per model variable.
func (s *Solver) load(prob *C.lprec, model *milp.Model) {
	name := C.CString(model.Name())
	defer C.free(unsafe.Pointer(name))
	C.set_lp_name(prob, name)

	infinity := float64(C.get_infinite(prob))
	bound := func(b float64) C.REAL {
		return C.REAL(math.Max(-infinity, math.Min(infinity, b)))
	}

	for i, v := range model.Variables() {
		col := C.int(i + 1)

		colName := C.CString(v.Name)
		C.set_col_name(prob, col, colName)
		C.free(unsafe.Pointer(colName))

		switch v.Kind {
		case milp.Binary:
			C.set_binary(prob, col, C.TRUE)
		case milp.Integer:
			C.set_int(prob, col, C.TRUE)
			C.set_bounds(prob, col, bound(v.Lower), bound(v.Upper))
		default:
			C.set_bounds(prob, col, bound(v.Lower), bound(v.Upper))
		}
	}

	obj := model.Objective()
	if len(obj.Terms) > 0 {
		row, colno := sparse(obj.Terms)
		C.set_obj_fnex(prob, C.int(len(row)), &row[0], &colno[0])
	}
	if obj.Direction == milp.Maximize {
		C.set_maxim(prob)
	} else {
		C.set_minim(prob)
	}

	C.set_add_rowmode(prob, C.TRUE)
	var rows []string
	for _, c := range model.Constraints() {
		if len(c.Terms) == 0 {
			continue
		}
		row, colno := sparse(c.Terms)
		C.add_constraintex(prob, C.int(len(row)), &row[0], &colno[0], relation(c.Relation), C.REAL(c.RHS))
		rows = append(rows, c.Name)
	}
	C.set_add_rowmode(prob, C.FALSE)

	for i, r := range rows {
		rowName := C.CString(r)
		C.set_row_name(prob, C.int(i+1), rowName)
		C.free(unsafe.Pointer(rowName))
	}
}

func sparse(terms []milp.Term) ([]C.REAL, []C.int) {
	row := make([]C.REAL, len(terms))
	colno := make([]C.int, len(terms))
	for i, t := range terms {
		colno[i] = C.int(t.Var + 1)
		row[i] = C.REAL(t.Coef)
	}
	return row, colno
}

func relation(r milp.Relation) C.int {
	switch r {
	case milp.Equal:
		return C.EQ
	case milp.GreaterEqual:
		return C.GE
	default:
		return C.LE
	}
}

func readSolution(prob *C.lprec, model *milp.Model, res *milp.Result) {
	res.Objective = float64(C.get_objective(prob))

	n := model.VariableCount()
	if n == 0 {
		return
	}
	values := make([]C.REAL, n)
	C.get_variables(prob, &values[0])

	res.Values = make([]float64, n)
	for i, v := range values {
		res.Values[i] = float64(v)
	}
}

//export logCallback
func logCallback(prob *C.lprec, solverPtr unsafe.Pointer, msg *C.char) {
	s, ok := cref.Load(solverPtr).(*Solver)
	if !ok {
		return
	}

	s.logger.Print(C.GoString(msg))
}

//export abortCallback
func abortCallback(prob *C.lprec, ctxPtr unsafe.Pointer) C.int {
	ctx, ok := cref.Load(ctxPtr).(context.Context)
	if ok && ctx.Err() != nil {
		return C.TRUE
	}

	return C.FALSE
}
