/*
Copyright © 2015 Leo Antunes <leo@costela.net>

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

// Package glpk solves milp models with GLPK's branch-and-cut solver.
package glpk

// #cgo LDFLAGS: -lglpk
// #include <glpk.h>
// #include <stdlib.h>
/*
extern void branchCutCallback(glp_tree *tree, void *info);
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

type Solver struct {
	logger   Logger
	timeout  time.Duration
	presolve bool
	verbose  bool
}

var _ milp.Solver = (*Solver)(nil)

func New(opts ...Option) (*Solver, error) {
	s := &Solver{
		logger:   noopLogger{},
		presolve: true,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("applying solver option: %w", err)
		}
	}

	return s, nil
}

/* Solving */

// Solve builds a fresh GLPK problem from model and runs glp_intopt on it.
// A cancelled ctx terminates the search; ctx.Err() is returned unless an
// integer solution was already found, which is then reported with
// StatusTimeLimit.
func (s *Solver) Solve(ctx context.Context, model *milp.Model) (*milp.Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prob := C.glp_create_prob()
	defer C.glp_delete_prob(prob)

	load(prob, model)

	var parm C.glp_iocp
	C.glp_init_iocp(&parm)

	if s.verbose {
		parm.msg_lev = C.GLP_MSG_ON
	} else {
		parm.msg_lev = C.GLP_MSG_OFF
	}

	if s.presolve {
		parm.presolve = C.GLP_ON
	} else {
		parm.presolve = C.GLP_OFF
		// without the presolver glp_intopt needs an optimal relaxation basis
		if res, err := s.solveRelaxation(prob, start); res != nil || err != nil {
			return res, err
		}
	}

	if s.timeout > 0 {
		parm.tm_lim = C.int(s.timeout.Milliseconds())
	}

	ctxRef := cref.Save(ctx)
	defer cref.Release(ctxRef)
	parm.cb_func = (*[0]byte)(C.branchCutCallback)
	parm.cb_info = ctxRef

	ret := C.glp_intopt(prob, &parm)
	res := &milp.Result{Runtime: time.Since(start)}

	switch ret {
	case 0, C.GLP_EMIPGAP:
		switch C.glp_mip_status(prob) {
		case C.GLP_OPT:
			res.Status = milp.StatusOptimal
			readSolution(prob, model, res)
		case C.GLP_FEAS:
			res.Status = milp.StatusTimeLimit
			readSolution(prob, model, res)
		case C.GLP_NOFEAS:
			res.Status = milp.StatusInfeasible
		default:
			res.Status = milp.StatusError
			return res, fmt.Errorf("glpk finished without a defined solution")
		}
	case C.GLP_ENOPFS:
		res.Status = milp.StatusInfeasible
	case C.GLP_ETMLIM:
		res.Status = milp.StatusTimeLimit
		if C.glp_mip_status(prob) == C.GLP_FEAS {
			readSolution(prob, model, res)
		}
	case C.GLP_ESTOP:
		if C.glp_mip_status(prob) != C.GLP_FEAS {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		res.Status = milp.StatusTimeLimit
		readSolution(prob, model, res)
	default:
		res.Status = milp.StatusError
		return res, glpkError(ret)
	}

	s.logger.Print(fmt.Sprintf("glpk: %s after %s", res.Status, res.Runtime))

	return res, nil
}

// solveRelaxation runs the dual simplex on the LP relaxation. It returns
// a result only when the relaxation already settles the model.
func (s *Solver) solveRelaxation(prob *C.glp_prob, start time.Time) (*milp.Result, error) {
	var parm C.glp_smcp
	C.glp_init_smcp(&parm)
	parm.meth = C.GLP_DUALP

	if s.verbose {
		parm.msg_lev = C.GLP_MSG_ON
	} else {
		parm.msg_lev = C.GLP_MSG_OFF
	}

	if err := glpkError(C.glp_simplex(prob, &parm)); err != nil {
		return &milp.Result{Status: milp.StatusError, Runtime: time.Since(start)}, err
	}

	switch C.glp_get_status(prob) {
	case C.GLP_OPT:
		return nil, nil
	case C.GLP_NOFEAS, C.GLP_INFEAS:
		return &milp.Result{Status: milp.StatusInfeasible, Runtime: time.Since(start)}, nil
	default:
		return &milp.Result{Status: milp.StatusError, Runtime: time.Since(start)}, fmt.Errorf("LP relaxation is not optimal")
	}
}

// load copies columns, objective and rows into the empty problem prob.
func load(prob *C.glp_prob, model *milp.Model) {
	name := C.CString(model.Name())
	defer C.free(unsafe.Pointer(name))
	C.glp_set_prob_name(prob, name)

	if model.Objective().Direction == milp.Maximize {
		C.glp_set_obj_dir(prob, C.GLP_MAX)
	} else {
		C.glp_set_obj_dir(prob, C.GLP_MIN)
	}

	vars := model.Variables()
	if len(vars) > 0 {
		C.glp_add_cols(prob, C.int(len(vars)))
	}
	coefs := model.ObjectiveCoefficients()
	for i, v := range vars {
		col := C.int(i + 1)

		colName := C.CString(v.Name)
		C.glp_set_col_name(prob, col, colName)
		C.free(unsafe.Pointer(colName))

		switch v.Kind {
		case milp.Binary:
			C.glp_set_col_kind(prob, col, C.GLP_BV)
		case milp.Integer:
			C.glp_set_col_kind(prob, col, C.GLP_IV)
			setColBounds(prob, col, v.Lower, v.Upper)
		default:
			setColBounds(prob, col, v.Lower, v.Upper)
		}
		C.glp_set_obj_coef(prob, col, C.double(coefs[i]))
	}

	constraints := model.Constraints()
	if len(constraints) > 0 {
		C.glp_add_rows(prob, C.int(len(constraints)))
	}

	// glpk indices start at 1; index 0 is reserved
	ia := []C.int{0}
	ja := []C.int{0}
	ar := []C.double{0}
	for i, c := range constraints {
		row := C.int(i + 1)

		rowName := C.CString(c.Name)
		C.glp_set_row_name(prob, row, rowName)
		C.free(unsafe.Pointer(rowName))

		switch c.Relation {
		case milp.Equal:
			C.glp_set_row_bnds(prob, row, C.GLP_FX, C.double(c.RHS), C.double(c.RHS))
		case milp.GreaterEqual:
			C.glp_set_row_bnds(prob, row, C.GLP_LO, C.double(c.RHS), C.double(0))
		default:
			C.glp_set_row_bnds(prob, row, C.GLP_UP, C.double(0), C.double(c.RHS))
		}

		for _, t := range c.Terms {
			ia = append(ia, row)
			ja = append(ja, C.int(t.Var+1))
			ar = append(ar, C.double(t.Coef))
		}
	}
	C.glp_load_matrix(prob, C.int(len(ia)-1), &ia[0], &ja[0], &ar[0])
}

// setColBounds sets the boundaries for the given column. Infinite bounds
// leave that side open.
func setColBounds(prob *C.glp_prob, col C.int, lower, upper float64) {
	switch {
	case math.IsInf(lower, 0) && math.IsInf(upper, 0):
		C.glp_set_col_bnds(prob, col, C.GLP_FR, C.double(0), C.double(0))
	case math.IsInf(lower, 0):
		C.glp_set_col_bnds(prob, col, C.GLP_UP, C.double(0), C.double(upper))
	case math.IsInf(upper, 0):
		C.glp_set_col_bnds(prob, col, C.GLP_LO, C.double(lower), C.double(0))
	case upper == lower:
		C.glp_set_col_bnds(prob, col, C.GLP_FX, C.double(lower), C.double(upper))
	default:
		C.glp_set_col_bnds(prob, col, C.GLP_DB, C.double(lower), C.double(upper))
	}
}

func readSolution(prob *C.glp_prob, model *milp.Model, res *milp.Result) {
	res.Objective = float64(C.glp_mip_obj_val(prob))

	res.Values = make([]float64, model.VariableCount())
	for i := range res.Values {
		res.Values[i] = float64(C.glp_mip_col_val(prob, C.int(i+1)))
	}
}

//export branchCutCallback
func branchCutCallback(tree *C.glp_tree, info unsafe.Pointer) {
	ctx, ok := cref.Load(info).(context.Context)
	if ok && ctx.Err() != nil {
		C.glp_ios_terminate(tree)
	}
}
