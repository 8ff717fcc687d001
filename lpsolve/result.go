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

package lpsolve

// #cgo CFLAGS: -I/usr/include/lpsolve/
// #include <lp_lib.h>
import "C"

import "fmt"

// SolveError is the lp_solve return code of a solve that produced neither
// a solution nor a proof of infeasibility.
type SolveError C.int

const (
	ErrBranchCutBreak   = SolveError(C.PROCBREAK)
	ErrBranchCutFail    = SolveError(C.PROCFAIL)
	ErrFeasibleFound    = SolveError(C.FEASFOUND)
	ErrModelDegenerate  = SolveError(C.DEGENERATE)
	ErrModelUnbounded   = SolveError(C.UNBOUNDED)
	ErrNoFeasibleFound  = SolveError(C.NOFEASFOUND)
	ErrNoMemory         = SolveError(C.NOMEMORY)
	ErrNumericalFailure = SolveError(C.NUMFAILURE)
	ErrUserAbort        = SolveError(C.USERABORT)
)

// Error returns a string representation of the given error value.
func (e SolveError) Error() string {
	switch e {
	case ErrBranchCutBreak:
		return "branch-and-cut stopped at breakpoint"
	case ErrBranchCutFail:
		return "branch-and-cut failure"
	case ErrFeasibleFound:
		return "feasible but non-integer solution found"
	case ErrModelDegenerate:
		return "model is degenerate"
	case ErrModelUnbounded:
		return "model is unbounded"
	case ErrNoFeasibleFound:
		return "no feasible solution found"
	case ErrNoMemory:
		return "ran out of memory while solving"
	case ErrNumericalFailure:
		return "numerical failure while solving"
	case ErrUserAbort:
		return "aborted by user abort function"
	default:
		return fmt.Sprintf("lp_solve returned %d", int(e))
	}
}
