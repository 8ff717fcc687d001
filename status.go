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
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/costela/blightlp/milp"
)

// Solution is the record of one solve.
type Solution struct {
	Iteration  int
	Status     milp.Status
	Demolished []HouseID
	// Spend is the left-hand side of the budget constraint: the cost
	// relative to demolishing nothing.
	Spend     float64
	Count     int
	Objective float64
	Runtime   time.Duration
}

// Optimal reports whether the plan carries the solver's optimality guarantee.
func (s Solution) Optimal() bool {
	return s.Status == milp.StatusOptimal
}

func (s Solution) String() string {
	if s.Status == milp.StatusInfeasible || s.Status == milp.StatusError {
		return fmt.Sprintf("Status : %s   Running Time : %s", s.Status, s.Runtime)
	}
	line := fmt.Sprintf("Budget : %g   number of houses : %d   ObjVal : %g   Running Time : %s",
		s.Spend, s.Count, s.Objective, s.Runtime)
	if !s.Optimal() {
		line += "   (" + s.Status.String() + ")"
	}
	return line
}

// StatusLog is the append-only sequence of solve records.
type StatusLog []Solution

func (l StatusLog) String() string {
	var sb strings.Builder
	for _, s := range l {
		sb.WriteString(s.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (l StatusLog) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, l.String())
	return int64(n), err
}

// Record evaluates a solver result against the builder's cost tables.
func (b *Builder) Record(iteration int, res *milp.Result) Solution {
	sol := Solution{
		Iteration: iteration,
		Status:    res.Status,
		Runtime:   res.Runtime,
	}
	if !res.HasSolution() {
		return sol
	}

	sol.Demolished = b.Demolished(res)
	set := make(map[HouseID]struct{}, len(sol.Demolished))
	for _, id := range sol.Demolished {
		set[id] = struct{}{}
	}
	sol.Count = len(sol.Demolished)
	sol.Spend = b.costs.Spend(b.fp, func(id HouseID) bool {
		_, ok := set[id]
		return ok
	})
	sol.Objective = res.Objective
	return sol
}
