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
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costela/blightlp/internal/exhaustive"
	"github.com/costela/blightlp/milp"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Print(v ...interface{}) {
	l.lines = append(l.lines, fmt.Sprint(v...))
}

func setKey(ids []HouseID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = string(id)
	}
	sort.Strings(s)
	return strings.Join(s, ",")
}

func TestNoGoodCutsNeverRepeat(t *testing.T) {
	logger := &recordingLogger{}
	e := enumerator(t, build(t, aggregatedProblem(t, 1e9)), WithLogger(logger))

	log, err := e.Run(context.Background(), 0)
	require.NoError(t, err)
	require.NotEmpty(t, log)

	seen := map[string]int{}
	for i, s := range log {
		key := setKey(s.Demolished)
		prev, dup := seen[key]
		assert.False(t, dup, "plan {%s} of iteration %d repeats iteration %d", key, i, prev)
		seen[key] = i
		assert.Equal(t, i, s.Iteration)
		assert.Equal(t, len(s.Demolished), s.Count)
		assert.NotContains(t, s.Demolished, HouseID("p"))
	}

	last := log[len(log)-1]
	assert.Empty(t, last.Demolished)
	assert.Equal(t, StateExhausted, e.State())
	assert.True(t, e.Done())

	// objectives only get worse as plans are cut away
	for i := 1; i < len(log); i++ {
		assert.LessOrEqual(t, log[i].Objective, log[i-1].Objective+delta)
	}

	_, err = e.Solve(context.Background())
	assert.ErrorIs(t, err, ErrExhausted)

	assert.Contains(t, logger.lines[0], "variables")
	assert.Contains(t, strings.Join(logger.lines, "\n"), "added nogood[1]")
	assert.Contains(t, logger.lines[len(logger.lines)-1], "exhausted")
}

func TestRunLimit(t *testing.T) {
	e := enumerator(t, build(t, aggregatedProblem(t, 1e9)))

	log, err := e.Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, log, 2)
	assert.Equal(t, StateCut, e.State())
	assert.False(t, e.Done())
	assert.NotEqual(t, setKey(log[0].Demolished), setKey(log[1].Demolished))
}

func TestInfeasibleIsTerminal(t *testing.T) {
	b := build(t, aggregatedProblem(t, 0))
	force(t, b, 1, "o1")
	e := enumerator(t, b)

	_, err := e.Run(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInfeasible)
	assert.Equal(t, StateHalted, e.State())
	require.Len(t, e.Log(), 1)
	assert.Equal(t, milp.StatusInfeasible, e.Log()[0].Status)
	assert.Contains(t, e.Log()[0].String(), "infeasible")

	_, err = e.Solve(context.Background())
	assert.ErrorIs(t, err, ErrHalted)
}

func timeLimited() milp.Solver {
	return milp.SolverFunc(func(ctx context.Context, m *milp.Model) (*milp.Result, error) {
		res, err := exhaustive.New().Solve(ctx, m)
		if err != nil {
			return nil, err
		}
		if res.Status == milp.StatusOptimal {
			res.Status = milp.StatusTimeLimit
		}
		return res, nil
	})
}

func TestTimeLimitRefusesCut(t *testing.T) {
	e, err := NewEnumerator(build(t, aggregatedProblem(t, 1e9)), timeLimited())
	require.NoError(t, err)

	sol, err := e.Next(context.Background())
	assert.ErrorIs(t, err, ErrSuboptimal)
	assert.False(t, sol.Optimal())
	assert.Contains(t, sol.String(), "time limit")
	assert.Equal(t, StateSolved, e.State())
	require.Len(t, e.Log(), 1)

	assert.ErrorIs(t, e.Cut(), ErrSuboptimal)
	assert.Equal(t, StateHalted, e.State())
	assert.Equal(t, 0, countNoGoods(e.builder.Model()))
}

func TestTimeLimitWithSuboptimalCuts(t *testing.T) {
	e, err := NewEnumerator(build(t, aggregatedProblem(t, 1e9)), timeLimited(), WithSuboptimalCuts(true))
	require.NoError(t, err)

	log, err := e.Run(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, log, 3)
	assert.Equal(t, 3, countNoGoods(e.builder.Model()))
	for _, s := range log {
		assert.Equal(t, milp.StatusTimeLimit, s.Status)
	}
}

func TestTimeLimitWithoutIncumbent(t *testing.T) {
	solver := milp.SolverFunc(func(context.Context, *milp.Model) (*milp.Result, error) {
		return &milp.Result{Status: milp.StatusTimeLimit, Runtime: time.Second}, nil
	})
	e, err := NewEnumerator(build(t, aggregatedProblem(t, 1e9)), solver, WithSuboptimalCuts(true))
	require.NoError(t, err)

	_, err = e.Solve(context.Background())
	assert.ErrorIs(t, err, milp.ErrNoSolution)
	assert.True(t, e.Done())
}

func TestSolverFailure(t *testing.T) {
	boom := errors.New("boom")
	solver := milp.SolverFunc(func(context.Context, *milp.Model) (*milp.Result, error) {
		return nil, boom
	})
	e, err := NewEnumerator(build(t, aggregatedProblem(t, 1e9)), solver)
	require.NoError(t, err)

	_, err = e.Next(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateHalted, e.State())
	assert.Empty(t, e.Log())
}

func TestSolverFailureWithResult(t *testing.T) {
	boom := errors.New("boom")
	solver := milp.SolverFunc(func(context.Context, *milp.Model) (*milp.Result, error) {
		return &milp.Result{Status: milp.StatusError}, boom
	})
	e, err := NewEnumerator(build(t, aggregatedProblem(t, 1e9)), solver)
	require.NoError(t, err)

	_, err = e.Solve(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "solving iteration 0:")
	require.Len(t, e.Log(), 1)
	assert.Equal(t, 0, e.Log()[0].Iteration)
	assert.Equal(t, milp.StatusError, e.Log()[0].Status)
}

func TestStateMisuse(t *testing.T) {
	e := enumerator(t, build(t, aggregatedProblem(t, 1e9)))

	assert.Error(t, e.Cut())
	_, err := e.Solve(context.Background())
	require.NoError(t, err)
	_, err = e.Solve(context.Background())
	assert.Error(t, err)
	assert.NoError(t, e.Cut())
}

func TestOptionError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewEnumerator(build(t, aggregatedProblem(t, 1e9)), exhaustive.New(), func(*Enumerator) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestStatusLogString(t *testing.T) {
	log := StatusLog{
		{Status: milp.StatusOptimal, Spend: 27000, Count: 1, Objective: -0.5, Runtime: 2 * time.Millisecond},
		{Status: milp.StatusTimeLimit, Spend: 0, Count: 0, Objective: -1, Runtime: time.Second},
	}

	assert.Equal(t,
		"Budget : 27000   number of houses : 1   ObjVal : -0.5   Running Time : 2ms\n"+
			"Budget : 0   number of houses : 0   ObjVal : -1   Running Time : 1s   (time limit)\n",
		log.String())

	var sb strings.Builder
	n, err := log.WriteTo(&sb)
	require.NoError(t, err)
	assert.Equal(t, int64(len(log.String())), n)
}

func countNoGoods(m *milp.Model) int {
	var n int
	for _, c := range m.Constraints() {
		if strings.HasPrefix(c.Name, "nogood[") {
			n++
		}
	}
	return n
}
