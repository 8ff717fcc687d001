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

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costela/blightlp/internal/solvertest"
	"github.com/costela/blightlp/milp"
)

var (
	bigModel     *milp.Model
	bigModelOnce sync.Once
)

func getBigModel(t *testing.T) *milp.Model {
	t.Helper()

	bigModelOnce.Do(func() {
		numVars := 10000
		model := milp.NewModel("testBig")

		obj := make([]milp.Term, numVars)
		for i := 0; i < numVars; i++ {
			v := model.AddVariable(fmt.Sprintf("x%d", i), milp.Integer, math.Inf(-1), math.Inf(1))
			obj[i] = milp.T(v, 1)
			require.NoError(t, model.AddConstraint("", milp.GreaterEqual, -float64(i), milp.T(v, 1)))
			require.NoError(t, model.AddConstraint("", milp.LessEqual, float64(i), milp.T(v, 1)))
		}
		require.NoError(t, model.SetObjective(milp.Maximize, obj...))

		bigModel = model
	})

	return bigModel
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Print(v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprint(v...))
}

func newSolver(t *testing.T, opts ...Option) *Solver {
	t.Helper()

	s, err := New(opts...)
	require.NoError(t, err)
	return s
}

func TestSolver(t *testing.T) {
	solvertest.Run(t, newSolver(t))
}

func TestOptions(t *testing.T) {
	_, err := New(WithTimeout(-time.Second))
	assert.Error(t, err)

	s := newSolver(t, WithTimeout(1500*time.Millisecond))
	assert.Equal(t, 1500*time.Millisecond, s.timeout)
}

func TestLogger(t *testing.T) {
	logger := &recordingLogger{}
	model, _ := solvertest.MIPModel()

	_, err := newSolver(t, WithLogger(logger)).Solve(context.Background(), model)
	require.NoError(t, err)

	require.NotEmpty(t, logger.lines)
	assert.Contains(t, logger.lines[len(logger.lines)-1], "optimal")
}

func TestEmptyRow(t *testing.T) {
	model := milp.NewModel("empty")
	x := model.AddBinary("x")
	require.NoError(t, model.SetObjective(milp.Maximize, milp.T(x, 1)))
	require.NoError(t, model.AddConstraint("trivial", milp.LessEqual, 0))

	res, err := newSolver(t).Solve(context.Background(), model)
	require.NoError(t, err)
	assert.Equal(t, milp.StatusOptimal, res.Status)
	assert.InDelta(t, 1, res.Value(x), 1e-9)

	require.NoError(t, model.AddConstraint("impossible", milp.GreaterEqual, 1))
	res, err = newSolver(t).Solve(context.Background(), model)
	require.NoError(t, err)
	assert.Equal(t, milp.StatusInfeasible, res.Status)
}

func TestSolveError(t *testing.T) {
	model := milp.NewModel("unbounded")
	x := model.AddContinuous("x", 0, math.Inf(1))
	require.NoError(t, model.SetObjective(milp.Maximize, milp.T(x, 1)))

	res, err := newSolver(t).Solve(context.Background(), model)
	assert.ErrorIs(t, err, ErrModelUnbounded)
	require.NotNil(t, res)
	assert.Equal(t, milp.StatusError, res.Status)
}

func TestBig(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	res, err := newSolver(t).Solve(context.Background(), getBigModel(t))
	require.NoError(t, err)

	expected := 49995000.0
	assert.Equal(t, expected, res.Objective)
}

func TestContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSolver(t).Solve(ctx, getBigModel(t))
	assert.ErrorIs(t, err, context.Canceled)
}

// Try to detect non-reentrant code in underlying lib
func TestParallel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	model := getBigModel(t)
	solver := newSolver(t)

	wg := sync.WaitGroup{}
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			solver.Solve(context.Background(), model)
		}()
	}
	wg.Wait()
}
