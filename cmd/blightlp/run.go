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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/costela/blightlp"
	"github.com/costela/blightlp/config"
	"github.com/costela/blightlp/distance"
	"github.com/costela/blightlp/footprint"
	"github.com/costela/blightlp/glpk"
	"github.com/costela/blightlp/highs"
	"github.com/costela/blightlp/lpsolve"
	"github.com/costela/blightlp/milp"
)

// apply copies the flags given on the command line over the file values.
func (o *overrides) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("budget") {
		cfg.Budget = o.budget
	}
	if f.Changed("strategy") {
		cfg.Objective.Strategy = o.strategy
	}
	if f.Changed("solver") {
		cfg.Solver.Backend = o.backend
	}
	if f.Changed("solutions") {
		cfg.Solutions = o.solutions
	}
	if f.Changed("time-limit") {
		cfg.Solver.TimeLimit = o.timeLimit
	}
	if f.Changed("suboptimal-cuts") {
		cfg.Solver.SuboptimalCuts = o.suboptimal
	}
}

// loadConfig reads the optional config path, falling back to the defaults.
func loadConfig(args []string) (*config.Config, error) {
	if len(args) == 0 {
		cfg := config.Default()
		return &cfg, nil
	}
	cfg, err := config.Load(args[0])
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger writes human-readable lines to w. Library output is logged
// at debug level and only shows with verbose.
func newLogger(w io.Writer, verbose bool) *zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().
		Logger()
	return &logger
}

func newSolver(cfg *config.Config, logger *zerolog.Logger) (milp.Solver, error) {
	switch cfg.Solver.Backend {
	case "lpsolve":
		return lpsolve.New(
			lpsolve.WithLogger(logger),
			lpsolve.WithTimeout(cfg.Solver.TimeLimit),
		)
	case "glpk":
		return glpk.New(
			glpk.WithLogger(logger),
			glpk.WithTimeout(cfg.Solver.TimeLimit),
			glpk.WithVerbose(logger.GetLevel() <= zerolog.DebugLevel),
		)
	case "highs":
		return highs.New(
			highs.WithLogger(logger),
			highs.WithTimeout(cfg.Solver.TimeLimit),
		)
	default:
		return nil, fmt.Errorf("unknown solver backend %q", cfg.Solver.Backend)
	}
}

func loadFootprint(cfg *config.Config, logger *zerolog.Logger) (*blightlp.Footprint, error) {
	if cfg.Input.Buildings == "" {
		return nil, fmt.Errorf("no building footprints configured (input.buildings)")
	}
	fp, err := footprint.LoadFile(cfg.Input.Buildings, cfg.FootprintOptions())
	if err != nil {
		return nil, fmt.Errorf("loading footprint: %w", err)
	}
	logger.Info().
		Int("houses", len(fp.Houses())).
		Int("edges", len(fp.Edges())).
		Msg("footprint loaded")
	return fp, nil
}

// newStrategy builds the objective, loading the street network first when
// the walking strategy needs one.
func newStrategy(cfg *config.Config, logger *zerolog.Logger) (blightlp.Strategy, error) {
	if cfg.Objective.Strategy != "walking" {
		return cfg.Strategy(nil)
	}

	rc, err := footprint.StreetsFile(cfg.Input.Streets)
	if err != nil {
		return nil, fmt.Errorf("loading streets: %w", err)
	}
	logger.Info().
		Int("nodes", rc.NodeCount()).
		Int("segments", rc.SegmentCount()).
		Msg("street network loaded")

	network, err := distance.NewNetwork(rc, append(cfg.NetworkOptions(), distance.WithLogger(logger))...)
	if err != nil {
		return nil, err
	}
	return cfg.Strategy(network)
}

func runSolve(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, out io.Writer) error {
	fp, err := loadFootprint(cfg, logger)
	if err != nil {
		return err
	}
	strategy, err := newStrategy(cfg, logger)
	if err != nil {
		return err
	}
	solver, err := newSolver(cfg, logger)
	if err != nil {
		return err
	}

	b, err := blightlp.Build(ctx, blightlp.Problem{
		Name:      cfg.Name,
		Footprint: fp,
		Prices:    cfg.Prices,
		Budget:    cfg.Budget,
		Objective: strategy,
	})
	if err != nil {
		return fmt.Errorf("building model: %w", err)
	}

	e, err := blightlp.NewEnumerator(b, solver,
		blightlp.WithLogger(logger),
		blightlp.WithSuboptimalCuts(cfg.Solver.SuboptimalCuts),
	)
	if err != nil {
		return err
	}

	plans, err := e.Run(ctx, cfg.Solutions)
	printPlans(out, plans)

	switch {
	case errors.Is(err, blightlp.ErrInfeasible):
		return fmt.Errorf("no plan fits a budget of %g: %w", cfg.Budget, err)
	case errors.Is(err, blightlp.ErrSuboptimal):
		logger.Warn().Msg("stopped at the time limit; rerun with --suboptimal-cuts to continue")
		return nil
	case err != nil:
		return err
	}
	if e.State() == blightlp.StateExhausted {
		logger.Info().Int("plans", len(plans)).Msg("every plan within budget enumerated")
	}
	return nil
}

func runValidate(cfg *config.Config, logger *zerolog.Logger, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "Result: INVALID (%s)\n", err)
		return err
	}
	fp, err := loadFootprint(cfg, logger)
	if err != nil {
		fmt.Fprintf(out, "Result: INVALID (%s)\n", err)
		return err
	}
	if _, err := blightlp.NewCostTable(fp, cfg.Prices); err != nil {
		fmt.Fprintf(out, "Result: INVALID (%s)\n", err)
		return err
	}
	printFootprintSummary(out, fp)
	return nil
}

func runCost(cfg *config.Config, logger *zerolog.Logger, out io.Writer) error {
	fp, err := loadFootprint(cfg, logger)
	if err != nil {
		return err
	}
	costs, err := blightlp.NewCostTable(fp, cfg.Prices)
	if err != nil {
		return err
	}
	printCostTable(out, fp, costs, cfg.Budget)
	return nil
}
