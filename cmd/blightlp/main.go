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
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "blightlp",
		Short:        "Plan row-house demolitions against a budget and blight exposure",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log model building and solver output")

	root.AddCommand(solveCmd(&verbose))
	root.AddCommand(validateCmd(&verbose))
	root.AddCommand(costCmd(&verbose))
	return root
}

func solveCmd(verbose *bool) *cobra.Command {
	var o overrides

	cmd := &cobra.Command{
		Use:   "solve [config-path]",
		Short: "Enumerate demolition plans, best first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}
			o.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runSolve(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr(), *verbose), cmd.OutOrStdout())
		},
	}

	o.register(cmd)
	return cmd
}

func validateCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config-path]",
		Short: "Check a configuration and its footprint without solving",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}
			return runValidate(cfg, newLogger(cmd.ErrOrStderr(), *verbose), cmd.OutOrStdout())
		},
	}
}

func costCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "cost [config-path]",
		Short: "Display the per-house and per-wall cost table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runCost(cfg, newLogger(cmd.ErrOrStderr(), *verbose), cmd.OutOrStdout())
		},
	}
}

type overrides struct {
	budget     float64
	strategy   string
	backend    string
	solutions  int
	timeLimit  time.Duration
	suboptimal bool
}

func (o *overrides) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&o.budget, "budget", 0, "budget in dollars")
	f.StringVar(&o.strategy, "strategy", "", "objective strategy: exact, aggregated, walking or maximin")
	f.StringVar(&o.backend, "solver", "", "solver backend: lpsolve, glpk or highs")
	f.IntVarP(&o.solutions, "solutions", "n", 0, "number of plans to enumerate")
	f.DurationVar(&o.timeLimit, "time-limit", 0, "time limit per solve, e.g. 90s")
	f.BoolVar(&o.suboptimal, "suboptimal-cuts", false, "keep enumerating after a solve hits its time limit")
}
