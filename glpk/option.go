package glpk

import (
	"fmt"
	"time"
)

type Option func(*Solver) error

func WithLogger(logger Logger) Option {
	return func(s *Solver) error {
		s.logger = logger

		return nil
	}
}

// WithTimeout limits every solve, with millisecond resolution.
func WithTimeout(d time.Duration) Option {
	return func(s *Solver) error {
		if d < 0 {
			return fmt.Errorf("negative timeout %s", d)
		}
		s.timeout = d

		return nil
	}
}

// WithPresolve toggles the MIP presolver, which is on by default.
func WithPresolve(on bool) Option {
	return func(s *Solver) error {
		s.presolve = on

		return nil
	}
}

// WithVerbose lets GLPK print its own progress to stdout.
func WithVerbose(on bool) Option {
	return func(s *Solver) error {
		s.verbose = on

		return nil
	}
}
