package lpsolve

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

// WithTimeout limits every solve. lp_solve counts whole seconds, so the
// duration is rounded up.
func WithTimeout(d time.Duration) Option {
	return func(s *Solver) error {
		if d < 0 {
			return fmt.Errorf("negative timeout %s", d)
		}
		s.timeout = d

		return nil
	}
}
