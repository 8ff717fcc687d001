package highs

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

// WithTimeout sets the HiGHS time_limit option for every solve. A solve
// stopped by it reports milp.StatusTimeLimit.
func WithTimeout(d time.Duration) Option {
	return func(s *Solver) error {
		if d < 0 {
			return fmt.Errorf("negative timeout %s", d)
		}
		s.timeout = d

		return nil
	}
}

// Logger receives one summary line per solve.
type Logger interface {
	Print(v ...interface{})
}

type noopLogger struct{}

func (noopLogger) Print(v ...interface{}) {}
