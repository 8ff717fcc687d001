package blightlp

type Option func(*Enumerator) error

func WithLogger(logger Logger) Option {
	return func(e *Enumerator) error {
		e.logger = logger

		return nil
	}
}

// WithSuboptimalCuts lets the enumerator cut and continue after a solve
// stopped at its time limit. The cut then excludes a best-known plan
// rather than an optimal one, so later plans carry no optimality
// guarantee with respect to the uncut model.
func WithSuboptimalCuts(allow bool) Option {
	return func(e *Enumerator) error {
		e.suboptimalCuts = allow

		return nil
	}
}
