package distance

import (
	"fmt"
	"time"

	"github.com/costela/blightlp"
)

type Option func(*Network) error

// Logger is satisfied by *log.Logger and *zerolog.Logger.
type Logger interface {
	Print(v ...interface{})
}

type noopLogger struct{}

func (noopLogger) Print(v ...interface{}) {}

func WithLogger(logger Logger) Option {
	return func(n *Network) error {
		n.logger = logger

		return nil
	}
}

func WithGeocoder(g Geocoder) Option {
	return func(n *Network) error {
		n.geocoder = g

		return nil
	}
}

// WithCeiling sets the distance cap in meters.
func WithCeiling(meters float64) Option {
	return func(n *Network) error {
		if meters <= 0 {
			return fmt.Errorf("ceiling must be positive, got %g", meters)
		}
		n.ceiling = meters

		return nil
	}
}

// WithFallback replaces the great-circle metric used for unroutable pairs.
func WithFallback(m blightlp.Metric) Option {
	return func(n *Network) error {
		if m == nil {
			return fmt.Errorf("nil fallback metric")
		}
		n.fallback = m

		return nil
	}
}

// WithRetry configures geocoding retries: up to attempts extra tries,
// starting backoff apart and doubling.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(n *Network) error {
		if attempts < 0 || backoff < 0 {
			return fmt.Errorf("invalid retry policy %d/%s", attempts, backoff)
		}
		n.retries, n.backoff = attempts, backoff

		return nil
	}
}
