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
	"fmt"
	"math"
)

// MinDistance is the floor applied to distances before decay, which keeps
// weights of coincident centroids finite. It is far below the precision of
// footprint centroids, so h is strictly decreasing over any measurable
// distance.
const MinDistance = 0.01

// Decay is the influence a vacant house exerts on an occupied one:
// 1/distance^Power within Cutoff meters, 0 beyond. Power 0 turns it into
// an indicator of "within Cutoff".
type Decay struct {
	Cutoff float64 `yaml:"cutoff"`
	Power  float64 `yaml:"power"`
}

func DefaultDecay() Decay {
	return Decay{Cutoff: 30, Power: 1}
}

func (d Decay) Validate() error {
	if d.Cutoff < 0 || math.IsNaN(d.Cutoff) {
		return fmt.Errorf("decay cutoff must be non-negative, got %g", d.Cutoff)
	}
	if d.Power < 0 || math.IsNaN(d.Power) {
		return fmt.Errorf("decay power must be non-negative, got %g", d.Power)
	}
	return nil
}

func (d Decay) Weight(distance float64) float64 {
	if distance > d.Cutoff {
		return 0
	}
	return 1 / math.Pow(math.Max(distance, MinDistance), d.Power)
}

// Metric measures the distance in meters between two houses. Lookups may
// block on I/O; implementations are expected to cache.
type Metric interface {
	Distance(ctx context.Context, a, b House) (float64, error)
}

// MetricFunc adapts a function to the Metric interface.
type MetricFunc func(ctx context.Context, a, b House) (float64, error)

func (f MetricFunc) Distance(ctx context.Context, a, b House) (float64, error) {
	return f(ctx, a, b)
}
