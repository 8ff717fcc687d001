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

	"github.com/paulmach/orb/geo"

	"github.com/costela/blightlp/milp"
)

// Strategy owns the variables, constraints and objective that encode
// blight influence. Exactly one strategy is attached to a model.
//
// All strategies share one sign convention: they score the blight
// exposure of occupied houses, and a better plan exposes less. Exact
// minimizes exposure, Aggregated and Walking maximize its negation and
// Maximin maximizes the distance to the nearest remaining vacant house.
type Strategy interface {
	Name() string
	Attach(ctx context.Context, b *Builder) error
}

// GreatCircle is the straight-line metric between house centroids.
var GreatCircle Metric = MetricFunc(func(_ context.Context, a, b House) (float64, error) {
	return geo.Distance(a.Centroid, b.Centroid), nil
})

func (b *Builder) distance(ctx context.Context, m Metric, occupied, vacant HouseID) (float64, error) {
	o, ok := b.fp.House(occupied)
	if !ok {
		return 0, unknownHouse(occupied)
	}
	v, ok := b.fp.House(vacant)
	if !ok {
		return 0, unknownHouse(vacant)
	}
	d, err := m.Distance(ctx, o, v)
	if err != nil {
		return 0, fmt.Errorf("distance %s-%s: %w", occupied, vacant, err)
	}
	return d, nil
}

// groupPairs maps each occupied house to its vacant partners, keeping the
// order of first appearance.
func groupPairs(pairs []ComparePair) ([]HouseID, map[HouseID][]HouseID) {
	occupied, _ := Sides(pairs)
	partners := make(map[HouseID][]HouseID, len(occupied))
	for _, p := range pairs {
		if p.Occupied == p.Vacant {
			continue
		}
		partners[p.Occupied] = append(partners[p.Occupied], p.Vacant)
	}
	return occupied, partners
}

// Exact adds delta = (1−x_o)(1−x_v) per compare pair and weighs it by the
// decayed distance. It needs O(|pairs|) extra binaries. Each demolished
// occupied house adds a small tie-break penalty, see tieBreak.
type Exact struct {
	Decay  Decay
	Metric Metric // defaults to GreatCircle
	// Maximize inverts the objective, yielding the most exposed plan.
	Maximize bool
}

func (s *Exact) Name() string { return "exact" }

func (s *Exact) Attach(ctx context.Context, b *Builder) error {
	metric := s.Metric
	if metric == nil {
		metric = GreatCircle
	}
	m := b.model

	var objective []milp.Term
	var weights []float64
	for _, p := range b.pairs {
		xo, err := b.X(p.Occupied)
		if err != nil {
			return err
		}
		xv, err := b.X(p.Vacant)
		if err != nil {
			return err
		}
		dist, err := b.distance(ctx, metric, p.Occupied, p.Vacant)
		if err != nil {
			return err
		}

		tag := fmt.Sprintf("%s,%s", p.Occupied, p.Vacant)
		d := m.AddBinary(fmt.Sprintf("delta[%s]", tag))
		for _, c := range []struct {
			name  string
			rhs   float64
			terms []milp.Term
		}{
			{"delta1", 1, []milp.Term{milp.T(xo, 1), milp.T(d, 1)}},
			{"delta2", 1, []milp.Term{milp.T(xv, 1), milp.T(d, 1)}},
			{"delta3", -1, []milp.Term{milp.T(xo, -1), milp.T(xv, -1), milp.T(d, -1)}},
		} {
			if err := m.AddConstraint(fmt.Sprintf("%s[%s]", c.name, tag), milp.LessEqual, c.rhs, c.terms...); err != nil {
				return err
			}
		}
		w := s.Decay.Weight(dist)
		weights = append(weights, w)
		objective = append(objective, milp.T(d, w))
	}

	dir, sign := milp.Minimize, 1.0
	if s.Maximize {
		dir, sign = milp.Maximize, -1.0
	}

	occupied, _ := Sides(b.pairs)
	eps := tieBreak(weights, len(occupied))
	for _, o := range occupied {
		xo, err := b.X(o)
		if err != nil {
			return err
		}
		objective = append(objective, milp.T(xo, sign*eps))
	}
	return m.SetObjective(dir, objective...)
}

// tieBreak is the penalty per demolished occupied house in the exact
// objective. Plans of equal exposure then prefer removing vacant houses
// over displacing households. n penalties together stay below half the
// smallest nonzero weight, less than leaving any one pair exposed.
func tieBreak(weights []float64, n int) float64 {
	smallest := math.Inf(1)
	for _, w := range weights {
		if w > 0 && w < smallest {
			smallest = w
		}
	}
	if math.IsInf(smallest, 1) {
		smallest = 1
	}
	return smallest / float64(2*(n+1))
}

// Aggregated bounds one continuous bigM_o ≤ 0 per occupied house by
//
//	bigM_o ≤ Σ_v h(o,v)·(x_v − 1) + total_o·x_o,   total_o = Σ_v h(o,v)
//
// and maximizes Σ bigM_o. Demolishing o relaxes its bound to 0; otherwise
// bigM_o is minus the influence of o's remaining vacant partners.
type Aggregated struct {
	Decay  Decay
	Metric Metric // defaults to GreatCircle
}

func (s *Aggregated) Name() string { return "aggregated" }

func (s *Aggregated) Attach(ctx context.Context, b *Builder) error {
	metric := s.Metric
	if metric == nil {
		metric = GreatCircle
	}
	return attachAggregated(ctx, b, s.Decay, metric)
}

// Walking is Aggregated over a network (walking) distance instead of the
// straight line, for footprints where the street layout matters.
type Walking struct {
	Decay  Decay
	Metric Metric
}

func (s *Walking) Name() string { return "walking" }

func (s *Walking) Attach(ctx context.Context, b *Builder) error {
	if s.Metric == nil {
		return fmt.Errorf("walking objective needs a network metric")
	}
	return attachAggregated(ctx, b, s.Decay, s.Metric)
}

func attachAggregated(ctx context.Context, b *Builder, decay Decay, metric Metric) error {
	m := b.model
	occupied, partners := groupPairs(b.pairs)

	objective := make([]milp.Term, 0, len(occupied))
	for _, o := range occupied {
		xo, err := b.X(o)
		if err != nil {
			return err
		}

		bigM := m.AddContinuous(fmt.Sprintf("bigM[%s]", o), math.Inf(-1), 0)
		terms := []milp.Term{milp.T(bigM, 1)}
		var total float64
		for _, v := range partners[o] {
			xv, err := b.X(v)
			if err != nil {
				return err
			}
			dist, err := b.distance(ctx, metric, o, v)
			if err != nil {
				return err
			}
			w := decay.Weight(dist)
			total += w
			terms = append(terms, milp.T(xv, -w))
		}
		terms = append(terms, milp.T(xo, -total))

		if err := m.AddConstraint(fmt.Sprintf("influence[%s]", o), milp.LessEqual, -total, terms...); err != nil {
			return err
		}
		objective = append(objective, milp.T(bigM, 1))
	}
	return m.SetObjective(milp.Maximize, objective...)
}

// Maximin pushes the nearest remaining vacant house of every occupied
// house as far away as possible. Per occupied o and partner v:
//
//	t_o ≤ dist(o,v)·(1 − x_v) + Large·x_v
//	t_o ≤ Large·(1 − x_o)
//
// and Σ t_o is maximized.
type Maximin struct {
	Metric Metric // defaults to GreatCircle
	// Large disables a bound once its vacant house is demolished. Zero
	// picks the largest pair distance plus one.
	Large float64
}

func (s *Maximin) Name() string { return "maximin" }

func (s *Maximin) Attach(ctx context.Context, b *Builder) error {
	metric := s.Metric
	if metric == nil {
		metric = GreatCircle
	}
	m := b.model
	occupied, partners := groupPairs(b.pairs)

	dists := make(map[ComparePair]float64, len(b.pairs))
	var longest float64
	for _, o := range occupied {
		for _, v := range partners[o] {
			d, err := b.distance(ctx, metric, o, v)
			if err != nil {
				return err
			}
			dists[ComparePair{Occupied: o, Vacant: v}] = d
			longest = math.Max(longest, d)
		}
	}

	large := s.Large
	switch {
	case large == 0:
		large = longest + 1
	case large < longest:
		return fmt.Errorf("maximin constant %g is below the longest pair distance %g", large, longest)
	}

	objective := make([]milp.Term, 0, len(occupied))
	for _, o := range occupied {
		xo, err := b.X(o)
		if err != nil {
			return err
		}
		t := m.AddContinuous(fmt.Sprintf("t[%s]", o), 0, math.Inf(1))

		for _, v := range partners[o] {
			xv, err := b.X(v)
			if err != nil {
				return err
			}
			d := dists[ComparePair{Occupied: o, Vacant: v}]
			name := fmt.Sprintf("nearest[%s,%s]", o, v)
			if err := m.AddConstraint(name, milp.LessEqual, d, milp.T(t, 1), milp.T(xv, d-large)); err != nil {
				return err
			}
		}
		if err := m.AddConstraint(fmt.Sprintf("kept[%s]", o), milp.LessEqual, large, milp.T(t, 1), milp.T(xo, large)); err != nil {
			return err
		}
		objective = append(objective, milp.T(t, 1))
	}
	return m.SetObjective(milp.Maximize, objective...)
}

// StrategyConfig selects and parameterizes one of the strategies by name:
// exact, aggregated, walking or maximin.
type StrategyConfig struct {
	Name     string
	Decay    Decay
	Maximize bool
	Large    float64
	// Network is required by the walking strategy.
	Network Metric
}

func NewStrategy(cfg StrategyConfig) (Strategy, error) {
	if err := cfg.Decay.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Name {
	case "exact":
		return &Exact{Decay: cfg.Decay, Maximize: cfg.Maximize}, nil
	case "aggregated", "":
		return &Aggregated{Decay: cfg.Decay}, nil
	case "walking":
		if cfg.Network == nil {
			return nil, fmt.Errorf("walking strategy needs a network metric")
		}
		return &Walking{Decay: cfg.Decay, Metric: cfg.Network}, nil
	case "maximin":
		return &Maximin{Large: cfg.Large}, nil
	default:
		return nil, fmt.Errorf("unknown objective strategy %q", cfg.Name)
	}
}
