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

package distance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/costela/blightlp"
)

// DefaultCeiling caps walking distances, in meters. Beyond it a vacant
// house has no practical influence and exact routes stop mattering.
const DefaultCeiling = 150.0

// Network is the walking-distance metric. Houses are located by geocoding
// their address (or by their centroid), snapped to the nearest street node
// and routed along the street network.
//
// Results are cached per house pair, and shortest-path trees per source
// node, so a Network is meant to live as long as its footprint. It is safe
// for concurrent use.
type Network struct {
	routing  *RoutingContext
	geocoder Geocoder
	fallback blightlp.Metric
	logger   Logger
	ceiling  float64
	retries  int
	backoff  time.Duration

	mu     sync.Mutex
	pairs  map[[2]blightlp.HouseID]float64
	points map[blightlp.HouseID]orb.Point
	trees  map[string]tree
}

type tree struct {
	dist map[string]int64
	prev map[string]string
}

func NewNetwork(rc *RoutingContext, opts ...Option) (*Network, error) {
	if rc == nil {
		return nil, fmt.Errorf("network metric needs a routing context")
	}

	n := &Network{
		routing:  rc,
		fallback: blightlp.GreatCircle,
		logger:   noopLogger{},
		ceiling:  DefaultCeiling,
		retries:  3,
		backoff:  500 * time.Millisecond,
		pairs:    make(map[[2]blightlp.HouseID]float64),
		points:   make(map[blightlp.HouseID]orb.Point),
		trees:    make(map[string]tree),
	}

	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, fmt.Errorf("applying network option: %w", err)
		}
	}

	return n, nil
}

func pairKey(a, b blightlp.HouseID) [2]blightlp.HouseID {
	if a > b {
		a, b = b, a
	}
	return [2]blightlp.HouseID{a, b}
}

// Distance returns the capped walking distance between two houses. When no
// route exists the fallback metric is used instead, also capped.
func (n *Network) Distance(ctx context.Context, a, b blightlp.House) (float64, error) {
	if a.ID == b.ID {
		return 0, nil
	}
	key := pairKey(a.ID, b.ID)

	n.mu.Lock()
	d, ok := n.pairs[key]
	n.mu.Unlock()
	if ok {
		return d, nil
	}

	d, err := n.Walk(ctx, a, b)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrRouteUnavailable):
		n.logger.Print(fmt.Sprintf("walking distance %s-%s unavailable, falling back: %v", a.ID, b.ID, err))
		if d, err = n.fallback.Distance(ctx, a, b); err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	}
	d = math.Min(d, n.ceiling)

	n.mu.Lock()
	n.pairs[key] = d
	n.mu.Unlock()

	return d, nil
}

// Walk computes the uncapped walking distance and reports routing errors
// as they are.
//
// Both houses are snapped to their nearest street node. On a shared node
// the shorter of the two snap legs and the straight line wins. Otherwise
// each snap leg is added to the route length, or subtracted when the
// house lies along the first (last) segment of the route on its own
// street, since the route then passes in front of it.
func (n *Network) Walk(ctx context.Context, a, b blightlp.House) (float64, error) {
	pa, err := n.locate(ctx, a)
	if err != nil {
		return 0, err
	}
	pb, err := n.locate(ctx, b)
	if err != nil {
		return 0, err
	}

	na, da := n.routing.Nearest(pa)
	nb, db := n.routing.Nearest(pb)
	if na == nb {
		return math.Min(da+db, geo.Distance(pa, pb)), nil
	}

	route, err := n.route(na, nb)
	if err != nil {
		return 0, err
	}
	if route.Length-da-db > n.ceiling {
		return route.Length, nil
	}

	last := len(route.Nodes) - 1
	d := route.Length
	d += n.snapLeg(a, pa, da, route.Nodes[0], route.Nodes[1])
	d += n.snapLeg(b, pb, db, route.Nodes[last], route.Nodes[last-1])

	return math.Max(d, 0), nil
}

// snapLeg is ±snap depending on whether the route's first segment, from
// end towards next, runs past the house on its street.
func (n *Network) snapLeg(h blightlp.House, p orb.Point, snap float64, end, next string) float64 {
	seg, ok := n.routing.Segment(end, next)
	if !ok {
		return snap
	}
	if seg.Street != "" && h.Address.Street != "" && normalizeAddress(seg.Street) != normalizeAddress(h.Address.Street) {
		return snap
	}
	nextPoint, err := n.routing.Node(next)
	if err != nil {
		return snap
	}
	if geo.Distance(p, nextPoint) <= seg.Length {
		return -snap
	}
	return snap
}

func (n *Network) route(from, to string) (Route, error) {
	n.mu.Lock()
	t, ok := n.trees[from]
	n.mu.Unlock()

	if !ok {
		dist, prev, err := n.routing.ShortestPaths(from)
		if err != nil {
			return Route{}, err
		}
		t = tree{dist: dist, prev: prev}

		n.mu.Lock()
		n.trees[from] = t
		n.mu.Unlock()
	}

	return buildRoute(from, to, t.dist, t.prev)
}

// locate geocodes the house address, retrying transient failures with
// exponential backoff. Houses without a geocoder, without an address or
// with an unknown address are located at their centroid.
func (n *Network) locate(ctx context.Context, h blightlp.House) (orb.Point, error) {
	n.mu.Lock()
	p, ok := n.points[h.ID]
	n.mu.Unlock()
	if ok {
		return p, nil
	}

	address := h.Address.String()
	if n.geocoder == nil || address == "" {
		return h.Centroid, nil
	}

	wait := n.backoff
	for attempt := 0; ; attempt++ {
		var err error
		p, err = n.geocoder.Geocode(ctx, address)
		if err == nil {
			break
		}
		if errors.Is(err, ErrNotFound) {
			n.logger.Print(fmt.Sprintf("geocoding %s: %v, using centroid", h.ID, err))
			p = h.Centroid
			break
		}
		if attempt >= n.retries {
			return orb.Point{}, fmt.Errorf("geocoding %s after %d attempts: %w", h.ID, attempt+1, err)
		}

		n.logger.Print(fmt.Sprintf("geocoding %s failed (attempt %d), retrying in %s: %v", h.ID, attempt+1, wait, err))
		select {
		case <-ctx.Done():
			return orb.Point{}, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}

	n.mu.Lock()
	n.points[h.ID] = p
	n.mu.Unlock()

	return p, nil
}
