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
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dijkstra"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/quadtree"
)

var (
	// ErrNotFound is returned for addresses that cannot be geocoded and for
	// node ids missing from the street network.
	ErrNotFound = errors.New("not found")
	// ErrRouteUnavailable is returned when two street nodes are not
	// connected.
	ErrRouteUnavailable = errors.New("route unavailable")
)

// nearestCandidates is how many planar neighbours are re-ranked by
// great-circle distance when snapping a point to the network.
const nearestCandidates = 4

type Node struct {
	ID    string
	Point orb.Point
}

// Segment is one walkable street piece between two nodes. A zero Length is
// replaced by the great-circle distance between its ends.
type Segment struct {
	From, To string
	Street   string
	Length   float64
}

type node struct {
	id    string
	point orb.Point
}

// Point allows node to satisfy the orb.Pointer interface
func (n *node) Point() orb.Point {
	return n.point
}

// RoutingContext is an immutable street network. It may be shared by any
// number of goroutines.
type RoutingContext struct {
	graph    *core.Graph
	nodes    map[string]*node
	segments map[[2]string]Segment
	index    *quadtree.Quadtree
}

func segmentKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// millimeters converts meters into the integer graph weights.
func millimeters(meters float64) int64 {
	return int64(math.Round(meters * 1000))
}

func NewRoutingContext(nodes []Node, segments []Segment) (*RoutingContext, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("street network has no nodes")
	}

	rc := &RoutingContext{
		graph:    core.NewGraph(core.WithWeighted(), core.WithMultiEdges()),
		nodes:    make(map[string]*node, len(nodes)),
		segments: make(map[[2]string]Segment, len(segments)),
	}

	points := make(orb.MultiPoint, 0, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("street node without id")
		}
		if _, dup := rc.nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate street node %q", n.ID)
		}
		rc.nodes[n.ID] = &node{id: n.ID, point: n.Point}
		points = append(points, n.Point)
		if err := rc.graph.AddVertex(n.ID); err != nil {
			return nil, fmt.Errorf("adding street node %q: %w", n.ID, err)
		}
	}

	rc.index = quadtree.New(points.Bound().Pad(1e-6))
	for _, n := range rc.nodes {
		if err := rc.index.Add(n); err != nil {
			return nil, fmt.Errorf("indexing street node %q: %w", n.id, err)
		}
	}

	for _, s := range segments {
		a, ok := rc.nodes[s.From]
		if !ok {
			return nil, fmt.Errorf("segment %s-%s: node %q: %w", s.From, s.To, s.From, ErrNotFound)
		}
		b, ok := rc.nodes[s.To]
		if !ok {
			return nil, fmt.Errorf("segment %s-%s: node %q: %w", s.From, s.To, s.To, ErrNotFound)
		}
		if s.From == s.To {
			continue
		}
		if s.Length < 0 || math.IsNaN(s.Length) {
			return nil, fmt.Errorf("segment %s-%s: invalid length %g", s.From, s.To, s.Length)
		}
		if s.Length == 0 {
			s.Length = geo.Distance(a.point, b.point)
		}

		if _, err := rc.graph.AddEdge(s.From, s.To, millimeters(s.Length)); err != nil {
			return nil, fmt.Errorf("segment %s-%s: %w", s.From, s.To, err)
		}
		key := segmentKey(s.From, s.To)
		if prev, ok := rc.segments[key]; !ok || s.Length < prev.Length {
			rc.segments[key] = s
		}
	}

	return rc, nil
}

func (rc *RoutingContext) NodeCount() int {
	return len(rc.nodes)
}

func (rc *RoutingContext) SegmentCount() int {
	return len(rc.segments)
}

// Node returns the location of a street node.
func (rc *RoutingContext) Node(id string) (orb.Point, error) {
	n, ok := rc.nodes[id]
	if !ok {
		return orb.Point{}, fmt.Errorf("street node %q: %w", id, ErrNotFound)
	}
	return n.point, nil
}

// Segment returns the shortest segment directly joining a and b.
func (rc *RoutingContext) Segment(a, b string) (Segment, bool) {
	s, ok := rc.segments[segmentKey(a, b)]
	return s, ok
}

// Nearest snaps p to the closest street node and returns its id and the
// great-circle distance in meters.
func (rc *RoutingContext) Nearest(p orb.Point) (string, float64) {
	candidates := rc.index.KNearest(nil, p, nearestCandidates)

	best, bestDist := "", math.Inf(1)
	for _, c := range candidates {
		n := c.(*node)
		if d := geo.Distance(p, n.point); d < bestDist || (d == bestDist && n.id < best) {
			best, bestDist = n.id, d
		}
	}
	return best, bestDist
}

// Route is a shortest walk through the street network.
type Route struct {
	Nodes  []string
	Length float64 // meters
}

// ShortestPaths runs one single-source search. Distances are in
// millimeters, math.MaxInt64 for unreachable nodes.
func (rc *RoutingContext) ShortestPaths(source string) (map[string]int64, map[string]string, error) {
	if _, ok := rc.nodes[source]; !ok {
		return nil, nil, fmt.Errorf("street node %q: %w", source, ErrNotFound)
	}
	return dijkstra.Dijkstra(rc.graph, dijkstra.Source(source), dijkstra.WithReturnPath())
}

// Route finds the shortest walk between two street nodes.
func (rc *RoutingContext) Route(from, to string) (Route, error) {
	if _, ok := rc.nodes[to]; !ok {
		return Route{}, fmt.Errorf("street node %q: %w", to, ErrNotFound)
	}
	dist, prev, err := rc.ShortestPaths(from)
	if err != nil {
		return Route{}, err
	}
	return buildRoute(from, to, dist, prev)
}

func buildRoute(from, to string, dist map[string]int64, prev map[string]string) (Route, error) {
	d, ok := dist[to]
	if !ok || d == math.MaxInt64 {
		return Route{}, fmt.Errorf("%s to %s: %w", from, to, ErrRouteUnavailable)
	}

	nodes := []string{to}
	for cur := to; cur != from; {
		cur = prev[cur]
		if cur == "" {
			return Route{}, fmt.Errorf("%s to %s: broken predecessor chain: %w", from, to, ErrRouteUnavailable)
		}
		nodes = append(nodes, cur)
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}

	return Route{Nodes: nodes, Length: float64(d) / 1000}, nil
}
