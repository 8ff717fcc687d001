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

package footprint

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/costela/blightlp/distance"
)

// Streets builds a routing context from a GeoJSON FeatureCollection of
// street lines. Lines meeting at an identical vertex are connected there;
// every consecutive vertex pair becomes one segment named after the
// line's "name" property.
func Streets(data []byte) (*distance.RoutingContext, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing streets: %w", err)
	}

	var (
		nodes    []distance.Node
		segments []distance.Segment
		ids      = make(map[string]string)
	)
	nodeID := func(p orb.Point) string {
		key := vertexKey(p)
		if id, ok := ids[key]; ok {
			return id
		}
		id := fmt.Sprintf("n%d", len(nodes))
		ids[key] = id
		nodes = append(nodes, distance.Node{ID: id, Point: p})
		return id
	}

	for _, f := range fc.Features {
		var lines []orb.LineString
		switch g := f.Geometry.(type) {
		case orb.LineString:
			lines = []orb.LineString{g}
		case orb.MultiLineString:
			lines = g
		default:
			continue
		}

		name := f.Properties.MustString("name", "")
		for _, ls := range lines {
			for i := 1; i < len(ls); i++ {
				segments = append(segments, distance.Segment{
					From:   nodeID(ls[i-1]),
					To:     nodeID(ls[i]),
					Street: name,
				})
			}
		}
	}

	return distance.NewRoutingContext(nodes, segments)
}

func StreetsFile(path string) (*distance.RoutingContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rc, err := Streets(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return rc, nil
}
