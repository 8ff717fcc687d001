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

// Package footprint turns GeoJSON exports of building footprints and
// street lines into the inputs of a demolition model.
package footprint

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/costela/blightlp"
)

// DefaultMaxArea is the largest footprint, in square meters, still treated
// as a row house.
const DefaultMaxArea = 398.0

// Options carry the facts GeoJSON properties do not: which houses are
// vacant and which are owner occupied.
type Options struct {
	Vacant []string
	// Owners marks houses as owner occupied in addition to those tagged
	// tenure=owner.
	Owners  []string
	MaxArea float64
}

func (o Options) maxArea() float64 {
	if o.MaxArea > 0 {
		return o.MaxArea
	}
	return DefaultMaxArea
}

func set(ids []string) map[string]bool {
	s := make(map[string]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

// Classify assigns the occupancy class of one structure. The fixed classes
// win over a vacancy listing.
func Classify(props geojson.Properties, area, maxArea float64, vacant, owner bool) blightlp.Occupancy {
	switch {
	case props.MustString("building", "") != "yes":
		return blightlp.NonStructure
	case props.MustString("amenity", "") == "police":
		return blightlp.Police
	case props.MustString("amenity", "") == "place_of_worship":
		return blightlp.Worship
	case props.MustString("addr:street", "") == "" || area > maxArea:
		return blightlp.Excluded
	case vacant:
		return blightlp.Vacant
	case owner || props.MustString("tenure", "") == "owner":
		return blightlp.Owner
	default:
		return blightlp.Renter
	}
}

// Stories reads building:levels (or stories); three or more levels make a
// three-story house, anything else a two-story one.
func Stories(props geojson.Properties) blightlp.Stories {
	for _, key := range []string{"building:levels", "stories"} {
		v, ok := props[key]
		if !ok || v == nil {
			continue
		}
		levels, err := strconv.ParseFloat(strings.TrimSpace(fmt.Sprint(v)), 64)
		if err != nil {
			continue
		}
		if levels >= 3 {
			return blightlp.ThreeStory
		}
		return blightlp.TwoStory
	}
	return blightlp.TwoStory
}

func featureID(f *geojson.Feature) (string, error) {
	candidates := []interface{}{f.ID}
	for _, key := range []string{"@id", "osm_id", "id"} {
		candidates = append(candidates, f.Properties[key])
	}
	for _, c := range candidates {
		switch v := c.(type) {
		case string:
			if v != "" {
				return v, nil
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case int:
			return strconv.Itoa(v), nil
		}
	}
	return "", fmt.Errorf("%w: feature without id", blightlp.ErrInvalidFootprint)
}

func rings(g orb.Geometry) ([]orb.Ring, error) {
	switch g := g.(type) {
	case orb.Polygon:
		return g, nil
	case orb.MultiPolygon:
		var rs []orb.Ring
		for _, p := range g {
			rs = append(rs, p...)
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("%w: unsupported footprint geometry %T", blightlp.ErrInvalidFootprint, g)
	}
}

// vertexKey identifies a ring vertex, to about a centimeter.
func vertexKey(p orb.Point) string {
	return fmt.Sprintf("%.7f,%.7f", p[0], p[1])
}

// Load builds a footprint from a GeoJSON FeatureCollection of building
// polygons. Non-structures are dropped; the remaining houses are joined
// by an edge whenever their rings share a vertex.
func Load(data []byte, opts Options) (*blightlp.Footprint, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", blightlp.ErrInvalidFootprint, err)
	}

	vacant, owners := set(opts.Vacant), set(opts.Owners)
	maxArea := opts.maxArea()

	var houses []blightlp.House
	byVertex := make(map[string][]int)
	for _, f := range fc.Features {
		id, err := featureID(f)
		if err != nil {
			return nil, err
		}
		rs, err := rings(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", id, err)
		}

		area := math.Abs(geo.Area(f.Geometry))
		occupancy := Classify(f.Properties, area, maxArea, vacant[id], owners[id])
		if occupancy == blightlp.NonStructure {
			continue
		}

		centroid, _ := planar.CentroidArea(f.Geometry)
		i := len(houses)
		houses = append(houses, blightlp.House{
			ID:        blightlp.HouseID(id),
			Stories:   Stories(f.Properties),
			Occupancy: occupancy,
			Centroid:  centroid,
			Address: blightlp.Address{
				HouseNumber: f.Properties.MustString("addr:housenumber", ""),
				Street:      f.Properties.MustString("addr:street", ""),
				City:        f.Properties.MustString("addr:city", ""),
				State:       f.Properties.MustString("addr:state", ""),
				Postcode:    f.Properties.MustString("addr:postcode", ""),
			},
		})

		seen := make(map[string]bool)
		for _, r := range rs {
			for _, p := range r {
				key := vertexKey(p)
				if seen[key] {
					continue
				}
				seen[key] = true
				byVertex[key] = append(byVertex[key], i)
			}
		}
	}

	return blightlp.NewFootprint(houses, sharedWalls(houses, byVertex))
}

func sharedWalls(houses []blightlp.House, byVertex map[string][]int) []blightlp.Edge {
	pairs := make(map[[2]int]bool)
	for _, idx := range byVertex {
		for a := 0; a < len(idx); a++ {
			for b := a + 1; b < len(idx); b++ {
				i, j := idx[a], idx[b]
				if i > j {
					i, j = j, i
				}
				pairs[[2]int{i, j}] = true
			}
		}
	}

	keys := make([][2]int, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a][0] != keys[b][0] {
			return keys[a][0] < keys[b][0]
		}
		return keys[a][1] < keys[b][1]
	})

	edges := make([]blightlp.Edge, len(keys))
	for n, k := range keys {
		edges[n] = blightlp.Edge{A: houses[k[0]].ID, B: houses[k[1]].ID}
	}
	return edges
}

func LoadFile(path string, opts Options) (*blightlp.Footprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fp, err := Load(data, opts)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return fp, nil
}
