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
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

var (
	ErrInvalidFootprint = errors.New("invalid footprint")
	ErrUnknownHouse     = errors.New("unknown house")
)

type HouseID string

type Stories int

const (
	TwoStory   Stories = 2
	ThreeStory Stories = 3
)

func (s Stories) valid() bool {
	return s == TwoStory || s == ThreeStory
}

type Occupancy int

const (
	// UnknownOccupancy is the zero value. Footprints reject it.
	UnknownOccupancy Occupancy = iota
	Renter
	Owner
	Vacant
	NonStructure
	Excluded
	Worship
	Police
)

var occupancyNames = map[Occupancy]string{
	Renter:       "renter",
	Owner:        "owner",
	Vacant:       "vacant",
	NonStructure: "nonstructure",
	Excluded:     "excluded",
	Worship:      "worship",
	Police:       "police",
}

func (o Occupancy) String() string {
	if name, ok := occupancyNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Occupancy(%d)", int(o))
}

// ParseOccupancy is the inverse of Occupancy.String, case-insensitive.
func ParseOccupancy(s string) (Occupancy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for o, name := range occupancyNames {
		if name == s {
			return o, nil
		}
	}
	return UnknownOccupancy, fmt.Errorf("unknown occupancy class %q", s)
}

func (o *Occupancy) UnmarshalText(text []byte) error {
	parsed, err := ParseOccupancy(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

func (o Occupancy) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Occupied reports whether someone lives in the house.
func (o Occupancy) Occupied() bool {
	return o == Owner || o == Renter
}

// Fixed reports whether houses of this class may never be demolished.
func (o Occupancy) Fixed() bool {
	switch o {
	case NonStructure, Excluded, Worship, Police:
		return true
	default:
		return false
	}
}

type Address struct {
	HouseNumber string
	Street      string
	City        string
	State       string
	Postcode    string
}

// String formats the address for geocoding, e.g. "1516 Kenhill Ave, Baltimore, MD".
func (a Address) String() string {
	var parts []string
	if line := strings.TrimSpace(a.HouseNumber + " " + a.Street); line != "" {
		parts = append(parts, line)
	}
	for _, p := range []string{a.City, a.State} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type House struct {
	ID        HouseID
	Stories   Stories
	Occupancy Occupancy
	// Centroid is a (longitude, latitude) pair.
	Centroid orb.Point
	Address  Address
}

// Edge joins two houses sharing at least one wall node. It is undirected:
// A and B only fix the order of the Walli/Wallj residuals.
type Edge struct {
	A, B HouseID
}

func (e Edge) String() string {
	return fmt.Sprintf("%s-%s", e.A, e.B)
}

func (e Edge) key() [2]HouseID {
	if e.A < e.B {
		return [2]HouseID{e.A, e.B}
	}
	return [2]HouseID{e.B, e.A}
}

// ComparePair is an (occupied, vacant) pair over which influence is measured.
type ComparePair struct {
	Occupied HouseID
	Vacant   HouseID
}

// Footprint is a validated, read-only set of houses and their wall adjacency.
type Footprint struct {
	houses []House
	edges  []Edge
	index  map[HouseID]int
}

// NewFootprint validates houses and edges: unique ids, story counts of 2
// or 3, edges between known, distinct houses and no duplicate edges.
func NewFootprint(houses []House, edges []Edge) (*Footprint, error) {
	fp := &Footprint{
		houses: append([]House(nil), houses...),
		edges:  append([]Edge(nil), edges...),
		index:  make(map[HouseID]int, len(houses)),
	}

	for i, h := range fp.houses {
		if h.ID == "" {
			return nil, fmt.Errorf("%w: house #%d has no id", ErrInvalidFootprint, i)
		}
		if _, dup := fp.index[h.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate house %s", ErrInvalidFootprint, h.ID)
		}
		if !h.Stories.valid() {
			return nil, fmt.Errorf("%w: house %s has %d stories", ErrInvalidFootprint, h.ID, h.Stories)
		}
		if _, ok := occupancyNames[h.Occupancy]; !ok {
			return nil, fmt.Errorf("%w: house %s has occupancy %v", ErrInvalidFootprint, h.ID, h.Occupancy)
		}
		fp.index[h.ID] = i
	}

	seen := make(map[[2]HouseID]struct{}, len(fp.edges))
	for _, e := range fp.edges {
		if e.A == e.B {
			return nil, fmt.Errorf("%w: self-loop on %s", ErrInvalidFootprint, e.A)
		}
		for _, id := range []HouseID{e.A, e.B} {
			if _, ok := fp.index[id]; !ok {
				return nil, fmt.Errorf("%w: edge %s: %w", ErrInvalidFootprint, e, unknownHouse(id))
			}
		}
		if _, dup := seen[e.key()]; dup {
			return nil, fmt.Errorf("%w: duplicate edge %s", ErrInvalidFootprint, e)
		}
		seen[e.key()] = struct{}{}
	}

	return fp, nil
}

func unknownHouse(id HouseID) error {
	return fmt.Errorf("%w %s", ErrUnknownHouse, id)
}

// Houses returns the houses in input order. The slice must not be modified.
func (fp *Footprint) Houses() []House {
	return fp.houses
}

// Edges returns the edges in input order. The slice must not be modified.
func (fp *Footprint) Edges() []Edge {
	return fp.edges
}

func (fp *Footprint) House(id HouseID) (House, bool) {
	i, ok := fp.index[id]
	if !ok {
		return House{}, false
	}
	return fp.houses[i], true
}

func (fp *Footprint) byOccupancy(o Occupancy) []HouseID {
	var ids []HouseID
	for _, h := range fp.houses {
		if h.Occupancy == o {
			ids = append(ids, h.ID)
		}
	}
	return ids
}

// ComparePairs pairs every occupied house with every vacant one, owners
// before renters.
func (fp *Footprint) ComparePairs() []ComparePair {
	vacant := fp.byOccupancy(Vacant)
	var pairs []ComparePair
	for _, o := range []Occupancy{Owner, Renter} {
		for _, occ := range fp.byOccupancy(o) {
			for _, v := range vacant {
				pairs = append(pairs, ComparePair{Occupied: occ, Vacant: v})
			}
		}
	}
	return pairs
}

// Sides projects pairs onto their distinct occupied and vacant ids, in
// order of first appearance.
func Sides(pairs []ComparePair) (occupied, vacant []HouseID) {
	seenO := make(map[HouseID]struct{})
	seenV := make(map[HouseID]struct{})
	for _, p := range pairs {
		if _, ok := seenO[p.Occupied]; !ok {
			seenO[p.Occupied] = struct{}{}
			occupied = append(occupied, p.Occupied)
		}
		if _, ok := seenV[p.Vacant]; !ok {
			seenV[p.Vacant] = struct{}{}
			vacant = append(vacant, p.Vacant)
		}
	}
	return occupied, vacant
}
