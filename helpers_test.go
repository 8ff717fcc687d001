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
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/costela/blightlp/internal/exhaustive"
)

const (
	delta = 0.0000001 // acceptable numerical deviation for test results
)

var origin = orb.Point{-76.6450, 39.3060}

// at returns a point roughly east meters east and north meters north of origin.
func at(east, north float64) orb.Point {
	return orb.Point{origin[0] + east/86200, origin[1] + north/111000}
}

func house(id string, stories Stories, o Occupancy, p orb.Point) House {
	return House{ID: HouseID(id), Stories: stories, Occupancy: o, Centroid: p}
}

// pairFootprint is one owner and one vacant house sharing a wall.
func pairFootprint(t *testing.T) *Footprint {
	t.Helper()

	fp, err := NewFootprint(
		[]House{
			house("1", TwoStory, Owner, at(0, 0)),
			house("2", TwoStory, Vacant, at(6, 0)),
		},
		[]Edge{{A: "1", B: "2"}},
	)
	require.NoError(t, err)
	return fp
}

// rowFootprint is a row of four houses, 6 m apart, with a police station
// at the end:  o1 - v1 - r1 - v2 - p
func rowFootprint(t *testing.T) *Footprint {
	t.Helper()

	fp, err := NewFootprint(
		[]House{
			house("o1", TwoStory, Owner, at(0, 0)),
			house("v1", TwoStory, Vacant, at(6, 0)),
			house("r1", ThreeStory, Renter, at(12, 0)),
			house("v2", TwoStory, Vacant, at(18, 0)),
			house("p", TwoStory, Police, at(24, 0)),
		},
		[]Edge{{A: "o1", B: "v1"}, {A: "v1", B: "r1"}, {A: "r1", B: "v2"}, {A: "v2", B: "p"}},
	)
	require.NoError(t, err)
	return fp
}

func scenarioPrices() Prices {
	p := DefaultPrices()
	p.Demolish2Story = 13000
	p.OwnerRelocation = 170000
	p.Wall2Story = 14000
	p.Benefit = 0
	return p
}

func build(t *testing.T, p Problem) *Builder {
	t.Helper()

	b, err := Build(context.Background(), p)
	require.NoError(t, err)
	return b
}

func enumerator(t *testing.T, b *Builder, opts ...Option) *Enumerator {
	t.Helper()

	e, err := NewEnumerator(b, exhaustive.New(), opts...)
	require.NoError(t, err)
	return e
}
