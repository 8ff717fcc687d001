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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFootprintValidation(t *testing.T) {
	h1 := house("1", TwoStory, Owner, at(0, 0))
	h2 := house("2", TwoStory, Vacant, at(6, 0))

	tests := []struct {
		name   string
		houses []House
		edges  []Edge
	}{
		{"missing id", []House{h1, house("", TwoStory, Owner, at(0, 0))}, nil},
		{"duplicate house", []House{h1, h1}, nil},
		{"one story", []House{house("3", 1, Renter, at(0, 0))}, nil},
		{"bad occupancy", []House{house("3", TwoStory, Occupancy(42), at(0, 0))}, nil},
		{"unset occupancy", []House{{ID: "3", Stories: TwoStory}}, nil},
		{"self loop", []House{h1, h2}, []Edge{{A: "1", B: "1"}}},
		{"unknown endpoint", []House{h1, h2}, []Edge{{A: "1", B: "9"}}},
		{"duplicate edge", []House{h1, h2}, []Edge{{A: "1", B: "2"}, {A: "2", B: "1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFootprint(tt.houses, tt.edges)
			assert.ErrorIs(t, err, ErrInvalidFootprint)
		})
	}

	_, err := NewFootprint([]House{h1, h2}, []Edge{{A: "1", B: "9"}})
	assert.ErrorIs(t, err, ErrUnknownHouse)
}

func TestFootprintLookup(t *testing.T) {
	fp := pairFootprint(t)

	h, ok := fp.House("2")
	require.True(t, ok)
	assert.Equal(t, Vacant, h.Occupancy)

	_, ok = fp.House("3")
	assert.False(t, ok)
	assert.Len(t, fp.Houses(), 2)
	assert.Len(t, fp.Edges(), 1)
}

func TestComparePairs(t *testing.T) {
	fp := rowFootprint(t)

	assert.Equal(t, []ComparePair{
		{Occupied: "o1", Vacant: "v1"},
		{Occupied: "o1", Vacant: "v2"},
		{Occupied: "r1", Vacant: "v1"},
		{Occupied: "r1", Vacant: "v2"},
	}, fp.ComparePairs())

	occupied, vacant := Sides(fp.ComparePairs())
	assert.Equal(t, []HouseID{"o1", "r1"}, occupied)
	assert.Equal(t, []HouseID{"v1", "v2"}, vacant)
}

func TestOccupancy(t *testing.T) {
	for o := Renter; o <= Police; o++ {
		parsed, err := ParseOccupancy(" " + o.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, o, parsed)
	}

	_, err := ParseOccupancy("castle")
	assert.Error(t, err)

	var o Occupancy
	require.NoError(t, o.UnmarshalText([]byte("Owner")))
	assert.Equal(t, Owner, o)

	assert.True(t, Owner.Occupied())
	assert.True(t, Renter.Occupied())
	assert.False(t, Vacant.Occupied())
	assert.True(t, Police.Fixed())
	assert.True(t, Worship.Fixed())
	assert.True(t, Excluded.Fixed())
	assert.False(t, Vacant.Fixed())

	var unset Occupancy
	assert.Equal(t, UnknownOccupancy, unset)
	assert.False(t, unset.Occupied())
	_, err = ParseOccupancy(unset.String())
	assert.Error(t, err)
}

func TestAddressString(t *testing.T) {
	a := Address{HouseNumber: "1516", Street: "Kenhill Ave", City: "Baltimore", State: "MD"}
	assert.Equal(t, "1516 Kenhill Ave, Baltimore, MD", a.String())
	assert.Equal(t, "Baltimore", Address{City: "Baltimore"}.String())
	assert.Equal(t, "", Address{}.String())
}
