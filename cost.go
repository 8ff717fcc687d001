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
)

var ErrInvalidPrices = errors.New("invalid prices")

// Prices are the unit prices the cost model is built from.
type Prices struct {
	Demolish2Story   float64 `yaml:"demolish_2_story"`
	Demolish3Story   float64 `yaml:"demolish_3_story"`
	RenterRelocation float64 `yaml:"renter_relocation"`
	OwnerRelocation  float64 `yaml:"owner_relocation"`
	Wall2Story       float64 `yaml:"wall_2_story"`
	Wall3Story       float64 `yaml:"wall_3_story"`
	// Benefit is subtracted once per edge whose houses are both demolished.
	Benefit float64 `yaml:"benefit"`
}

// DefaultPrices returns the Baltimore row-house figures.
func DefaultPrices() Prices {
	return Prices{
		Demolish2Story:   13000,
		Demolish3Story:   22000,
		RenterRelocation: 85000,
		OwnerRelocation:  170000,
		Wall2Story:       14000,
		Wall3Story:       25000,
		Benefit:          0,
	}
}

func (p Prices) Validate() error {
	for name, v := range map[string]float64{
		"demolish_2_story":  p.Demolish2Story,
		"demolish_3_story":  p.Demolish3Story,
		"renter_relocation": p.RenterRelocation,
		"owner_relocation":  p.OwnerRelocation,
		"wall_2_story":      p.Wall2Story,
		"wall_3_story":      p.Wall3Story,
		"benefit":           p.Benefit,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s is negative (%g)", ErrInvalidPrices, name, v)
		}
	}
	return nil
}

func (p Prices) demolish(s Stories) float64 {
	switch s {
	case TwoStory:
		return p.Demolish2Story
	case ThreeStory:
		return p.Demolish3Story
	default:
		return 0
	}
}

func (p Prices) relocation(o Occupancy) float64 {
	switch o {
	case Owner:
		return p.OwnerRelocation
	case Renter:
		return p.RenterRelocation
	default:
		return 0
	}
}

func (p Prices) wall(s Stories) float64 {
	switch s {
	case TwoStory:
		return p.Wall2Story
	case ThreeStory:
		return p.Wall3Story
	default:
		return 0
	}
}

// CostTable holds the linear coefficients of the budget constraint.
// House costs are indexed like Footprint.Houses, edge costs like
// Footprint.Edges.
//
// For an edge (a,b): demolishing only a costs Wallij + Wallj = wall(b),
// the price of sealing b's exposed wall, and demolishing both costs
// nothing. Walli and Wallj are bookkeeping residuals and go negative when
// the two houses differ in height.
type CostTable struct {
	Cost    []float64
	Wallij  []float64
	Walli   []float64
	Wallj   []float64
	Benefit []float64
}

// NewCostTable derives the per-house and per-edge coefficients.
func NewCostTable(fp *Footprint, p Prices) (*CostTable, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	ct := &CostTable{
		Cost:    make([]float64, len(fp.houses)),
		Wallij:  make([]float64, len(fp.edges)),
		Walli:   make([]float64, len(fp.edges)),
		Wallj:   make([]float64, len(fp.edges)),
		Benefit: make([]float64, len(fp.edges)),
	}

	for i, h := range fp.houses {
		ct.Cost[i] = p.demolish(h.Stories) + p.relocation(h.Occupancy)
	}

	for i, e := range fp.edges {
		a, _ := fp.House(e.A)
		b, _ := fp.House(e.B)
		ct.Wallij[i] = p.wall(a.Stories)/2 + p.wall(b.Stories)/2
		ct.Walli[i] = p.wall(a.Stories) - ct.Wallij[i]
		ct.Wallj[i] = p.wall(b.Stories) - ct.Wallij[i]
		ct.Benefit[i] = p.Benefit
	}

	return ct, nil
}

// Baseline is the wall cost of demolishing nothing, Σ Walli + Σ Wallj.
// The budget constraint moves it to the right-hand side.
func (ct *CostTable) Baseline() float64 {
	var sum float64
	for i := range ct.Walli {
		sum += ct.Walli[i] + ct.Wallj[i]
	}
	return sum
}

// Spend evaluates the left-hand side of the budget constraint for a
// demolition decision, deriving the wall indicators from x.
func (ct *CostTable) Spend(fp *Footprint, demolished func(HouseID) bool) float64 {
	var spend float64
	for i, h := range fp.houses {
		if demolished(h.ID) {
			spend += ct.Cost[i]
		}
	}
	for i, e := range fp.edges {
		a, b := demolished(e.A), demolished(e.B)
		if a != b {
			spend += ct.Wallij[i]
		}
		if a && b {
			spend -= ct.Benefit[i]
		}
		if a {
			spend -= ct.Walli[i]
		}
		if b {
			spend -= ct.Wallj[i]
		}
	}
	return spend
}
