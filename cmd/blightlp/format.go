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

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/costela/blightlp"
)

func printPlans(w io.Writer, plans blightlp.StatusLog) {
	for _, s := range plans {
		fmt.Fprintln(w, s)
		if len(s.Demolished) == 0 {
			continue
		}
		ids := make([]string, len(s.Demolished))
		for i, id := range s.Demolished {
			ids[i] = string(id)
		}
		fmt.Fprintf(w, "  demolish: %s\n", strings.Join(ids, " "))
	}
}

func printFootprintSummary(w io.Writer, fp *blightlp.Footprint) {
	counts := map[blightlp.Occupancy]int{}
	for _, h := range fp.Houses() {
		counts[h.Occupancy]++
	}
	occupied, vacant := blightlp.Sides(fp.ComparePairs())

	fmt.Fprintf(w, "Houses: %d\n", len(fp.Houses()))
	for _, o := range []blightlp.Occupancy{
		blightlp.Owner, blightlp.Renter, blightlp.Vacant,
		blightlp.Police, blightlp.Worship, blightlp.Excluded,
	} {
		fmt.Fprintf(w, "  %-10s %d\n", o, counts[o])
	}
	fmt.Fprintf(w, "Shared walls: %d\n", len(fp.Edges()))
	fmt.Fprintf(w, "Compare pairs: %d (%d occupied x %d vacant)\n",
		len(occupied)*len(vacant), len(occupied), len(vacant))
	fmt.Fprintln(w, "Result: VALID")
}

func printCostTable(w io.Writer, fp *blightlp.Footprint, ct *blightlp.CostTable, budget float64) {
	fmt.Fprintln(w, "HOUSES")
	fmt.Fprintf(w, "  %-16s %-8s %-10s %12s\n", "id", "stories", "occupancy", "cost")
	for i, h := range fp.Houses() {
		fmt.Fprintf(w, "  %-16s %-8d %-10s %12.0f\n", h.ID, h.Stories, h.Occupancy, ct.Cost[i])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SHARED WALLS")
	fmt.Fprintf(w, "  %-24s %10s %10s %10s %10s\n", "edge", "wallij", "walli", "wallj", "benefit")
	for i, e := range fp.Edges() {
		fmt.Fprintf(w, "  %-24s %10.0f %10.0f %10.0f %10.0f\n",
			e, ct.Wallij[i], ct.Walli[i], ct.Wallj[i], ct.Benefit[i])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Baseline: %.0f\n", ct.Baseline())
	fmt.Fprintf(w, "Budget:   %.0f\n", budget)
}
