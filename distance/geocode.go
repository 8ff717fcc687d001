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
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// Geocoder resolves a postal address to a location. Implementations
// return an error wrapping ErrNotFound for unknown addresses; any other
// error is treated as transient and retried.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (orb.Point, error)
}

type GeocoderFunc func(ctx context.Context, address string) (orb.Point, error)

func (f GeocoderFunc) Geocode(ctx context.Context, address string) (orb.Point, error) {
	return f(ctx, address)
}

// StaticGeocoder looks addresses up in a fixed table. Keys are matched
// case- and whitespace-insensitively.
type StaticGeocoder map[string]orb.Point

func normalizeAddress(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// NewStaticGeocoder indexes the given table.
func NewStaticGeocoder(table map[string]orb.Point) StaticGeocoder {
	g := make(StaticGeocoder, len(table))
	for address, p := range table {
		g[normalizeAddress(address)] = p
	}
	return g
}

func (g StaticGeocoder) Geocode(_ context.Context, address string) (orb.Point, error) {
	p, ok := g[normalizeAddress(address)]
	if !ok {
		return orb.Point{}, fmt.Errorf("address %q: %w", address, ErrNotFound)
	}
	return p, nil
}
