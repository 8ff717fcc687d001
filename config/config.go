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

// Package config loads the YAML description of one demolition planning
// run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"github.com/costela/blightlp"
	"github.com/costela/blightlp/distance"
	"github.com/costela/blightlp/footprint"
)

var (
	Strategies = []string{"exact", "aggregated", "walking", "maximin"}
	Backends   = []string{"lpsolve", "glpk", "highs"}
)

type Config struct {
	Name      string          `yaml:"name"`
	Budget    float64         `yaml:"budget"`
	Prices    blightlp.Prices `yaml:"prices"`
	Objective Objective       `yaml:"objective"`
	Solver    Solver          `yaml:"solver"`
	// Solutions is how many plans to enumerate.
	Solutions int     `yaml:"solutions"`
	Input     Input   `yaml:"input"`
	Routing   Routing `yaml:"routing"`
}

type Objective struct {
	Strategy string         `yaml:"strategy"`
	Decay    blightlp.Decay `yaml:"decay"`
	// Maximize inverts the exact strategy.
	Maximize bool `yaml:"maximize"`
	// Large is the maximin constant; zero derives it from the footprint.
	Large float64 `yaml:"large"`
}

type Solver struct {
	Backend        string        `yaml:"backend"`
	TimeLimit      time.Duration `yaml:"time_limit"`
	SuboptimalCuts bool          `yaml:"suboptimal_cuts"`
}

type Input struct {
	Buildings string   `yaml:"buildings"`
	Streets   string   `yaml:"streets"`
	Vacant    []string `yaml:"vacant"`
	Owners    []string `yaml:"owners"`
	MaxArea   float64  `yaml:"max_area"`
}

type Routing struct {
	Ceiling float64       `yaml:"ceiling"`
	Retries int           `yaml:"retries"`
	Backoff time.Duration `yaml:"backoff"`
	// Geocodes maps postal addresses to [longitude, latitude].
	Geocodes map[string][2]float64 `yaml:"geocodes"`
}

// Default returns the configuration of the Baltimore study area.
func Default() Config {
	return Config{
		Name:   "demolition",
		Budget: 185000,
		Prices: blightlp.DefaultPrices(),
		Objective: Objective{
			Strategy: "aggregated",
			Decay:    blightlp.DefaultDecay(),
		},
		Solver: Solver{
			Backend: "lpsolve",
		},
		Solutions: 10,
		Routing: Routing{
			Ceiling: distance.DefaultCeiling,
			Retries: 3,
			Backoff: 500 * time.Millisecond,
		},
	}
}

// Load reads a YAML file over the defaults. Relative input paths are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for _, p := range []*string{&cfg.Input.Buildings, &cfg.Input.Streets} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}

	return cfg, nil
}

// Parse decodes YAML over the defaults without validating.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return &cfg, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c.Budget < 0 {
		return fmt.Errorf("budget must be non-negative, got %g", c.Budget)
	}
	if err := c.Prices.Validate(); err != nil {
		return err
	}
	if err := c.Objective.Decay.Validate(); err != nil {
		return err
	}
	if !contains(Strategies, c.Objective.Strategy) {
		return fmt.Errorf("unknown objective strategy %q, want one of %v", c.Objective.Strategy, Strategies)
	}
	if c.Objective.Large < 0 {
		return fmt.Errorf("maximin constant must be non-negative, got %g", c.Objective.Large)
	}
	if !contains(Backends, c.Solver.Backend) {
		return fmt.Errorf("unknown solver backend %q, want one of %v", c.Solver.Backend, Backends)
	}
	if c.Solver.TimeLimit < 0 {
		return fmt.Errorf("time limit must be non-negative, got %s", c.Solver.TimeLimit)
	}
	if c.Solutions <= 0 {
		return fmt.Errorf("solution count must be positive, got %d", c.Solutions)
	}
	if c.Routing.Ceiling <= 0 {
		return fmt.Errorf("routing ceiling must be positive, got %g", c.Routing.Ceiling)
	}
	if c.Routing.Retries < 0 || c.Routing.Backoff < 0 {
		return fmt.Errorf("invalid geocoding retry policy %d/%s", c.Routing.Retries, c.Routing.Backoff)
	}
	if c.Objective.Strategy == "walking" && c.Input.Streets == "" {
		return fmt.Errorf("walking strategy needs input.streets")
	}
	return nil
}

// Strategy builds the configured objective. network is only used, and
// required, by the walking strategy.
func (c *Config) Strategy(network blightlp.Metric) (blightlp.Strategy, error) {
	return blightlp.NewStrategy(blightlp.StrategyConfig{
		Name:     c.Objective.Strategy,
		Decay:    c.Objective.Decay,
		Maximize: c.Objective.Maximize,
		Large:    c.Objective.Large,
		Network:  network,
	})
}

// NetworkOptions translates the routing section for distance.NewNetwork.
func (c *Config) NetworkOptions() []distance.Option {
	opts := []distance.Option{
		distance.WithCeiling(c.Routing.Ceiling),
		distance.WithRetry(c.Routing.Retries, c.Routing.Backoff),
	}
	if len(c.Routing.Geocodes) > 0 {
		table := make(map[string]orb.Point, len(c.Routing.Geocodes))
		for address, ll := range c.Routing.Geocodes {
			table[address] = orb.Point(ll)
		}
		opts = append(opts, distance.WithGeocoder(distance.NewStaticGeocoder(table)))
	}
	return opts
}

func (c *Config) FootprintOptions() footprint.Options {
	return footprint.Options{
		Vacant:  c.Input.Vacant,
		Owners:  c.Input.Owners,
		MaxArea: c.Input.MaxArea,
	}
}
