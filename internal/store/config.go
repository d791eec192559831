package store

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"agentsim/internal/agent"
	"agentsim/internal/market"
	"agentsim/internal/randsrc"
	"agentsim/internal/types"
)

const (
	PathSingle = "single"
	PathBatch  = "batch"
)

type AgentConfig struct {
	Name                 string          `yaml:"name"`
	Balance              float64         `yaml:"balance"`
	Holdings             map[string]int  `yaml:"holdings"`
	Sentiment            float64         `yaml:"sentiment"`
	PriceBand            agent.PriceBand `yaml:"price_band"`
	Literacy             float64         `yaml:"literacy"`
	SpeculationBias      float64         `yaml:"speculation_bias"`
	NoiseSensitivity     float64         `yaml:"noise_sensitivity"`
	FundamentalistWeight float64         `yaml:"fundamentalist_weight"`
	InflationExpectation float64         `yaml:"inflation_expectation"`
}

type Config struct {
	Seed         uint64 `yaml:"seed"`
	Ticks        int    `yaml:"ticks"`
	DecisionPath string `yaml:"decision_path"`
	Neighbors    struct {
		Max          int `yaml:"max"`
		RefreshEvery int `yaml:"refresh_every"`
	} `yaml:"neighbors"`
	Inflation struct {
		Mean         float64 `yaml:"mean"`
		StdDev       float64 `yaml:"stddev"`
		DaysPerMonth int     `yaml:"days_per_month"`
	} `yaml:"inflation"`
	Dividends struct {
		Every int `yaml:"every"`
	} `yaml:"dividends"`
	Instruments []market.Instrument `yaml:"instruments"`
	Funds       []types.Fund        `yaml:"funds"`
	Agents      struct {
		Explicit []AgentConfig `yaml:"explicit"`
		Generate struct {
			Count        int             `yaml:"count"`
			Prefix       string          `yaml:"prefix"`
			BalanceMin   float64         `yaml:"balance_min"`
			BalanceMax   float64         `yaml:"balance_max"`
			HoldingsMax  int             `yaml:"holdings_max"`
			InflationMin float64         `yaml:"inflation_min"`
			InflationMax float64         `yaml:"inflation_max"`
			PriceBand    agent.PriceBand `yaml:"price_band"`
		} `yaml:"generate"`
	} `yaml:"agents"`
	Weights agent.Weights `yaml:"weights"`
}

// Default returns a config with every optional field populated. Weights not
// present in a file keep these values.
func Default() Config {
	var c Config
	c.Ticks = 23
	c.DecisionPath = PathSingle
	c.Neighbors.Max = agent.DefaultMaxNeighbors
	c.Neighbors.RefreshEvery = 1
	c.Inflation.Mean = 0.005
	c.Inflation.StdDev = 0.002
	c.Inflation.DaysPerMonth = market.DefaultDaysPerMonth
	c.Dividends.Every = 22
	c.Agents.Generate.Prefix = "agent-"
	c.Agents.Generate.BalanceMin = 1000
	c.Agents.Generate.BalanceMax = 5000
	c.Agents.Generate.HoldingsMax = 50
	c.Agents.Generate.InflationMin = -0.02
	c.Agents.Generate.InflationMax = 0.05
	c.Agents.Generate.PriceBand = agent.PriceBand{Min: 40, Expected: 50, Max: 60}
	c.Weights = agent.DefaultWeights()
	return c
}

func (c *Config) Validate() error {
	c.DecisionPath = strings.ToLower(c.DecisionPath)
	if c.DecisionPath != PathSingle && c.DecisionPath != PathBatch {
		return fmt.Errorf("invalid decision_path '%s': must be 'single' or 'batch'", c.DecisionPath)
	}
	if c.Ticks < 0 {
		return fmt.Errorf("ticks must be >= 0, got %d", c.Ticks)
	}
	if len(c.Instruments) == 0 {
		return errors.New("instruments cannot be empty")
	}
	if c.Neighbors.Max < 0 {
		return fmt.Errorf("neighbors.max must be >= 0, got %d", c.Neighbors.Max)
	}
	if c.Neighbors.RefreshEvery < 1 {
		return fmt.Errorf("neighbors.refresh_every must be >= 1, got %d", c.Neighbors.RefreshEvery)
	}
	if c.Inflation.StdDev < 0 {
		return fmt.Errorf("inflation.stddev must be >= 0, got %.4f", c.Inflation.StdDev)
	}
	if c.Dividends.Every < 0 {
		return fmt.Errorf("dividends.every must be >= 0, got %d", c.Dividends.Every)
	}
	g := c.Agents.Generate
	if len(c.Agents.Explicit) == 0 && g.Count <= 0 {
		return errors.New("agents: need explicit agents or generate.count > 0")
	}
	if g.Count > 0 {
		if g.BalanceMax < g.BalanceMin {
			return fmt.Errorf("agents.generate: balance_max %.2f < balance_min %.2f", g.BalanceMax, g.BalanceMin)
		}
		if g.InflationMax < g.InflationMin {
			return fmt.Errorf("agents.generate: inflation_max %.4f < inflation_min %.4f", g.InflationMax, g.InflationMin)
		}
		if g.HoldingsMax < 0 {
			return fmt.Errorf("agents.generate: holdings_max must be >= 0, got %d", g.HoldingsMax)
		}
	}
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes YAML over Default and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if c.Inflation.DaysPerMonth == 0 {
		c.Inflation.DaysPerMonth = market.DefaultDaysPerMonth
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// AgentParams returns the explicit agents followed by Generate.Count drawn
// ones. Generated agents hold a uniform integer amount of every instrument
// and fund, and draw sentiment in [-1, 1] and behavioral parameters in [0, 1].
func (c *Config) AgentParams(rng randsrc.Source) []agent.Params {
	out := make([]agent.Params, 0, len(c.Agents.Explicit)+c.Agents.Generate.Count)
	for _, a := range c.Agents.Explicit {
		out = append(out, agent.Params{
			Name:                 a.Name,
			Balance:              a.Balance,
			Holdings:             a.Holdings,
			Sentiment:            a.Sentiment,
			PriceBand:            a.PriceBand,
			Literacy:             a.Literacy,
			SpeculationBias:      a.SpeculationBias,
			NoiseSensitivity:     a.NoiseSensitivity,
			FundamentalistWeight: a.FundamentalistWeight,
			InflationExpectation: a.InflationExpectation,
		})
	}

	g := c.Agents.Generate
	for i := 0; i < g.Count; i++ {
		holdings := make(map[string]int, len(c.Instruments)+len(c.Funds))
		for _, in := range c.Instruments {
			holdings[in.Name] = randsrc.IntRange(rng, 0, g.HoldingsMax)
		}
		for _, f := range c.Funds {
			holdings[f.Name] = randsrc.IntRange(rng, 0, g.HoldingsMax)
		}
		out = append(out, agent.Params{
			Name:                 fmt.Sprintf("%s%d", g.Prefix, i+1),
			Balance:              randsrc.Uniform(rng, g.BalanceMin, g.BalanceMax),
			Holdings:             holdings,
			Sentiment:            randsrc.Uniform(rng, -1, 1),
			PriceBand:            g.PriceBand,
			Literacy:             rng.Float64(),
			SpeculationBias:      rng.Float64(),
			NoiseSensitivity:     rng.Float64(),
			FundamentalistWeight: rng.Float64(),
			InflationExpectation: randsrc.Uniform(rng, g.InflationMin, g.InflationMax),
		})
	}
	return out
}
