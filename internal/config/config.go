// Package config loads run configuration from YAML files. Every field
// has a default, so a partial file only overrides what it names.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"confluence-backtest-lab/internal/domain"
	"confluence-backtest-lab/internal/features"
)

// Config aggregates everything a backtest run reads from file.
type Config struct {
	Symbol     string                   `yaml:"symbol"`
	Strategy   domain.StrategyParams    `yaml:",inline"`
	Indicators features.IndicatorConfig `yaml:"indicators"`

	// Timeframes, lowest first. The first entry drives entries and
	// exits; the others act as higher-timeframe gates.
	Timeframes []string `yaml:"timeframes"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Symbol:     "BTC/USDT",
		Strategy:   domain.DefaultStrategyParams(),
		Indicators: features.DefaultIndicatorConfig(),
		Timeframes: []string{"1h", "4h", "1d"},
	}
}

// Load reads a YAML config file over the defaults. A missing path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects configurations the engines cannot run with.
func (c Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol must not be empty")
	}
	if len(c.Timeframes) != 3 {
		return fmt.Errorf("expected 3 timeframes (entry, mid gate, high gate), got %d", len(c.Timeframes))
	}

	t := c.Strategy.Thresholds
	if t.Buy <= 0 {
		return fmt.Errorf("buy threshold must be > 0, got %v", t.Buy)
	}
	if t.Sell >= 0 {
		return fmt.Errorf("sell threshold must be < 0, got %v", t.Sell)
	}
	if t.NeutralBand < 0 {
		return fmt.Errorf("neutral band must be >= 0, got %v", t.NeutralBand)
	}

	r := c.Strategy.Risk
	if r.RiskFraction <= 0 || r.RiskFraction >= 1 {
		return fmt.Errorf("risk fraction must be in (0, 1), got %v", r.RiskFraction)
	}
	if r.StopATRMultiplier <= 0 {
		return fmt.Errorf("stop ATR multiplier must be > 0, got %v", r.StopATRMultiplier)
	}
	if r.RewardRiskRatio <= 0 {
		return fmt.Errorf("reward/risk ratio must be > 0, got %v", r.RewardRiskRatio)
	}

	s := c.Strategy.Simulation
	if s.FeesBps < 0 || s.SlippageBps < 0 {
		return fmt.Errorf("fees and slippage must be >= 0")
	}
	if s.InitialEquity <= 0 {
		return fmt.Errorf("initial equity must be > 0, got %v", s.InitialEquity)
	}

	return nil
}
