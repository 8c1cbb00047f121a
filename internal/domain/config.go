package domain

// Weights blend the technical and sentiment subscores into a total score.
// The configuration should keep Trend+Sentiment <= 1 so the total stays
// inside [-1, 1]; the combiner does not re-clip.
type Weights struct {
	Trend     float64 `yaml:"trend"`
	Sentiment float64 `yaml:"sentiment"`
}

// Thresholds map a total score to a discrete decision.
type Thresholds struct {
	Buy         float64 `yaml:"buy"`          // > 0
	Sell        float64 `yaml:"sell"`         // < 0
	NeutralBand float64 `yaml:"neutral_band"` // >= 0
}

// RiskParams configure the fixed fractional-risk bracket model.
type RiskParams struct {
	RiskFraction      float64 `yaml:"risk_fraction"`       // equity fraction risked per trade
	StopATRMultiplier float64 `yaml:"stop_atr_multiplier"` // stop distance in ATR units
	RewardRiskRatio   float64 `yaml:"reward_risk_ratio"`   // target distance as multiple of stop distance
}

// SimulationConfig configures the backtest simulator.
type SimulationConfig struct {
	FeesBps       int     `yaml:"fees_bps"`     // exchange fee, basis points per leg
	SlippageBps   int     `yaml:"slippage_bps"` // slippage, basis points per leg
	InitialEquity float64 `yaml:"initial_equity"`
}

// FeeRate returns the proportional cost applied to each notional leg.
func (c SimulationConfig) FeeRate() float64 {
	return float64(c.FeesBps+c.SlippageBps) / 10_000
}

// StrategyParams aggregates every tunable of a backtest run. One value of
// this struct fully determines a run given the input series.
type StrategyParams struct {
	Weights    Weights          `yaml:"weights"`
	Thresholds Thresholds       `yaml:"thresholds"`
	Risk       RiskParams       `yaml:"risk"`
	Simulation SimulationConfig `yaml:"backtest"`
}

// DefaultStrategyParams returns the baseline parameter set.
func DefaultStrategyParams() StrategyParams {
	return StrategyParams{
		Weights:    Weights{Trend: 0.40, Sentiment: 0.25},
		Thresholds: Thresholds{Buy: 0.65, Sell: -0.65, NeutralBand: 0.20},
		Risk:       RiskParams{RiskFraction: 0.01, StopATRMultiplier: 2.0, RewardRiskRatio: 2.0},
		Simulation: SimulationConfig{FeesBps: 7, SlippageBps: 5, InitialEquity: 10_000},
	}
}

// RunRecord summarizes a completed backtest run.
// Corresponds to the backtest_runs table in PostgreSQL.
type RunRecord struct {
	RunID             string // deterministic hash
	Symbol            string
	Timeframe         string // entry timeframe
	StartMs           int64  // first bar timestamp
	EndMs             int64  // last bar timestamp
	BarCount          int
	BuySignals        int
	SellSignals       int
	TradeCount        int
	StartEquity       float64
	EndEquity         float64
	TotalReturn       float64 // percent
	SharpeRatio       float64
	MaxDrawdown       float64 // percent, negative
	WinRate           float64 // percent
	ProfitFactor      float64
	OpenAtEnd         bool // position still open when the series ended
	CreatedAtMs       int64
	ParamsFingerprint string // hash of StrategyParams for reproducibility
}
