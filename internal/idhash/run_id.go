package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"confluence-backtest-lab/internal/domain"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(symbol|timeframe|start_ms|end_ms|params_fingerprint)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(
	symbol string,
	timeframe string,
	startMs int64,
	endMs int64,
	paramsFingerprint string,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%s",
		symbol,
		timeframe,
		startMs,
		endMs,
		paramsFingerprint,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeParamsFingerprint computes a deterministic hash of a full
// parameter set. Two runs with the same fingerprint used identical
// strategy, risk and simulation settings.
func ComputeParamsFingerprint(p domain.StrategyParams) string {
	data := fmt.Sprintf("%.6f|%.6f|%.6f|%.6f|%.6f|%.6f|%.6f|%.6f|%d|%d|%.6f",
		p.Weights.Trend,
		p.Weights.Sentiment,
		p.Thresholds.Buy,
		p.Thresholds.Sell,
		p.Thresholds.NeutralBand,
		p.Risk.RiskFraction,
		p.Risk.StopATRMultiplier,
		p.Risk.RewardRiskRatio,
		p.Simulation.FeesBps,
		p.Simulation.SlippageBps,
		p.Simulation.InitialEquity,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
