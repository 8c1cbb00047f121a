// Package features derives the per-bar technical subscore the confluence
// engine consumes. Indicator math comes from go-talib; the subscore is a
// weighted vote across trend regime, moving-average posture, momentum,
// and supertrend direction, normalized into [-1, 1].
package features

import (
	"github.com/markcheno/go-talib"

	"confluence-backtest-lab/internal/domain"
)

// IndicatorConfig holds the indicator windows feeding the subscore.
type IndicatorConfig struct {
	EMAFast       int     `yaml:"ema_fast"`
	EMASlow       int     `yaml:"ema_slow"`
	EMARegime     int     `yaml:"ema_regime"`
	RSIPeriod     int     `yaml:"rsi_period"`
	MACDFast      int     `yaml:"macd_fast"`
	MACDSlow      int     `yaml:"macd_slow"`
	MACDSignal    int     `yaml:"macd_signal"`
	ATRPeriod     int     `yaml:"atr_period"`
	SupertrendLen int     `yaml:"supertrend_period"`
	SupertrendMul float64 `yaml:"supertrend_multiplier"`
}

// DefaultIndicatorConfig returns the baseline indicator windows.
func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{
		EMAFast:       20,
		EMASlow:       50,
		EMARegime:     200,
		RSIPeriod:     14,
		MACDFast:      12,
		MACDSlow:      26,
		MACDSignal:    9,
		ATRPeriod:     14,
		SupertrendLen: 10,
		SupertrendMul: 3.0,
	}
}

// subscore component weights. The sum of absolute weights is the
// normalizer that keeps the total inside [-1, 1].
const (
	weightRegime     = 1.0
	weightEMACross   = 0.5
	weightRSI        = 0.25
	weightMACD       = 0.25
	weightSupertrend = 0.25
	weightTotal      = weightRegime + weightEMACross + weightRSI + weightMACD + weightSupertrend
)

// TechnicalSubscore computes the normalized technical subscore, one value
// per bar. Warmup bars score from whatever indicator values talib emits
// there; callers wanting clean warmup should trim the head themselves.
func TechnicalSubscore(bars []domain.Bar, cfg IndicatorConfig) []float64 {
	n := len(bars)
	if n == 0 {
		return nil
	}

	closes := domain.Closes(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}

	emaFast := talib.Ema(closes, cfg.EMAFast)
	emaSlow := talib.Ema(closes, cfg.EMASlow)
	emaRegime := talib.Ema(closes, cfg.EMARegime)
	rsi := talib.Rsi(closes, cfg.RSIPeriod)
	macdLine, macdSignal, macdHist := talib.Macd(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	st := Supertrend(bars, cfg.SupertrendLen, cfg.SupertrendMul)

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var score float64

		if closes[i] > emaRegime[i] {
			score += weightRegime
		} else {
			score -= weightRegime
		}

		if emaFast[i] > emaSlow[i] {
			score += weightEMACross
		} else {
			score -= weightEMACross
		}

		if rsi[i] > 55 {
			score += weightRSI
		} else if rsi[i] < 45 {
			score -= weightRSI
		}

		if i > 0 {
			if macdLine[i] > macdSignal[i] && macdHist[i] > macdHist[i-1] {
				score += weightMACD
			} else if macdLine[i] < macdSignal[i] && macdHist[i] < macdHist[i-1] {
				score -= weightMACD
			}
		}

		if closes[i] > st[i] {
			score += weightSupertrend
		} else {
			score -= weightSupertrend
		}

		out[i] = clamp(score/weightTotal, -1, 1)
	}
	return out
}

// ATR returns the average true range series for the bars.
func ATR(bars []domain.Bar, period int) []float64 {
	n := len(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
	}
	return talib.Atr(highs, lows, closes, period)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
