package domain

import "fmt"

// BollingerStrategy 布林带突破/回归策略。
// 带宽收窄（squeeze）时观望等待突破，触及上下轨且出现反转动量时给出信号。
type BollingerStrategy struct {
	ind              *IndicatorService
	period           int
	stdDev           float64
	squeezeThreshold float64
}

// NewBollingerStrategy 创建布林带策略
func NewBollingerStrategy(ind *IndicatorService) *BollingerStrategy {
	return &BollingerStrategy{ind: ind, period: 20, stdDev: 2.0, squeezeThreshold: 0.02}
}

func (s *BollingerStrategy) ID() string           { return StrategyBollinger }
func (s *BollingerStrategy) Timeframe() Timeframe { return Timeframe15m }
func (s *BollingerStrategy) MinBars() int         { return s.period + 5 }

func (s *BollingerStrategy) Evaluate(ectx EvaluationContext) StrategyResult {
	bars := ectx.Bars
	if len(bars) < s.MinBars() {
		return insufficientResult(s.ID(), "bollinger bands")
	}

	closes := Closes(bars)
	bands := s.ind.Bollinger(closes, s.period, s.stdDev)
	price := ectx.Price

	recent := closes[len(closes)-3:]
	momentumUp := recent[0] < recent[1] && recent[1] < recent[2]
	momentumDown := recent[0] > recent[1] && recent[1] > recent[2]

	result := StrategyResult{
		StrategyID: s.ID(),
		Signal:     SignalHold,
		Strength:   StrengthVeryLow,
		Levels: map[string]float64{
			"upper":  bands.Upper,
			"middle": bands.Middle,
			"lower":  bands.Lower,
			"width":  bands.Width,
		},
	}

	if bands.Width < s.squeezeThreshold {
		result.Reason = fmt.Sprintf("bollinger squeeze detected (width %.2f%%)", bands.Width*100)
		return result
	}

	distToLower := (price - bands.Lower) / price * 100
	distToUpper := (bands.Upper - price) / price * 100

	switch {
	case distToLower < 0.1 && distToLower >= 0:
		if momentumUp {
			result.Signal = SignalBuy
			result.Strength = StrengthHigh
			result.Reason = fmt.Sprintf("bouncing off lower bollinger band (%.2f)", bands.Lower)
		} else {
			result.Strength = StrengthModerate
			result.Reason = "at lower band, waiting for reversal"
		}
	case distToUpper < 0.1 && distToUpper >= 0:
		if momentumDown {
			result.Signal = SignalSell
			result.Strength = StrengthHigh
			result.Reason = fmt.Sprintf("rejecting upper bollinger band (%.2f)", bands.Upper)
		} else {
			result.Strength = StrengthModerate
			result.Reason = "at upper band, waiting for reversal"
		}
	case price < bands.Lower:
		result.Signal = SignalBuy
		result.Strength = StrengthModerate
		result.Reason = fmt.Sprintf("price extended below lower band (%.2f)", bands.Lower)
	case price > bands.Upper:
		result.Signal = SignalSell
		result.Strength = StrengthModerate
		result.Reason = fmt.Sprintf("price extended above upper band (%.2f)", bands.Upper)
	default:
		result.Reason = "price inside bands"
	}
	return result
}
