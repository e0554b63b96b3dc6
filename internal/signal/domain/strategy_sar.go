package domain

import "fmt"

// SARStrategy 抛物线 SAR 趋势跟踪策略。
// 趋势刚反转时给出 HIGH 信号，趋势延续中价格仍在 SAR 正确一侧时给 MODERATE。
type SARStrategy struct {
	ind          *IndicatorService
	acceleration float64
	maximum      float64
}

// NewSARStrategy 创建抛物线 SAR 策略
func NewSARStrategy(ind *IndicatorService) *SARStrategy {
	return &SARStrategy{ind: ind, acceleration: 0.02, maximum: 0.2}
}

func (s *SARStrategy) ID() string           { return StrategySAR }
func (s *SARStrategy) Timeframe() Timeframe { return Timeframe1h }
func (s *SARStrategy) MinBars() int         { return 20 }

func (s *SARStrategy) Evaluate(ectx EvaluationContext) StrategyResult {
	bars := ectx.Bars
	if len(bars) < s.MinBars() {
		return insufficientResult(s.ID(), "parabolic SAR")
	}

	sar, trend := s.ind.ParabolicSAR(bars, s.acceleration, s.maximum)
	last := len(bars) - 1
	sarCurr := sar[last]
	trendCurr, trendPrev := trend[last], trend[last-1]
	price := ectx.Price

	result := StrategyResult{
		StrategyID: s.ID(),
		Signal:     SignalHold,
		Strength:   StrengthVeryLow,
		Levels:     map[string]float64{"sar": sarCurr},
	}

	switch {
	case trendCurr == 1 && trendPrev == -1:
		result.Signal = SignalBuy
		result.Strength = StrengthHigh
		result.Reason = fmt.Sprintf("parabolic SAR reversal to uptrend (SAR: %.2f)", sarCurr)
	case trendCurr == -1 && trendPrev == 1:
		result.Signal = SignalSell
		result.Strength = StrengthHigh
		result.Reason = fmt.Sprintf("parabolic SAR reversal to downtrend (SAR: %.2f)", sarCurr)
	case trendCurr == 1:
		if price > sarCurr {
			result.Signal = SignalBuy
			result.Strength = StrengthModerate
			result.Reason = fmt.Sprintf("parabolic SAR uptrend continuation (SAR: %.2f)", sarCurr)
		} else {
			result.Strength = StrengthLow
			result.Reason = "uptrend weakening, price near SAR"
		}
	default:
		if price < sarCurr {
			result.Signal = SignalSell
			result.Strength = StrengthModerate
			result.Reason = fmt.Sprintf("parabolic SAR downtrend continuation (SAR: %.2f)", sarCurr)
		} else {
			result.Strength = StrengthLow
			result.Reason = "downtrend weakening, price near SAR"
		}
	}
	return result
}
