package domain

import (
	"fmt"
	"math"
)

// VWAPStrategy 成交量加权均价回弹策略。
// VWAP 是机构日内交易的基准线：价格贴近 VWAP 时观察回弹/拒绝，
// 触及标准差带时视为超买/超卖。
type VWAPStrategy struct {
	ind *IndicatorService
	// distanceThreshold 视为贴近 VWAP 的最大距离（比例）
	distanceThreshold float64
	stdMult           float64
}

// NewVWAPStrategy 创建 VWAP 策略
func NewVWAPStrategy(ind *IndicatorService) *VWAPStrategy {
	return &VWAPStrategy{ind: ind, distanceThreshold: 0.002, stdMult: 1.0}
}

func (s *VWAPStrategy) ID() string           { return StrategyVWAP }
func (s *VWAPStrategy) Timeframe() Timeframe { return Timeframe15m }
func (s *VWAPStrategy) MinBars() int         { return 10 }

func (s *VWAPStrategy) Evaluate(ectx EvaluationContext) StrategyResult {
	bars := ectx.Bars
	if len(bars) < s.MinBars() {
		return insufficientResult(s.ID(), "vwap")
	}

	bands := s.ind.VWAP(bars, s.stdMult)
	price := ectx.Price
	distancePct := math.Abs(price-bands.VWAP) / bands.VWAP * 100

	// 最近三根收盘的动量方向
	closes := Closes(bars)
	recent := closes[len(closes)-3:]
	momentumUp := recent[0] < recent[1] && recent[1] < recent[2]
	momentumDown := recent[0] > recent[1] && recent[1] > recent[2]

	result := StrategyResult{
		StrategyID: s.ID(),
		Signal:     SignalHold,
		Strength:   StrengthVeryLow,
		Levels: map[string]float64{
			"vwap":  bands.VWAP,
			"upper": bands.Upper,
			"lower": bands.Lower,
		},
	}

	switch {
	case distancePct < s.distanceThreshold*100:
		switch {
		case price < bands.VWAP && momentumUp:
			result.Signal = SignalBuy
			result.Strength = StrengthModerate
			result.Reason = fmt.Sprintf("bouncing off VWAP from below (%.2f)", bands.VWAP)
		case price < bands.VWAP:
			result.Strength = StrengthLow
			result.Reason = "at VWAP support but no momentum"
		case price > bands.VWAP && momentumDown:
			result.Signal = SignalSell
			result.Strength = StrengthModerate
			result.Reason = fmt.Sprintf("rejecting VWAP from above (%.2f)", bands.VWAP)
		case price > bands.VWAP:
			result.Strength = StrengthLow
			result.Reason = "at VWAP resistance but no rejection"
		default:
			result.Reason = "price at VWAP (neutral zone)"
		}
	case price <= bands.Lower:
		if momentumUp {
			result.Signal = SignalBuy
			result.Strength = StrengthHigh
			result.Reason = fmt.Sprintf("bouncing off lower VWAP band (%.2f)", bands.Lower)
		} else {
			result.Strength = StrengthModerate
			result.Reason = "at lower VWAP band, waiting for bounce"
		}
	case price >= bands.Upper:
		if momentumDown {
			result.Signal = SignalSell
			result.Strength = StrengthHigh
			result.Reason = fmt.Sprintf("rejecting upper VWAP band (%.2f)", bands.Upper)
		} else {
			result.Strength = StrengthModerate
			result.Reason = "at upper VWAP band, waiting for rejection"
		}
	case price > bands.VWAP:
		result.Reason = fmt.Sprintf("price %.2f%% above VWAP (bullish zone)", distancePct)
	default:
		result.Reason = fmt.Sprintf("price %.2f%% below VWAP (bearish zone)", distancePct)
	}
	return result
}
