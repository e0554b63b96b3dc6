package domain

import "fmt"

// ScalpStrategy EMA 9/21 短线策略。
// 金叉/死叉配合 RSI 确认，目标 0.3%、止损 0.15%（2:1 盈亏比）。
// 趋势延续中 RSI 极值回调也作为顺势入场机会。
type ScalpStrategy struct {
	ind       *IndicatorService
	emaFast   int
	emaSlow   int
	rsiPeriod int
	minProfit float64
	stopLoss  float64
}

// NewScalpStrategy 创建短线策略
func NewScalpStrategy(ind *IndicatorService) *ScalpStrategy {
	return &ScalpStrategy{
		ind:     ind,
		emaFast: 9, emaSlow: 21, rsiPeriod: 14,
		minProfit: 0.003, stopLoss: 0.0015,
	}
}

func (s *ScalpStrategy) ID() string           { return StrategyScalp }
func (s *ScalpStrategy) Timeframe() Timeframe { return Timeframe1m }
func (s *ScalpStrategy) MinBars() int         { return s.emaSlow + 5 }

func (s *ScalpStrategy) Evaluate(ectx EvaluationContext) StrategyResult {
	bars := ectx.Bars
	if len(bars) < s.MinBars() {
		return insufficientResult(s.ID(), "scalp chart")
	}

	closes := Closes(bars)
	emaFast := s.ind.EMASeries(closes, s.emaFast)
	emaSlow := s.ind.EMASeries(closes, s.emaSlow)
	rsi := s.ind.RSISeries(closes, s.rsiPeriod)

	last := len(closes) - 1
	fastCurr, slowCurr := emaFast[last], emaSlow[last]
	fastPrev, slowPrev := emaFast[last-1], emaSlow[last-1]
	rsiCurr, rsiPrev := rsi[last], rsi[last-1]
	price := ectx.Price

	result := StrategyResult{
		StrategyID: s.ID(),
		Signal:     SignalHold,
		Strength:   StrengthVeryLow,
		Levels: map[string]float64{
			"ema_fast": fastCurr,
			"ema_slow": slowCurr,
			"rsi":      rsiCurr,
		},
	}
	setLong := func() {
		result.Levels["target"] = price * (1 + s.minProfit)
		result.Levels["stop"] = price * (1 - s.stopLoss)
	}
	setShort := func() {
		result.Levels["target"] = price * (1 - s.minProfit)
		result.Levels["stop"] = price * (1 + s.stopLoss)
	}

	switch {
	case fastCurr > slowCurr && fastPrev <= slowPrev:
		// 金叉
		if rsiCurr > 50 && rsiCurr > rsiPrev {
			result.Signal = SignalBuy
			result.Strength = StrengthHigh
			result.Reason = fmt.Sprintf("EMA 9/21 golden cross + RSI rising (%.1f)", rsiCurr)
			setLong()
		} else if rsiCurr > 45 {
			result.Signal = SignalBuy
			result.Strength = StrengthModerate
			result.Reason = fmt.Sprintf("EMA golden cross, RSI neutral (%.1f)", rsiCurr)
			setLong()
		} else {
			result.Reason = "golden cross without RSI confirmation"
		}
	case fastCurr < slowCurr && fastPrev >= slowPrev:
		// 死叉
		if rsiCurr < 50 && rsiCurr < rsiPrev {
			result.Signal = SignalSell
			result.Strength = StrengthHigh
			result.Reason = fmt.Sprintf("EMA 9/21 death cross + RSI falling (%.1f)", rsiCurr)
			setShort()
		} else if rsiCurr < 55 {
			result.Signal = SignalSell
			result.Strength = StrengthModerate
			result.Reason = fmt.Sprintf("EMA death cross, RSI neutral (%.1f)", rsiCurr)
			setShort()
		} else {
			result.Reason = "death cross without RSI confirmation"
		}
	case fastCurr > slowCurr && rsiCurr < 30:
		result.Signal = SignalBuy
		result.Strength = StrengthModerate
		result.Reason = fmt.Sprintf("oversold pullback in uptrend (RSI %.1f)", rsiCurr)
		setLong()
	case fastCurr < slowCurr && rsiCurr > 70:
		result.Signal = SignalSell
		result.Strength = StrengthModerate
		result.Reason = fmt.Sprintf("overbought rally in downtrend (RSI %.1f)", rsiCurr)
		setShort()
	default:
		result.Reason = "no crossover or extreme RSI"
	}
	return result
}
