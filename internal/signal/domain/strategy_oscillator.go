package domain

import (
	"fmt"
	"strings"
)

// OscillatorStrategy 三振荡器共振策略。
// 随机指标（14,3,3）、RSI（14）与 MACD（12,26,9）同向时给出高置信度信号：
// 三者齐备为 HIGH，两者为 MODERATE，单独一个仅作观察。
type OscillatorStrategy struct {
	ind         *IndicatorService
	stochPeriod int
	stochK      int
	stochD      int
	rsiPeriod   int
	macdFast    int
	macdSlow    int
	macdSignal  int
}

// NewOscillatorStrategy 创建三振荡器策略
func NewOscillatorStrategy(ind *IndicatorService) *OscillatorStrategy {
	return &OscillatorStrategy{
		ind:         ind,
		stochPeriod: 14, stochK: 3, stochD: 3,
		rsiPeriod: 14,
		macdFast:  12, macdSlow: 26, macdSignal: 9,
	}
}

func (s *OscillatorStrategy) ID() string           { return StrategyOscillator }
func (s *OscillatorStrategy) Timeframe() Timeframe { return Timeframe1h }
func (s *OscillatorStrategy) MinBars() int         { return s.macdSlow + 20 }

func (s *OscillatorStrategy) Evaluate(ectx EvaluationContext) StrategyResult {
	bars := ectx.Bars
	if len(bars) < s.MinBars() {
		return insufficientResult(s.ID(), "triple oscillator")
	}

	closes := Closes(bars)
	k, d := s.ind.Stochastic(bars, s.stochPeriod, s.stochK, s.stochD)
	rsi := s.ind.RSISeries(closes, s.rsiPeriod)
	macd, signalLine, hist := s.ind.MACD(closes, s.macdFast, s.macdSlow, s.macdSignal)

	last := len(bars) - 1
	stochK, stochD := k[last], d[last]
	stochKPrev, stochDPrev := k[last-1], d[last-1]
	rsiCurr, rsiPrev := rsi[last], rsi[last-1]
	macdCurr, sigCurr := macd[last], signalLine[last]
	histCurr, histPrev := hist[last], hist[last-1]

	var bullish, bearish []string

	// 随机指标
	if stochK < 20 && stochK > stochD && stochKPrev <= stochDPrev {
		bullish = append(bullish, fmt.Sprintf("stoch oversold crossover (K=%.1f)", stochK))
	} else if stochK < 30 {
		bullish = append(bullish, fmt.Sprintf("stoch oversold zone (K=%.1f)", stochK))
	}
	if stochK > 80 && stochK < stochD && stochKPrev >= stochDPrev {
		bearish = append(bearish, fmt.Sprintf("stoch overbought crossunder (K=%.1f)", stochK))
	} else if stochK > 70 {
		bearish = append(bearish, fmt.Sprintf("stoch overbought zone (K=%.1f)", stochK))
	}

	// RSI
	if rsiCurr < 30 {
		bullish = append(bullish, fmt.Sprintf("RSI oversold (%.1f)", rsiCurr))
	} else if rsiCurr < 40 && rsiCurr > rsiPrev {
		bullish = append(bullish, fmt.Sprintf("RSI rising from oversold (%.1f)", rsiCurr))
	}
	if rsiCurr > 70 {
		bearish = append(bearish, fmt.Sprintf("RSI overbought (%.1f)", rsiCurr))
	} else if rsiCurr > 60 && rsiCurr < rsiPrev {
		bearish = append(bearish, fmt.Sprintf("RSI falling from overbought (%.1f)", rsiCurr))
	}

	// MACD
	if macdCurr > sigCurr && histCurr > 0 {
		bullish = append(bullish, fmt.Sprintf("MACD bullish (hist=%.2f)", histCurr))
	} else if histCurr > 0 && histCurr > histPrev {
		bullish = append(bullish, "MACD histogram rising")
	}
	if macdCurr < sigCurr && histCurr < 0 {
		bearish = append(bearish, fmt.Sprintf("MACD bearish (hist=%.2f)", histCurr))
	} else if histCurr < 0 && histCurr < histPrev {
		bearish = append(bearish, "MACD histogram falling")
	}

	result := StrategyResult{
		StrategyID: s.ID(),
		Signal:     SignalHold,
		Strength:   StrengthVeryLow,
		Levels: map[string]float64{
			"stoch_k": stochK,
			"stoch_d": stochD,
			"rsi":     rsiCurr,
			"macd":    macdCurr,
		},
	}

	switch {
	case len(bullish) >= 3:
		result.Signal = SignalBuy
		result.Strength = StrengthHigh
		result.Reason = "all 3 oscillators bullish: " + strings.Join(bullish, ", ")
	case len(bullish) == 2:
		result.Signal = SignalBuy
		result.Strength = StrengthModerate
		result.Reason = "2/3 oscillators bullish: " + strings.Join(bullish, ", ")
	case len(bullish) == 1:
		result.Strength = StrengthLow
		result.Reason = "1/3 bullish: " + bullish[0]
	}
	switch {
	case len(bearish) >= 3:
		result.Signal = SignalSell
		result.Strength = StrengthHigh
		result.Reason = "all 3 oscillators bearish: " + strings.Join(bearish, ", ")
	case len(bearish) == 2:
		result.Signal = SignalSell
		result.Strength = StrengthModerate
		result.Reason = "2/3 oscillators bearish: " + strings.Join(bearish, ", ")
	case len(bearish) == 1 && len(bullish) == 0:
		result.Strength = StrengthLow
		result.Reason = "1/3 bearish: " + bearish[0]
	}

	// 多空信号并存时取多数方，仅给低强度信号
	if len(bullish) > 0 && len(bearish) > 0 {
		switch {
		case len(bullish) > len(bearish):
			result.Signal = SignalBuy
			result.Strength = StrengthLow
			result.Reason = fmt.Sprintf("mixed signals, %d bullish vs %d bearish", len(bullish), len(bearish))
		case len(bearish) > len(bullish):
			result.Signal = SignalSell
			result.Strength = StrengthLow
			result.Reason = fmt.Sprintf("mixed signals, %d bearish vs %d bullish", len(bearish), len(bullish))
		default:
			result.Signal = SignalHold
			result.Strength = StrengthVeryLow
			result.Reason = "conflicting oscillator signals"
		}
	}
	if result.Reason == "" {
		result.Reason = "no oscillator alignment"
	}
	return result
}
