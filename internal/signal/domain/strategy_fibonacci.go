package domain

import (
	"fmt"
	"math"
)

// FibonacciStrategy 斐波那契回撤策略。
// 在回看窗口内找摆动高低点，按趋势方向计算回撤位，
// 价格贴近关键回撤位（0.618 黄金分割最强）时给出顺势入场信号。
type FibonacciStrategy struct {
	ind      *IndicatorService
	lookback int
	// proximity 价格视为"处于回撤位"的最大距离（百分比）
	proximity float64
}

// NewFibonacciStrategy 创建斐波那契策略
func NewFibonacciStrategy(ind *IndicatorService) *FibonacciStrategy {
	return &FibonacciStrategy{ind: ind, lookback: 50, proximity: 0.3}
}

func (s *FibonacciStrategy) ID() string           { return StrategyFibonacci }
func (s *FibonacciStrategy) Timeframe() Timeframe { return Timeframe4h }
func (s *FibonacciStrategy) MinBars() int         { return s.lookback }

var fibRatios = []struct {
	name  string
	ratio float64
}{
	{"0.0", 0.0},
	{"0.236", 0.236},
	{"0.382", 0.382},
	{"0.5", 0.5},
	{"0.618", 0.618},
	{"0.786", 0.786},
	{"1.0", 1.0},
}

func (s *FibonacciStrategy) Evaluate(ectx EvaluationContext) StrategyResult {
	bars := ectx.Bars
	if len(bars) < s.MinBars() {
		return insufficientResult(s.ID(), "fibonacci")
	}

	window := bars[len(bars)-s.lookback:]
	swingHigh, swingLow := window[0].High, window[0].Low
	highIdx, lowIdx := 0, 0
	for i, b := range window {
		if b.High > swingHigh {
			swingHigh = b.High
			highIdx = i
		}
		if b.Low < swingLow {
			swingLow = b.Low
			lowIdx = i
		}
	}
	// 摆动高点晚于低点即上升趋势
	uptrend := highIdx > lowIdx

	diff := swingHigh - swingLow
	levels := make(map[string]float64, len(fibRatios))
	for _, f := range fibRatios {
		if uptrend {
			levels[f.name] = swingHigh - diff*f.ratio
		} else {
			levels[f.name] = swingLow + diff*f.ratio
		}
	}

	price := ectx.Price
	nearest, nearestPrice := "", 0.0
	distance := math.Inf(1)
	for _, f := range fibRatios {
		d := math.Abs(price-levels[f.name]) / price * 100
		if d < distance {
			distance = d
			nearest = f.name
			nearestPrice = levels[f.name]
		}
	}

	result := StrategyResult{
		StrategyID: s.ID(),
		Signal:     SignalHold,
		Strength:   StrengthVeryLow,
		Levels:     levels,
	}

	if distance >= s.proximity {
		result.Reason = fmt.Sprintf("price between fib levels (nearest: %s at %.2f%%)", nearest, distance)
		return result
	}

	side, role := SignalBuy, "support"
	if !uptrend {
		side, role = SignalSell, "resistance"
	}
	switch nearest {
	case "0.618":
		result.Signal = side
		result.Strength = StrengthHigh
		result.Reason = fmt.Sprintf("golden ratio (0.618) %s at %.2f", role, nearestPrice)
	case "0.5", "0.382":
		result.Signal = side
		result.Strength = StrengthModerate
		result.Reason = fmt.Sprintf("fib %s %s at %.2f", nearest, role, nearestPrice)
	case "0.786":
		result.Signal = side
		result.Strength = StrengthLow
		result.Reason = fmt.Sprintf("deep retracement (0.786) at %.2f", nearestPrice)
	default:
		result.Reason = fmt.Sprintf("at fib boundary %s (%.2f)", nearest, nearestPrice)
	}
	return result
}
