package domain

import (
	"fmt"
	"math"
	"strings"
)

// PivotStrategy 枢轴点支撑/阻力策略。
// 以前一日的高低收计算经典枢轴点，价格在支撑位附近且 RSI 超卖时做多，
// 在阻力位附近且 RSI 超买时做空。
type PivotStrategy struct {
	ind          *IndicatorService
	rsiThreshold float64
	// proximity 价格视为"处于点位"的最大距离（百分比）
	proximity float64
}

// NewPivotStrategy 创建枢轴点策略
func NewPivotStrategy(ind *IndicatorService) *PivotStrategy {
	return &PivotStrategy{ind: ind, rsiThreshold: 35, proximity: 0.2}
}

func (s *PivotStrategy) ID() string           { return StrategyPivot }
func (s *PivotStrategy) Timeframe() Timeframe { return Timeframe1d }
func (s *PivotStrategy) MinBars() int         { return 2 }

func (s *PivotStrategy) Evaluate(ectx EvaluationContext) StrategyResult {
	if len(ectx.Bars) < s.MinBars() {
		return insufficientResult(s.ID(), "pivot calculation")
	}

	// 取前一日数据计算点位
	prev := ectx.Bars[len(ectx.Bars)-2]
	pivots := s.ind.PivotPoints(prev.High, prev.Low, prev.Close)
	levels := map[string]float64{
		"pivot": pivots.Pivot,
		"r1":    pivots.R1, "r2": pivots.R2, "r3": pivots.R3,
		"s1": pivots.S1, "s2": pivots.S2, "s3": pivots.S3,
	}

	price := ectx.Price
	nearest, nearestPrice, distance := nearestLevel(price, levels)

	result := StrategyResult{
		StrategyID: s.ID(),
		Signal:     SignalHold,
		Strength:   StrengthVeryLow,
		Levels:     levels,
	}

	rsi := ectx.RSI
	switch {
	case strings.HasPrefix(nearest, "s") && distance < s.proximity:
		switch {
		case rsi < s.rsiThreshold:
			result.Signal = SignalBuy
			result.Strength = StrengthModerate
			if nearest == "s1" {
				result.Strength = StrengthHigh
			}
			result.Reason = fmt.Sprintf("oversold (RSI %.1f) at support %s", rsi, strings.ToUpper(nearest))
		case rsi < 45:
			result.Signal = SignalBuy
			result.Strength = StrengthModerate
			result.Reason = fmt.Sprintf("price bouncing at support %s", strings.ToUpper(nearest))
		default:
			result.Strength = StrengthLow
			result.Reason = fmt.Sprintf("at support %s but RSI not oversold", strings.ToUpper(nearest))
		}
	case strings.HasPrefix(nearest, "r") && distance < s.proximity:
		switch {
		case rsi > 100-s.rsiThreshold:
			result.Signal = SignalSell
			result.Strength = StrengthModerate
			if nearest == "r1" {
				result.Strength = StrengthHigh
			}
			result.Reason = fmt.Sprintf("overbought (RSI %.1f) at resistance %s", rsi, strings.ToUpper(nearest))
		case rsi > 55:
			result.Signal = SignalSell
			result.Strength = StrengthModerate
			result.Reason = fmt.Sprintf("price rejecting resistance %s", strings.ToUpper(nearest))
		default:
			result.Strength = StrengthLow
			result.Reason = fmt.Sprintf("at resistance %s but RSI not overbought", strings.ToUpper(nearest))
		}
	case nearest == "pivot" && distance < s.proximity:
		result.Reason = "price at pivot point (neutral zone)"
	default:
		result.Reason = fmt.Sprintf("nearest level %s @ %.2f is %.2f%% away", strings.ToUpper(nearest), nearestPrice, distance)
	}
	return result
}

// nearestLevel 返回距离当前价最近的点位及其百分比距离
func nearestLevel(price float64, levels map[string]float64) (name string, level, distancePct float64) {
	distancePct = math.Inf(1)
	// map 迭代无序，按固定顺序遍历保证结果可复现
	for _, n := range []string{"pivot", "r1", "r2", "r3", "s1", "s2", "s3"} {
		lv, ok := levels[n]
		if !ok {
			continue
		}
		d := math.Abs(price-lv) / price * 100
		if d < distancePct {
			distancePct = d
			name = n
			level = lv
		}
	}
	return name, level, distancePct
}
