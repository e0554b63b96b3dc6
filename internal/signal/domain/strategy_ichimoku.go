package domain

import "strings"

// IchimokuStrategy 一目均衡表趋势策略。
// 统计四项条件的多空数量：价格与云层位置、转换线与基准线关系、
// 迟行线与历史价格关系、云层颜色。三项以上且价格在云外为 HIGH。
type IchimokuStrategy struct {
	ind           *IndicatorService
	tenkanPeriod  int
	kijunPeriod   int
	senkouBPeriod int
	displacement  int
}

// NewIchimokuStrategy 创建一目均衡表策略
func NewIchimokuStrategy(ind *IndicatorService) *IchimokuStrategy {
	return &IchimokuStrategy{ind: ind, tenkanPeriod: 9, kijunPeriod: 26, senkouBPeriod: 52, displacement: 26}
}

func (s *IchimokuStrategy) ID() string           { return StrategyIchimoku }
func (s *IchimokuStrategy) Timeframe() Timeframe { return Timeframe4h }
func (s *IchimokuStrategy) MinBars() int         { return s.senkouBPeriod + s.displacement + 10 }

func (s *IchimokuStrategy) Evaluate(ectx EvaluationContext) StrategyResult {
	bars := ectx.Bars
	if len(bars) < s.MinBars() {
		return insufficientResult(s.ID(), "ichimoku")
	}

	lv := s.ind.Ichimoku(bars, s.tenkanPeriod, s.kijunPeriod, s.senkouBPeriod, s.displacement)
	price := ectx.Price

	priceAboveCloud := price > lv.CloudTop
	priceBelowCloud := price < lv.CloudBottom
	cloudBullish := lv.SenkouA > lv.SenkouB

	var bullish, bearish []string
	if priceAboveCloud {
		bullish = append(bullish, "price above cloud")
	}
	if priceBelowCloud {
		bearish = append(bearish, "price below cloud")
	}
	if lv.Tenkan > lv.Kijun {
		bullish = append(bullish, "tenkan > kijun")
	}
	if lv.Tenkan < lv.Kijun {
		bearish = append(bearish, "tenkan < kijun")
	}
	if lv.PastClose > 0 {
		if lv.Close > lv.PastClose {
			bullish = append(bullish, "chikou above price")
		}
		if lv.Close < lv.PastClose {
			bearish = append(bearish, "chikou below price")
		}
	}
	if cloudBullish {
		bullish = append(bullish, "bullish cloud")
	} else {
		bearish = append(bearish, "bearish cloud")
	}

	result := StrategyResult{
		StrategyID: s.ID(),
		Signal:     SignalHold,
		Strength:   StrengthVeryLow,
		Levels: map[string]float64{
			"tenkan":       lv.Tenkan,
			"kijun":        lv.Kijun,
			"cloud_top":    lv.CloudTop,
			"cloud_bottom": lv.CloudBottom,
		},
	}

	switch {
	case len(bullish) >= 3 && priceAboveCloud && lv.Tenkan > lv.Kijun:
		result.Signal = SignalBuy
		result.Strength = StrengthHigh
		result.Reason = "strong ichimoku bullish: " + strings.Join(bullish, ", ")
	case len(bullish) >= 2:
		result.Signal = SignalBuy
		result.Strength = StrengthModerate
		result.Reason = "ichimoku bullish: " + strings.Join(bullish, ", ")
	case len(bearish) >= 3 && priceBelowCloud && lv.Tenkan < lv.Kijun:
		result.Signal = SignalSell
		result.Strength = StrengthHigh
		result.Reason = "strong ichimoku bearish: " + strings.Join(bearish, ", ")
	case len(bearish) >= 2:
		result.Signal = SignalSell
		result.Strength = StrengthModerate
		result.Reason = "ichimoku bearish: " + strings.Join(bearish, ", ")
	case !priceAboveCloud && !priceBelowCloud:
		result.Reason = "price inside ichimoku cloud (neutral zone)"
	default:
		result.Reason = "no ichimoku alignment"
	}
	return result
}
