package domain

import "fmt"

// TripleEMAConfig 三重 EMA 策略参数，参数寻优时逐项覆盖
type TripleEMAConfig struct {
	FastPeriod      int     `json:"fast_period"`
	MediumPeriod    int     `json:"medium_period"`
	SlowPeriod      int     `json:"slow_period"`
	ATRPeriod       int     `json:"atr_period"`
	ATRMultiplier   float64 `json:"atr_multiplier"`
	VolumeThreshold float64 `json:"volume_threshold"`
	RequireVolume   bool    `json:"require_volume"`
	RiskReward      float64 `json:"risk_reward"`
}

// DefaultTripleEMAConfig 回测验证过的默认参数
func DefaultTripleEMAConfig() TripleEMAConfig {
	return TripleEMAConfig{
		FastPeriod:      9,
		MediumPeriod:    21,
		SlowPeriod:      50,
		ATRPeriod:       14,
		ATRMultiplier:   2.0,
		VolumeThreshold: 1.2,
		RequireVolume:   true,
		RiskReward:      2.0,
	}
}

// TripleEMAStrategy 三重 EMA 趋势策略。
// 快线上穿中线且中线在慢线之上、价格站上中线、动量为正、
// 成交量放大（可选）时做多，反向条件做空。
// 同时提供基于 ATR 的动态止损止盈，供回测引擎使用。
type TripleEMAStrategy struct {
	ind *IndicatorService
	cfg TripleEMAConfig
}

// NewTripleEMAStrategy 创建三重 EMA 策略
func NewTripleEMAStrategy(ind *IndicatorService, cfg TripleEMAConfig) *TripleEMAStrategy {
	return &TripleEMAStrategy{ind: ind, cfg: cfg}
}

func (s *TripleEMAStrategy) ID() string           { return StrategyTripleEMA }
func (s *TripleEMAStrategy) Timeframe() Timeframe { return Timeframe15m }
func (s *TripleEMAStrategy) MinBars() int         { return s.cfg.SlowPeriod + 5 }

// Config 返回当前参数
func (s *TripleEMAStrategy) Config() TripleEMAConfig { return s.cfg }

func (s *TripleEMAStrategy) Evaluate(ectx EvaluationContext) StrategyResult {
	bars := ectx.Bars
	if len(bars) < s.MinBars() {
		return insufficientResult(s.ID(), "triple EMA")
	}

	closes := Closes(bars)
	fast := s.ind.EMASeries(closes, s.cfg.FastPeriod)
	medium := s.ind.EMASeries(closes, s.cfg.MediumPeriod)
	slow := s.ind.EMASeries(closes, s.cfg.SlowPeriod)

	last := len(closes) - 1
	price := closes[last]
	fastCurr, mediumCurr, slowCurr := fast[last], medium[last], slow[last]
	fastPrev, mediumPrev := fast[last-1], medium[last-1]

	result := StrategyResult{
		StrategyID: s.ID(),
		Signal:     SignalHold,
		Strength:   StrengthVeryLow,
		Levels: map[string]float64{
			"ema_fast":   fastCurr,
			"ema_medium": mediumCurr,
			"ema_slow":   slowCurr,
		},
	}

	if s.cfg.RequireVolume && !s.volumeConfirmed(bars) {
		result.Reason = "volume below confirmation threshold"
		return result
	}

	// 最近 3 根的价格动量
	momentum := (closes[last] - closes[last-3]) / closes[last-3]

	goldenCross := fastCurr > mediumCurr && fastPrev <= mediumPrev
	deathCross := fastCurr < mediumCurr && fastPrev >= mediumPrev

	switch {
	case goldenCross && mediumCurr > slowCurr && price > mediumCurr && momentum > 0:
		result.Signal = SignalBuy
		result.Strength = StrengthHigh
		result.Reason = fmt.Sprintf("triple EMA golden cross, momentum %.2f%%", momentum*100)
		sl, tp := s.StopLossTakeProfit(price, SignalBuy, bars)
		result.Levels["stop"] = sl
		result.Levels["target"] = tp
	case deathCross && mediumCurr < slowCurr && price < mediumCurr && momentum < 0:
		result.Signal = SignalSell
		result.Strength = StrengthHigh
		result.Reason = fmt.Sprintf("triple EMA death cross, momentum %.2f%%", momentum*100)
		sl, tp := s.StopLossTakeProfit(price, SignalSell, bars)
		result.Levels["stop"] = sl
		result.Levels["target"] = tp
	default:
		result.Reason = "no confirmed triple EMA cross"
	}
	return result
}

// volumeConfirmed 当前成交量是否超过 20 根均量的阈值倍数
func (s *TripleEMAStrategy) volumeConfirmed(bars []Bar) bool {
	if len(bars) < 21 {
		return true
	}
	avg := 0.0
	for _, b := range bars[len(bars)-21 : len(bars)-1] {
		avg += b.Volume
	}
	avg /= 20
	if avg == 0 {
		return true
	}
	return bars[len(bars)-1].Volume >= s.cfg.VolumeThreshold*avg
}

// StopLossTakeProfit 基于 ATR 的动态止损/止盈。
// ATR 不可用时退化为按 ATR 倍数比例的固定点差（极少见，序列过短时）。
func (s *TripleEMAStrategy) StopLossTakeProfit(entry float64, side SignalType, bars []Bar) (stopLoss, takeProfit float64) {
	atr := s.ind.ATR(bars, s.cfg.ATRPeriod)
	if atr <= 0 {
		// 兜底：2% 止损、按盈亏比放大的止盈
		atr = entry * 0.01
	}
	distance := atr * s.cfg.ATRMultiplier
	if side == SignalBuy {
		return entry - distance, entry + distance*s.cfg.RiskReward
	}
	return entry + distance, entry - distance*s.cfg.RiskReward
}
