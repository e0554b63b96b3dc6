package domain

import (
	"math"
	"testing"
	"time"
)

func TestDefaultRegistry(t *testing.T) {
	reg := NewDefaultRegistry(NewIndicatorService())
	ids := reg.IDs()
	want := []string{
		StrategyPivot, StrategyVWAP, StrategyBollinger, StrategyOscillator,
		StrategyFibonacci, StrategyIchimoku, StrategySAR, StrategyScalp,
	}
	if len(ids) != len(want) {
		t.Fatalf("registry has %d strategies, want %d", len(ids), len(want))
	}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("ids[%d] = %s, want %s", i, ids[i], id)
		}
	}
	if _, ok := reg.Get(StrategyPivot); !ok {
		t.Fatalf("Get(%s) not found", StrategyPivot)
	}
	if _, ok := reg.Get("unknown"); ok {
		t.Fatalf("Get(unknown) must miss")
	}
}

func TestStrategies_InsufficientData(t *testing.T) {
	reg := NewDefaultRegistry(NewIndicatorService())
	bars := makeBars(1, 100, 0.1)
	for _, st := range reg.All() {
		result := st.Evaluate(EvaluationContext{Bars: bars, Price: 100})
		if !result.NoData {
			t.Fatalf("%s: single bar must flag NoData, got %+v", st.ID(), result)
		}
		if result.Signal != SignalHold || result.Strength != StrengthVeryLow {
			t.Fatalf("%s: no-data fallback must be HOLD/VERY_LOW, got %s/%s", st.ID(), result.Signal, result.Strength)
		}
	}
}

func TestPivotStrategy(t *testing.T) {
	s := NewPivotStrategy(NewIndicatorService())
	t0 := time.Unix(0, 0).UTC()
	bars := []Bar{
		{Timestamp: t0, Open: 100, High: 110, Low: 90, Close: 100, Volume: 1},
		{Timestamp: t0.Add(24 * time.Hour), Open: 100, High: 101, Low: 89, Close: 90, Volume: 1},
	}

	// S1 = 90，超卖回踩做多
	out := s.Evaluate(EvaluationContext{Bars: bars, Price: 90.05, RSI: 30})
	if out.Signal != SignalBuy || out.Strength != StrengthHigh {
		t.Fatalf("oversold at S1 must be BUY/HIGH, got %s/%s (%s)", out.Signal, out.Strength, out.Reason)
	}

	// R1 = 110，超买受阻做空
	out = s.Evaluate(EvaluationContext{Bars: bars, Price: 109.9, RSI: 70})
	if out.Signal != SignalSell || out.Strength != StrengthHigh {
		t.Fatalf("overbought at R1 must be SELL/HIGH, got %s/%s (%s)", out.Signal, out.Strength, out.Reason)
	}

	// 枢轴点附近保持中性
	out = s.Evaluate(EvaluationContext{Bars: bars, Price: 100, RSI: 50})
	if out.Signal != SignalHold {
		t.Fatalf("at pivot must hold, got %s (%s)", out.Signal, out.Reason)
	}

	// 支撑位但 RSI 不超卖：只观察不入场
	out = s.Evaluate(EvaluationContext{Bars: bars, Price: 90.05, RSI: 55})
	if out.Signal != SignalHold || out.Strength != StrengthLow {
		t.Fatalf("support without oversold RSI must be HOLD/LOW, got %s/%s", out.Signal, out.Strength)
	}
}

// trendPullbackBars 长期匀速上涨后以更大步长急跌收尾：
// 趋势未破坏但短线超卖，回落至支撑与关键回撤位附近
func trendPullbackBars(riseBars int, riseStep float64, dipBars int, dipStep float64) []Bar {
	out := make([]Bar, 0, riseBars+dipBars)
	t0 := time.Unix(0, 0).UTC()
	price := 100.0
	for i := 0; i < riseBars+dipBars; i++ {
		step := riseStep
		if i >= riseBars {
			step = -dipStep
		}
		o := price
		c := o + step
		out = append(out, Bar{
			Timestamp: t0.Add(time.Duration(i) * time.Minute),
			Open:      o,
			High:      math.Max(o, c) * 1.002,
			Low:       math.Min(o, c) * 0.998,
			Close:     c,
			Volume:    1_000_000,
		})
		price = c
	}
	return out
}

// 上涨途中的超卖回调：枢轴支撑、布林下轨、黄金分割回撤与振荡器
// 同时转多，全注册表聚合后买方得分与票数必须领先
func TestDefaultRegistry_UptrendPullbackBuyDominant(t *testing.T) {
	ind := NewIndicatorService()
	reg := NewDefaultRegistry(ind)
	bars := trendPullbackBars(194, 0.3, 6, 1.4)

	price := bars[len(bars)-1].Close
	rsi := ind.RSI(Closes(bars), 14)

	results := make([]StrategyResult, 0, 8)
	for _, st := range reg.All() {
		r := st.Evaluate(EvaluationContext{Bars: bars, Price: price, RSI: rsi})
		if r.NoData {
			t.Fatalf("%s: 200 bars must be enough data", st.ID())
		}
		results = append(results, r)
	}

	agg := NewAggregator()
	out := agg.Combine(results, DefaultAggregatorConfig())

	if out.BuyScore <= out.SellScore || out.BuyScore <= out.HoldScore {
		t.Fatalf("buy side must dominate: buy=%.3f sell=%.3f hold=%.3f", out.BuyScore, out.SellScore, out.HoldScore)
	}
	if out.BuyCount*2 <= out.Total {
		t.Fatalf("buy votes must be a majority, got %d of %d", out.BuyCount, out.Total)
	}
	// 默认 0.5 的最低得分门槛仍拦截为 HOLD
	if out.Signal != SignalHold {
		t.Fatalf("default min score must gate to HOLD, got %s (%s)", out.Signal, out.Reason)
	}

	// 放宽门槛后输出 BUY，置信度过半
	cfg := DefaultAggregatorConfig()
	cfg.MinScore = 0.25
	out = agg.Combine(results, cfg)
	if out.Signal != SignalBuy {
		t.Fatalf("relaxed min score must yield BUY, got %s (%s)", out.Signal, out.Reason)
	}
	if out.Confidence <= 50 {
		t.Fatalf("confidence must exceed 50%%, got %.1f", out.Confidence)
	}
}

// spikeBars 长期横盘后最后一根放量拉升，构造精确的金叉
func spikeBars(n int, price, spikeClose, spikeVolume float64) []Bar {
	bars := flatBars(n, price)
	last := &bars[n-1]
	last.Close = spikeClose
	last.High = spikeClose * 1.002
	last.Low = price * 0.998
	last.Volume = spikeVolume
	return bars
}

func TestTripleEMAStrategy_GoldenCross(t *testing.T) {
	s := NewTripleEMAStrategy(NewIndicatorService(), DefaultTripleEMAConfig())
	bars := spikeBars(60, 100, 105, 3_000_000)

	out := s.Evaluate(EvaluationContext{Bars: bars, Price: 105})
	if out.Signal != SignalBuy || out.Strength != StrengthHigh {
		t.Fatalf("spike after flat base must golden-cross BUY/HIGH, got %s/%s (%s)", out.Signal, out.Strength, out.Reason)
	}
	stop, target := out.Levels["stop"], out.Levels["target"]
	if !(stop < 105 && 105 < target) {
		t.Fatalf("stop/target must bracket entry: stop=%.4f target=%.4f", stop, target)
	}
}

func TestTripleEMAStrategy_VolumeGate(t *testing.T) {
	s := NewTripleEMAStrategy(NewIndicatorService(), DefaultTripleEMAConfig())
	// 同样的金叉形态但量能不足，必须被拦下
	bars := spikeBars(60, 100, 105, 1_000_000)

	out := s.Evaluate(EvaluationContext{Bars: bars, Price: 105})
	if out.Signal != SignalHold {
		t.Fatalf("unconfirmed volume must hold, got %s (%s)", out.Signal, out.Reason)
	}
}

func TestTripleEMAStrategy_StopLossTakeProfit(t *testing.T) {
	s := NewTripleEMAStrategy(NewIndicatorService(), DefaultTripleEMAConfig())
	bars := make([]Bar, 20)
	t0 := time.Unix(0, 0).UTC()
	for i := range bars {
		bars[i] = Bar{
			Timestamp: t0.Add(time.Duration(i) * time.Minute),
			Open:      100, High: 101, Low: 99, Close: 100, Volume: 1,
		}
	}

	// ATR = 2，倍数 2.0，盈亏比 2.0
	sl, tp := s.StopLossTakeProfit(100, SignalBuy, bars)
	if !almostEqual(sl, 96) || !almostEqual(tp, 108) {
		t.Fatalf("long stops = %.4f/%.4f, want 96/108", sl, tp)
	}
	sl, tp = s.StopLossTakeProfit(100, SignalSell, bars)
	if !almostEqual(sl, 104) || !almostEqual(tp, 92) {
		t.Fatalf("short stops = %.4f/%.4f, want 104/92", sl, tp)
	}
}

func TestScalpStrategy_GoldenCross(t *testing.T) {
	s := NewScalpStrategy(NewIndicatorService())
	bars := spikeBars(30, 100, 101, 1_000_000)

	out := s.Evaluate(EvaluationContext{Bars: bars, Price: 101})
	if out.Signal != SignalBuy {
		t.Fatalf("spike after flat base must cross BUY, got %s (%s)", out.Signal, out.Reason)
	}
	if !(out.Levels["stop"] < 101 && out.Levels["target"] > 101) {
		t.Fatalf("scalp levels must bracket entry: %+v", out.Levels)
	}
}

func TestBollingerStrategy_Squeeze(t *testing.T) {
	s := NewBollingerStrategy(NewIndicatorService())
	bars := flatBars(30, 100)

	out := s.Evaluate(EvaluationContext{Bars: bars, Price: 100})
	if out.Signal != SignalHold || out.Strength != StrengthVeryLow {
		t.Fatalf("zero-width bands must hold, got %s/%s (%s)", out.Signal, out.Strength, out.Reason)
	}
	if out.NoData {
		t.Fatalf("squeeze is a real evaluation, must not flag NoData")
	}
}
