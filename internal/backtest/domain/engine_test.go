package domain

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	signal "github.com/wyfcoding/quantsignal/internal/signal/domain"
)

// seriesBars 生成等步长的合成 K 线序列
func seriesBars(n int, base, step float64) []signal.Bar {
	out := make([]signal.Bar, n)
	t0 := time.Unix(0, 0).UTC()
	price := base
	for i := 0; i < n; i++ {
		o := price
		c := o + step
		h := math.Max(o, c) * 1.001
		l := math.Min(o, c) * 0.999
		out[i] = signal.Bar{
			Timestamp: t0.Add(time.Duration(i) * time.Minute),
			Open:      o, High: h, Low: l, Close: c,
			Volume: 1000,
		}
		price = c
	}
	return out
}

func holdAlways([]signal.Bar) Decision { return Decision{Signal: signal.SignalHold} }

func testConfig() Config {
	return Config{
		InitialCapital:  decimal.NewFromInt(10000),
		PositionSizePct: 95,
		WarmupBars:      5,
	}
}

func TestEngineRun_EmptySeries(t *testing.T) {
	engine := NewEngine()
	_, err := engine.Run(context.Background(), nil, holdAlways, testConfig())
	if !errors.Is(err, ErrNoHistoricalData) {
		t.Fatalf("expected ErrNoHistoricalData, got %v", err)
	}
}

func TestEngineRun_MalformedSeries(t *testing.T) {
	engine := NewEngine()
	bars := seriesBars(10, 100, 1)
	bars[3].High = bars[3].Low - 1

	_, err := engine.Run(context.Background(), bars, holdAlways, testConfig())
	if err == nil {
		t.Fatalf("malformed bar must be a hard error")
	}
}

func TestEngineRun_NoSignals(t *testing.T) {
	engine := NewEngine()
	bars := seriesBars(50, 100, 0.5)

	result, err := engine.Run(context.Background(), bars, holdAlways, testConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Trades) != 0 {
		t.Fatalf("hold-only run must produce no trades, got %d", len(result.Trades))
	}
	if !result.FinalCapital.Equal(result.InitialCapital) {
		t.Fatalf("capital must be untouched: %s vs %s", result.FinalCapital, result.InitialCapital)
	}
	if result.TotalReturnPct != 0 || result.Stats.TotalTrades != 0 {
		t.Fatalf("expected zero stats, got %+v", result.Stats)
	}
}

func TestEngineRun_LongTakeProfit(t *testing.T) {
	engine := NewEngine()
	bars := seriesBars(30, 100, 1)

	fired := false
	decide := func(prefix []signal.Bar) Decision {
		if fired {
			return Decision{Signal: signal.SignalHold}
		}
		fired = true
		entry := prefix[len(prefix)-1].Close
		return Decision{Signal: signal.SignalBuy, StopLoss: entry - 50, TakeProfit: entry + 3}
	}

	result, err := engine.Run(context.Background(), bars, decide, testConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("expected exactly one trade, got %d", len(result.Trades))
	}
	trade := result.Trades[0]
	if trade.ExitReason != ExitTakeProfit {
		t.Fatalf("uptrend must exit at take profit, got %s", trade.ExitReason)
	}
	if !trade.PnL.IsPositive() {
		t.Fatalf("take-profit exit must be profitable, pnl=%s", trade.PnL)
	}
	if !result.FinalCapital.GreaterThan(result.InitialCapital) {
		t.Fatalf("final capital must grow: %s", result.FinalCapital)
	}
	if result.Stats.ExitCounts[ExitTakeProfit] != 1 {
		t.Fatalf("exit counts must record TP: %+v", result.Stats.ExitCounts)
	}
}

func TestEngineRun_StopLossPriority(t *testing.T) {
	engine := NewEngine()
	t0 := time.Unix(0, 0).UTC()
	mk := func(i int, o, h, l, c float64) signal.Bar {
		return signal.Bar{Timestamp: t0.Add(time.Duration(i) * time.Minute), Open: o, High: h, Low: l, Close: c, Volume: 1}
	}
	bars := []signal.Bar{
		mk(0, 100, 100.5, 99.5, 100),
		mk(1, 100, 100.5, 99.5, 100),
		// 同一根 K 线同时扫过止损与止盈
		mk(2, 100, 102, 98, 100),
		mk(3, 100, 100.5, 99.5, 100),
	}

	decide := func(prefix []signal.Bar) Decision {
		if len(prefix) == 2 {
			return Decision{Signal: signal.SignalBuy, StopLoss: 99, TakeProfit: 101}
		}
		return Decision{Signal: signal.SignalHold}
	}

	cfg := testConfig()
	cfg.WarmupBars = 1
	result, err := engine.Run(context.Background(), bars, decide, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("expected one trade, got %d", len(result.Trades))
	}
	if result.Trades[0].ExitReason != ExitStopLoss {
		t.Fatalf("ambiguous bar must resolve to stop loss, got %s", result.Trades[0].ExitReason)
	}
	if result.Trades[0].ExitPrice != 99 {
		t.Fatalf("exit price = %.2f, want stop 99", result.Trades[0].ExitPrice)
	}
}

func TestEngineRun_ForceCloseAtEnd(t *testing.T) {
	engine := NewEngine()
	bars := seriesBars(20, 100, 0.1)

	fired := false
	decide := func([]signal.Bar) Decision {
		if fired {
			return Decision{Signal: signal.SignalHold}
		}
		fired = true
		// 远离行情的止损止盈，只能被期末强平
		return Decision{Signal: signal.SignalBuy, StopLoss: 1, TakeProfit: 100000}
	}

	result, err := engine.Run(context.Background(), bars, decide, testConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Trades) != 1 || result.Trades[0].ExitReason != ExitEnd {
		t.Fatalf("open position must be force-closed at END, got %+v", result.Trades)
	}
	last := bars[len(bars)-1]
	if result.Trades[0].ExitPrice != last.Close {
		t.Fatalf("END exit must use last close %.4f, got %.4f", last.Close, result.Trades[0].ExitPrice)
	}
}

func TestEngineRun_NoLookAhead(t *testing.T) {
	engine := NewEngine()
	bars := seriesBars(20, 100, 0.5)

	var prevLen int
	decide := func(prefix []signal.Bar) Decision {
		if len(prefix) <= prevLen {
			t.Fatalf("prefix length must grow strictly: %d after %d", len(prefix), prevLen)
		}
		if len(prefix) > len(bars) {
			t.Fatalf("prefix longer than history: %d", len(prefix))
		}
		prevLen = len(prefix)
		return Decision{Signal: signal.SignalHold}
	}

	if _, err := engine.Run(context.Background(), bars, decide, testConfig()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if prevLen != len(bars) {
		t.Fatalf("last decision saw %d bars, want %d", prevLen, len(bars))
	}
}

func TestEngineRun_ContextCancelled(t *testing.T) {
	engine := NewEngine()
	bars := seriesBars(20, 100, 0.5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, bars, holdAlways, testConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
