package domain

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func closedTrade(t *testing.T, side TradeSide, entryPrice, exitPrice, quantity float64, reason ExitReason) *Trade {
	t.Helper()
	entry := time.Unix(0, 0).UTC()
	trade := NewTrade(entry, entryPrice, side, quantity, 0, 0, "triple_ema")
	if err := trade.Close(exitPrice, entry.Add(time.Hour), reason); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	return trade
}

func TestComputeStatistics_NoTrades(t *testing.T) {
	stats := ComputeStatistics(nil, decimal.NewFromInt(10000))
	if stats.TotalTrades != 0 || stats.WinRate != 0 || stats.ProfitFactor != 0 {
		t.Fatalf("zero trades must give zero stats, got %+v", stats)
	}
	if stats.ExitCounts == nil {
		t.Fatalf("exit counts map must be initialized")
	}
}

func TestComputeStatistics_Mixed(t *testing.T) {
	trades := []*Trade{
		// 多头 +100，空头 -50
		closedTrade(t, SideLong, 100, 110, 100, ExitTakeProfit),
		closedTrade(t, SideShort, 100, 105, 10, ExitStopLoss),
	}

	stats := ComputeStatistics(trades, decimal.NewFromInt(10000))
	if stats.TotalTrades != 2 || stats.WinningTrades != 1 || stats.LosingTrades != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.LongTrades != 1 || stats.ShortTrades != 1 {
		t.Fatalf("side counts wrong: %+v", stats)
	}
	if stats.WinRate != 50 {
		t.Fatalf("win rate = %.4f, want 50", stats.WinRate)
	}
	if stats.TotalProfit != 1000 || stats.TotalLoss != 50 {
		t.Fatalf("profit/loss = %.2f/%.2f, want 1000/50", stats.TotalProfit, stats.TotalLoss)
	}
	if stats.ProfitFactor != 20 {
		t.Fatalf("profit factor = %.4f, want 20", stats.ProfitFactor)
	}
	if stats.AvgWin != 1000 || stats.AvgLoss != 50 {
		t.Fatalf("avg win/loss = %.2f/%.2f, want 1000/50", stats.AvgWin, stats.AvgLoss)
	}
	if stats.ExitCounts[ExitTakeProfit] != 1 || stats.ExitCounts[ExitStopLoss] != 1 {
		t.Fatalf("exit counts wrong: %+v", stats.ExitCounts)
	}

	// 峰值 11000 回落到 10950
	wantDD := 50.0 / 11000 * 100
	if math.Abs(stats.MaxDrawdownPct-wantDD) > 1e-9 {
		t.Fatalf("max drawdown = %.6f, want %.6f", stats.MaxDrawdownPct, wantDD)
	}
}

func TestComputeStatistics_AllWinners(t *testing.T) {
	trades := []*Trade{
		closedTrade(t, SideLong, 100, 105, 1, ExitTakeProfit),
		closedTrade(t, SideLong, 100, 102, 1, ExitEnd),
	}

	stats := ComputeStatistics(trades, decimal.NewFromInt(10000))
	if !math.IsInf(stats.ProfitFactor, 1) {
		t.Fatalf("no losses must give +Inf profit factor, got %.4f", stats.ProfitFactor)
	}
	if stats.WinRate != 100 || stats.MaxDrawdownPct != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestComputeStatistics_DrawdownFromInitialPeak(t *testing.T) {
	// 首笔即亏损：峰值以初始本金起算
	trades := []*Trade{
		closedTrade(t, SideLong, 100, 90, 10, ExitStopLoss),
	}

	stats := ComputeStatistics(trades, decimal.NewFromInt(1000))
	// 1000 → 900，回撤 10%
	if math.Abs(stats.MaxDrawdownPct-10) > 1e-9 {
		t.Fatalf("max drawdown = %.6f, want 10", stats.MaxDrawdownPct)
	}
}
