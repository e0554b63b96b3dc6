package domain

import (
	"errors"
	"testing"
	"time"
)

func TestTradeClose_Long(t *testing.T) {
	entry := time.Unix(0, 0).UTC()
	trade := NewTrade(entry, 100, SideLong, 2, 95, 110, "triple_ema")

	if trade.Closed() {
		t.Fatalf("fresh trade must be open")
	}
	if err := trade.Close(110, entry.Add(time.Hour), ExitTakeProfit); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !trade.Closed() {
		t.Fatalf("trade must be closed")
	}
	if trade.PnLPercent != 10 {
		t.Fatalf("pnl percent = %.4f, want 10", trade.PnLPercent)
	}
	// 10% 盈利 × 名义价值 200 = 20
	if pnl, _ := trade.PnL.Float64(); pnl != 20 {
		t.Fatalf("pnl = %.4f, want 20", pnl)
	}
}

func TestTradeClose_ShortProfit(t *testing.T) {
	entry := time.Unix(0, 0).UTC()
	trade := NewTrade(entry, 100, SideShort, 1, 105, 90, "triple_ema")

	if err := trade.Close(90, entry.Add(time.Hour), ExitTakeProfit); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if trade.PnLPercent != 10 {
		t.Fatalf("short fall must profit: pnl percent = %.4f, want 10", trade.PnLPercent)
	}
	if !trade.PnL.IsPositive() {
		t.Fatalf("short profit must be positive, got %s", trade.PnL)
	}
}

func TestTradeClose_ShortLoss(t *testing.T) {
	entry := time.Unix(0, 0).UTC()
	trade := NewTrade(entry, 100, SideShort, 1, 105, 90, "triple_ema")

	if err := trade.Close(105, entry.Add(time.Hour), ExitStopLoss); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if trade.PnLPercent != -5 {
		t.Fatalf("short rally must lose: pnl percent = %.4f, want -5", trade.PnLPercent)
	}
}

func TestTradeClose_Twice(t *testing.T) {
	entry := time.Unix(0, 0).UTC()
	trade := NewTrade(entry, 100, SideLong, 1, 0, 0, "")

	if err := trade.Close(101, entry.Add(time.Hour), ExitEnd); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := trade.Close(102, entry.Add(2*time.Hour), ExitManual); !errors.Is(err, ErrTradeClosed) {
		t.Fatalf("second close must fail with ErrTradeClosed, got %v", err)
	}
	if trade.ExitPrice != 101 || trade.ExitReason != ExitEnd {
		t.Fatalf("failed close must not mutate trade: %+v", trade)
	}
}
