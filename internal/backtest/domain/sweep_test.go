package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	signal "github.com/wyfcoding/quantsignal/internal/signal/domain"
)

func TestParamGrid_Combinations(t *testing.T) {
	grid := ParamGrid{
		ParamFastPeriod: {7, 9},
		ParamSlowPeriod: {45, 50, 55},
	}
	combos := grid.Combinations()
	if len(combos) != 6 {
		t.Fatalf("expected 6 combinations, got %d", len(combos))
	}
	for _, combo := range combos {
		if len(combo) != 2 {
			t.Fatalf("each combo must carry both params: %+v", combo)
		}
	}
	// 键按字典序展开，顺序稳定
	if combos[0][ParamFastPeriod] != 7 || combos[0][ParamSlowPeriod] != 45 {
		t.Fatalf("first combo = %+v, want fast=7 slow=45", combos[0])
	}
	if combos[5][ParamFastPeriod] != 9 || combos[5][ParamSlowPeriod] != 55 {
		t.Fatalf("last combo = %+v, want fast=9 slow=55", combos[5])
	}

	if got := (ParamGrid{}).Combinations(); len(got) != 1 || len(got[0]) != 0 {
		t.Fatalf("empty grid must yield single empty combo, got %+v", got)
	}
}

func TestDefaultParamGrid_Size(t *testing.T) {
	if got := len(DefaultParamGrid().Combinations()); got != 243 {
		t.Fatalf("default grid = %d combos, want 3^5 = 243", got)
	}
}

func TestSweeperRun_RankedDescending(t *testing.T) {
	sweeper := NewSweeper(2, time.Minute)
	grid := ParamGrid{ParamATRMultiplier: {1.0, 2.0, 3.0}}

	run := func(_ context.Context, params map[string]float64) (*Result, error) {
		// 收益率随参数线性变化，便于校验排序
		return &Result{
			TotalReturnPct: params[ParamATRMultiplier] * 10,
			Stats:          Statistics{TotalTrades: 1},
		}, nil
	}

	entries, err := sweeper.Run(context.Background(), grid, run)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].ReturnPct > entries[i-1].ReturnPct {
			t.Fatalf("entries not sorted descending: %+v", entries)
		}
	}
	if entries[0].ReturnPct != 30 {
		t.Fatalf("best entry = %.2f, want 30", entries[0].ReturnPct)
	}
}

func TestSweeperRun_FailedCombosExcluded(t *testing.T) {
	sweeper := NewSweeper(2, time.Minute)
	grid := ParamGrid{ParamFastPeriod: {7, 9, 12}}

	run := func(_ context.Context, params map[string]float64) (*Result, error) {
		if params[ParamFastPeriod] == 9 {
			return nil, errors.New("combo blew up")
		}
		return &Result{TotalReturnPct: params[ParamFastPeriod]}, nil
	}

	entries, err := sweeper.Run(context.Background(), grid, run)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("failed combo must be excluded, got %d entries", len(entries))
	}
	for _, e := range entries {
		if e.Params[ParamFastPeriod] == 9 {
			t.Fatalf("failed combo leaked into results: %+v", e)
		}
	}
}

func TestSweeperRun_AllFailed(t *testing.T) {
	sweeper := NewSweeper(2, time.Minute)
	grid := ParamGrid{ParamFastPeriod: {7, 9}}

	run := func(context.Context, map[string]float64) (*Result, error) {
		return nil, errors.New("no data")
	}

	entries, err := sweeper.Run(context.Background(), grid, run)
	if err != nil {
		t.Fatalf("all-failed sweep is not an error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty ranking, got %d", len(entries))
	}
}

func TestSignalTypeToSide(t *testing.T) {
	if side, ok := SignalTypeToSide(signal.SignalBuy); !ok || side != SideLong {
		t.Fatalf("BUY must map to LONG, got %s/%v", side, ok)
	}
	if side, ok := SignalTypeToSide(signal.SignalSell); !ok || side != SideShort {
		t.Fatalf("SELL must map to SHORT, got %s/%v", side, ok)
	}
	if _, ok := SignalTypeToSide(signal.SignalHold); ok {
		t.Fatalf("HOLD must not map to a side")
	}
}
