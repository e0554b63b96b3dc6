package infrastructure

import (
	"context"
	"testing"

	"github.com/wyfcoding/quantsignal/internal/signal/domain"
)

func TestSyntheticClient_Deterministic(t *testing.T) {
	client := NewSyntheticMarketDataClient()
	ctx := context.Background()

	first, err := client.GetKlines(ctx, "BTCUSDT", domain.Timeframe15m, 100)
	if err != nil {
		t.Fatalf("get klines failed: %v", err)
	}
	second, err := client.GetKlines(ctx, "BTCUSDT", domain.Timeframe15m, 100)
	if err != nil {
		t.Fatalf("get klines failed: %v", err)
	}

	if len(first) != 100 || len(second) != 100 {
		t.Fatalf("expected 100 bars, got %d/%d", len(first), len(second))
	}
	for i := range first {
		if first[i].Close != second[i].Close || first[i].Volume != second[i].Volume {
			t.Fatalf("same symbol/timeframe must reproduce identical bars, diverged at %d", i)
		}
	}
}

func TestSyntheticClient_DistinctSeeds(t *testing.T) {
	client := NewSyntheticMarketDataClient()
	ctx := context.Background()

	btc, _ := client.GetKlines(ctx, "BTCUSDT", domain.Timeframe15m, 50)
	eth, _ := client.GetKlines(ctx, "ETHUSDT", domain.Timeframe15m, 50)

	same := true
	for i := range btc {
		if btc[i].Close != eth[i].Close {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different symbols must produce different walks")
	}
}

func TestSyntheticClient_ValidSeries(t *testing.T) {
	client := NewSyntheticMarketDataClient()
	bars, err := client.GetKlines(context.Background(), "BTCUSDT", domain.Timeframe1h, 0)
	if err != nil {
		t.Fatalf("get klines failed: %v", err)
	}
	if len(bars) != 200 {
		t.Fatalf("zero limit must default to 200 bars, got %d", len(bars))
	}
	if err := domain.ValidateSeries(bars); err != nil {
		t.Fatalf("synthetic series must validate: %v", err)
	}
}

func TestSyntheticClient_CurrentPrice(t *testing.T) {
	client := NewSyntheticMarketDataClient()
	price, err := client.GetCurrentPrice(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("get current price failed: %v", err)
	}
	if price <= 0 {
		t.Fatalf("price must be positive, got %.4f", price)
	}
}
