// Package infrastructure 信号聚合基础设施层
package infrastructure

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/wyfcoding/quantsignal/internal/signal/domain"
)

// SyntheticMarketDataClient 合成行情数据客户端。
// 以品种名为种子生成随机游走 OHLCV，同一品种同一周期结果可复现，
// 用于联调与回测演示，生产环境替换为交易所客户端。
type SyntheticMarketDataClient struct {
	basePrice  float64
	volatility float64
}

// NewSyntheticMarketDataClient 创建合成行情客户端
func NewSyntheticMarketDataClient() domain.MarketDataClient {
	return &SyntheticMarketDataClient{basePrice: 50000, volatility: 0.008}
}

func (c *SyntheticMarketDataClient) GetKlines(ctx context.Context, symbol string, timeframe domain.Timeframe, limit int) ([]domain.Bar, error) {
	if limit <= 0 {
		limit = 200
	}
	rng := rand.New(rand.NewSource(seedFor(symbol, string(timeframe))))

	interval := time.Duration(timeframe.Minutes()) * time.Minute
	start := time.Now().Truncate(interval).Add(-interval * time.Duration(limit))

	bars := make([]domain.Bar, limit)
	price := c.basePrice * (0.8 + rng.Float64()*0.4)
	for i := 0; i < limit; i++ {
		open := price
		change := (rng.Float64() - 0.5) * 2 * c.volatility
		close := open * (1 + change)

		high := open
		if close > high {
			high = close
		}
		high *= 1 + rng.Float64()*c.volatility/2
		low := open
		if close < low {
			low = close
		}
		low *= 1 - rng.Float64()*c.volatility/2

		bars[i] = domain.Bar{
			Timestamp: start.Add(interval * time.Duration(i)),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    100 + rng.Float64()*900,
		}
		price = close
	}
	return bars, nil
}

func (c *SyntheticMarketDataClient) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	bars, err := c.GetKlines(ctx, symbol, domain.Timeframe15m, 200)
	if err != nil {
		return 0, err
	}
	return bars[len(bars)-1].Close, nil
}

func seedFor(symbol, timeframe string) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte{'|'})
	h.Write([]byte(timeframe))
	return int64(h.Sum64())
}
