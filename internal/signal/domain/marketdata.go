package domain

import "context"

// MarketDataClient 行情数据端口。
// 返回按时间升序的 K 线序列，最新的在最后。
type MarketDataClient interface {
	GetKlines(ctx context.Context, symbol string, timeframe Timeframe, limit int) ([]Bar, error)
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
}
