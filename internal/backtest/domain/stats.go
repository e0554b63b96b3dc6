package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Statistics 回测统计指标。
// ProfitFactor 在无亏损交易时为 +Inf，序列化边界负责收敛为有限值。
type Statistics struct {
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	LongTrades     int     `json:"long_trades"`
	ShortTrades    int     `json:"short_trades"`
	WinRate        float64 `json:"win_rate"`
	ProfitFactor   float64 `json:"profit_factor"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	TotalProfit    float64 `json:"total_profit"`
	TotalLoss      float64 `json:"total_loss"`

	ExitCounts map[ExitReason]int `json:"exit_counts"`
}

// ComputeStatistics 由成交序列计算统计指标。
// 零交易是合法输入，返回全零结果。
func ComputeStatistics(trades []*Trade, initialCapital decimal.Decimal) Statistics {
	stats := Statistics{ExitCounts: make(map[ExitReason]int)}
	if len(trades) == 0 {
		return stats
	}

	totalProfit := decimal.Zero
	totalLoss := decimal.Zero
	for _, t := range trades {
		stats.TotalTrades++
		if t.Side == SideLong {
			stats.LongTrades++
		} else {
			stats.ShortTrades++
		}
		stats.ExitCounts[t.ExitReason]++

		if t.PnL.IsPositive() {
			stats.WinningTrades++
			totalProfit = totalProfit.Add(t.PnL)
		} else {
			stats.LosingTrades++
			totalLoss = totalLoss.Add(t.PnL.Abs())
		}
	}

	stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100
	stats.TotalProfit, _ = totalProfit.Float64()
	stats.TotalLoss, _ = totalLoss.Float64()

	if totalLoss.IsPositive() {
		stats.ProfitFactor = stats.TotalProfit / stats.TotalLoss
	} else {
		stats.ProfitFactor = math.Inf(1)
	}
	if stats.WinningTrades > 0 {
		stats.AvgWin = stats.TotalProfit / float64(stats.WinningTrades)
	}
	if stats.LosingTrades > 0 {
		stats.AvgLoss = stats.TotalLoss / float64(stats.LosingTrades)
	}

	// 最大回撤：沿逐笔结算的资金曲线跟踪峰值，峰值以初始本金起算
	peak := initialCapital
	running := initialCapital
	for _, t := range trades {
		running = running.Add(t.PnL)
		if running.GreaterThan(peak) {
			peak = running
		}
		if peak.IsPositive() {
			dd, _ := peak.Sub(running).Div(peak).Float64()
			if dd*100 > stats.MaxDrawdownPct {
				stats.MaxDrawdownPct = dd * 100
			}
		}
	}
	return stats
}
