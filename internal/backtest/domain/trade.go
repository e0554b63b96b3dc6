// Package domain 回测模拟引擎领域层。
// 以历史 K 线逐根推演决策函数的交易行为，产出成交记录、资金曲线与统计指标。
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide 持仓方向
type TradeSide string

const (
	SideLong  TradeSide = "LONG"
	SideShort TradeSide = "SHORT"
)

// ExitReason 平仓原因
type ExitReason string

const (
	ExitStopLoss   ExitReason = "SL"
	ExitTakeProfit ExitReason = "TP"
	ExitEnd        ExitReason = "END"
	ExitManual     ExitReason = "MANUAL"
)

// ErrTradeClosed 重复平仓
var ErrTradeClosed = errors.New("trade already closed")

// Trade 一笔模拟交易。开仓后仅能平仓一次，平仓后不可变。
// 价格与数量为行情精度的 float64，盈亏以 decimal 记账。
type Trade struct {
	EntryTime  time.Time `json:"entry_time"`
	EntryPrice float64   `json:"entry_price"`
	Side       TradeSide `json:"side"`
	Quantity   float64   `json:"quantity"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Strategy   string    `json:"strategy"`

	ExitTime   time.Time       `json:"exit_time,omitzero"`
	ExitPrice  float64         `json:"exit_price,omitempty"`
	ExitReason ExitReason      `json:"exit_reason,omitempty"`
	PnL        decimal.Decimal `json:"pnl"`
	PnLPercent float64         `json:"pnl_percent"`

	closed bool
}

// NewTrade 开仓
func NewTrade(entryTime time.Time, entryPrice float64, side TradeSide, quantity, stopLoss, takeProfit float64, strategy string) *Trade {
	return &Trade{
		EntryTime:  entryTime,
		EntryPrice: entryPrice,
		Side:       side,
		Quantity:   quantity,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Strategy:   strategy,
	}
}

// Closed 是否已平仓
func (t *Trade) Closed() bool { return t.closed }

// Close 平仓并结算盈亏
func (t *Trade) Close(exitPrice float64, exitTime time.Time, reason ExitReason) error {
	if t.closed {
		return ErrTradeClosed
	}
	t.closed = true
	t.ExitTime = exitTime
	t.ExitPrice = exitPrice
	t.ExitReason = reason

	if t.Side == SideLong {
		t.PnLPercent = (exitPrice - t.EntryPrice) / t.EntryPrice * 100
	} else {
		t.PnLPercent = (t.EntryPrice - exitPrice) / t.EntryPrice * 100
	}
	notional := decimal.NewFromFloat(t.EntryPrice).Mul(decimal.NewFromFloat(t.Quantity))
	t.PnL = decimal.NewFromFloat(t.PnLPercent).Div(decimal.NewFromInt(100)).Mul(notional)
	return nil
}

// EquityPoint 资金曲线上的一个点，每次平仓及回测结束时追加
type EquityPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Capital   decimal.Decimal `json:"capital"`
}
