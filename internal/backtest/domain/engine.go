package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	signal "github.com/wyfcoding/quantsignal/internal/signal/domain"
)

// ErrNoHistoricalData 回测输入为空
var ErrNoHistoricalData = errors.New("no historical data available")

// Decision 决策函数在某根 K 线收盘后给出的指令
type Decision struct {
	Signal     signal.SignalType
	StopLoss   float64
	TakeProfit float64
}

// DecideFunc 决策函数。
// bars 为截至当前 K 线（含）的历史前缀，引擎保证不泄露未来数据。
type DecideFunc func(bars []signal.Bar) Decision

// Config 回测引擎参数
type Config struct {
	InitialCapital  decimal.Decimal `json:"initial_capital"`
	PositionSizePct float64         `json:"position_size_pct"`
	// WarmupBars 预热期根数，预热期内不产生任何交易
	WarmupBars int `json:"warmup_bars"`
	Strategy   string `json:"strategy"`
}

// DefaultConfig 默认引擎参数：1 万本金、95% 仓位、100 根预热
func DefaultConfig() Config {
	return Config{
		InitialCapital:  decimal.NewFromInt(10000),
		PositionSizePct: 95,
		WarmupBars:      100,
	}
}

// Result 回测产出
type Result struct {
	InitialCapital decimal.Decimal `json:"initial_capital"`
	FinalCapital   decimal.Decimal `json:"final_capital"`
	TotalReturnPct float64         `json:"total_return_pct"`
	Trades         []*Trade        `json:"trades"`
	Equity         []EquityPoint   `json:"equity_curve"`
	Stats          Statistics      `json:"statistics"`
}

// Engine 回测模拟引擎
type Engine struct{}

// NewEngine 创建回测引擎
func NewEngine() *Engine {
	return &Engine{}
}

// Run 在历史序列上逐根推演。
// 每根 K 线先检查持仓的止损/止盈（止损优先），再在空仓时征询决策函数；
// 序列走完后按最后收盘价强制平仓（END）。
func (e *Engine) Run(ctx context.Context, bars []signal.Bar, decide DecideFunc, cfg Config) (*Result, error) {
	if len(bars) == 0 {
		return nil, ErrNoHistoricalData
	}
	if err := signal.ValidateSeries(bars); err != nil {
		return nil, fmt.Errorf("historical series: %w", err)
	}
	if cfg.WarmupBars <= 0 {
		cfg.WarmupBars = 100
	}
	if cfg.PositionSizePct <= 0 {
		cfg.PositionSizePct = 95
	}
	if cfg.InitialCapital.IsZero() {
		cfg.InitialCapital = decimal.NewFromInt(10000)
	}

	capital := cfg.InitialCapital
	positionPct := decimal.NewFromFloat(cfg.PositionSizePct / 100)
	var position *Trade
	var trades []*Trade
	equity := []EquityPoint{{Timestamp: bars[0].Timestamp, Capital: capital}}

	for i := cfg.WarmupBars; i < len(bars); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bar := bars[i]

		if position != nil {
			hitSL, hitTP := checkStops(position, bar.High, bar.Low)
			if hitSL || hitTP {
				// 同根 K 线同时触及止损与止盈时按止损处理
				exitPrice, reason := position.StopLoss, ExitStopLoss
				if !hitSL {
					exitPrice, reason = position.TakeProfit, ExitTakeProfit
				}
				if err := position.Close(exitPrice, bar.Timestamp, reason); err != nil {
					return nil, err
				}
				capital = capital.Add(position.PnL)
				trades = append(trades, position)
				equity = append(equity, EquityPoint{Timestamp: bar.Timestamp, Capital: capital})
				position = nil
			}
		}

		if position == nil {
			decision := decide(bars[:i+1])
			if decision.Signal == signal.SignalBuy || decision.Signal == signal.SignalSell {
				side := SideLong
				if decision.Signal == signal.SignalSell {
					side = SideShort
				}
				price := bar.Close
				quantity, _ := capital.Mul(positionPct).Div(decimal.NewFromFloat(price)).Float64()
				position = NewTrade(bar.Timestamp, price, side, quantity, decision.StopLoss, decision.TakeProfit, cfg.Strategy)
			}
		}
	}

	if position != nil {
		last := bars[len(bars)-1]
		if err := position.Close(last.Close, last.Timestamp, ExitEnd); err != nil {
			return nil, err
		}
		capital = capital.Add(position.PnL)
		trades = append(trades, position)
		equity = append(equity, EquityPoint{Timestamp: last.Timestamp, Capital: capital})
	}

	initialF, _ := cfg.InitialCapital.Float64()
	finalF, _ := capital.Float64()
	return &Result{
		InitialCapital: cfg.InitialCapital,
		FinalCapital:   capital,
		TotalReturnPct: (finalF - initialF) / initialF * 100,
		Trades:         trades,
		Equity:         equity,
		Stats:          ComputeStatistics(trades, cfg.InitialCapital),
	}, nil
}

// checkStops 判断当前 K 线是否触及止损/止盈
func checkStops(t *Trade, high, low float64) (hitSL, hitTP bool) {
	if t.Side == SideLong {
		hitSL = t.StopLoss > 0 && low <= t.StopLoss
		hitTP = t.TakeProfit > 0 && high >= t.TakeProfit
	} else {
		hitSL = t.StopLoss > 0 && high >= t.StopLoss
		hitTP = t.TakeProfit > 0 && low <= t.TakeProfit
	}
	return hitSL, hitTP
}
