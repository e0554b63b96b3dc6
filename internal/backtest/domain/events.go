package domain

import "time"

// BacktestCompletedEvent 回测完成事件
type BacktestCompletedEvent struct {
	TaskID         string    `json:"task_id"`
	Symbol         string    `json:"symbol"`
	Strategy       string    `json:"strategy"`
	TotalReturnPct float64   `json:"total_return_pct"`
	WinRate        float64   `json:"win_rate"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	TotalTrades    int       `json:"total_trades"`
	Timestamp      time.Time `json:"timestamp"`
}

func (e *BacktestCompletedEvent) EventName() string     { return "backtest.completed" }
func (e *BacktestCompletedEvent) OccurredAt() time.Time { return e.Timestamp }

// BacktestFailedEvent 回测失败事件
type BacktestFailedEvent struct {
	TaskID    string    `json:"task_id"`
	Symbol    string    `json:"symbol"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *BacktestFailedEvent) EventName() string     { return "backtest.failed" }
func (e *BacktestFailedEvent) OccurredAt() time.Time { return e.Timestamp }
