package domain

import (
	"context"
	"time"
)

// 任务状态
const (
	TaskStatusPending   = "PENDING"
	TaskStatusRunning   = "RUNNING"
	TaskStatusCompleted = "COMPLETED"
	TaskStatusFailed    = "FAILED"
)

// BacktestTask 回测任务
type BacktestTask struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	TaskID          string    `gorm:"type:varchar(64);uniqueIndex" json:"task_id"`
	Symbol          string    `gorm:"type:varchar(32);index" json:"symbol"`
	Timeframe       string    `gorm:"type:varchar(8)" json:"timeframe"`
	Strategy        string    `gorm:"type:varchar(64)" json:"strategy"`
	InitialCapital  float64   `json:"initial_capital"`
	PositionSizePct float64   `json:"position_size_pct"`
	Params          string    `gorm:"type:text" json:"params"`
	Status          string    `gorm:"type:varchar(16);index" json:"status"`
	Error           string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName 指定表名
func (BacktestTask) TableName() string { return "backtest_tasks" }

// MarkRunning 标记任务开始执行
func (t *BacktestTask) MarkRunning() { t.Status = TaskStatusRunning }

// MarkCompleted 标记任务完成
func (t *BacktestTask) MarkCompleted() { t.Status = TaskStatusCompleted }

// MarkFailed 标记任务失败并记录原因
func (t *BacktestTask) MarkFailed(err error) {
	t.Status = TaskStatusFailed
	if err != nil {
		t.Error = err.Error()
	}
}

// BacktestReport 回测报告，统计指标的持久化投影。
// ProfitFactor 为 +Inf 时在写入前收敛为 math.MaxFloat64。
type BacktestReport struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	TaskID         string    `gorm:"type:varchar(64);uniqueIndex" json:"task_id"`
	FinalCapital   float64   `json:"final_capital"`
	TotalReturnPct float64   `json:"total_return_pct"`
	TotalTrades    int       `json:"total_trades"`
	WinningTrades  int       `json:"winning_trades"`
	LosingTrades   int       `json:"losing_trades"`
	WinRate        float64   `json:"win_rate"`
	ProfitFactor   float64   `json:"profit_factor"`
	AvgWin         float64   `json:"avg_win"`
	AvgLoss        float64   `json:"avg_loss"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	Trades         string    `gorm:"type:longtext" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName 指定表名
func (BacktestReport) TableName() string { return "backtest_reports" }

// BacktestRepository 回测任务与报告仓储
type BacktestRepository interface {
	SaveTask(ctx context.Context, task *BacktestTask) error
	FindTaskByID(ctx context.Context, taskID string) (*BacktestTask, error)
	SaveReport(ctx context.Context, report *BacktestReport) error
	FindReportByTaskID(ctx context.Context, taskID string) (*BacktestReport, error)
}
