package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wyfcoding/quantsignal/internal/backtest/domain"
	signal "github.com/wyfcoding/quantsignal/internal/signal/domain"
	"github.com/wyfcoding/quantsignal/internal/signal/infrastructure"
)

type memoryRepo struct {
	mu      sync.Mutex
	tasks   map[string]domain.BacktestTask
	reports map[string]domain.BacktestReport
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		tasks:   make(map[string]domain.BacktestTask),
		reports: make(map[string]domain.BacktestReport),
	}
}

func (r *memoryRepo) SaveTask(_ context.Context, task *domain.BacktestTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.TaskID] = *task
	return nil
}

func (r *memoryRepo) FindTaskByID(_ context.Context, taskID string) (*domain.BacktestTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return nil, errors.New("task not found")
	}
	return &task, nil
}

func (r *memoryRepo) SaveReport(_ context.Context, report *domain.BacktestReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[report.TaskID] = *report
	return nil
}

func (r *memoryRepo) FindReportByTaskID(_ context.Context, taskID string) (*domain.BacktestReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[taskID]
	if !ok {
		return nil, errors.New("report not found")
	}
	return &report, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, string, any) error        { return nil }
func (noopPublisher) PublishInTx(context.Context, any, string, string, any) error { return nil }

func newTestService(repo domain.BacktestRepository) *BacktestService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBacktestService(
		domain.NewEngine(),
		domain.NewSweeper(2, time.Minute),
		repo,
		infrastructure.NewSyntheticMarketDataClient(),
		signal.NewIndicatorService(),
		noopPublisher{},
		logger,
	)
}

// waitForTerminal 轮询任务直至离开 PENDING/RUNNING 状态
func waitForTerminal(t *testing.T, svc *BacktestService, taskID string) *domain.BacktestTask {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		task, err := svc.GetTask(context.Background(), taskID)
		if err != nil {
			t.Fatalf("get task failed: %v", err)
		}
		if task.Status == domain.TaskStatusCompleted || task.Status == domain.TaskStatusFailed {
			return task
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("task %s did not finish in time", taskID)
	return nil
}

func TestBacktestService_RunBacktest(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	taskID, err := svc.RunBacktest(context.Background(), RunBacktestCommand{
		Symbol:    "BTCUSDT",
		Timeframe: signal.Timeframe15m,
		Bars:      600,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !strings.HasPrefix(taskID, "BT") {
		t.Fatalf("task id = %q, want BT prefix", taskID)
	}

	task := waitForTerminal(t, svc, taskID)
	if task.Status != domain.TaskStatusCompleted {
		t.Fatalf("task status = %s (%s), want COMPLETED", task.Status, task.Error)
	}

	report, err := svc.GetReport(context.Background(), taskID)
	if err != nil {
		t.Fatalf("get report failed: %v", err)
	}
	if math.IsInf(report.ProfitFactor, 1) || math.IsNaN(report.ProfitFactor) {
		t.Fatalf("stored profit factor must be finite, got %v", report.ProfitFactor)
	}
	if report.TotalTrades < 0 || report.WinningTrades+report.LosingTrades != report.TotalTrades {
		t.Fatalf("inconsistent trade counts: %+v", report)
	}
}

func TestBacktestService_RunSweep(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	entries, err := svc.RunSweep(context.Background(), RunSweepCommand{
		Symbol:    "BTCUSDT",
		Timeframe: signal.Timeframe15m,
		Bars:      400,
		Grid: domain.ParamGrid{
			domain.ParamFastPeriod:   {7, 9},
			domain.ParamMediumPeriod: {21},
		},
	})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 ranked entries, got %d", len(entries))
	}
	for _, e := range entries {
		if math.IsInf(e.ProfitFactor, 1) {
			t.Fatalf("sweep profit factor must be clamped, got %+v", e)
		}
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].ReturnPct > entries[i-1].ReturnPct {
			t.Fatalf("entries not sorted descending: %+v", entries)
		}
	}
}

func TestBacktestService_GetTaskUnknown(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	if _, err := svc.GetTask(context.Background(), "BT0000"); err == nil {
		t.Fatalf("unknown task must return error")
	}
}
