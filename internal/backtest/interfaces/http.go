// Package interfaces 回测接口层
package interfaces

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/quantsignal/internal/backtest/application"
	"github.com/wyfcoding/quantsignal/internal/backtest/domain"
	signal "github.com/wyfcoding/quantsignal/internal/signal/domain"
)

// HTTPHandler HTTP 接口处理器
type HTTPHandler struct {
	service *application.BacktestService
}

// NewHTTPHandler 创建 HTTP 处理器
func NewHTTPHandler(service *application.BacktestService) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	api := r.Group("/v1/backtests")
	{
		api.POST("", h.RunBacktest)
		api.GET("/:id", h.GetBacktest)
		api.POST("/sweep", h.RunSweep)
	}
}

// RunBacktestRequest 回测请求
type RunBacktestRequest struct {
	Symbol          string                      `json:"symbol" binding:"required"`
	Timeframe       string                      `json:"timeframe"`
	Bars            int                         `json:"bars"`
	InitialCapital  float64                     `json:"initial_capital"`
	PositionSizePct float64                     `json:"position_size_pct"`
	WarmupBars      int                         `json:"warmup_bars"`
	Strategy        application.TripleEMAParams `json:"strategy"`
}

// RunBacktest 提交回测任务
func (h *HTTPHandler) RunBacktest(c *gin.Context) {
	var req RunBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.RunBacktestCommand{
		Symbol:          req.Symbol,
		Timeframe:       timeframeOrDefault(req.Timeframe),
		Bars:            req.Bars,
		InitialCapital:  req.InitialCapital,
		PositionSizePct: req.PositionSizePct,
		WarmupBars:      req.WarmupBars,
		Strategy:        req.Strategy,
	}

	taskID, err := h.service.RunBacktest(c.Request.Context(), cmd)
	if err != nil {
		logging.Error(c.Request.Context(), "submit backtest failed", "symbol", req.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"task_id": taskID, "status": domain.TaskStatusPending})
}

// GetBacktest 查询任务与报告
func (h *HTTPHandler) GetBacktest(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "id is required", "")
		return
	}

	task, err := h.service.GetTask(c.Request.Context(), taskID)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "task not found", "")
		return
	}

	resp := gin.H{"task": task}
	if task.Status == domain.TaskStatusCompleted {
		if report, err := h.service.GetReport(c.Request.Context(), taskID); err == nil {
			resp["report"] = report
		}
	}
	response.Success(c, resp)
}

// RunSweepRequest 参数寻优请求
type RunSweepRequest struct {
	Symbol          string               `json:"symbol" binding:"required"`
	Timeframe       string               `json:"timeframe"`
	Bars            int                  `json:"bars"`
	InitialCapital  float64              `json:"initial_capital"`
	PositionSizePct float64              `json:"position_size_pct"`
	Grid            map[string][]float64 `json:"grid"`
}

// RunSweep 执行参数寻优，同步返回榜单
func (h *HTTPHandler) RunSweep(c *gin.Context) {
	var req RunSweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.RunSweepCommand{
		Symbol:          req.Symbol,
		Timeframe:       timeframeOrDefault(req.Timeframe),
		Bars:            req.Bars,
		InitialCapital:  req.InitialCapital,
		PositionSizePct: req.PositionSizePct,
		Grid:            domain.ParamGrid(req.Grid),
	}

	entries, err := h.service.RunSweep(c.Request.Context(), cmd)
	if err != nil {
		logging.Error(c.Request.Context(), "parameter sweep failed", "symbol", req.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"results": entries, "count": len(entries)})
}

func timeframeOrDefault(tf string) signal.Timeframe {
	if tf == "" {
		return signal.Timeframe15m
	}
	return signal.Timeframe(tf)
}
