// Package interfaces 信号聚合接口层
package interfaces

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/quantsignal/internal/signal/application"
)

// HTTPHandler HTTP 接口处理器
type HTTPHandler struct {
	service *application.SignalService
}

// NewHTTPHandler 创建 HTTP 处理器
func NewHTTPHandler(service *application.SignalService) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	api := r.Group("/v1/signals")
	{
		api.POST("/analyze", h.Analyze)
		api.POST("/mtf", h.AnalyzeMTF)
	}
}

// AnalyzeRequest 信号分析请求
type AnalyzeRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

// Analyze 运行全部策略并返回加权共识信号
func (h *HTTPHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	report, err := h.service.Analyze(c.Request.Context(), req.Symbol)
	if err != nil {
		logging.Error(c.Request.Context(), "signal analysis failed", "symbol", req.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, report)
}

// AnalyzeMTF 多周期分析
func (h *HTTPHandler) AnalyzeMTF(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	decision, err := h.service.AnalyzeMTF(c.Request.Context(), req.Symbol)
	if err != nil {
		logging.Error(c.Request.Context(), "mtf analysis failed", "symbol", req.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, decision)
}
