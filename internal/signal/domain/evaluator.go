package domain

// EvaluationContext 策略评估输入。
// Bars 为该策略偏好周期的 K 线序列，Price 为主周期最新价，
// RSI 为主周期的 14 期相对强弱指数。
type EvaluationContext struct {
	Bars  []Bar
	Price float64
	RSI   float64
}

// StrategyEvaluator 技术分析策略评估器。
// 实现必须是纯函数式的：相同输入必须产生相同结果，
// 数据不足时返回 NoData 标记的 HOLD 结果而非错误。
type StrategyEvaluator interface {
	// ID 策略稳定标识，用于权重配置与结果归属
	ID() string
	// Timeframe 该策略偏好的 K 线周期
	Timeframe() Timeframe
	// MinBars 完整评估所需的最少 K 线数量
	MinBars() int
	// Evaluate 评估当前行情并产出信号
	Evaluate(ectx EvaluationContext) StrategyResult
}

// 策略标识常量，同时也是聚合权重配置的键
const (
	StrategyPivot      = "pivot_points"
	StrategyVWAP       = "vwap"
	StrategyBollinger  = "bollinger_bands"
	StrategyOscillator = "oscillator_confluence"
	StrategyFibonacci  = "fibonacci_retracement"
	StrategyIchimoku   = "ichimoku_cloud"
	StrategySAR        = "parabolic_sar"
	StrategyScalp      = "ema_scalp"
	StrategyTripleEMA  = "triple_ema"
)

// Registry 策略注册表。迭代顺序即注册顺序，保证聚合过程可复现。
type Registry struct {
	order      []string
	evaluators map[string]StrategyEvaluator
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{evaluators: make(map[string]StrategyEvaluator)}
}

// Register 注册策略，重复注册同一 ID 时覆盖实现、保留顺序
func (r *Registry) Register(e StrategyEvaluator) {
	if _, ok := r.evaluators[e.ID()]; !ok {
		r.order = append(r.order, e.ID())
	}
	r.evaluators[e.ID()] = e
}

// Get 按 ID 查找策略
func (r *Registry) Get(id string) (StrategyEvaluator, bool) {
	e, ok := r.evaluators[id]
	return e, ok
}

// All 按注册顺序返回全部策略
func (r *Registry) All() []StrategyEvaluator {
	out := make([]StrategyEvaluator, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.evaluators[id])
	}
	return out
}

// IDs 按注册顺序返回全部策略 ID
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// NewDefaultRegistry 构建默认的八策略注册表
func NewDefaultRegistry(ind *IndicatorService) *Registry {
	r := NewRegistry()
	r.Register(NewPivotStrategy(ind))
	r.Register(NewVWAPStrategy(ind))
	r.Register(NewBollingerStrategy(ind))
	r.Register(NewOscillatorStrategy(ind))
	r.Register(NewFibonacciStrategy(ind))
	r.Register(NewIchimokuStrategy(ind))
	r.Register(NewSARStrategy(ind))
	r.Register(NewScalpStrategy(ind))
	return r
}
