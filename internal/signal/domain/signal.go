package domain

// SignalType 交易信号方向
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// Strength 信号强度，五档有序枚举。
// 同一枚举既作标签也作数值评分，数值统一由 Score 提供，
// 避免在多个组件里重复维护字符串/浮点映射表。
type Strength int8

const (
	StrengthVeryLow Strength = iota
	StrengthLow
	StrengthModerate
	StrengthHigh
	StrengthVeryHigh
)

// Score 强度对应的数值评分（0.0 - 1.0，五点刻度）
func (s Strength) Score() float64 {
	switch s {
	case StrengthVeryLow:
		return 0.0
	case StrengthLow:
		return 0.25
	case StrengthModerate:
		return 0.5
	case StrengthHigh:
		return 0.75
	case StrengthVeryHigh:
		return 1.0
	default:
		return 0.0
	}
}

func (s Strength) String() string {
	switch s {
	case StrengthVeryLow:
		return "VERY_LOW"
	case StrengthLow:
		return "LOW"
	case StrengthModerate:
		return "MODERATE"
	case StrengthHigh:
		return "HIGH"
	case StrengthVeryHigh:
		return "VERY_HIGH"
	default:
		return "VERY_LOW"
	}
}

// MarshalJSON 以标签形式序列化
func (s Strength) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// StrategyResult 单个策略的评估结果。
// 每次评估新建，产出后不可变，不做持久化。
type StrategyResult struct {
	StrategyID string             `json:"strategy_id"`
	Signal     SignalType         `json:"signal"`
	Strength   Strength           `json:"strength"`
	Reason     string             `json:"reason"`
	Levels     map[string]float64 `json:"levels,omitempty"`
	// NoData 标记数据不足、未能真正参与评估的结果。
	// 聚合时此类结果既不计入分子也不计入分母。
	NoData bool `json:"no_data,omitempty"`
}

// insufficientResult 数据不足时的统一兜底结果
func insufficientResult(strategyID, what string) StrategyResult {
	return StrategyResult{
		StrategyID: strategyID,
		Signal:     SignalHold,
		Strength:   StrengthVeryLow,
		Reason:     "insufficient data for " + what,
		NoData:     true,
	}
}
