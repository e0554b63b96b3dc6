package domain

import "fmt"

// consensusThreshold 共识模式下要求同向策略占比
const consensusThreshold = 0.6

// AggregatorConfig 聚合参数，构造后不可变。
// 权重不要求归一：按实际参与策略的权重之和归一化。
type AggregatorConfig struct {
	Weights map[string]float64 `json:"weights"`
	// DefaultWeight 未配置权重的策略使用的权重
	DefaultWeight float64 `json:"default_weight"`
	// MinScore 最终信号的最低归一化得分，低于此值输出 HOLD
	MinScore float64 `json:"min_score"`
	// RequireConsensus 要求 60% 以上策略同向，否则输出 HOLD
	RequireConsensus bool `json:"require_consensus"`
}

// DefaultAggregatorConfig 默认权重配置
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Weights: map[string]float64{
			StrategyPivot:      0.20,
			StrategyVWAP:       0.15,
			StrategyBollinger:  0.15,
			StrategyOscillator: 0.20,
			StrategyFibonacci:  0.10,
			StrategyIchimoku:   0.10,
			StrategySAR:        0.10,
		},
		DefaultWeight:    0.1,
		MinScore:         0.5,
		RequireConsensus: false,
	}
}

// weightFor 查询策略权重
func (c AggregatorConfig) weightFor(strategyID string) float64 {
	if w, ok := c.Weights[strategyID]; ok {
		return w
	}
	if c.DefaultWeight > 0 {
		return c.DefaultWeight
	}
	return 0.1
}

// StrategyVote 单个策略在聚合中的记账明细
type StrategyVote struct {
	StrategyID    string     `json:"strategy_id"`
	Signal        SignalType `json:"signal"`
	Strength      Strength   `json:"strength"`
	Weight        float64    `json:"weight"`
	WeightedScore float64    `json:"weighted_score"`
	Reason        string     `json:"reason"`
}

// AggregatedSignal 加权共识结果
type AggregatedSignal struct {
	Signal     SignalType `json:"signal"`
	Strength   Strength   `json:"strength"`
	Reason     string     `json:"reason"`
	Score      float64    `json:"score"`
	BuyScore   float64    `json:"buy_score"`
	SellScore  float64    `json:"sell_score"`
	HoldScore  float64    `json:"hold_score"`
	BuyCount   int        `json:"buy_count"`
	SellCount  int        `json:"sell_count"`
	HoldCount  int        `json:"hold_count"`
	Confidence float64    `json:"confidence"`
	// Total 实际参与聚合的策略数，数据不足的策略不计入
	Total int            `json:"total_strategies"`
	Votes []StrategyVote `json:"strategy_breakdown"`
}

// Aggregator 多策略加权聚合器
type Aggregator struct{}

// NewAggregator 创建聚合器
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Combine 按权重聚合各策略结果。
// 数据不足（NoData）的结果整体剔除：不投票、不占权重、不计入置信度分母。
// 多空得分并列时输出 HOLD。
func (a *Aggregator) Combine(results []StrategyResult, cfg AggregatorConfig) AggregatedSignal {
	var buyScore, sellScore, holdScore, totalWeight float64
	var buyCount, sellCount, holdCount int
	votes := make([]StrategyVote, 0, len(results))

	for _, r := range results {
		if r.NoData {
			continue
		}
		weight := cfg.weightFor(r.StrategyID)
		totalWeight += weight
		weighted := weight * r.Strength.Score()

		switch r.Signal {
		case SignalBuy:
			buyScore += weighted
			buyCount++
		case SignalSell:
			sellScore += weighted
			sellCount++
		default:
			holdScore += weighted
			holdCount++
		}
		votes = append(votes, StrategyVote{
			StrategyID:    r.StrategyID,
			Signal:        r.Signal,
			Strength:      r.Strength,
			Weight:        weight,
			WeightedScore: weighted,
			Reason:        r.Reason,
		})
	}

	if len(votes) == 0 {
		// 所有策略均数据不足，无可用结果
		return AggregatedSignal{
			Signal:   SignalHold,
			Strength: StrengthVeryLow,
			Reason:   "no usable strategy results",
			Votes:    votes,
		}
	}

	if totalWeight > 0 {
		buyScore /= totalWeight
		sellScore /= totalWeight
		holdScore /= totalWeight
	}

	maxScore := buyScore
	if sellScore > maxScore {
		maxScore = sellScore
	}
	if holdScore > maxScore {
		maxScore = holdScore
	}

	out := AggregatedSignal{
		Score:     maxScore,
		BuyScore:  buyScore,
		SellScore: sellScore,
		HoldScore: holdScore,
		BuyCount:  buyCount,
		SellCount: sellCount,
		HoldCount: holdCount,
		Total:     buyCount + sellCount + holdCount,
		Votes:     votes,
	}

	switch {
	case maxScore < cfg.MinScore:
		out.Signal = SignalHold
		out.Strength = StrengthVeryLow
		out.Reason = fmt.Sprintf("insufficient score (%.2f < %.2f)", maxScore, cfg.MinScore)
	case buyScore == maxScore && sellScore == maxScore:
		// 多空并列，保持观望
		out.Signal = SignalHold
		out.Strength = StrengthVeryLow
		out.Reason = fmt.Sprintf("buy/sell scores tied at %.2f", maxScore)
	case buyScore == maxScore:
		out.Signal = SignalBuy
		out.Strength = strengthFromScore(buyScore)
		out.Reason = fmt.Sprintf("buy score: %.2f (%d strategies)", buyScore, buyCount)
	case sellScore == maxScore:
		out.Signal = SignalSell
		out.Strength = strengthFromScore(sellScore)
		out.Reason = fmt.Sprintf("sell score: %.2f (%d strategies)", sellScore, sellCount)
	default:
		out.Signal = SignalHold
		out.Strength = StrengthLow
		out.Reason = fmt.Sprintf("hold score: %.2f", holdScore)
	}

	if out.Total > 0 {
		switch out.Signal {
		case SignalBuy:
			out.Confidence = float64(buyCount) / float64(out.Total) * 100
		case SignalSell:
			out.Confidence = float64(sellCount) / float64(out.Total) * 100
		default:
			out.Confidence = float64(holdCount) / float64(out.Total) * 100
		}
	}

	if cfg.RequireConsensus && out.Confidence < consensusThreshold*100 {
		out.Signal = SignalHold
		out.Strength = StrengthLow
		out.Reason = fmt.Sprintf("no consensus (only %.0f%% agree)", out.Confidence)
	}
	return out
}

// strengthFromScore 归一化得分映射到最终强度档位
func strengthFromScore(score float64) Strength {
	switch {
	case score >= 0.75:
		return StrengthHigh
	case score >= 0.5:
		return StrengthModerate
	default:
		return StrengthLow
	}
}
