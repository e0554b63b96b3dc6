package domain

import "time"

type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// SignalGeneratedEvent 聚合信号生成事件
type SignalGeneratedEvent struct {
	SignalID   string     `json:"signal_id"`
	Symbol     string     `json:"symbol"`
	Signal     SignalType `json:"signal"`
	Strength   Strength   `json:"strength"`
	Score      float64    `json:"score"`
	Confidence float64    `json:"confidence"`
	Price      float64    `json:"price"`
	Timestamp  time.Time  `json:"timestamp"`
}

func (e *SignalGeneratedEvent) EventName() string     { return "signal.generated" }
func (e *SignalGeneratedEvent) OccurredAt() time.Time { return e.Timestamp }

// MTFAnalyzedEvent 多周期分析完成事件
type MTFAnalyzedEvent struct {
	Symbol      string     `json:"symbol"`
	FinalSignal SignalType `json:"final_signal"`
	Strength    string     `json:"signal_strength"`
	Trend       string     `json:"overall_trend"`
	Price       float64    `json:"price"`
	Timestamp   time.Time  `json:"timestamp"`
}

func (e *MTFAnalyzedEvent) EventName() string     { return "signal.mtf_analyzed" }
func (e *MTFAnalyzedEvent) OccurredAt() time.Time { return e.Timestamp }
