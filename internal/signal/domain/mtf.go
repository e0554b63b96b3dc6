package domain

// TrendDirection 单周期趋势方向，由三重 EMA 排列判定
type TrendDirection string

const (
	TrendStrongBullish TrendDirection = "STRONG_BULLISH"
	TrendBullish       TrendDirection = "BULLISH"
	TrendNeutral       TrendDirection = "NEUTRAL"
	TrendBearish       TrendDirection = "BEARISH"
	TrendStrongBearish TrendDirection = "STRONG_BEARISH"
)

// AlignmentStrength 多周期信号一致性强度
type AlignmentStrength int

const (
	AlignmentNoSignal AlignmentStrength = iota + 1
	AlignmentWeak
	AlignmentModerate
	AlignmentStrong
	AlignmentVeryStrong
)

func (s AlignmentStrength) String() string {
	switch s {
	case AlignmentVeryStrong:
		return "VERY_STRONG"
	case AlignmentStrong:
		return "STRONG"
	case AlignmentModerate:
		return "MODERATE"
	case AlignmentWeak:
		return "WEAK"
	default:
		return "NO_SIGNAL"
	}
}

// MarshalJSON 以标签形式序列化
func (s AlignmentStrength) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// TimeframeSignal 单个周期的信号与趋势
type TimeframeSignal struct {
	Timeframe Timeframe      `json:"timeframe"`
	Signal    SignalType     `json:"signal"`
	Trend     TrendDirection `json:"trend"`
	Price     float64        `json:"price"`
	EMAFast   float64        `json:"ema_fast"`
	EMAMedium float64        `json:"ema_medium"`
	EMASlow   float64        `json:"ema_slow"`
}

// MTFDecision 多周期分析结论
type MTFDecision struct {
	PrimaryTimeframe Timeframe         `json:"primary_timeframe"`
	PrimarySignal    SignalType        `json:"primary_signal"`
	FinalSignal      SignalType        `json:"final_signal"`
	Strength         AlignmentStrength `json:"signal_strength"`
	HTFConfirmation  bool              `json:"htf_confirmation"`
	OverallTrend     TrendDirection    `json:"overall_trend"`
	Timeframes       []TimeframeSignal `json:"timeframe_analysis"`
}

// MTFAnalyzer 多周期分析器。
// 主周期负责入场信号，高周期负责趋势确认；
// 各周期均以三重 EMA 策略评估。
type MTFAnalyzer struct {
	ind          *IndicatorService
	strategy     *TripleEMAStrategy
	primary      Timeframe
	confirmation []Timeframe
}

// NewMTFAnalyzer 创建多周期分析器。
// confirmation 为空时默认取 1h 与 4h。
func NewMTFAnalyzer(ind *IndicatorService, strategy *TripleEMAStrategy, primary Timeframe, confirmation []Timeframe) *MTFAnalyzer {
	if len(confirmation) == 0 {
		confirmation = []Timeframe{Timeframe1h, Timeframe4h}
	}
	return &MTFAnalyzer{ind: ind, strategy: strategy, primary: primary, confirmation: confirmation}
}

// Timeframes 需要行情数据的全部周期（主周期在前）
func (m *MTFAnalyzer) Timeframes() []Timeframe {
	out := make([]Timeframe, 0, len(m.confirmation)+1)
	out = append(out, m.primary)
	return append(out, m.confirmation...)
}

// Analyze 执行多周期分析。
// series 键为周期，值为该周期的 K 线序列；缺失周期按 NEUTRAL/HOLD 处理。
func (m *MTFAnalyzer) Analyze(series map[Timeframe][]Bar) MTFDecision {
	signals := make([]TimeframeSignal, 0, len(m.confirmation)+1)
	for _, tf := range m.Timeframes() {
		bars := series[tf]
		signals = append(signals, m.evaluateTimeframe(tf, bars))
	}

	primarySignal := signals[0].Signal
	strength := alignmentStrength(signals)
	confirmed := m.higherTimeframeConfirms(primarySignal, signals[1:])
	overall := overallTrend(signals)

	return MTFDecision{
		PrimaryTimeframe: m.primary,
		PrimarySignal:    primarySignal,
		FinalSignal:      finalDecision(primarySignal, strength, confirmed, overall),
		Strength:         strength,
		HTFConfirmation:  confirmed,
		OverallTrend:     overall,
		Timeframes:       signals,
	}
}

func (m *MTFAnalyzer) evaluateTimeframe(tf Timeframe, bars []Bar) TimeframeSignal {
	out := TimeframeSignal{Timeframe: tf, Signal: SignalHold, Trend: TrendNeutral}
	if len(bars) == 0 {
		return out
	}

	result := m.strategy.Evaluate(EvaluationContext{Bars: bars, Price: bars[len(bars)-1].Close})
	if !result.NoData {
		out.Signal = result.Signal
	}

	closes := Closes(bars)
	out.Price = closes[len(closes)-1]
	cfg := m.strategy.Config()
	if len(closes) >= cfg.SlowPeriod {
		out.EMAFast = m.ind.EMA(closes, cfg.FastPeriod)
		out.EMAMedium = m.ind.EMA(closes, cfg.MediumPeriod)
		out.EMASlow = m.ind.EMA(closes, cfg.SlowPeriod)
		out.Trend = classifyTrend(out.Price, out.EMAFast, out.EMAMedium, out.EMASlow)
	}
	return out
}

// classifyTrend 按 EMA 排列分类趋势。
// 完美多头排列为 STRONG_BULLISH，完美空头排列为 STRONG_BEARISH。
func classifyTrend(price, emaFast, emaMedium, emaSlow float64) TrendDirection {
	switch {
	case price > emaFast && emaFast > emaMedium && emaMedium > emaSlow:
		return TrendStrongBullish
	case price > emaMedium && emaFast > emaMedium:
		return TrendBullish
	case price < emaFast && emaFast < emaMedium && emaMedium < emaSlow:
		return TrendStrongBearish
	case price < emaMedium && emaFast < emaMedium:
		return TrendBearish
	default:
		return TrendNeutral
	}
}

func alignmentStrength(signals []TimeframeSignal) AlignmentStrength {
	var bullish, bearish int
	for _, s := range signals {
		switch s.Signal {
		case SignalBuy:
			bullish++
		case SignalSell:
			bearish++
		}
	}
	total := len(signals)
	switch {
	case total > 0 && (bullish == total || bearish == total):
		return AlignmentVeryStrong
	case bullish >= 3 || bearish >= 3:
		return AlignmentStrong
	case bullish >= 2 || bearish >= 2:
		return AlignmentModerate
	case bullish == 1 || bearish == 1:
		return AlignmentWeak
	default:
		return AlignmentNoSignal
	}
}

// higherTimeframeConfirms 高周期信号同向、或其趋势与信号方向兼容即为确认
func (m *MTFAnalyzer) higherTimeframeConfirms(primary SignalType, higher []TimeframeSignal) bool {
	if primary == SignalHold {
		return false
	}
	for _, s := range higher {
		if s.Signal == primary {
			return true
		}
		switch primary {
		case SignalBuy:
			if s.Trend == TrendBullish || s.Trend == TrendStrongBullish {
				return true
			}
		case SignalSell:
			if s.Trend == TrendBearish || s.Trend == TrendStrongBearish {
				return true
			}
		}
	}
	return false
}

func overallTrend(signals []TimeframeSignal) TrendDirection {
	var strongBullish, bullish, strongBearish, bearish int
	for _, s := range signals {
		switch s.Trend {
		case TrendStrongBullish:
			strongBullish++
		case TrendBullish:
			bullish++
		case TrendStrongBearish:
			strongBearish++
		case TrendBearish:
			bearish++
		}
	}
	totalBullish := strongBullish + bullish
	totalBearish := strongBearish + bearish
	switch {
	case strongBullish >= 2 || totalBullish >= 3:
		return TrendStrongBullish
	case strongBearish >= 2 || totalBearish >= 3:
		return TrendStrongBearish
	case totalBullish >= 2:
		return TrendBullish
	case totalBearish >= 2:
		return TrendBearish
	default:
		return TrendNeutral
	}
}

// finalDecision 最终裁决，规则按顺序生效：
// 弱信号直接观望；逆势且无高周期确认观望；
// 强一致性需高周期确认；中等一致性需整体趋势同向。
func finalDecision(primary SignalType, strength AlignmentStrength, confirmed bool, trend TrendDirection) SignalType {
	if strength == AlignmentWeak || strength == AlignmentNoSignal {
		return SignalHold
	}
	if primary == SignalHold {
		return SignalHold
	}
	switch primary {
	case SignalBuy:
		if (trend == TrendBearish || trend == TrendStrongBearish) && !confirmed {
			return SignalHold
		}
	case SignalSell:
		if (trend == TrendBullish || trend == TrendStrongBullish) && !confirmed {
			return SignalHold
		}
	}
	if strength >= AlignmentStrong && confirmed {
		return primary
	}
	if strength == AlignmentModerate {
		switch primary {
		case SignalBuy:
			if trend == TrendBullish || trend == TrendStrongBullish {
				return SignalBuy
			}
		case SignalSell:
			if trend == TrendBearish || trend == TrendStrongBearish {
				return SignalSell
			}
		}
	}
	return SignalHold
}
