package domain

import "math"

// IndicatorService 指标计算服务。
// 所有方法均为输入序列的纯函数，按时间升序排列（最新的在最后）。
type IndicatorService struct{}

// NewIndicatorService 创建指标计算服务实例
func NewIndicatorService() *IndicatorService {
	return &IndicatorService{}
}

// SMA 简单移动平均，取最近 period 个值
func (s *IndicatorService) SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// rollingMean 滑动均值序列，前 period-1 个位置为 0
func rollingMean(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMASeries 计算指数移动平均序列。
// 初始 EMA 以第一个值代替 SMA 种子。
func (s *IndicatorService) EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	k := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// EMA 指数移动平均，仅返回最后一个值
func (s *IndicatorService) EMA(values []float64, period int) float64 {
	series := s.EMASeries(values, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// RSISeries 计算相对强弱指数序列（Wilder 平滑法）。
// 前 period 个位置无效，填充中性值 50。
func (s *IndicatorService) RSISeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = 50
	}
	if period <= 0 || len(values) < period+1 {
		return out
	}

	gains, losses := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		// 平均涨幅 = ((上一次平均涨幅 * (周期 - 1)) + 当前涨幅) / 周期
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

// RSI 相对强弱指数，仅返回最后一个值
func (s *IndicatorService) RSI(values []float64, period int) float64 {
	series := s.RSISeries(values, period)
	if len(series) == 0 {
		return 50
	}
	return series[len(series)-1]
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ATR 平均真实波幅（滑动均值口径），仅返回最后一个值
func (s *IndicatorService) ATR(bars []Bar, period int) float64 {
	if period <= 0 || len(bars) < period+1 {
		return 0
	}
	tr := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		highLow := bars[i].High - bars[i].Low
		highClose := math.Abs(bars[i].High - bars[i-1].Close)
		lowClose := math.Abs(bars[i].Low - bars[i-1].Close)
		tr[i] = math.Max(highLow, math.Max(highClose, lowClose))
	}
	sum := 0.0
	for _, v := range tr[len(tr)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// Stochastic 随机振荡指标，返回平滑后的 %K 与 %D 序列
func (s *IndicatorService) Stochastic(bars []Bar, period, kSmooth, dSmooth int) (k, d []float64) {
	raw := make([]float64, len(bars))
	for i := range bars {
		if i < period-1 {
			continue
		}
		lowest, highest := bars[i].Low, bars[i].High
		for j := i - period + 1; j <= i; j++ {
			lowest = math.Min(lowest, bars[j].Low)
			highest = math.Max(highest, bars[j].High)
		}
		if highest == lowest {
			raw[i] = 50
			continue
		}
		raw[i] = 100 * (bars[i].Close - lowest) / (highest - lowest)
	}
	k = rollingMean(raw, kSmooth)
	d = rollingMean(k, dSmooth)
	return k, d
}

// MACD 移动平均收敛散度，返回 MACD 线、信号线与柱状图序列
func (s *IndicatorService) MACD(values []float64, fast, slow, signal int) (macd, signalLine, histogram []float64) {
	fastEMA := s.EMASeries(values, fast)
	slowEMA := s.EMASeries(values, slow)
	macd = make([]float64, len(values))
	for i := range values {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = s.EMASeries(macd, signal)
	histogram = make([]float64, len(values))
	for i := range values {
		histogram[i] = macd[i] - signalLine[i]
	}
	return macd, signalLine, histogram
}

// BollingerBands 布林带（最后一个点）
type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
	Width  float64
}

// Bollinger 计算布林带
func (s *IndicatorService) Bollinger(values []float64, period int, stdMult float64) BollingerBands {
	if period <= 0 || len(values) < period {
		return BollingerBands{}
	}
	window := values[len(values)-period:]
	mean := 0.0
	for _, v := range window {
		mean += v
	}
	mean /= float64(period)
	variance := 0.0
	for _, v := range window {
		variance += (v - mean) * (v - mean)
	}
	// 样本标准差，与 pandas rolling().std() 口径一致
	std := math.Sqrt(variance / float64(period-1))
	upper := mean + std*stdMult
	lower := mean - std*stdMult
	width := 0.0
	if mean != 0 {
		width = (upper - lower) / mean
	}
	return BollingerBands{Upper: upper, Middle: mean, Lower: lower, Width: width}
}

// VWAPBands VWAP 及标准差带（最后一个点）
type VWAPBands struct {
	VWAP  float64
	Upper float64
	Lower float64
}

// VWAP 成交量加权平均价，基于典型价累积计算
func (s *IndicatorService) VWAP(bars []Bar, stdMult float64) VWAPBands {
	var cumTPV, cumVol, cumSqDiff float64
	var vwap float64
	for _, b := range bars {
		tp := (b.High + b.Low + b.Close) / 3
		cumTPV += tp * b.Volume
		cumVol += b.Volume
		if cumVol == 0 {
			continue
		}
		vwap = cumTPV / cumVol
		cumSqDiff += (tp - vwap) * (tp - vwap)
	}
	if cumVol == 0 {
		return VWAPBands{}
	}
	std := math.Sqrt(cumSqDiff / cumVol)
	return VWAPBands{VWAP: vwap, Upper: vwap + std*stdMult, Lower: vwap - std*stdMult}
}

// IchimokuLevels 一目均衡表各分量（当前 K 线适用值）
type IchimokuLevels struct {
	Tenkan      float64
	Kijun       float64
	SenkouA     float64
	SenkouB     float64
	CloudTop    float64
	CloudBottom float64
	// 迟行判定：当前收盘与 displacement 根之前收盘的比较输入
	Close     float64
	PastClose float64
}

// Ichimoku 计算一目均衡表。
// 云层取 displacement 根之前计算、前移至当前位置的先行带。
func (s *IndicatorService) Ichimoku(bars []Bar, tenkanPeriod, kijunPeriod, senkouBPeriod, displacement int) IchimokuLevels {
	n := len(bars)
	if n < senkouBPeriod+displacement {
		return IchimokuLevels{}
	}

	midpoint := func(end, period int) float64 {
		highest, lowest := bars[end].High, bars[end].Low
		for j := end - period + 1; j <= end; j++ {
			highest = math.Max(highest, bars[j].High)
			lowest = math.Min(lowest, bars[j].Low)
		}
		return (highest + lowest) / 2
	}

	last := n - 1
	shifted := last - displacement

	tenkan := midpoint(last, tenkanPeriod)
	kijun := midpoint(last, kijunPeriod)
	senkouA := (midpoint(shifted, tenkanPeriod) + midpoint(shifted, kijunPeriod)) / 2
	senkouB := midpoint(shifted, senkouBPeriod)

	lv := IchimokuLevels{
		Tenkan:      tenkan,
		Kijun:       kijun,
		SenkouA:     senkouA,
		SenkouB:     senkouB,
		CloudTop:    math.Max(senkouA, senkouB),
		CloudBottom: math.Min(senkouA, senkouB),
		Close:       bars[last].Close,
	}
	if shifted-1 >= 0 {
		lv.PastClose = bars[shifted-1].Close
	}
	return lv
}

// ParabolicSAR 抛物线 SAR 序列，trend 为 +1（上升）/ -1（下降）
func (s *IndicatorService) ParabolicSAR(bars []Bar, acceleration, maximum float64) (sar []float64, trend []int) {
	n := len(bars)
	sar = make([]float64, n)
	trend = make([]int, n)
	if n == 0 {
		return sar, trend
	}
	ep := bars[0].High // 极值点
	af := acceleration
	sar[0] = bars[0].Low
	trend[0] = 1

	for i := 1; i < n; i++ {
		prevSAR := sar[i-1]
		sar[i] = prevSAR + af*(ep-prevSAR)

		if trend[i-1] == 1 {
			if bars[i].Low < sar[i] {
				// 反转为下降趋势，SAR 跳至前极值点
				trend[i] = -1
				sar[i] = ep
				ep = bars[i].Low
				af = acceleration
			} else {
				trend[i] = 1
				if bars[i].High > ep {
					ep = bars[i].High
					af = math.Min(af+acceleration, maximum)
				}
				// SAR 不得高于前两根 K 线的最低价
				sar[i] = math.Min(sar[i], bars[i-1].Low)
				if i > 1 {
					sar[i] = math.Min(sar[i], bars[i-2].Low)
				}
			}
		} else {
			if bars[i].High > sar[i] {
				trend[i] = 1
				sar[i] = ep
				ep = bars[i].High
				af = acceleration
			} else {
				trend[i] = -1
				if bars[i].Low < ep {
					ep = bars[i].Low
					af = math.Min(af+acceleration, maximum)
				}
				// SAR 不得低于前两根 K 线的最高价
				sar[i] = math.Max(sar[i], bars[i-1].High)
				if i > 1 {
					sar[i] = math.Max(sar[i], bars[i-2].High)
				}
			}
		}
	}
	return sar, trend
}

// PivotLevels 经典枢轴点位
type PivotLevels struct {
	Pivot float64 `json:"pivot"`
	R1    float64 `json:"r1"`
	R2    float64 `json:"r2"`
	R3    float64 `json:"r3"`
	S1    float64 `json:"s1"`
	S2    float64 `json:"s2"`
	S3    float64 `json:"s3"`
}

// PivotPoints 以前一周期的高低收计算经典枢轴点
func (s *IndicatorService) PivotPoints(high, low, close float64) PivotLevels {
	pivot := (high + low + close) / 3
	return PivotLevels{
		Pivot: pivot,
		R1:    2*pivot - low,
		R2:    pivot + (high - low),
		R3:    high + 2*(pivot-low),
		S1:    2*pivot - high,
		S2:    pivot - (high - low),
		S3:    low - 2*(high-pivot),
	}
}
