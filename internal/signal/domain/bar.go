// Package domain 多策略信号聚合引擎领域层。
// 基于历史行情数据（OHLCV）驱动各技术分析策略，产出加权共识信号。
package domain

import (
	"fmt"
	"time"
)

// Timeframe K 线周期
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
)

// Minutes 周期对应的分钟数
func (tf Timeframe) Minutes() int {
	switch tf {
	case Timeframe1m:
		return 1
	case Timeframe5m:
		return 5
	case Timeframe15m:
		return 15
	case Timeframe1h:
		return 60
	case Timeframe4h:
		return 240
	case Timeframe1d:
		return 1440
	default:
		return 15
	}
}

// Bar 表示一个 K 线数据点。
// 由数据源按时间升序产出，产出后不可变。
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Validate 校验单根 K 线的完整性。
// high < low 属于上游数据边界缺陷，必须作为硬错误向上传播。
func (b Bar) Validate() error {
	if b.High < b.Low {
		return fmt.Errorf("malformed bar at %s: high %.8f < low %.8f", b.Timestamp.Format(time.RFC3339), b.High, b.Low)
	}
	if b.Close > b.High || b.Close < b.Low {
		return fmt.Errorf("malformed bar at %s: close %.8f outside [%.8f, %.8f]", b.Timestamp.Format(time.RFC3339), b.Close, b.Low, b.High)
	}
	return nil
}

// ValidateSeries 校验整个序列的完整性与时间顺序
func ValidateSeries(bars []Bar) error {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return err
		}
		if i > 0 && !bars[i-1].Timestamp.Before(b.Timestamp) {
			return fmt.Errorf("bar series not strictly increasing at index %d", i)
		}
	}
	return nil
}

// Closes 提取收盘价序列
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes 提取成交量序列
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}
