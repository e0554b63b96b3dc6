package domain

import (
	"context"
	"sort"
	"sync"
	"time"

	signal "github.com/wyfcoding/quantsignal/internal/signal/domain"
)

// 参数网格支持的键名
const (
	ParamFastPeriod    = "fast_period"
	ParamMediumPeriod  = "medium_period"
	ParamSlowPeriod    = "slow_period"
	ParamATRMultiplier = "atr_multiplier"
	ParamVolumeThresh  = "volume_threshold"
	ParamPositionSize  = "position_size_pct"
)

// ParamGrid 参数寻优网格：键为参数名，值为候选取值列表
type ParamGrid map[string][]float64

// DefaultParamGrid 默认寻优范围
func DefaultParamGrid() ParamGrid {
	return ParamGrid{
		ParamFastPeriod:    {7, 9, 12},
		ParamMediumPeriod:  {18, 21, 26},
		ParamSlowPeriod:    {45, 50, 55},
		ParamATRMultiplier: {1.5, 2.0, 2.5},
		ParamVolumeThresh:  {1.0, 1.2, 1.5},
	}
}

// Combinations 生成全部参数组合（笛卡尔积）。
// 键按字典序展开，保证组合顺序稳定可复现。
func (g ParamGrid) Combinations() []map[string]float64 {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	combos := []map[string]float64{{}}
	for _, key := range keys {
		values := g[key]
		next := make([]map[string]float64, 0, len(combos)*len(values))
		for _, combo := range combos {
			for _, v := range values {
				extended := make(map[string]float64, len(combo)+1)
				for ck, cv := range combo {
					extended[ck] = cv
				}
				extended[key] = v
				next = append(next, extended)
			}
		}
		combos = next
	}
	return combos
}

// SweepEntry 单个参数组合的寻优结果
type SweepEntry struct {
	Params         map[string]float64 `json:"params"`
	ReturnPct      float64            `json:"return_pct"`
	WinRate        float64            `json:"win_rate"`
	ProfitFactor   float64            `json:"profit_factor"`
	TotalTrades    int                `json:"total_trades"`
	MaxDrawdownPct float64            `json:"max_drawdown_pct"`
}

// SweepRunFunc 以给定参数组合执行一次回测
type SweepRunFunc func(ctx context.Context, params map[string]float64) (*Result, error)

// Sweeper 参数寻优器。
// 组合在有界工作池中并发回测，失败的组合直接剔除，
// 结果按总收益率降序排列。
type Sweeper struct {
	concurrency int
	timeout     time.Duration
}

// NewSweeper 创建寻优器
func NewSweeper(concurrency int, timeout time.Duration) *Sweeper {
	if concurrency <= 0 {
		concurrency = 4
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Sweeper{concurrency: concurrency, timeout: timeout}
}

// Run 遍历网格并汇总结果
func (s *Sweeper) Run(ctx context.Context, grid ParamGrid, run SweepRunFunc) ([]SweepEntry, error) {
	combos := grid.Combinations()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entries := make([]SweepEntry, len(combos))
	valid := make([]bool, len(combos))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, combo := range combos {
		select {
		case <-ctx.Done():
			// 整体超时：已完成的组合仍然入榜
			goto collect
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, params map[string]float64) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := run(ctx, params)
			if err != nil {
				return
			}
			entries[idx] = SweepEntry{
				Params:         params,
				ReturnPct:      result.TotalReturnPct,
				WinRate:        result.Stats.WinRate,
				ProfitFactor:   result.Stats.ProfitFactor,
				TotalTrades:    result.Stats.TotalTrades,
				MaxDrawdownPct: result.Stats.MaxDrawdownPct,
			}
			valid[idx] = true
		}(i, combo)
	}

collect:
	wg.Wait()

	out := make([]SweepEntry, 0, len(combos))
	for i := range entries {
		if valid[i] {
			out = append(out, entries[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].ReturnPct > out[b].ReturnPct
	})
	if len(out) == 0 && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return out, nil
}

// SignalTypeToSide 信号方向到持仓方向的映射
func SignalTypeToSide(st signal.SignalType) (TradeSide, bool) {
	switch st {
	case signal.SignalBuy:
		return SideLong, true
	case signal.SignalSell:
		return SideShort, true
	default:
		return "", false
	}
}
