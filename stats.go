package rasterbatch

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	StatCount      = "count"
	StatMin        = "min"
	StatMax        = "max"
	StatMean       = "mean"
	StatSum        = "sum"
	StatStd        = "std"
	StatMedian     = "median"
	StatMajority   = "majority"
	StatMinority   = "minority"
	StatUnique     = "unique"
	StatRange      = "range"
	StatNodata     = "nodata"
	StatPercentile = "percentile_"
)

var knownStats = map[string]struct{}{
	StatCount: {}, StatMin: {}, StatMax: {}, StatMean: {}, StatSum: {}, StatStd: {},
	StatMedian: {}, StatMajority: {}, StatMinority: {}, StatUnique: {}, StatRange: {}, StatNodata: {},
}

func parsePercentile(s string) (q float64, ok bool) {
	raw, found := strings.CutPrefix(s, StatPercentile)
	if !found {
		return
	}
	q, err := strconv.ParseFloat(raw, 64)
	ok = err == nil && q >= 0 && q <= 100
	return
}

// 校验统计项名称，去重并保持顺序；为空时使用默认统计项
func ValidateStats(stats []string) (ret []string, err error) {
	if len(stats) == 0 {
		ret = append(ret, DefaultZonalStats...)
		return
	}
	seen := make(map[string]struct{}, len(stats))
	for _, s := range stats {
		s = strings.ToLower(strings.TrimSpace(s))
		if _, dup := seen[s]; dup {
			continue
		}
		if _, ok := knownStats[s]; !ok {
			if _, ok = parsePercentile(s); !ok {
				err = fmt.Errorf("%w: %q", ErrUnknownStatistic, s)
				return
			}
		}
		seen[s] = struct{}{}
		ret = append(ret, s)
	}
	return
}

// 按线性插值计算分位数（sorted须已升序）
func percentile(sorted []float64, q float64) float64 {
	pos := q / 100 * float64(len(sorted)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	vlo := sorted[int(lo)]
	return vlo + (sorted[int(hi)]-vlo)*(pos-lo)
}

// 统计区域内的有效像元值，nodataCnt为区域内的nodata像元数
// 没有有效像元时除count/nodata外均为NaN
func aggregate(values []float64, nodataCnt int, stats []string) map[string]float64 {
	ret := make(map[string]float64, len(stats))
	n := len(values)
	var (
		sorted []float64
		counts map[float64]int
	)
	if n > 0 {
		sorted = append(make([]float64, 0, n), values...)
		sort.Float64s(sorted)
	}
	valueCounts := func() map[float64]int {
		if counts == nil {
			counts = make(map[float64]int)
			for _, v := range sorted {
				counts[v]++
			}
		}
		return counts
	}
	for _, s := range stats {
		switch s {
		case StatCount:
			ret[s] = float64(n)
			continue
		case StatNodata:
			ret[s] = float64(nodataCnt)
			continue
		}
		if n == 0 {
			ret[s] = math.NaN()
			continue
		}
		switch s {
		case StatMin:
			ret[s] = sorted[0]
		case StatMax:
			ret[s] = sorted[n-1]
		case StatRange:
			ret[s] = sorted[n-1] - sorted[0]
		case StatSum:
			ret[s] = floats.Sum(values)
		case StatMean:
			ret[s] = stat.Mean(values, nil)
		case StatStd:
			_, ret[s] = stat.PopMeanStdDev(values, nil)
		case StatMedian:
			ret[s] = percentile(sorted, 50)
		case StatUnique:
			ret[s] = float64(len(valueCounts()))
		case StatMajority, StatMinority:
			ret[s] = pickByCount(sorted, valueCounts(), s == StatMajority)
		default:
			if q, ok := parsePercentile(s); ok {
				ret[s] = percentile(sorted, q)
			}
		}
	}
	return ret
}

// 出现次数最多（或最少）的值，次数相同时取较小值
func pickByCount(sorted []float64, counts map[float64]int, most bool) float64 {
	best, bestCnt := sorted[0], counts[sorted[0]]
	for i := 1; i < len(sorted); i++ {
		v := sorted[i]
		if v == sorted[i-1] {
			continue
		}
		c := counts[v]
		if (most && c > bestCnt) || (!most && c < bestCnt) {
			best, bestCnt = v, c
		}
	}
	return best
}
