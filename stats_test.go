package rasterbatch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStats(t *testing.T) {
	stats, err := ValidateStats(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{StatCount, StatMin, StatMax, StatMean}, stats)

	stats, err = ValidateStats([]string{"Mean", " max", "mean", "percentile_90"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mean", "max", "percentile_90"}, stats)

	for _, bad := range []string{"mode", "percentile_101", "percentile_", "percentile_x"} {
		_, err = ValidateStats([]string{"mean", bad})
		assert.ErrorIs(t, err, ErrUnknownStatistic, bad)
	}
}

func TestAggregate(t *testing.T) {
	all := []string{StatCount, StatMin, StatMax, StatMean, StatSum, StatStd, StatMedian, StatMajority,
		StatMinority, StatUnique, StatRange, StatNodata, "percentile_25", "percentile_90"}
	ret := aggregate([]float64{4, 2, 1, 2, 3}, 2, all)
	want := map[string]float64{
		StatCount:       5,
		StatMin:         1,
		StatMax:         4,
		StatMean:        2.4,
		StatSum:         12,
		StatMedian:      2,
		StatMajority:    2,
		StatMinority:    1,
		StatUnique:      4,
		StatRange:       3,
		StatNodata:      2,
		"percentile_25": 2,
		"percentile_90": 3.6,
	}
	for k, v := range want {
		assert.InDelta(t, v, ret[k], 1e-9, k)
	}
	assert.InDelta(t, math.Sqrt(1.04), ret[StatStd], 1e-9)
	assert.Len(t, ret, len(all))
}

func TestAggregateEvenMedian(t *testing.T) {
	ret := aggregate([]float64{1, 2, 3, 10}, 0, []string{StatMedian, StatMajority})
	assert.InDelta(t, 2.5, ret[StatMedian], 1e-9)
	// 次数相同取较小值
	assert.Equal(t, 1.0, ret[StatMajority])
}

func TestAggregateEmptyZone(t *testing.T) {
	ret := aggregate(nil, 3, []string{StatCount, StatMean, StatMin, StatNodata, "percentile_50"})
	assert.Equal(t, 0.0, ret[StatCount])
	assert.Equal(t, 3.0, ret[StatNodata])
	assert.True(t, math.IsNaN(ret[StatMean]))
	assert.True(t, math.IsNaN(ret[StatMin]))
	assert.True(t, math.IsNaN(ret["percentile_50"]))
}

func TestPixelWindow(t *testing.T) {
	gt := GeoTransform{0, 10, 0, 100, 0, -10}
	cases := []struct {
		bnds       [4]float64
		x, y, w, h int
	}{
		{[4]float64{15, 35, 42, 78}, 1, 2, 4, 5},
		{[4]float64{0, 0, 100, 100}, 0, 0, 10, 10},
		{[4]float64{-50, -50, 30, 200}, 0, 0, 3, 10},
		{[4]float64{200, 200, 300, 300}, 0, 0, 0, 0},
		{[4]float64{55, 55, 55, 55}, 5, 4, 1, 1},
	}
	for _, c := range cases {
		x, y, w, h := pixelWindow(gt, c.bnds, 10, 10)
		assert.Equal(t, []int{c.x, c.y, c.w, c.h}, []int{x, y, w, h}, "%v", c.bnds)
	}
}
