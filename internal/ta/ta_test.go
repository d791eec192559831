package ta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func popStd(vals []float64) float64 {
	m := 0.0
	for _, v := range vals {
		m += v
	}
	m /= float64(len(vals))
	s := 0.0
	for _, v := range vals {
		s += (v - m) * (v - m)
	}
	return math.Sqrt(s / float64(len(vals)))
}

func TestLogReturns(t *testing.T) {
	rets := LogReturns([]float64{10, 11, 9.9})
	require.Len(t, rets, 2)
	assert.InDelta(t, math.Log(1.1), rets[0], 1e-12)
	assert.InDelta(t, math.Log(0.9), rets[1], 1e-12)
}

func TestLogReturns_NonPositivePrice(t *testing.T) {
	assert.Nil(t, LogReturns([]float64{10, 0, 10}))
	assert.Nil(t, LogReturns([]float64{10, -1}))
	assert.Nil(t, LogReturns([]float64{10}))
}

func TestStdDev_MatchesTwoPass(t *testing.T) {
	vals := []float64{0.01, -0.02, 0.015, 0.003, -0.007, 0.02, -0.011}
	assert.InDelta(t, popStd(vals), StdDev(vals), 1e-9)
}

func TestStdDev_Constant(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{0, 0, 0, 0}))
	assert.Equal(t, 0.0, StdDev([]float64{1}))
}

func TestWindowVolatility_UsesTail(t *testing.T) {
	prices := []float64{1, 1000, 50, 51, 49, 48, 50}
	window := 5
	rets := LogReturns(prices[len(prices)-window:])
	want := popStd(rets) * math.Sqrt(float64(window))
	assert.InDelta(t, want, WindowVolatility(prices, window), 1e-9)
}

func TestWindowVolatility_ShortHistory(t *testing.T) {
	assert.Equal(t, 0.0, WindowVolatility([]float64{50, 51}, 22))
}

func TestWindowVolatility_Flat(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 10
	}
	assert.Equal(t, 0.0, WindowVolatility(prices, 22))
}
