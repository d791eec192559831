package ta

import (
	"math"

	talib "github.com/markcheno/go-talib"
)

// LogReturns returns ln(p[i]/p[i-1]) for i in [1, len(p)).
// Returns nil when any price is non-positive or non-finite.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if !(prev > 0) || !(cur > 0) || math.IsInf(prev, 0) || math.IsInf(cur, 0) {
			return nil
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// StdDev is the population standard deviation of vals.
func StdDev(vals []float64) float64 {
	n := len(vals)
	if n < 2 {
		return 0
	}
	sd := talib.StdDev(vals, n, 1.0)[n-1]
	if math.IsNaN(sd) || sd < 0 {
		return 0
	}
	return sd
}

// WindowVolatility is the dispersion of log-returns over the last window
// prices, scaled by sqrt(window). Zero when fewer than window prices exist.
func WindowVolatility(prices []float64, window int) float64 {
	if window < 2 || len(prices) < window {
		return 0
	}
	rets := LogReturns(prices[len(prices)-window:])
	if rets == nil {
		return 0
	}
	return StdDev(rets) * math.Sqrt(float64(window))
}
