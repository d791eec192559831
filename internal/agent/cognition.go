package agent

import (
	"math"

	"agentsim/internal/interfaces"
	"agentsim/internal/ta"
)

// UpdatePerceivedVolatility recomputes the perceived volatility from the
// last tau prices of history. Shorter histories give zero.
func (a *Agent) UpdatePerceivedVolatility(history []float64) {
	a.perceivedVolatility = ta.WindowVolatility(history, a.tau)
}

// DesiredRisk is the volatility-adjusted exposure the agent accepts now.
func (a *Agent) DesiredRisk() float64 {
	base := (a.sentiment + 1) * a.perceivedVolatility / 2
	return base +
		a.speculationBias*a.w.RiskSpeculation -
		a.noiseSensitivity*a.w.RiskNoise +
		a.fundamentalistWeight*a.w.RiskFundamentalist
}

// AdjustForInflation marks price up by the expected inflation, damped by
// the agent's confidence.
func (a *Agent) AdjustForInflation(price float64) float64 {
	confidence := math.Max(0, a.literacy-a.noiseSensitivity)
	return price * (1 + a.inflationExpectation*(1-confidence))
}

// QuantityFromRisk converts risk to a continuous quantity. Zero when the
// perceived volatility is zero.
func (a *Agent) QuantityFromRisk(risk float64) float64 {
	if a.perceivedVolatility > 0 {
		return risk / a.perceivedVolatility
	}
	return 0
}

// ExpectedPrice is strictly positive for any positive market price.
func (a *Agent) ExpectedPrice(marketPrice float64) float64 {
	literacyTerm := a.literacy * a.w.ExpectationLiteracy
	behaviorTerm := a.speculationBias * a.w.ExpectationSpeculation
	return marketPrice * math.Exp((a.sentiment+literacyTerm-behaviorTerm)/a.w.ExpectationScale)
}

// PrivateSignal is the agent's own net-worth growth over the lookback.
func (a *Agent) PrivateSignal() float64 {
	return growth(a.netWorthHistory, a.w.SignalLookback)
}

// SocialSignal averages the private signal of every neighbor with enough
// history. Neighbors unknown to peers are ignored.
func (a *Agent) SocialSignal(peers interfaces.Peers) float64 {
	if peers == nil || len(a.neighbors) == 0 {
		return 0
	}
	sum, n := 0.0, 0
	for _, name := range a.neighbors {
		if name == a.name {
			continue
		}
		h, ok := peers.NetWorthHistory(name)
		if !ok || len(h) <= a.w.SignalLookback {
			continue
		}
		sum += growth(h, a.w.SignalLookback)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// DrawNews is one standard-normal news shock.
func (a *Agent) DrawNews() float64 {
	return a.rng.NormFloat64()
}

// UpdateSentiment refreshes sentiment from the private, social and news
// signals and returns it.
func (a *Agent) UpdateSentiment(peers interfaces.Peers) float64 {
	a.sentiment = combineSentiment(a.w, a.PrivateSignal(), a.SocialSignal(peers), a.DrawNews())
	return a.sentiment
}

func combineSentiment(w Weights, private, social, news float64) float64 {
	raw := w.SentimentPrivate*private + w.SentimentSocial*social + w.SentimentNews*news
	if math.IsNaN(raw) {
		return 0
	}
	return math.Max(-1, math.Min(1, raw))
}

// growth is h[t]/h[t-lookback] - 1, or 0 without enough history or with a
// zero base.
func growth(h []float64, lookback int) float64 {
	if len(h) <= lookback {
		return 0
	}
	base := h[len(h)-1-lookback]
	if base == 0 {
		return 0
	}
	g := h[len(h)-1]/base - 1
	if math.IsNaN(g) {
		return 0
	}
	return g
}
