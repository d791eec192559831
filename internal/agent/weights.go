package agent

import (
	"errors"
	"fmt"
)

// DefaultMaxNeighbors is the neighbor sample size used when none is configured.
const DefaultMaxNeighbors = 3

// Weights are the behavioral hyperparameters of the decision model.
type Weights struct {
	// desired risk
	RiskSpeculation    float64 `yaml:"risk_speculation"`
	RiskNoise          float64 `yaml:"risk_noise"`
	RiskFundamentalist float64 `yaml:"risk_fundamentalist"`

	// sentiment mix
	SentimentPrivate float64 `yaml:"sentiment_private"`
	SentimentSocial  float64 `yaml:"sentiment_social"`
	SentimentNews    float64 `yaml:"sentiment_news"`
	// SignalLookback is the net-worth lag, in entries, of the private signal.
	SignalLookback int `yaml:"signal_lookback"`

	// price expectation
	ExpectationLiteracy    float64 `yaml:"expectation_literacy"`
	ExpectationSpeculation float64 `yaml:"expectation_speculation"`
	ExpectationScale       float64 `yaml:"expectation_scale"`

	// batch decision path
	BatchInflationGate float64 `yaml:"batch_inflation_gate"`
	BatchBuyThreshold  float64 `yaml:"batch_buy_threshold"`
	BatchLimitMean     float64 `yaml:"batch_limit_mean"`
	BatchLimitStd      float64 `yaml:"batch_limit_std"`

	// observation window bounds, inclusive
	MinWindow int `yaml:"min_window"`
	MaxWindow int `yaml:"max_window"`
}

func DefaultWeights() Weights {
	return Weights{
		RiskSpeculation:        0.2,
		RiskNoise:              0.1,
		RiskFundamentalist:     0.1,
		SentimentPrivate:       0.5,
		SentimentSocial:        0.3,
		SentimentNews:          0.2,
		SignalLookback:         22,
		ExpectationLiteracy:    0.1,
		ExpectationSpeculation: 0.15,
		ExpectationScale:       10,
		BatchInflationGate:     0.03,
		BatchBuyThreshold:      0.5,
		BatchLimitMean:         0.8,
		BatchLimitStd:          0.2,
		MinWindow:              22,
		MaxWindow:              252,
	}
}

func (w Weights) Validate() error {
	if w.ExpectationScale == 0 {
		return errors.New("expectation_scale must be non-zero")
	}
	if w.SignalLookback < 1 {
		return fmt.Errorf("signal_lookback must be >= 1, got %d", w.SignalLookback)
	}
	if w.MinWindow < 2 || w.MaxWindow < w.MinWindow {
		return fmt.Errorf("observation window bounds [%d, %d] are invalid", w.MinWindow, w.MaxWindow)
	}
	if w.BatchLimitStd < 0 {
		return fmt.Errorf("batch_limit_std must be >= 0, got %.4f", w.BatchLimitStd)
	}
	return nil
}
