// Package sim drives a population of agents through discrete ticks.
package sim

import (
	"context"
	"errors"
	"fmt"

	"agentsim/internal/agent"
	"agentsim/internal/agent/agentobs"
	"agentsim/internal/book"
	"agentsim/internal/interfaces"
	"agentsim/internal/logger"
	"agentsim/internal/market"
	"agentsim/internal/metrics"
	"agentsim/internal/population"
	"agentsim/internal/randsrc"
	"agentsim/internal/store"
	"agentsim/internal/types"
)

type Simulation struct {
	cfg     *store.Config
	rng     randsrc.Source
	market  *market.Market
	book    *book.Book
	pop     *population.Population
	metrics *metrics.Metrics
}

var _ interfaces.Simulator = (*Simulation)(nil)

// New builds the market, the book and the population from cfg. Every agent
// gets its own random stream derived from cfg.Seed so runs are reproducible.
// m may be nil.
func New(cfg *store.Config, m *metrics.Metrics) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	mkt, err := market.New(cfg.Instruments, cfg.Funds, cfg.Inflation.DaysPerMonth)
	if err != nil {
		return nil, fmt.Errorf("build market: %w", err)
	}

	rng := randsrc.New(cfg.Seed)
	pop := population.New()
	for i, p := range cfg.AgentParams(rng) {
		a, err := agent.New(p, randsrc.New(cfg.Seed+uint64(i)+1), cfg.Weights)
		if err != nil {
			return nil, err
		}
		if err := pop.Add(agentobs.Wrap(a, m)); err != nil {
			return nil, err
		}
	}

	s := &Simulation{
		cfg:     cfg,
		rng:     rng,
		market:  mkt,
		book:    book.New(),
		pop:     pop,
		metrics: m,
	}

	// seed the net-worth history so the first tick has a baseline
	prices, funds := mkt.Prices(), mkt.Funds()
	for _, t := range pop.Traders() {
		t.UpdateNetWorth(prices, funds)
	}
	return s, nil
}

func (s *Simulation) Market() *market.Market             { return s.market }
func (s *Simulation) Book() *book.Book                   { return s.book }
func (s *Simulation) Population() *population.Population { return s.pop }

// Step runs one tick. Every agent decides against the same snapshot of
// peer net worth taken before anyone acts, so decision order inside a tick
// does not matter.
func (s *Simulation) Step(ctx context.Context, tick int) (*types.TickResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.book.Reset(tick)

	monthly := randsrc.Normal(s.rng, s.cfg.Inflation.Mean, s.cfg.Inflation.StdDev)
	s.market.ApplyInflation(ctx, monthly)

	if (tick-1)%s.cfg.Neighbors.RefreshEvery == 0 {
		s.pop.RefreshNeighbors(s.cfg.Neighbors.Max)
		logger.Debug(ctx, "Neighbors refreshed", "tick", tick)
	}

	snap := s.pop.Snapshot()
	quotes := s.quotes()
	res := &types.TickResult{Tick: tick, Inflation: monthly}

	for _, t := range s.pop.Traders() {
		var err error
		if s.cfg.DecisionPath == store.PathBatch {
			err = s.decideBatch(ctx, t, res)
		} else {
			err = s.decideSingle(ctx, t, snap, quotes, res)
		}
		if err != nil {
			return nil, err
		}
	}

	s.market.Advance(s.rng)

	prices, funds := s.market.Prices(), s.market.Funds()
	for _, t := range s.pop.Traders() {
		t.UpdateNetWorth(prices, funds)
	}

	if every := s.cfg.Dividends.Every; every > 0 && tick%every == 0 {
		paid := s.market.PayDividends(ctx, s.pop.Traders())
		logger.Info(ctx, "Dividends paid", "tick", tick, "total", paid)
	}

	sum := s.book.Summary()
	res.Prices = prices
	res.Buys = sum.Buys
	res.Sells = sum.Sells
	res.BuyNotional = sum.BuyNotional.StringFixed(2)
	res.SellNotional = sum.SellNotional.StringFixed(2)
	res.MeanSentiment = s.pop.MeanSentiment()
	res.MarketValue = s.pop.MarketValue(prices, funds)
	res.TotalNetWorth = s.pop.TotalNetWorth()

	s.metrics.RecordTick(res)
	return res, nil
}

type quote struct {
	name    string
	price   float64
	history []float64
}

// quotes lists every instrument followed by every fund.
func (s *Simulation) quotes() []quote {
	names := s.market.Instruments()
	fundNames := s.market.FundNames()
	out := make([]quote, 0, len(names)+len(fundNames))
	for _, name := range names {
		p, _ := s.market.Price(name)
		out = append(out, quote{name, p, s.market.History(name)})
	}
	funds := s.market.Funds()
	for _, name := range fundNames {
		out = append(out, quote{name, funds[name].UnitPrice, s.market.FundHistory(name)})
	}
	return out
}

// decideSingle asks t for one order per quote.
func (s *Simulation) decideSingle(ctx context.Context, t interfaces.Trader, peers interfaces.Peers, quotes []quote, res *types.TickResult) error {
	for _, q := range quotes {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.UpdatePerceivedVolatility(q.history)
		o := t.GenerateOrder(ctx, peers, q.name, q.price)
		if err := s.book.Submit(ctx, o); err != nil {
			if !errors.Is(err, book.ErrInvalidOrder) {
				return err
			}
			res.Rejected++
			s.metrics.RecordRejected()
			continue
		}
		res.Submitted++
	}
	return nil
}

func (s *Simulation) decideBatch(ctx context.Context, t interfaces.Trader, res *types.TickResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sum, err := t.Decide(ctx, s.market, s.book)
	res.Submitted += sum.Submitted
	res.Rejected += sum.Rejected
	res.Skipped += sum.Skipped
	if err != nil && !errors.Is(err, book.ErrInvalidOrder) {
		return err
	}
	return nil
}

// Run steps through ticks 1..ticks and hands every result to fn. It stops
// at the first error from Step or fn.
func Run(ctx context.Context, s interfaces.Simulator, ticks int, fn func(*types.TickResult) error) error {
	for tick := 1; tick <= ticks; tick++ {
		res, err := s.Step(ctx, tick)
		if err != nil {
			return fmt.Errorf("tick %d: %w", tick, err)
		}
		if fn != nil {
			if err := fn(res); err != nil {
				return err
			}
		}
	}
	return nil
}
