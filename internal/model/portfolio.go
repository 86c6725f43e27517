package model

import (
	"errors"
	"math"
	"sort"
)

// Epsilon is the share/delta threshold below which amounts are treated as zero.
const Epsilon = 1e-12

// RebalanceCosts is the per-run cost schedule.
// FeeBps and SlippageBps are basis points of gross trade value; FeeFixed is $ per fill.
type RebalanceCosts struct {
	FeeBps      float64
	FeeFixed    float64
	SlippageBps float64
}

func (c RebalanceCosts) Validate() error {
	if c.FeeBps < 0 {
		return ConfigErrorf("fee_bps must be >= 0")
	}
	if c.FeeFixed < 0 {
		return ConfigErrorf("fee_fixed must be >= 0")
	}
	if c.SlippageBps < 0 {
		return ConfigErrorf("slippage_bps must be >= 0")
	}
	return nil
}

// TradeFill is one executed share delta from a rebalance.
type TradeFill struct {
	Symbol        string
	Side          Side
	Shares        float64 // always positive
	Price         float64
	GrossValue    float64
	SlippageCost  float64
	FeeCost       float64
	NetCashImpact float64 // negative for buys, positive for sells
}

// TotalCost is slippage plus fees.
func (f TradeFill) TotalCost() float64 { return f.SlippageCost + f.FeeCost }

// Portfolio owns the cash and holdings of one strategy. It is mutated only
// through Contribute, ApplyDividends, WriteOff and RebalanceToWeights.
type Portfolio struct {
	Cash     float64
	Holdings map[string]float64

	CumulativeContributions float64
	CumulativeCosts         float64
	CumulativeDividends     float64
}

func NewPortfolio(initialCash float64) *Portfolio {
	return &Portfolio{Cash: initialCash, Holdings: make(map[string]float64)}
}

// Contribute adds fresh cash.
func (p *Portfolio) Contribute(amount float64) error {
	if amount < 0 {
		return errors.New("contribution amount must be >= 0")
	}
	p.Cash += amount
	p.CumulativeContributions += amount
	return nil
}

// ApplyDividends credits shares*dividend for every long holding with a positive
// dividend and returns the total credited.
func (p *Portfolio) ApplyDividends(perShare map[string]float64) float64 {
	total := 0.0
	for _, sym := range sortedKeys(p.Holdings) {
		shares := p.Holdings[sym]
		div := perShare[sym]
		if shares <= 0 || div <= 0 {
			continue
		}
		total += shares * div
	}
	if total > 0 {
		p.Cash += total
		p.CumulativeDividends += total
	}
	return total
}

// WriteOff drops every holding that has no price in prices and returns the
// removed symbols in ascending order.
func (p *Portfolio) WriteOff(prices map[string]float64) []string {
	var removed []string
	for _, sym := range sortedKeys(p.Holdings) {
		if _, ok := prices[sym]; !ok {
			delete(p.Holdings, sym)
			removed = append(removed, sym)
		}
	}
	return removed
}

// TotalMarketValue values holdings at prices. Unpriced holdings count as zero.
func (p *Portfolio) TotalMarketValue(prices map[string]float64) float64 {
	total := 0.0
	for _, sym := range sortedKeys(p.Holdings) {
		price, ok := prices[sym]
		if !ok {
			continue
		}
		total += p.Holdings[sym] * price
	}
	return total
}

func (p *Portfolio) TotalEquity(prices map[string]float64) float64 {
	return p.Cash + p.TotalMarketValue(prices)
}

// NormalizeWeights drops non-positive weights and rescales the rest to sum to 1.
// The result is empty when nothing is positive.
func NormalizeWeights(weights map[string]float64) map[string]float64 {
	keys := sortedKeys(weights)
	sum := 0.0
	for _, s := range keys {
		if w := weights[s]; w > 0 {
			sum += w
		}
	}
	out := make(map[string]float64)
	if sum <= 0 {
		return out
	}
	for _, s := range keys {
		if w := weights[s]; w > 0 {
			out[s] = w / sum
		}
	}
	return out
}

type pendingTrade struct {
	symbol string
	price  float64
	delta  float64
}

// RebalanceToWeights trades toward targetWeights at prices and returns the
// fills that actually executed, sells first.
//
// When volumes is non-nil each delta is capped at volume*maxParticipation and
// symbols with zero or missing volume are not traded.
func (p *Portfolio) RebalanceToWeights(
	targetWeights map[string]float64,
	prices map[string]float64,
	costs RebalanceCosts,
	volumes map[string]float64,
	maxParticipation float64,
) []TradeFill {
	targets := NormalizeWeights(targetWeights)
	equity := p.TotalEquity(prices)

	universe := make(map[string]struct{}, len(targets)+len(p.Holdings))
	for s := range p.Holdings {
		universe[s] = struct{}{}
	}
	for s := range targets {
		universe[s] = struct{}{}
	}

	var sells, buys []pendingTrade
	for _, sym := range sortedKeys(universe) {
		price := prices[sym]
		if price <= 0 {
			continue
		}
		targetValue := targets[sym] * equity
		currentValue := p.Holdings[sym] * price
		delta := (targetValue - currentValue) / price
		if math.Abs(delta) < Epsilon {
			continue
		}
		t := pendingTrade{symbol: sym, price: price, delta: delta}
		if delta < 0 {
			sells = append(sells, t)
		} else {
			buys = append(buys, t)
		}
	}

	fills := make([]TradeFill, 0, len(sells)+len(buys))
	for _, t := range append(sells, buys...) {
		delta := t.delta

		if volumes != nil {
			vol := volumes[t.symbol]
			if vol <= 0 {
				continue
			}
			limit := vol * maxParticipation
			if math.Abs(delta) > limit {
				delta = math.Copysign(limit, delta)
			}
		}

		if delta < 0 {
			held := p.Holdings[t.symbol]
			if held <= 0 {
				continue
			}
			if -delta > held {
				delta = -held
			}
		} else {
			if p.Cash <= costs.FeeFixed {
				continue
			}
			unitCost := t.price * (1 + (costs.FeeBps+costs.SlippageBps)/10000)
			maxAffordable := (p.Cash - costs.FeeFixed) / unitCost
			if delta > maxAffordable {
				delta = maxAffordable
			}
		}
		if math.Abs(delta) < Epsilon {
			continue
		}

		fill := p.execute(t.symbol, t.price, delta, costs)
		fills = append(fills, fill)
	}
	return fills
}

func (p *Portfolio) execute(symbol string, price, delta float64, costs RebalanceCosts) TradeFill {
	shares := math.Abs(delta)
	gross := shares * price
	slippage := gross * costs.SlippageBps / 10000
	fee := gross*costs.FeeBps/10000 + costs.FeeFixed
	total := slippage + fee

	var impact float64
	if delta > 0 {
		impact = -(gross + total)
	} else {
		impact = gross - total
	}

	p.Cash += impact
	p.CumulativeCosts += total

	next := p.Holdings[symbol] + delta
	if math.Abs(next) < Epsilon {
		delete(p.Holdings, symbol)
	} else {
		p.Holdings[symbol] = next
	}

	return TradeFill{
		Symbol:        symbol,
		Side:          SideFromShares(delta),
		Shares:        shares,
		Price:         price,
		GrossValue:    gross,
		SlippageCost:  slippage,
		FeeCost:       fee,
		NetCashImpact: impact,
	}
}

// Clone returns a deep copy.
func (p *Portfolio) Clone() *Portfolio {
	c := *p
	c.Holdings = make(map[string]float64, len(p.Holdings))
	for s, v := range p.Holdings {
		c.Holdings[s] = v
	}
	return &c
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
