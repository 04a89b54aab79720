package overlay

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/straddle-overlay/internal/types"
	"github.com/rxtech-lab/straddle-overlay/pkg/errors"
	"github.com/shopspring/decimal"
)

// Account owns the running cash balance. Entry debits and settlement credits
// are the only two mutations; no other writer exists.
type Account struct {
	cash decimal.Decimal
}

// NewAccount creates an account funded with the initial capital.
func NewAccount(initialCapital float64) *Account {
	return &Account{
		cash: decimal.NewFromFloat(initialCapital),
	}
}

// Cash returns the current cash balance.
func (a *Account) Cash() float64 {
	cash, _ := a.cash.Float64()

	return cash
}

// Equity is the account value used for sizing. Open option positions are not
// marked to market, so equity reads as current cash.
func (a *Account) Equity() float64 {
	return a.Cash()
}

// OpenPosition sizes a straddle as portion-of-equity over the per-unit
// notional cost and debits the full premium from cash. The selector has
// already excluded non-positive asks; a non-positive cost per unit here is an
// invariant violation and panics.
func (a *Account) OpenPosition(timestamp time.Time, spot float64, portion float64, quote types.StraddleQuote) types.Position {
	costPerUnit := quote.PremiumPerUnit() * spot
	if costPerUnit <= 0 {
		panic(errors.Newf(errors.ErrCodeDegenerateSizing, "cost per unit notional is not positive: %f", costPerUnit))
	}

	size := a.Equity() * portion / costPerUnit

	totalCost := decimal.NewFromFloat(size).Mul(decimal.NewFromFloat(costPerUnit))
	a.cash = a.cash.Sub(totalCost)

	return types.Position{
		ID:         uuid.New().String(),
		EntryTime:  timestamp,
		ExpiryTime: quote.Expiry,
		Strike:     quote.Strike,
		Size:       size,
		EntrySpot:  spot,
		CallAsk:    quote.CallAsk,
		PutAsk:     quote.PutAsk,
	}
}

// Settle realizes a position against the spot observed at expiry. Cash is
// credited with pnl plus the entry cost, the second half of the two-step
// update started by OpenPosition; across the position's lifetime the net cash
// change is payoff minus premium paid.
func (a *Account) Settle(position types.Position, exitTime time.Time, exitSpot float64) types.TradeRecord {
	callPayoff := math.Max(0, exitSpot-position.Strike)
	putPayoff := math.Max(0, position.Strike-exitSpot)

	size := decimal.NewFromFloat(position.Size)
	entryCost := decimal.NewFromFloat(position.CallAsk + position.PutAsk).
		Mul(decimal.NewFromFloat(position.EntrySpot)).
		Mul(size)
	payoff := decimal.NewFromFloat(callPayoff + putPayoff).Mul(size)
	pnl := payoff.Sub(entryCost)

	a.cash = a.cash.Add(pnl).Add(entryCost)

	realizedPnL, _ := pnl.Float64()

	return types.TradeRecord{
		PositionID: position.ID,
		EntryTime:  position.EntryTime,
		ExitTime:   exitTime,
		Strike:     position.Strike,
		Size:       position.Size,
		EntrySpot:  position.EntrySpot,
		ExitSpot:   exitSpot,
		PnL:        realizedPnL,
	}
}
