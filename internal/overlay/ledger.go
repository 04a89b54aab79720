package overlay

import (
	"time"

	"github.com/rxtech-lab/straddle-overlay/internal/types"
)

// Ledger owns the set of open positions from creation until settlement.
// A position leaves the open set the instant it settles and never re-opens.
type Ledger struct {
	open []types.Position
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		open: nil,
	}
}

// Add inserts a newly opened position into the open set. No capacity limit.
func (l *Ledger) Add(position types.Position) {
	l.open = append(l.open, position)
}

// OpenCount returns the number of currently open positions.
func (l *Ledger) OpenCount() int {
	return len(l.open)
}

// OpenPositions returns a copy of the open set. Order is not significant.
func (l *Ledger) OpenPositions() []types.Position {
	positions := make([]types.Position, len(l.open))
	copy(positions, l.open)

	return positions
}

// Advance settles every open position whose expiry has been reached against
// the given exit spot and retains the rest. Each settlement independently
// credits the account.
func (l *Ledger) Advance(timestamp time.Time, exitSpot float64, account *Account) []types.TradeRecord {
	var settled []types.TradeRecord

	active := l.open[:0]

	for _, position := range l.open {
		if position.ExpiryTime.After(timestamp) {
			active = append(active, position)
			continue
		}

		settled = append(settled, account.Settle(position, timestamp, exitSpot))
	}

	l.open = active

	return settled
}
