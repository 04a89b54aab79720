package types

import (
	"time"
)

// Position is an open straddle owned by the ledger from creation until
// settlement. Asks are the quoted per-unit premiums captured at entry.
type Position struct {
	ID         string    `yaml:"id" json:"id" csv:"id"`
	EntryTime  time.Time `yaml:"entry_time" json:"entry_time" csv:"entry_time" validate:"required"`
	ExpiryTime time.Time `yaml:"expiry_time" json:"expiry_time" csv:"expiry_time" validate:"required,gtfield=EntryTime"`
	Strike     float64   `yaml:"strike" json:"strike" csv:"strike" validate:"gt=0"`
	Size       float64   `yaml:"size" json:"size" csv:"size" validate:"gt=0"`
	EntrySpot  float64   `yaml:"entry_spot" json:"entry_spot" csv:"entry_spot" validate:"gt=0"`
	CallAsk    float64   `yaml:"call_ask" json:"call_ask" csv:"call_ask" validate:"gt=0"`
	PutAsk     float64   `yaml:"put_ask" json:"put_ask" csv:"put_ask" validate:"gt=0"`
}

// TradeRecord is the immutable settlement snapshot of a position.
// Records are append-only; a settled position never re-opens.
type TradeRecord struct {
	PositionID string    `yaml:"position_id" json:"position_id" csv:"position_id"`
	EntryTime  time.Time `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	ExitTime   time.Time `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	Strike     float64   `yaml:"strike" json:"strike" csv:"strike"`
	Size       float64   `yaml:"size" json:"size" csv:"size"`
	EntrySpot  float64   `yaml:"entry_spot" json:"entry_spot" csv:"entry_spot"`
	ExitSpot   float64   `yaml:"exit_spot" json:"exit_spot" csv:"exit_spot"`
	// PnL is the realized profit and loss for the whole lifetime of the
	// position: payoff received at expiry minus the premium paid at entry.
	PnL float64 `yaml:"pnl" json:"pnl" csv:"pnl"`
}
