package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type ClaimType string

const (
	ClaimTypeCall ClaimType = "call"
	ClaimTypePut  ClaimType = "put"
)

// OptionQuote is a single row of the option chain at one bar timestamp.
// BestAsk is None when the data file carries no quote for the leg.
type OptionQuote struct {
	Strike     float64                  `yaml:"strike" json:"strike" csv:"strike"`
	Expiration time.Time                `yaml:"expiration_date" json:"expiration_date" csv:"expiration_date"`
	Claim      ClaimType                `yaml:"claim_type" json:"claim_type" csv:"claim_type"`
	BestAsk    optional.Option[float64] `yaml:"best_ask_price" json:"best_ask_price" csv:"best_ask_price"`
}

// HasValidAsk reports whether the quote carries a present, strictly positive ask.
func (q OptionQuote) HasValidAsk() bool {
	return q.BestAsk.IsSome() && q.BestAsk.Unwrap() > 0
}

// StraddleQuote is a fully quoted call+put pair at one strike and expiry,
// as returned by contract selection. Asks are quoted as a fraction of the
// underlying price.
type StraddleQuote struct {
	Strike  float64   `yaml:"strike" json:"strike"`
	Expiry  time.Time `yaml:"expiry" json:"expiry"`
	CallAsk float64   `yaml:"call_ask" json:"call_ask"`
	PutAsk  float64   `yaml:"put_ask" json:"put_ask"`
}

// PremiumPerUnit returns the combined per-unit premium of both legs,
// still denominated as a fraction of the underlying.
func (s StraddleQuote) PremiumPerUnit() float64 {
	return s.CallAsk + s.PutAsk
}
