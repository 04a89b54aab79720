package overlay

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/straddle-overlay/internal/types"
)

// SelectStraddle picks the straddle to open at the given bar: the nearest
// strictly future expiry, then the strike closest to spot at that expiry,
// requiring both a call and a put leg with present, strictly positive asks.
// Quotes must already be restricted to the exact bar timestamp; any failed
// step returns None and the entry attempt is abandoned.
func SelectStraddle(timestamp time.Time, spot float64, quotes []types.OptionQuote) optional.Option[types.StraddleQuote] {
	if len(quotes) == 0 {
		return optional.None[types.StraddleQuote]()
	}

	// Nearest-dated future expiry only, never a farther one.
	var targetExpiry time.Time

	for _, quote := range quotes {
		if !quote.Expiration.After(timestamp) {
			continue
		}

		if targetExpiry.IsZero() || quote.Expiration.Before(targetExpiry) {
			targetExpiry = quote.Expiration
		}
	}

	if targetExpiry.IsZero() {
		return optional.None[types.StraddleQuote]()
	}

	// Nearest-the-money strike at the target expiry. Strict less-than keeps
	// the first-encountered strike on a distance tie.
	targetStrike := math.NaN()
	bestDistance := math.Inf(1)

	for _, quote := range quotes {
		if !quote.Expiration.Equal(targetExpiry) {
			continue
		}

		distance := math.Abs(quote.Strike - spot)
		if distance < bestDistance {
			bestDistance = distance
			targetStrike = quote.Strike
		}
	}

	if math.IsNaN(targetStrike) {
		return optional.None[types.StraddleQuote]()
	}

	// Locate one call and one put leg at the target strike. No partial
	// straddles: a missing leg abandons the attempt.
	var callLeg, putLeg optional.Option[types.OptionQuote]

	for _, quote := range quotes {
		if !quote.Expiration.Equal(targetExpiry) || quote.Strike != targetStrike {
			continue
		}

		switch quote.Claim {
		case types.ClaimTypeCall:
			if callLeg.IsNone() {
				callLeg = optional.Some(quote)
			}
		case types.ClaimTypePut:
			if putLeg.IsNone() {
				putLeg = optional.Some(quote)
			}
		}
	}

	if callLeg.IsNone() || putLeg.IsNone() {
		return optional.None[types.StraddleQuote]()
	}

	call := callLeg.Unwrap()
	put := putLeg.Unwrap()

	if !call.HasValidAsk() || !put.HasValidAsk() {
		return optional.None[types.StraddleQuote]()
	}

	return optional.Some(types.StraddleQuote{
		Strike:  targetStrike,
		Expiry:  targetExpiry,
		CallAsk: call.BestAsk.Unwrap(),
		PutAsk:  put.BestAsk.Unwrap(),
	})
}
