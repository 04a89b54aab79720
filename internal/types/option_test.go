package types

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
)

func TestOptionQuoteHasValidAsk(t *testing.T) {
	expiry := time.Date(2024, 1, 3, 16, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		quote OptionQuote
		want  bool
	}{
		{
			name: "positive ask",
			quote: OptionQuote{
				Strike:     100_000,
				Expiration: expiry,
				Claim:      ClaimTypeCall,
				BestAsk:    optional.Some(0.02),
			},
			want: true,
		},
		{
			name: "missing ask",
			quote: OptionQuote{
				Strike:     100_000,
				Expiration: expiry,
				Claim:      ClaimTypePut,
				BestAsk:    optional.None[float64](),
			},
			want: false,
		},
		{
			name: "zero ask",
			quote: OptionQuote{
				Strike:     100_000,
				Expiration: expiry,
				Claim:      ClaimTypeCall,
				BestAsk:    optional.Some(0.0),
			},
			want: false,
		},
		{
			name: "negative ask",
			quote: OptionQuote{
				Strike:     100_000,
				Expiration: expiry,
				Claim:      ClaimTypePut,
				BestAsk:    optional.Some(-0.01),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.quote.HasValidAsk())
		})
	}
}

func TestStraddleQuotePremiumPerUnit(t *testing.T) {
	quote := StraddleQuote{
		Strike:  100_000,
		Expiry:  time.Date(2024, 1, 3, 16, 0, 0, 0, time.UTC),
		CallAsk: 0.02,
		PutAsk:  0.03,
	}

	assert.InEpsilon(t, 0.05, quote.PremiumPerUnit(), 1e-12)
}
