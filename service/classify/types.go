package classify

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the classifier's verdict on the economic direction of a
// trade relative to the fee payer.
type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionUnknown Direction = "UNKNOWN"
)

// TokenSource records how the token amount was resolved, making partial
// classification explicit instead of silently reporting zeros.
type TokenSource string

const (
	// TokenSourceNone means no token movement attributable to the fee
	// payer was found; TokenAmount is zero and TokenMint is empty.
	TokenSourceNone TokenSource = "none"

	// TokenSourceBalanceChange means the decimal-precise rawTokenAmount
	// from the fee payer's account data was used.
	TokenSourceBalanceChange TokenSource = "balance_change"

	// TokenSourceTransfer means the face-value amount of a token
	// transfer was used as a fallback.
	TokenSourceTransfer TokenSource = "transfer"
)

// Trade is a classified transaction.
// SOLAmount is the signed net SOL movement for the fee payer with the fee
// netted out; TokenAmount is always non-negative. Both are in whole units.
type Trade struct {
	Signature   string          `json:"signature"`
	FeePayer    string          `json:"fee_payer"`
	Slot        uint64          `json:"slot"`
	Timestamp   time.Time       `json:"timestamp"`
	Direction   Direction       `json:"direction"`
	SOLAmount   decimal.Decimal `json:"sol_amount"`
	TokenAmount decimal.Decimal `json:"token_amount"`
	TokenMint   string          `json:"token_mint,omitempty"`
	Fee         decimal.Decimal `json:"fee"`
	TotalValue  decimal.Decimal `json:"total_value"`

	// Completeness flags. SOLResolved is false when the fee payer had no
	// account data entry, in which case SOLAmount is zero by default.
	TokenSource TokenSource `json:"token_source"`
	SOLResolved bool        `json:"sol_resolved"`
}

// Partial reports whether classification degraded around missing input
// structures rather than resolving both legs of the trade.
func (t *Trade) Partial() bool {
	return !t.SOLResolved || t.TokenSource == TokenSourceNone
}
