package export

import (
	"github.com/shopspring/decimal"
)

// ShortenAddress truncates an address or signature for display,
// keeping the first and last chars characters: "EPjF...Dt1v".
func ShortenAddress(address string, chars int) string {
	if address == "" {
		return ""
	}
	if len(address) <= chars*2 {
		return address
	}
	return address[:chars] + "..." + address[len(address)-chars:]
}

// PricePerToken derives the SOL price paid per token. Returns zero as a
// sentinel when no token amount is available to divide by.
func PricePerToken(solAmount, tokenAmount decimal.Decimal) decimal.Decimal {
	if tokenAmount.IsZero() {
		return decimal.Zero
	}
	return solAmount.DivRound(tokenAmount, 9)
}
