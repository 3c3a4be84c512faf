package classify

import (
	"fmt"
	"time"

	"github.com/brojonat/swapledger/service/helius"
	"github.com/shopspring/decimal"
)

// lamportDecimals converts lamports to whole SOL via a decimal shift.
const lamportDecimals = 9

// DefaultConversionRate is the placeholder token->SOL rate used for
// TotalValue. It is a stand-in for a real price source; callers wanting
// a different rate inject one via NewClassifier.
var DefaultConversionRate = decimal.NewFromInt(1)

// ParseError reports a raw record that could not be classified because a
// numeric field was malformed. The batch processor recovers from these by
// skipping the record.
type ParseError struct {
	Signature string
	Field     string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("transaction %s: invalid %s: %v", e.Signature, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Classifier turns raw Helius transactions into classified trades.
// It is a pure function of its input: no network, no shared state, and
// classifying the same record twice yields identical output.
type Classifier struct {
	conversionRate decimal.Decimal
}

// NewClassifier creates a classifier with the given token->SOL conversion
// rate for TotalValue. Use DefaultConversionRate unless a real price
// source is available.
func NewClassifier(conversionRate decimal.Decimal) *Classifier {
	return &Classifier{conversionRate: conversionRate}
}

// Classify determines the trade direction and net amounts for the fee
// payer of a raw transaction.
//
// The SOL leg comes from the native transfers touching the fee payer with
// the network fee netted out. The token leg prefers the decimal-precise
// rawTokenAmount balance change and falls back to the face value of the
// first token transfer touching the fee payer. Direction precedence:
// balance-change sign, then transfer orientation, then net-SOL sign as a
// final tie-break. Missing structures degrade to zero/UNKNOWN rather than
// failing; the Trade's TokenSource and SOLResolved fields record how much
// of the classification actually resolved.
func (c *Classifier) Classify(raw *helius.RawTransaction) (*Trade, error) {
	trade := &Trade{
		Signature:   raw.Signature,
		FeePayer:    raw.FeePayer,
		Slot:        raw.Slot,
		Timestamp:   time.Unix(raw.Timestamp, 0).UTC(),
		Direction:   DirectionUnknown,
		SOLAmount:   decimal.Zero,
		TokenAmount: decimal.Zero,
		Fee:         decimal.New(raw.Fee, -lamportDecimals),
		TokenSource: TokenSourceNone,
	}

	feePayerAccount := findAccountData(raw.AccountData, raw.FeePayer)

	// SOL leg: net the native transfers against the fee. The fee is always
	// paid by the fee payer, so it is part of their balance change even
	// when no native transfer names them.
	if feePayerAccount != nil {
		trade.SOLResolved = true
		var inflow, outflow int64
		for _, nt := range raw.NativeTransfers {
			if nt.ToUserAccount == raw.FeePayer {
				inflow += nt.Amount
			}
			if nt.FromUserAccount == raw.FeePayer {
				outflow += nt.Amount
			}
		}
		trade.SOLAmount = decimal.New(inflow-outflow-raw.Fee, -lamportDecimals)
	}

	// Token leg: the signed rawTokenAmount balance change is authoritative
	// when present. Its direction is never overwritten by the fallback.
	var tokenSigned decimal.Decimal
	if change := findTokenBalanceChange(feePayerAccount, raw.FeePayer); change != nil {
		amount, err := decimal.NewFromString(change.RawTokenAmount.TokenAmount)
		if err != nil {
			return nil, &ParseError{
				Signature: raw.Signature,
				Field:     "rawTokenAmount.tokenAmount",
				Err:       err,
			}
		}
		tokenSigned = amount.Shift(-change.RawTokenAmount.Decimals)
		trade.TokenAmount = tokenSigned.Abs()
		trade.TokenSource = TokenSourceBalanceChange
		trade.TokenMint = change.Mint
		switch tokenSigned.Sign() {
		case 1:
			trade.Direction = DirectionBuy
		case -1:
			trade.Direction = DirectionSell
		}
	} else if transfer := findTokenTransfer(raw.TokenTransfers, raw.FeePayer); transfer != nil {
		trade.TokenAmount = transfer.TokenAmount.Abs()
		trade.TokenSource = TokenSourceTransfer
		trade.TokenMint = transfer.Mint
		if transfer.ToUserAccount == raw.FeePayer {
			trade.Direction = DirectionBuy
		} else if transfer.FromUserAccount == raw.FeePayer {
			trade.Direction = DirectionSell
		}
	}

	// The balance change carries no mint on some sources; backfill it from
	// the transfer list.
	if trade.TokenMint == "" && trade.TokenSource != TokenSourceNone {
		if transfer := findTokenTransfer(raw.TokenTransfers, raw.FeePayer); transfer != nil {
			trade.TokenMint = transfer.Mint
		}
	}

	// Tie-break on the net SOL sign: spending SOL against a token flow is
	// a buy, receiving SOL is a sell.
	if trade.Direction == DirectionUnknown && trade.TokenAmount.IsPositive() && trade.SOLResolved {
		switch trade.SOLAmount.Sign() {
		case -1:
			trade.Direction = DirectionBuy
		case 1:
			trade.Direction = DirectionSell
		}
	}

	trade.TotalValue = trade.SOLAmount.Add(trade.TokenAmount.Mul(c.conversionRate))

	return trade, nil
}

// findAccountData returns the account data entry for the given account,
// or nil if absent.
func findAccountData(accounts []helius.AccountData, account string) *helius.AccountData {
	for i := range accounts {
		if accounts[i].Account == account {
			return &accounts[i]
		}
	}
	return nil
}

// findTokenBalanceChange returns the first token balance change owned by
// the given user account, or nil.
func findTokenBalanceChange(account *helius.AccountData, userAccount string) *helius.TokenBalanceChange {
	if account == nil {
		return nil
	}
	for i := range account.TokenBalanceChanges {
		if account.TokenBalanceChanges[i].UserAccount == userAccount {
			return &account.TokenBalanceChanges[i]
		}
	}
	return nil
}

// findTokenTransfer returns the first token transfer with the given
// account as sender or receiver, or nil.
func findTokenTransfer(transfers []helius.TokenTransfer, account string) *helius.TokenTransfer {
	for i := range transfers {
		if transfers[i].ToUserAccount == account || transfers[i].FromUserAccount == account {
			return &transfers[i]
		}
	}
	return nil
}
