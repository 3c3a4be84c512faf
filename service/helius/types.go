package helius

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RawTransaction is an enhanced transaction as returned by the Helius API.
// The shape is untrusted: any of the nested collections may be empty or
// missing, and numeric token amounts arrive as decimal strings. Fields the
// classifier does not consume (Description, Type, Source, TransactionError)
// are carried so callers can inspect them.
type RawTransaction struct {
	Description      string           `json:"description"`
	Type             string           `json:"type"`
	Source           string           `json:"source"`
	Fee              int64            `json:"fee"`
	FeePayer         string           `json:"feePayer"`
	Signature        string           `json:"signature"`
	Slot             uint64           `json:"slot"`
	Timestamp        int64            `json:"timestamp"`
	TokenTransfers   []TokenTransfer  `json:"tokenTransfers"`
	NativeTransfers  []NativeTransfer `json:"nativeTransfers"`
	AccountData      []AccountData    `json:"accountData"`
	TransactionError json.RawMessage  `json:"transactionError,omitempty"`
}

// NativeTransfer is a movement of native SOL between accounts.
// Amount is in lamports.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"`
}

// TokenTransfer is a movement of an SPL token. TokenAmount is the
// face value as reported by the API, already decimal-adjusted.
type TokenTransfer struct {
	FromTokenAccount string          `json:"fromTokenAccount"`
	ToTokenAccount   string          `json:"toTokenAccount"`
	FromUserAccount  string          `json:"fromUserAccount"`
	ToUserAccount    string          `json:"toUserAccount"`
	Mint             string          `json:"mint"`
	TokenStandard    string          `json:"tokenStandard"`
	TokenAmount      decimal.Decimal `json:"tokenAmount"`
}

// AccountData is a per-account balance snapshot for one transaction.
type AccountData struct {
	Account             string               `json:"account"`
	NativeBalanceChange int64                `json:"nativeBalanceChange"`
	TokenBalanceChanges []TokenBalanceChange `json:"tokenBalanceChanges"`
}

// TokenBalanceChange is the decimal-precise token delta for one account.
// RawTokenAmount is preferred over face-value transfer amounts when present.
type TokenBalanceChange struct {
	UserAccount    string         `json:"userAccount"`
	TokenAccount   string         `json:"tokenAccount"`
	Mint           string         `json:"mint"`
	RawTokenAmount RawTokenAmount `json:"rawTokenAmount"`
}

// RawTokenAmount is an integer amount string plus the mint's decimals.
// TokenAmount is signed: negative means the account sent tokens.
type RawTokenAmount struct {
	TokenAmount string `json:"tokenAmount"`
	Decimals    int32  `json:"decimals"`
}
