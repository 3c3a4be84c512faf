// Package export renders classified trades as spreadsheet rows.
// This is a presentation surface only; all amounts arrive already
// classified and decimal-adjusted.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/brojonat/swapledger/service/classify"
)

// Column headers for the trade export, in output order.
var csvHeader = []string{
	"Date",
	"Direction",
	"Token Amount",
	"SOL Amount",
	"Price (SOL/Token)",
	"Fee (SOL)",
	"Fee Payer",
	"Signature",
	"Slot",
}

// WriteCSV writes the trades to w as CSV with a header row.
// Timestamps are rendered in local time; token amounts use 6 decimal
// places, SOL amounts and prices 9.
func WriteCSV(w io.Writer, trades []*classify.Trade) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, t := range trades {
		row := []string{
			t.Timestamp.Local().Format("2006-01-02 15:04:05"),
			string(t.Direction),
			t.TokenAmount.StringFixed(6),
			t.SOLAmount.StringFixed(9),
			PricePerToken(t.SOLAmount, t.TokenAmount).StringFixed(9),
			t.Fee.StringFixed(9),
			ShortenAddress(t.FeePayer, 4),
			ShortenAddress(t.Signature, 4),
			strconv.FormatUint(t.Slot, 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", t.Signature, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
