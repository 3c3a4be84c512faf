package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/brojonat/swapledger/service/classify"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWriteCSV verifies the column set and fixed-point formatting.
func TestWriteCSV(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	trades := []*classify.Trade{
		{
			Signature:   "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tp",
			FeePayer:    "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			Slot:        12345,
			Timestamp:   ts,
			Direction:   classify.DirectionSell,
			SOLAmount:   decimal.RequireFromString("7.999995"),
			TokenAmount: decimal.RequireFromString("2.5"),
			TokenMint:   "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
			Fee:         decimal.RequireFromString("0.000005"),
		},
	}

	var buf bytes.Buffer
	err := WriteCSV(&buf, trades)
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{
		"Date", "Direction", "Token Amount", "SOL Amount",
		"Price (SOL/Token)", "Fee (SOL)", "Fee Payer", "Signature", "Slot",
	}, records[0])

	row := records[1]
	assert.Equal(t, ts.Local().Format("2006-01-02 15:04:05"), row[0])
	assert.Equal(t, "SELL", row[1])
	assert.Equal(t, "2.500000", row[2])
	assert.Equal(t, "7.999995000", row[3])
	assert.Equal(t, "3.199998000", row[4]) // 7.999995 / 2.5
	assert.Equal(t, "0.000005000", row[5])
	assert.Equal(t, "EPjF...Dt1v", row[6])
	assert.Equal(t, "5j7s...P4tp", row[7])
	assert.Equal(t, "12345", row[8])
}

// TestWriteCSV_ZeroTokenAmount verifies the price sentinel.
func TestWriteCSV_ZeroTokenAmount(t *testing.T) {
	trades := []*classify.Trade{
		{
			Signature:   "sig",
			Direction:   classify.DirectionUnknown,
			SOLAmount:   decimal.RequireFromString("1.5"),
			TokenAmount: decimal.Zero,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, trades))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "0.000000000", records[1][4])
}

// TestShortenAddress covers truncation edge cases.
func TestShortenAddress(t *testing.T) {
	assert.Equal(t, "", ShortenAddress("", 4))
	assert.Equal(t, "abcd", ShortenAddress("abcd", 4))
	assert.Equal(t, "abcdefgh", ShortenAddress("abcdefgh", 4))
	assert.Equal(t, "abcd...wxyz", ShortenAddress("abcdefgh-middle-stuvwxyz", 4))
}

// TestPricePerToken verifies the derived price and its zero sentinel.
func TestPricePerToken(t *testing.T) {
	price := PricePerToken(decimal.RequireFromString("2"), decimal.RequireFromString("4"))
	assert.True(t, price.Equal(decimal.RequireFromString("0.5")), "got %s", price)

	sentinel := PricePerToken(decimal.RequireFromString("2"), decimal.Zero)
	assert.True(t, sentinel.IsZero())
}
