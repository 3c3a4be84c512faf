package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/brojonat/swapledger/service/classify"
	"github.com/brojonat/swapledger/service/export"
	"github.com/brojonat/swapledger/service/helius"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/itchyny/gojq"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

func tradesCommands() *cli.Command {
	return &cli.Command{
		Name:  "trades",
		Usage: "Classify trades straight from the Helius API",
		Subcommands: []*cli.Command{
			tradesFetchCommand(),
			tradesExportCommand(),
		},
	}
}

func tradesFetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch and classify the recent trades for an address",
		ArgsUsage: "ADDRESS",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   100,
				Usage:   "Number of transactions to fetch (1-1000)",
			},
			&cli.StringFlag{
				Name:  "conversion-rate",
				Value: "1",
				Usage: "Token->SOL rate used for total values (placeholder, no price oracle)",
			},
			&cli.StringSliceFlag{
				Name:  "jq",
				Usage: "jq filter(s) applied to each trade; only trades where all filters are truthy are shown",
			},
		},
		Action: func(c *cli.Context) error {
			result, err := runPipeline(c)
			if err != nil {
				return err
			}

			trades, err := filterTrades(result.Trades, c.StringSlice("jq"))
			if err != nil {
				return err
			}

			if c.Bool("json") {
				out := struct {
					TotalSOL decimal.Decimal   `json:"total_sol"`
					Skipped  int               `json:"skipped"`
					Trades   []*classify.Trade `json:"trades"`
				}{result.TotalSOL, result.Skipped, trades}
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal trades: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			printTradesTable(trades, result.TotalSOL, result.Skipped)
			return nil
		},
	}
}

func tradesExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Fetch, classify, and write the trades for an address as CSV",
		ArgsUsage: "ADDRESS",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   100,
				Usage:   "Number of transactions to fetch (1-1000)",
			},
			&cli.StringFlag{
				Name:  "conversion-rate",
				Value: "1",
				Usage: "Token->SOL rate used for total values (placeholder, no price oracle)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (default: stdout)",
			},
		},
		Action: func(c *cli.Context) error {
			result, err := runPipeline(c)
			if err != nil {
				return err
			}

			out := os.Stdout
			if path := c.String("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			if err := export.WriteCSV(out, result.Trades); err != nil {
				return fmt.Errorf("failed to write CSV: %w", err)
			}
			if out != os.Stdout {
				fmt.Fprintf(os.Stderr, "Wrote %d trades (%d skipped) to %s\n",
					len(result.Trades), result.Skipped, c.String("output"))
			}
			return nil
		},
	}
}

// runPipeline validates the arguments and runs fetch + classify for the
// address named on the command line.
func runPipeline(c *cli.Context) (*classify.BatchResult, error) {
	address := c.Args().First()
	if address == "" {
		return nil, fmt.Errorf("ADDRESS argument is required")
	}
	if _, err := solanago.PublicKeyFromBase58(address); err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}

	limit := c.Int("limit")
	if limit < helius.MinLimit || limit > helius.MaxLimit {
		return nil, fmt.Errorf("limit must be between %d and %d", helius.MinLimit, helius.MaxLimit)
	}

	apiKey := c.String("helius-api-key")
	if apiKey == "" {
		return nil, fmt.Errorf("helius API key is required (--helius-api-key or HELIUS_API_KEY)")
	}

	rate, err := decimal.NewFromString(c.String("conversion-rate"))
	if err != nil {
		return nil, fmt.Errorf("invalid conversion rate: %w", err)
	}

	logger := newLogger(c)
	hc := helius.NewClient(c.String("helius-base-url"), apiKey, nil, nil, logger)

	raws, err := hc.GetTransactions(c.Context, helius.GetTransactionsParams{
		Address: address,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	var progress classify.ProgressFunc
	if !c.Bool("json") {
		progress = func(processed, total int) {
			fmt.Fprintf(os.Stderr, "\rProcessed %d of %d transactions", processed, total)
			if processed == total {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	processor := classify.NewProcessor(classify.NewClassifier(rate), nil, logger, progress)
	return processor.Process(c.Context, raws)
}

// filterTrades applies the --jq filters, keeping trades for which every
// filter yields a truthy value.
func filterTrades(trades []*classify.Trade, filters []string) ([]*classify.Trade, error) {
	if len(filters) == 0 {
		return trades, nil
	}

	compiled := make([]*gojq.Code, len(filters))
	for i, filter := range filters {
		query, err := gojq.Parse(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
		}
		compiled[i], err = gojq.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
		}
	}

	var kept []*classify.Trade
	for _, trade := range trades {
		// Round-trip through JSON so gojq sees plain maps
		data, err := json.Marshal(trade)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal trade %s: %w", trade.Signature, err)
		}
		var doc interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trade %s: %w", trade.Signature, err)
		}

		matched := true
		for _, code := range compiled {
			iter := code.Run(doc)
			v, ok := iter.Next()
			if !ok {
				matched = false
				break
			}
			if _, isErr := v.(error); isErr || !isTruthy(v) {
				matched = false
				break
			}
		}
		if matched {
			kept = append(kept, trade)
		}
	}
	return kept, nil
}

// isTruthy checks if a jq result value is truthy.
// In jq, false and null are falsy, everything else is truthy.
func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

// printTradesTable renders trades in a human-readable table.
func printTradesTable(trades []*classify.Trade, totalSOL decimal.Decimal, skipped int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDIRECTION\tTOKEN AMOUNT\tSOL AMOUNT\tMINT\tSIGNATURE")
	for _, t := range trades {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Timestamp.Local().Format("2006-01-02 15:04:05"),
			t.Direction,
			t.TokenAmount.StringFixed(6),
			t.SOLAmount.StringFixed(9),
			export.ShortenAddress(t.TokenMint, 4),
			export.ShortenAddress(t.Signature, 4),
		)
	}
	w.Flush()
	fmt.Printf("\n%d trades, %d skipped, total SOL: %s\n", len(trades), skipped, totalSOL.StringFixed(9))
}
