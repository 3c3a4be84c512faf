package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/brojonat/swapledger/client"
	"github.com/urfave/cli/v2"
)

func clientCommands() *cli.Command {
	return &cli.Command{
		Name:  "client",
		Usage: "Query a running swapledger server",
		Subcommands: []*cli.Command{
			clientTradesCommand(),
			clientExportCommand(),
		},
	}
}

func clientTradesCommand() *cli.Command {
	return &cli.Command{
		Name:      "trades",
		Usage:     "Fetch classified trades from the server",
		ArgsUsage: "ADDRESS",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of transactions to fetch (0 = server default)",
			},
		},
		Action: func(c *cli.Context) error {
			address := c.Args().First()
			if address == "" {
				return fmt.Errorf("ADDRESS argument is required")
			}

			cl := client.NewClient(c.String("server-url"), nil, newLogger(c))
			resp, err := cl.GetTrades(c.Context, address, c.Int("limit"))
			if err != nil {
				return fmt.Errorf("failed to get trades: %w", err)
			}

			data, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal response: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func clientExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Download the CSV export from the server",
		ArgsUsage: "ADDRESS",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of transactions to fetch (0 = server default)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (default: stdout)",
			},
		},
		Action: func(c *cli.Context) error {
			address := c.Args().First()
			if address == "" {
				return fmt.Errorf("ADDRESS argument is required")
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

			cl := client.NewClient(c.String("server-url"), nil, newLogger(c))
			if err := cl.ExportCSV(c.Context, address, c.Int("limit"), out); err != nil {
				return fmt.Errorf("failed to export trades: %w", err)
			}
			return nil
		},
	}
}
