package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/brojonat/amendfinder/service/amendment"
	"github.com/brojonat/amendfinder/service/rippled"
	"github.com/urfave/cli/v2"
)

// ledgerOutput is the JSON rendering of a fetched ledger.
type ledgerOutput struct {
	LedgerIndex  int64                 `json:"ledger_index"`
	LedgerHash   string                `json:"ledger_hash,omitempty"`
	CloseTime    string                `json:"close_time,omitempty"`
	FlagLedger   bool                  `json:"flag_ledger"`
	Transactions []rippled.Transaction `json:"transactions"`
}

func ledgerCommand() *cli.Command {
	return &cli.Command{
		Name:      "ledger",
		Usage:     "Fetch one ledger and list its EnableAmendment transactions",
		ArgsUsage: "LEDGER_INDEX | --hash HASH",
		Description: `Fetch a single ledger by index (or by --hash) with expanded transactions.

By default only EnableAmendment pseudo-transactions are listed; use --all for every
transaction.

Example:
  amendfinder ledger 33895169
  amendfinder ledger --json --jq '.transactions[].Amendment' 33895169`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "hash",
				Usage: "Look the ledger up by hash instead of index",
			},
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "List every transaction, not only EnableAmendment",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "jq expression applied to the JSON output (implies --json)",
			},
		},
		Action: func(c *cli.Context) error {
			hash := c.String("hash")
			var index int64
			if hash != "" && c.NArg() > 0 {
				return fmt.Errorf("give either a ledger index or --hash, not both")
			}
			if hash == "" {
				if c.NArg() < 1 {
					return fmt.Errorf("ledger index or --hash is required")
				}
				var err error
				index, err = strconv.ParseInt(c.Args().Get(0), 10, 64)
				if err != nil || index < 1 {
					return fmt.Errorf("invalid ledger index %q", c.Args().Get(0))
				}
			}

			code, err := compileJQ(c.String("jq"))
			if err != nil {
				return err
			}

			d, err := newDeps(c)
			if err != nil {
				return err
			}
			defer d.close()

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var ledger *rippled.Ledger
			if hash != "" {
				ledger, err = d.client.FetchLedgerByHash(ctx, hash)
			} else {
				ledger, err = d.client.FetchLedger(ctx, rippled.LedgerIndex(index))
			}
			if err != nil {
				return fmt.Errorf("failed to fetch ledger: %w", err)
			}

			txns := ledger.Transactions
			if !c.Bool("all") {
				txns = amendmentTransactions(ledger)
			}

			out := ledgerOutput{
				LedgerIndex:  int64(ledger.Index),
				LedgerHash:   ledger.Hash,
				CloseTime:    ledger.CloseTimeHuman,
				FlagLedger:   isFlagLedger(ledger.Index),
				Transactions: txns,
			}

			if c.Bool("json") || code != nil {
				return writeJSON(c.App.Writer, out, code)
			}

			printLedger(c, out, len(ledger.Transactions))
			return nil
		},
	}
}

func alignCommand() *cli.Command {
	return &cli.Command{
		Name:      "align",
		Usage:     "Print the flag ledger at or below each index",
		ArgsUsage: "LEDGER_INDEX...",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("at least one ledger index is required")
			}
			for _, arg := range c.Args().Slice() {
				index, err := strconv.ParseInt(arg, 10, 64)
				if err != nil || index < 0 {
					return fmt.Errorf("invalid ledger index %q", arg)
				}
				fmt.Fprintf(c.App.Writer, "%d -> %d\n", index, amendment.AlignToFlagLedger(rippled.LedgerIndex(index)))
			}
			return nil
		},
	}
}

func amendmentTransactions(ledger *rippled.Ledger) []rippled.Transaction {
	txns := make([]rippled.Transaction, 0)
	for _, txn := range ledger.Transactions {
		if txn.TransactionType == rippled.TxTypeEnableAmendment {
			txns = append(txns, txn)
		}
	}
	return txns
}

func isFlagLedger(index rippled.LedgerIndex) bool {
	return index > 0 && amendment.AlignToFlagLedger(index) == index
}

func printLedger(c *cli.Context, out ledgerOutput, total int) {
	w := c.App.Writer
	fmt.Fprintf(w, "Ledger %d\n", out.LedgerIndex)
	if out.LedgerHash != "" {
		fmt.Fprintf(w, "  Hash:         %s\n", out.LedgerHash)
	}
	if out.CloseTime != "" {
		fmt.Fprintf(w, "  Closed:       %s\n", out.CloseTime)
	}
	fmt.Fprintf(w, "  Flag ledger:  %t\n", out.FlagLedger)
	fmt.Fprintf(w, "  Transactions: %d\n", total)

	if len(out.Transactions) == 0 {
		fmt.Fprintln(w, "\nNo matching transactions.")
		return
	}

	fmt.Fprintln(w)
	for _, txn := range out.Transactions {
		if txn.TransactionType == rippled.TxTypeEnableAmendment {
			fmt.Fprintf(w, "%s  %s  %-12s  %s\n",
				txn.Hash, txn.Amendment, amendment.FlagFromBits(txn.Flags), txn.TransactionType)
			continue
		}
		fmt.Fprintf(w, "%s  %s\n", txn.Hash, txn.TransactionType)
	}
}
