package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/brojonat/amendfinder/service/amendment"
	natspkg "github.com/brojonat/amendfinder/service/nats"
	"github.com/brojonat/amendfinder/service/rippled"
	"github.com/urfave/cli/v2"
)

// searchOutput is the JSON rendering of a search result.
type searchOutput struct {
	AmendmentID string  `json:"amendment_id"`
	Flag        string  `json:"flag"`
	StartLedger int64   `json:"start_ledger"`
	Anchor      int64   `json:"anchor"`
	Outcome     string  `json:"outcome"`
	LedgerIndex int64   `json:"ledger_index,omitempty"`
	TxHash      string  `json:"tx_hash,omitempty"`
	Flags       *uint32 `json:"flags,omitempty"`
	Fetches     int     `json:"fetches"`
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"find"},
		Usage:     "Find the flag ledger holding an amendment's EnableAmendment transaction",
		ArgsUsage: "AMENDMENT_ID START_LEDGER",
		Description: `Search flag ledgers outward from START_LEDGER for the EnableAmendment
pseudo-transaction of AMENDMENT_ID with the requested status flag.

START_LEDGER only needs to be approximate. The search stops at the first match, or
when rippled reports no ledger in both directions.

Exit status is 0 when found, 2 when the available history was exhausted, 1 on errors.

Example:
  amendfinder search --flag GotMajority CC5ABAE4F3EC92E94A59B1908C2BE82D2228B6485C00AFF8F22DF930D89C194E 33895200`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "flag",
				Aliases: []string{"f"},
				Value:   "Any",
				Usage:   "Status change to look for: " + strings.Join(amendment.FlagNames, ", "),
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "jq expression applied to the JSON result (implies --json)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return fmt.Errorf("amendment id and start ledger are required")
			}

			flag, err := amendment.ParseFlag(c.String("flag"))
			if err != nil {
				return err
			}

			start, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid start ledger %q: %w", c.Args().Get(1), err)
			}

			target, err := amendment.NewTarget(c.Args().Get(0), flag, rippled.LedgerIndex(start))
			if err != nil {
				return err
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

			var publisher natspkg.Publisher
			if d.cfg.NATSURL != "" {
				publisher, err = newPublisher(d.cfg.NATSURL, d.metrics, d.logger)
				if err != nil {
					d.logger.Warn("failed to connect to NATS, results will not be published",
						"url", d.cfg.NATSURL,
						"error", err,
					)
				} else {
					defer publisher.Close()
				}
			}

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			searcher := amendment.NewSearcher(d.client, d.metrics, d.logger)
			res, err := searcher.Search(ctx, target)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if publisher != nil {
				publishResult(ctx, d, publisher, target, res)
			}

			out := searchOutput{
				AmendmentID: target.AmendmentID,
				Flag:        target.Flag.String(),
				StartLedger: int64(target.Start),
				Anchor:      int64(res.Anchor),
				Outcome:     res.Outcome.String(),
				Fetches:     res.Fetches,
			}
			if res.Found() {
				out.LedgerIndex = int64(res.LedgerIndex)
				out.TxHash = res.TxHash
				flags := res.Flags
				out.Flags = &flags
			}

			if c.Bool("json") || code != nil {
				if err := writeJSON(c.App.Writer, out, code); err != nil {
					return err
				}
			} else {
				printSearchResult(c, out)
			}

			if !res.Found() {
				return cli.Exit("", exitBoundsExceeded)
			}
			return nil
		},
	}
}

// publishResult sends the result to NATS. Failures are logged, not returned:
// the search itself already succeeded.
func publishResult(ctx context.Context, d *deps, publisher natspkg.Publisher, target amendment.Target, res *amendment.Result) {
	event := natspkg.FromResult(target, res, d.cfg.Address())
	if err := publisher.PublishSearchResult(ctx, event); err != nil {
		d.logger.WarnContext(ctx, "failed to publish search result",
			"subject", natspkg.Subject(target.AmendmentID),
			"error", err,
		)
	}
}

func printSearchResult(c *cli.Context, out searchOutput) {
	w := c.App.Writer
	if out.Outcome == amendment.OutcomeFound.String() {
		fmt.Fprintf(w, "Found in ledger %d: hash %s\n", out.LedgerIndex, out.TxHash)
		fmt.Fprintf(w, "  Amendment: %s\n", out.AmendmentID)
		var flags uint32
		if out.Flags != nil {
			flags = *out.Flags
		}
		fmt.Fprintf(w, "  Flags:     0x%08X (%s)\n", flags, amendment.FlagFromBits(flags))
		fmt.Fprintf(w, "  Fetches:   %d\n", out.Fetches)
		return
	}

	fmt.Fprintf(w, "No %s EnableAmendment transaction for %s\n", out.Flag, out.AmendmentID)
	fmt.Fprintf(w, "  Search range exhausted in both directions from flag ledger %d (%d ledgers fetched)\n",
		out.Anchor, out.Fetches)
}
