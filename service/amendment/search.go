package amendment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/brojonat/amendfinder/service/metrics"
	"github.com/brojonat/amendfinder/service/rippled"
)

// Stride is the spacing between flag ledgers. Only ledgers whose index is
// 1 mod Stride can contain EnableAmendment pseudo-transactions.
const Stride rippled.LedgerIndex = 256

// AlignToFlagLedger returns the nearest flag ledger index at or below i.
// For i < 1 the result is negative; such indices never exist.
func AlignToFlagLedger(i rippled.LedgerIndex) rippled.LedgerIndex {
	r := i % Stride
	if r > 0 {
		return i - (r - 1)
	}
	return i - (Stride - 1)
}

// LedgerFetcher retrieves a ledger with its transactions expanded.
// It must return an error wrapping rippled.ErrLedgerNotFound when the
// server holds no ledger at index.
type LedgerFetcher interface {
	FetchLedger(ctx context.Context, index rippled.LedgerIndex) (*rippled.Ledger, error)
}

// Outcome is the terminal state of a search.
type Outcome int

const (
	// OutcomeFound means a matching transaction was located.
	OutcomeFound Outcome = iota + 1
	// OutcomeBoundsExceeded means both directions ran out of ledgers without a match.
	OutcomeBoundsExceeded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeBoundsExceeded:
		return "bounds_exceeded"
	default:
		return "unknown"
	}
}

// Result is the outcome of a search. LedgerIndex, TxHash and Flags are
// only set when Outcome is OutcomeFound.
type Result struct {
	Outcome     Outcome
	LedgerIndex rippled.LedgerIndex
	TxHash      string
	Flags       uint32
	Anchor      rippled.LedgerIndex
	Fetches     int
}

// Found reports whether the search located a matching transaction.
func (r *Result) Found() bool {
	return r.Outcome == OutcomeFound
}

type direction string

const (
	backward direction = "backward"
	forward  direction = "forward"
)

// probeOutcome classifies one probe. probeOutOfRange is rippled's
// lgrNotFound; which bound it means depends on the probe direction.
type probeOutcome int

const (
	probeMiss probeOutcome = iota
	probeMatch
	probeOutOfRange
)

func (p probeOutcome) String() string {
	switch p {
	case probeMatch:
		return "match"
	case probeOutOfRange:
		return "out_of_range"
	default:
		return "miss"
	}
}

// Searcher walks flag ledgers outward from an anchor until it finds the
// EnableAmendment transaction for a target.
type Searcher struct {
	fetcher LedgerFetcher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewSearcher creates a Searcher. metrics may be nil; a nil logger discards output.
func NewSearcher(fetcher LedgerFetcher, m *metrics.Metrics, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Searcher{
		fetcher: fetcher,
		logger:  logger,
		metrics: m,
	}
}

// Search probes anchor-offset then anchor+offset for offset = 0, 256, 512, ...
// until a match is found or rippled reports both directions out of range.
// The backward probe of each round always runs first, so of two matches at the
// same distance the earlier ledger wins. Any fetch error other than
// ErrLedgerNotFound aborts the search.
func (s *Searcher) Search(ctx context.Context, target Target) (*Result, error) {
	start := time.Now()
	anchor := AlignToFlagLedger(target.Start)
	res := &Result{Anchor: anchor}

	s.logger.InfoContext(ctx, "starting amendment search",
		"amendment", target.AmendmentID,
		"flag", target.Flag.String(),
		"start_ledger", int64(target.Start),
		"anchor", int64(anchor),
	)

	var exhaustedBackward, exhaustedForward bool
	for offset := rippled.LedgerIndex(0); ; offset += Stride {
		if !exhaustedBackward {
			outcome, txn, err := s.probe(ctx, target, anchor-offset, backward, res)
			if err != nil {
				return nil, err
			}
			switch outcome {
			case probeMatch:
				return s.found(ctx, target, res, anchor-offset, txn, start), nil
			case probeOutOfRange:
				exhaustedBackward = true
				s.logger.InfoContext(ctx, "ledger not found, assuming lower bound of available history",
					"ledger_index", int64(anchor-offset),
				)
			}
		}

		if offset != 0 && !exhaustedForward {
			outcome, txn, err := s.probe(ctx, target, anchor+offset, forward, res)
			if err != nil {
				return nil, err
			}
			switch outcome {
			case probeMatch:
				return s.found(ctx, target, res, anchor+offset, txn, start), nil
			case probeOutOfRange:
				exhaustedForward = true
				s.logger.InfoContext(ctx, "ledger not found, assuming upper bound of closed ledgers",
					"ledger_index", int64(anchor+offset),
				)
			}
		}

		if exhaustedBackward && exhaustedForward {
			res.Outcome = OutcomeBoundsExceeded
			s.recordSearch(res, start)
			s.logger.InfoContext(ctx, "search range exhausted in both directions",
				"amendment", target.AmendmentID,
				"fetches", res.Fetches,
			)
			return res, nil
		}
	}
}

// probe fetches one ledger and scans it for a match.
func (s *Searcher) probe(
	ctx context.Context,
	target Target,
	index rippled.LedgerIndex,
	dir direction,
	res *Result,
) (probeOutcome, *rippled.Transaction, error) {
	outcome, txn, err := s.fetchAndScan(ctx, target, index, dir, res)
	if err == nil && s.metrics != nil {
		s.metrics.RecordProbe(string(dir), outcome.String())
	}
	return outcome, txn, err
}

func (s *Searcher) fetchAndScan(
	ctx context.Context,
	target Target,
	index rippled.LedgerIndex,
	dir direction,
	res *Result,
) (probeOutcome, *rippled.Transaction, error) {
	if index < 1 {
		return probeOutOfRange, nil, nil
	}

	s.logger.DebugContext(ctx, "searching ledger",
		"ledger_index", int64(index),
		"direction", string(dir),
	)

	res.Fetches++
	ledger, err := s.fetcher.FetchLedger(ctx, index)
	if err != nil {
		if errors.Is(err, rippled.ErrLedgerNotFound) {
			return probeOutOfRange, nil, nil
		}
		return probeMiss, nil, fmt.Errorf("fetch ledger %d: %w", index, err)
	}

	if txn := s.scanLedger(ctx, ledger, target); txn != nil {
		return probeMatch, txn, nil
	}
	return probeMiss, nil, nil
}

// scanLedger returns the first transaction in ledger that matches target.
// Transactions for the right amendment with the wrong flags are logged and skipped.
func (s *Searcher) scanLedger(ctx context.Context, ledger *rippled.Ledger, target Target) *rippled.Transaction {
	for i := range ledger.Transactions {
		txn := &ledger.Transactions[i]
		if !isAmendmentTransaction(*txn, target.AmendmentID) {
			continue
		}
		if target.Flag.Accepts(txn.Flags) {
			return txn
		}
		s.logger.DebugContext(ctx, "amendment transaction with non-matching flags",
			"ledger_index", int64(ledger.Index),
			"hash", txn.Hash,
			"flags", fmt.Sprintf("0x%08X", txn.Flags),
			"want", target.Flag.String(),
		)
	}
	return nil
}

func (s *Searcher) found(
	ctx context.Context,
	target Target,
	res *Result,
	index rippled.LedgerIndex,
	txn *rippled.Transaction,
	start time.Time,
) *Result {
	res.Outcome = OutcomeFound
	res.LedgerIndex = index
	res.TxHash = txn.Hash
	res.Flags = txn.Flags

	s.recordSearch(res, start)
	if s.metrics != nil {
		distance := int64(index - res.Anchor)
		if distance < 0 {
			distance = -distance
		}
		s.metrics.RecordSearchDistance(target.AmendmentID, distance)
	}

	s.logger.InfoContext(ctx, "found amendment transaction",
		"amendment", target.AmendmentID,
		"ledger_index", int64(index),
		"hash", txn.Hash,
		"fetches", res.Fetches,
	)
	return res
}

func (s *Searcher) recordSearch(res *Result, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordSearch(res.Outcome.String(), time.Since(start).Seconds())
}

// Matches reports whether txn is the EnableAmendment transaction described by target.
func Matches(txn rippled.Transaction, target Target) bool {
	return isAmendmentTransaction(txn, target.AmendmentID) && target.Flag.Accepts(txn.Flags)
}

func isAmendmentTransaction(txn rippled.Transaction, amendmentID string) bool {
	return txn.TransactionType == rippled.TxTypeEnableAmendment &&
		strings.EqualFold(txn.Amendment, amendmentID)
}
