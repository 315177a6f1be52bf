package nats

import (
	"time"

	"github.com/brojonat/amendfinder/service/amendment"
)

// SearchEvent is published to "amendments.{amendment_id}" when a search finishes.
type SearchEvent struct {
	// Search inputs
	AmendmentID string `json:"amendment_id"`
	Flag        string `json:"flag"`
	StartLedger int64  `json:"start_ledger"`

	// Outcome. Flags is set whenever Outcome is found (0 for Enabled).
	Outcome     string  `json:"outcome"` // found or bounds_exceeded
	LedgerIndex int64   `json:"ledger_index,omitempty"`
	TxHash      string  `json:"tx_hash,omitempty"`
	Flags       *uint32 `json:"flags,omitempty"`

	// Search details
	Anchor   int64  `json:"anchor"`
	Fetches  int    `json:"fetches"`
	Endpoint string `json:"endpoint"`

	// Metadata
	PublishedAt time.Time `json:"published_at"`
}

// FromResult converts a search result to a SearchEvent for publishing.
func FromResult(target amendment.Target, res *amendment.Result, endpoint string) *SearchEvent {
	event := &SearchEvent{
		AmendmentID: target.AmendmentID,
		Flag:        target.Flag.String(),
		StartLedger: int64(target.Start),
		Outcome:     res.Outcome.String(),
		Anchor:      int64(res.Anchor),
		Fetches:     res.Fetches,
		Endpoint:    endpoint,
		PublishedAt: time.Now().UTC(),
	}

	if res.Found() {
		event.LedgerIndex = int64(res.LedgerIndex)
		event.TxHash = res.TxHash
		flags := res.Flags
		event.Flags = &flags
	}

	return event
}
