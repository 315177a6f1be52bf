package amendment

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/brojonat/amendfinder/service/rippled"
)

// amendmentIDLen is the length in hex characters of a 256-bit amendment id.
const amendmentIDLen = 64

// Target describes what a search is looking for.
type Target struct {
	AmendmentID string
	Flag        StatusFlag
	Start       rippled.LedgerIndex
}

// NewTarget validates and normalizes the search inputs.
func NewTarget(amendmentID string, flag StatusFlag, start rippled.LedgerIndex) (Target, error) {
	id, err := NormalizeAmendmentID(amendmentID)
	if err != nil {
		return Target{}, err
	}
	if start < 0 {
		return Target{}, fmt.Errorf("start ledger must be non-negative, got %d", start)
	}
	return Target{
		AmendmentID: id,
		Flag:        flag,
		Start:       start,
	}, nil
}

// NormalizeAmendmentID checks that id is 64 hex characters and upper-cases it.
func NormalizeAmendmentID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if len(id) != amendmentIDLen {
		return "", fmt.Errorf("amendment id must be %d hex characters, got %d", amendmentIDLen, len(id))
	}
	if _, err := hex.DecodeString(id); err != nil {
		return "", fmt.Errorf("amendment id is not valid hex: %w", err)
	}
	return strings.ToUpper(id), nil
}
