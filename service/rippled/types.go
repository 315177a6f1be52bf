package rippled

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// TxTypeEnableAmendment is the pseudo-transaction type that records amendment status changes.
const TxTypeEnableAmendment = "EnableAmendment"

// LedgerIndex is a ledger sequence number.
type LedgerIndex int64

// Ledger is a closed ledger with its expanded transaction set.
// This is our domain model, independent of the JSON-RPC response format.
type Ledger struct {
	Index          LedgerIndex
	Hash           string
	CloseTimeHuman string
	Transactions   []Transaction
}

// Transaction is the subset of an expanded transaction we read.
type Transaction struct {
	TransactionType string `json:"TransactionType"`
	Amendment       string `json:"Amendment,omitempty"`
	Flags           uint32 `json:"Flags"`
	LedgerSequence  uint32 `json:"LedgerSequence,omitempty"`
	Hash            string `json:"hash"`
}

// txFields holds the fields shared by both expanded transaction shapes.
type txFields struct {
	TransactionType string `json:"TransactionType"`
	Amendment       string `json:"Amendment"`
	Flags           uint32 `json:"Flags"`
	LedgerSequence  uint32 `json:"LedgerSequence"`
}

// UnmarshalJSON accepts API v1 transactions (fields inline next to "hash")
// and API v2 transactions (fields nested under "tx_json").
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw struct {
		txFields
		TxJSON *txFields `json:"tx_json"`
		Hash   string    `json:"hash"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields := raw.txFields
	if raw.TxJSON != nil {
		fields = *raw.TxJSON
	}

	*t = Transaction{
		TransactionType: fields.TransactionType,
		Amendment:       fields.Amendment,
		Flags:           fields.Flags,
		LedgerSequence:  fields.LedgerSequence,
		Hash:            raw.Hash,
	}
	return nil
}

// flexIndex decodes a ledger index sent either as a JSON number or as a
// decimal string (API v1 renders ledger.ledger_index as a string).
type flexIndex LedgerIndex

func (f *flexIndex) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexIndex(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("ledger_index: %w", err)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("ledger_index %q: %w", s, err)
	}
	*f = flexIndex(n)
	return nil
}
