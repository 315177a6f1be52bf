package rippled

import "errors"

var (
	// ErrLedgerNotFound indicates rippled has no ledger at the requested index or hash.
	// rippled reports the same error for ledgers older than its history and for
	// ledgers that have not closed yet, so callers infer which side was hit.
	ErrLedgerNotFound = errors.New("rippled: ledger not found")

	// ErrConnectionFailed indicates the HTTP round trip failed or returned a non-2xx status.
	ErrConnectionFailed = errors.New("rippled: connection failed")

	// ErrInvalidResponse indicates the server returned a malformed or unexpected response.
	ErrInvalidResponse = errors.New("rippled: invalid response")

	// ErrRPC indicates rippled answered with an error other than lgrNotFound.
	ErrRPC = errors.New("rippled: rpc error")
)
