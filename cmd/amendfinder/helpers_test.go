package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const (
	sortedDirectoriesID = "CC5ABAE4F3EC92E94A59B1908C2BE82D2228B6485C00AFF8F22DF930D89C194E"
	gotMajorityTxHash   = "515F5D26A3C2F8E17B0D4E965C1A3F27D8E6B4902F7C5A1E93B8D06F24E4ECAF"
)

// fakeRippled answers "ledger" requests for indices in [oldest, newest] and
// lgrNotFound for everything else.
type fakeRippled struct {
	oldest  int64
	newest  int64
	ledgers map[int64][]map[string]interface{}
	byHash  map[string]int64

	mu        sync.Mutex
	requested []int64
}

func (f *fakeRippled) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string `json:"method"`
		Params []struct {
			LedgerIndex  int64  `json:"ledger_index"`
			LedgerHash   string `json:"ledger_hash"`
			Transactions bool   `json:"transactions"`
			Expand       bool   `json:"expand"`
		} `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Method != "ledger" || len(req.Params) != 1 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	p := req.Params[0]
	index := p.LedgerIndex
	if p.LedgerHash != "" {
		index = f.byHash[p.LedgerHash]
	}

	f.mu.Lock()
	f.requested = append(f.requested, index)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if index < f.oldest || index > f.newest {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": map[string]interface{}{
				"error":         "lgrNotFound",
				"error_code":    21,
				"error_message": "ledgerNotFound",
				"status":        "error",
			},
		})
		return
	}

	txns := f.ledgers[index]
	if txns == nil {
		txns = []map[string]interface{}{}
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"result": map[string]interface{}{
			"ledger": map[string]interface{}{
				"ledger_index":     itoa(index),
				"ledger_hash":      "AB12",
				"close_time_human": "2017-Jun-30 08:44:01.000000000 UTC",
				"transactions":     txns,
			},
			"status":    "success",
			"validated": true,
		},
	})
}

func (f *fakeRippled) calls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.requested...)
}

func itoa(i int64) string {
	data, _ := json.Marshal(i)
	return string(data)
}

func enableAmendmentTx(id string, flags uint32, hash string, seq int64) map[string]interface{} {
	tx := map[string]interface{}{
		"Account":         "rrrrrrrrrrrrrrrrrrrrrhoLvTp",
		"Amendment":       id,
		"Fee":             "0",
		"LedgerSequence":  seq,
		"Sequence":        0,
		"SigningPubKey":   "",
		"TransactionType": "EnableAmendment",
		"hash":            hash,
	}
	if flags != 0 {
		tx["Flags"] = flags
	}
	return tx
}

// startFakeRippled serves f and returns the --host/--port arguments pointing at it.
func startFakeRippled(t *testing.T, f *fakeRippled) []string {
	t.Helper()
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	return []string{"--host", u.Hostname(), "--port", u.Port()}
}

// runApp runs the CLI with args and returns what it wrote to stdout.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"RIPPLED_HOST", "RIPPLED_PORT", "RIPPLED_SCHEME", "RPC_TIMEOUT", "LOG_LEVEL", "NATS_URL", "METRICS_FILE", "AMENDFINDER_CONFIG"} {
		t.Setenv(key, "")
	}

	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	// Keep cli.Exit from terminating the test binary.
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"amendfinder"}, args...))
	return out.String(), err
}
