package rippled

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCClient_Call(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&body)
		require.NoError(t, err)

		assert.Equal(t, "ledger", body["method"])
		params, ok := body["params"].([]interface{})
		require.True(t, ok)
		require.Len(t, params, 1)
		p := params[0].(map[string]interface{})
		assert.Equal(t, float64(33895169), p["ledger_index"])
		assert.Equal(t, true, p["transactions"])
		assert.Equal(t, true, p["expand"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result": {"status": "success", "ledger_index": 33895169}}`))
	}))
	defer server.Close()

	rpc := NewRPCClient(server.URL, 5*time.Second)
	result, err := rpc.Call(context.Background(), "ledger", ledgerParams{
		LedgerIndex:  33895169,
		Transactions: true,
		Expand:       true,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status": "success", "ledger_index": 33895169}`, string(result))
}

func TestRPCClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("overloaded"))
	}))
	defer server.Close()

	_, err := NewRPCClient(server.URL, 5*time.Second).Call(context.Background(), "ledger", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestRPCClient_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>oops</html>"},
		{name: "no result", body: `{"id": 1}`},
		{name: "null result", body: `{"result": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewRPCClient(server.URL, 5*time.Second).Call(context.Background(), "ledger", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestRPCClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewRPCClient(url, time.Second).Call(context.Background(), "ledger", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestRPCClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"result": {}}`))
	}))
	defer server.Close()

	_, err := NewRPCClient(server.URL, 20*time.Millisecond).Call(context.Background(), "ledger", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}
