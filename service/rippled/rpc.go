package rippled

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RPCClient is an interface for the raw rippled JSON-RPC transport.
// This allows us to mock the wire layer in tests without hitting real rippled nodes.
type RPCClient interface {
	// Call invokes method with a single params object and returns the
	// undecoded "result" member of the response.
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
}

// rpcRequest is the rippled JSON-RPC request envelope.
type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// rpcResponse is the rippled JSON-RPC response envelope.
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
}

// httpRPCClient posts JSON-RPC requests to a rippled admin or public port.
type httpRPCClient struct {
	url    string
	client *http.Client
}

// NewRPCClient creates an RPCClient for the given endpoint URL
// (e.g. "http://s2.ripple.com:51234/"). A zero timeout leaves the
// request unbounded apart from the caller's context.
func NewRPCClient(url string, timeout time.Duration) RPCClient {
	return &httpRPCClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				MaxIdleConns:    2,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

func (r *httpRPCClient) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		Method: method,
		Params: []any{params},
	})
	if err != nil {
		return nil, fmt.Errorf("rippled: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rippled: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrInvalidResponse, err)
	}

	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return nil, fmt.Errorf("%w: response has no result", ErrInvalidResponse)
	}

	return rpcResp.Result, nil
}
