// Package rpc implements the JSON-RPC 2.0 HTTP client shared by the
// base-chain and side-chain APIs, with transport errors classified into
// transient and permanent kinds.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int64  `json:"id"`
}

// Response is a JSON-RPC 2.0 response envelope.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *ResponseError  `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

// ResponseError is the error member of a JSON-RPC response.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Client posts JSON-RPC requests to a single endpoint.
type Client struct {
	url    string
	http   *http.Client
	log    zerolog.Logger
	nextID atomic.Int64
}

// NewClient creates a Client for url with a bounded request timeout.
func NewClient(url string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
		log:  log.With().Str("endpoint", url).Logger(),
	}
}

// Call invokes method with params and decodes the result member into out.
// Errors are always *Error with a transient or permanent kind.
func (c *Client) Call(ctx context.Context, method string, params any, out any) error {
	req := Request{JSONRPC: "2.0", Method: method, Params: params, ID: c.nextID.Add(1)}

	body, err := json.Marshal(req)
	if err != nil {
		return &Error{Kind: KindPermanent, Op: method, Err: fmt.Errorf("encoding request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindPermanent, Op: method, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		// Network-level failures (timeouts, refused connections) are
		// worth retrying against the same or a halved request.
		return &Error{Kind: KindTransient, Op: method, Err: err}
	}
	defer httpResp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("rpc call")

	if httpResp.StatusCode != http.StatusOK {
		kind := classifyStatus(httpResp.StatusCode)
		return &Error{Kind: kind, Op: method, Err: fmt.Errorf("http status %d", httpResp.StatusCode)}
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &Error{Kind: KindTransient, Op: method, Err: fmt.Errorf("reading response: %w", err)}
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return &Error{Kind: KindPermanent, Op: method, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if resp.Error != nil {
		return &Error{Kind: KindPermanent, Op: method, Err: fmt.Errorf("remote error %d: %s", resp.Error.Code, resp.Error.Message)}
	}

	if out != nil {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return &Error{Kind: KindPermanent, Op: method, Err: fmt.Errorf("decoding result: %w", err)}
		}
	}
	return nil
}

func classifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindTransient
	case status >= 500:
		return KindTransient
	default:
		return KindPermanent
	}
}
