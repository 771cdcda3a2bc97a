// Package engine is the token side-chain query client. The side-chain
// anchors to the base chain via custom_json envelopes; per-transaction
// settlement detail is looked up here by transaction identity.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hiveledger-dev/hiveledger/internal/rpc"
)

// TxInfo is the raw side-chain transaction record. Payload and Logs are
// embedded JSON transported as encoded strings; the enricher decodes them.
type TxInfo struct {
	BlockNumber   int64  `json:"blockNumber"`
	TransactionID string `json:"transactionId"`
	Sender        string `json:"sender"`
	Contract      string `json:"contract"`
	Action        string `json:"action"`
	Payload       string `json:"payload"`
	Logs          string `json:"logs"`
}

// Client wraps the side-chain blockchain JSON-RPC API.
type Client struct {
	rpc *rpc.Client
	log zerolog.Logger
}

// NewClient creates a Client for a side-chain RPC endpoint.
func NewClient(url string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		rpc: rpc.NewClient(url, timeout, log),
		log: log.With().Str("component", "engine").Logger(),
	}
}

// TransactionInfo looks up a side-chain transaction by base-chain
// transaction identity. A missing transaction returns a permanent
// not-found transport error.
func (c *Client) TransactionInfo(ctx context.Context, txID string) (*TxInfo, error) {
	var info *TxInfo
	params := map[string]string{"txid": txID}
	if err := c.rpc.Call(ctx, "getTransactionInfo", params, &info); err != nil {
		return nil, err
	}
	if info == nil || info.TransactionID == "" {
		return nil, &rpc.Error{Kind: rpc.KindPermanent, Op: "getTransactionInfo", Err: errNotIndexed(txID)}
	}
	return info, nil
}

type errNotIndexed string

func (e errNotIndexed) Error() string {
	return "transaction " + string(e) + " not indexed on side-chain"
}
