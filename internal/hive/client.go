// Package hive is the base-chain query client: account history and the
// dynamic global properties used for the VESTS to HP conversion rate.
package hive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hiveledger-dev/hiveledger/internal/model"
	"github.com/hiveledger-dev/hiveledger/internal/rpc"
)

// chain timestamps carry no zone suffix and are UTC.
const timeLayout = "2006-01-02T15:04:05"

// Client wraps the condenser JSON-RPC API.
type Client struct {
	rpc *rpc.Client
	log zerolog.Logger
}

// NewClient creates a Client for a condenser API endpoint.
func NewClient(url string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		rpc: rpc.NewClient(url, timeout, log),
		log: log.With().Str("component", "hive").Logger(),
	}
}

// historyEntry is the wire shape of one account-history record.
type historyEntry struct {
	TrxID     string            `json:"trx_id"`
	Block     uint32            `json:"block"`
	Timestamp string            `json:"timestamp"`
	Op        []json.RawMessage `json:"op"`
}

// AccountHistory returns up to limit operations ending at sequence index
// start (-1 for the newest), oldest first as returned by the chain.
func (c *Client) AccountHistory(ctx context.Context, account string, start int64, limit int) ([]model.RawOperation, error) {
	var raw []json.RawMessage
	params := []any{account, start, limit}
	if err := c.rpc.Call(ctx, "condenser_api.get_account_history", params, &raw); err != nil {
		return nil, err
	}

	ops := make([]model.RawOperation, 0, len(raw))
	for i, item := range raw {
		op, err := parseHistoryItem(item)
		if err != nil {
			return nil, &rpc.Error{Kind: rpc.KindPermanent, Op: "get_account_history",
				Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// parseHistoryItem decodes one [index, entry] pair.
func parseHistoryItem(item json.RawMessage) (model.RawOperation, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(item, &pair); err != nil {
		return model.RawOperation{}, err
	}
	if len(pair) != 2 {
		return model.RawOperation{}, fmt.Errorf("expected [index, entry] pair, got %d elements", len(pair))
	}

	var seq int64
	if err := json.Unmarshal(pair[0], &seq); err != nil {
		return model.RawOperation{}, fmt.Errorf("parsing sequence index: %w", err)
	}

	var entry historyEntry
	if err := json.Unmarshal(pair[1], &entry); err != nil {
		return model.RawOperation{}, fmt.Errorf("parsing entry: %w", err)
	}
	if len(entry.Op) != 2 {
		return model.RawOperation{}, fmt.Errorf("expected [type, payload] op, got %d elements", len(entry.Op))
	}

	var opType string
	if err := json.Unmarshal(entry.Op[0], &opType); err != nil {
		return model.RawOperation{}, fmt.Errorf("parsing op type: %w", err)
	}

	ts, err := time.Parse(timeLayout, entry.Timestamp)
	if err != nil {
		return model.RawOperation{}, fmt.Errorf("parsing timestamp %q: %w", entry.Timestamp, err)
	}

	return model.RawOperation{
		Sequence:  seq,
		TxID:      entry.TrxID,
		Block:     entry.Block,
		Timestamp: ts.UTC(),
		Type:      opType,
		Payload:   entry.Op[1],
	}, nil
}

// GlobalProperties holds the vesting pool totals backing the VESTS to HP
// conversion.
type GlobalProperties struct {
	TotalVestingFundHive model.Asset
	TotalVestingShares   model.Asset
}

// DynamicGlobalProperties fetches the current chain-wide vesting totals.
func (c *Client) DynamicGlobalProperties(ctx context.Context) (GlobalProperties, error) {
	var raw struct {
		TotalVestingFundHive string `json:"total_vesting_fund_hive"`
		TotalVestingShares   string `json:"total_vesting_shares"`
	}
	if err := c.rpc.Call(ctx, "condenser_api.get_dynamic_global_properties", []any{}, &raw); err != nil {
		return GlobalProperties{}, err
	}

	fund, err := model.ParseAsset(raw.TotalVestingFundHive)
	if err != nil {
		return GlobalProperties{}, &rpc.Error{Kind: rpc.KindPermanent, Op: "get_dynamic_global_properties", Err: err}
	}
	shares, err := model.ParseAsset(raw.TotalVestingShares)
	if err != nil {
		return GlobalProperties{}, &rpc.Error{Kind: rpc.KindPermanent, Op: "get_dynamic_global_properties", Err: err}
	}
	return GlobalProperties{TotalVestingFundHive: fund, TotalVestingShares: shares}, nil
}
