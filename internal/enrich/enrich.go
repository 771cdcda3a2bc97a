// Package enrich fetches per-transaction settlement detail from the
// side-chain for operations whose envelope lacks amount breakdown, and
// decodes the embedded event log for the reconstructor.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hiveledger-dev/hiveledger/internal/engine"
	"github.com/hiveledger-dev/hiveledger/internal/model"
	"github.com/hiveledger-dev/hiveledger/internal/rpc"
)

// ErrNotFound means no usable detail record exists for the transaction. The
// source operation is excluded from the ledger; the run continues.
var ErrNotFound = errors.New("transaction detail not found")

// Fetcher is the transaction-detail transport.
type Fetcher interface {
	TransactionInfo(ctx context.Context, txID string) (*engine.TxInfo, error)
}

type outcome struct {
	record *model.DetailRecord
	found  bool
}

// Enricher fetches and decodes detail records, at most once per transaction
// identity per run. An aggregated transaction can surface as multiple raw
// records; the cached outcome is shared.
type Enricher struct {
	fetch Fetcher
	retry rpc.Policy
	delay time.Duration
	sleep func(time.Duration)
	cache map[string]outcome
	log   zerolog.Logger

	fetches int
}

// New creates an Enricher. delay is the fixed pause before each remote
// lookup, respecting the side-chain API's rate limits.
func New(fetch Fetcher, retry rpc.Policy, delay time.Duration, log zerolog.Logger) *Enricher {
	return &Enricher{
		fetch: fetch,
		retry: retry,
		delay: delay,
		sleep: time.Sleep,
		cache: make(map[string]outcome),
		log:   log.With().Str("component", "enrich").Logger(),
	}
}

// Fetches returns the number of remote lookups issued so far.
func (e *Enricher) Fetches() int { return e.fetches }

// Enrich returns the decoded detail record for txID, or ErrNotFound when the
// record is missing, the transport gave up, or the embedded JSON failed to
// decode. Idempotent per transaction identity within the run.
func (e *Enricher) Enrich(ctx context.Context, txID string) (*model.DetailRecord, error) {
	if cached, ok := e.cache[txID]; ok {
		if !cached.found {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, txID)
		}
		return cached.record, nil
	}

	record, err := e.lookup(ctx, txID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.log.Warn().Err(err).Str("tx", txID).Msg("detail lookup failed, excluding operation")
		e.cache[txID] = outcome{}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, txID)
	}

	e.cache[txID] = outcome{record: record, found: true}
	return record, nil
}

func (e *Enricher) lookup(ctx context.Context, txID string) (*model.DetailRecord, error) {
	var info *engine.TxInfo
	err := e.retry.Do(ctx, func() error {
		if e.delay > 0 {
			e.sleep(e.delay)
		}
		e.fetches++
		fetched, err := e.fetch.TransactionInfo(ctx, txID)
		if err != nil {
			return err
		}
		info = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeDetail(info)
}

// wire shapes of the embedded JSON strings.
type eventLog struct {
	Events []struct {
		Contract string `json:"contract"`
		Event    string `json:"event"`
		Data     struct {
			From     string `json:"from"`
			To       string `json:"to"`
			Symbol   string `json:"symbol"`
			Quantity string `json:"quantity"`
		} `json:"data"`
	} `json:"events"`
}

type actionPayload struct {
	Symbol   string `json:"symbol"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}

// decodeDetail decodes the transaction's embedded event log and action
// payload into structured form.
func decodeDetail(info *engine.TxInfo) (*model.DetailRecord, error) {
	var logs eventLog
	if err := json.Unmarshal([]byte(info.Logs), &logs); err != nil {
		return nil, fmt.Errorf("decoding event log of %s: %w", info.TransactionID, err)
	}

	var payload actionPayload
	if err := json.Unmarshal([]byte(info.Payload), &payload); err != nil {
		return nil, fmt.Errorf("decoding action payload of %s: %w", info.TransactionID, err)
	}

	quantity, err := decimal.NewFromString(payload.Quantity)
	if err != nil {
		return nil, fmt.Errorf("action quantity of %s: %w", info.TransactionID, err)
	}
	price := decimal.Zero
	if payload.Price != "" {
		price, err = decimal.NewFromString(payload.Price)
		if err != nil {
			return nil, fmt.Errorf("action price of %s: %w", info.TransactionID, err)
		}
	}

	record := &model.DetailRecord{
		TxID: info.TransactionID,
		Action: model.EngineTradeDetails{
			Action:   info.Action,
			Symbol:   payload.Symbol,
			Quantity: quantity,
			Price:    price,
		},
	}

	for i, ev := range logs.Events {
		qty, err := decimal.NewFromString(ev.Data.Quantity)
		if err != nil {
			return nil, fmt.Errorf("event %d quantity of %s: %w", i, info.TransactionID, err)
		}
		record.Events = append(record.Events, model.Event{
			Index:    i,
			Contract: ev.Contract,
			Kind:     ev.Event,
			From:     ev.Data.From,
			To:       ev.Data.To,
			Symbol:   ev.Data.Symbol,
			Quantity: qty,
		})
	}
	return record, nil
}
