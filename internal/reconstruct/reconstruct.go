// Package reconstruct splits an aggregated market transaction's event log
// into counterparty-level fills.
//
// The settlement protocol interleaves "asset to the account" and "asset to a
// counterparty" events in execution order but does not pair them explicitly.
// Buy-side transactions are reconstructed per counterparty by greedy
// nearest-index matching, a known approximation. Sell-side transactions are
// collapsed into a single aggregate fill because per-leg event ordering is
// unreliable in that direction; the asymmetry is deliberate and kept.
package reconstruct

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hiveledger-dev/hiveledger/internal/model"
)

// Reconstructor turns detail records into fills for one account and token.
type Reconstructor struct {
	account string
	token   string
	log     zerolog.Logger

	warnings int
}

// New creates a Reconstructor.
func New(account, token string, log zerolog.Logger) *Reconstructor {
	return &Reconstructor{
		account: account,
		token:   token,
		log:     log.With().Str("component", "reconstruct").Logger(),
	}
}

// Warnings returns the number of unmatched or unaccountable events seen.
func (r *Reconstructor) Warnings() int { return r.warnings }

// Fills extracts fills from a decoded detail record. ts is the base-chain
// timestamp of the source operation. The result may be empty: a fully
// refunded order produces no reportable fill.
func (r *Reconstructor) Fills(rec *model.DetailRecord, ts time.Time) []model.Fill {
	switch rec.Action.Action {
	case "buy", "marketBuy":
		return r.buyFills(rec, ts)
	case "sell", "marketSell":
		return r.sellFills(rec, ts)
	default:
		return nil
	}
}

// candidate is one side of a potential match, keyed by its position in the
// original event log.
type candidate struct {
	event model.Event
	used  bool
}

func (r *Reconstructor) buyFills(rec *model.DetailRecord, ts time.Time) []model.Fill {
	var received []model.Event
	var paid []*candidate

	for _, ev := range rec.Events {
		if ev.Kind != model.EventTransferFromContract {
			continue
		}
		switch {
		case ev.To == r.account && ev.Symbol == r.token:
			received = append(received, ev)
		case ev.To != r.account && ev.Symbol == model.SymbolSwapHive:
			paid = append(paid, &candidate{event: ev})
		}
	}

	var fills []model.Fill
	for _, credit := range received {
		match := nearestUnused(paid, credit.Index)
		if match == nil {
			// No seller leg left: refund or self-trade, not a
			// reportable external fill.
			r.warnings++
			r.log.Warn().Str("tx", rec.TxID).Int("event", credit.Index).
				Msg("no counterpart for token credit, dropping")
			continue
		}
		match.used = true

		if !credit.Quantity.IsPositive() || !match.event.Quantity.IsPositive() {
			r.warnings++
			r.log.Warn().Str("tx", rec.TxID).Int("event", credit.Index).
				Msg("zero-quantity leg, dropping")
			continue
		}

		fills = append(fills, model.Fill{
			Timestamp:        ts,
			Counterparty:     match.event.To,
			GivenAmount:      match.event.Quantity,
			GivenCurrency:    match.event.Symbol,
			ReceivedAmount:   credit.Quantity,
			ReceivedCurrency: credit.Symbol,
			SourceTxID:       rec.TxID,
			SubIndex:         len(fills),
			Note:             fmt.Sprintf("buy fill from %s", match.event.To),
		})
	}
	return fills
}

// nearestUnused returns the unused candidate with minimum index distance to
// index. Ties go to the first-seen candidate.
func nearestUnused(candidates []*candidate, index int) *candidate {
	var best *candidate
	bestDist := 0
	for _, c := range candidates {
		if c.used {
			continue
		}
		dist := c.event.Index - index
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best
}

func (r *Reconstructor) sellFills(rec *model.DetailRecord, ts time.Time) []model.Fill {
	sold := rec.Action.Quantity
	receivedBase := decimal.Zero

	for _, ev := range rec.Events {
		if ev.Kind != model.EventTransferFromContract || ev.To != r.account {
			continue
		}
		switch ev.Symbol {
		case r.token:
			// Unfilled remainder returned to the account.
			sold = sold.Sub(ev.Quantity)
		case model.SymbolSwapHive:
			receivedBase = receivedBase.Add(ev.Quantity)
		}
	}

	if !sold.IsPositive() || !receivedBase.IsPositive() {
		if sold.IsPositive() != receivedBase.IsPositive() {
			// One side settled without the other; the event log does
			// not add up to a fill.
			r.warnings++
			r.log.Warn().Str("tx", rec.TxID).
				Str("sold", sold.String()).Str("received", receivedBase.String()).
				Msg("sell did not settle, no fill emitted")
		}
		return nil
	}

	return []model.Fill{{
		Timestamp:        ts,
		Counterparty:     "",
		GivenAmount:      sold,
		GivenCurrency:    r.token,
		ReceivedAmount:   receivedBase,
		ReceivedCurrency: model.SymbolSwapHive,
		SourceTxID:       rec.TxID,
		SubIndex:         0,
		Note:             "aggregate sell",
	}}
}
