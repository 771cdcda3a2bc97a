// Package walker walks an account's reverse-chronological history in pages,
// converging on a target date window.
package walker

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hiveledger-dev/hiveledger/internal/model"
	"github.com/hiveledger-dev/hiveledger/internal/rpc"
)

// ErrTransportExhausted means a page could not be fetched even after retries
// and page-size halving. The walk's partial output is discarded; a silently
// missing page would corrupt the ledger.
var ErrTransportExhausted = errors.New("transport exhausted")

// latestSentinel requests the most recent history entry.
const latestSentinel int64 = -1

// minPageSize is the floor for page-size halving under repeated transient
// failures.
const minPageSize = 10

// Fetcher is the account-history transport consumed by the walker.
type Fetcher interface {
	AccountHistory(ctx context.Context, account string, start int64, limit int) ([]model.RawOperation, error)
}

// Walker pages backward through an account's operation log.
type Walker struct {
	fetch    Fetcher
	pageSize int
	retry    rpc.Policy
	log      zerolog.Logger
}

// New creates a Walker. pageSize is the initial request size; it shrinks
// under sustained transport failures and never grows back within a walk.
func New(fetch Fetcher, pageSize int, retry rpc.Policy, log zerolog.Logger) *Walker {
	return &Walker{
		fetch:    fetch,
		pageSize: pageSize,
		retry:    retry,
		log:      log.With().Str("component", "walker").Logger(),
	}
}

// Walk returns every operation of account whose timestamp falls in window,
// walking backward from the most recent entry. Pages entirely newer than the
// window are skipped without parsing their operations; the walk hard-stops
// once a page's newest timestamp falls before the window start.
func (w *Walker) Walk(ctx context.Context, account string, window model.Window) ([]model.RawOperation, error) {
	var out []model.RawOperation

	cursor := latestSentinel
	pageSize := w.pageSize
	pages := 0

	for {
		limit := pageSize
		// The history API rejects limits exceeding the cursor position.
		if cursor >= 0 && int64(limit) > cursor+1 {
			limit = int(cursor + 1)
		}

		page, err := w.fetchPage(ctx, account, cursor, limit)
		for err != nil && rpc.IsTransient(err) && pageSize > minPageSize {
			// Some public nodes time out on large pages; halving is
			// often enough to get a response.
			pageSize /= 2
			if pageSize < minPageSize {
				pageSize = minPageSize
			}
			w.log.Warn().Int64("cursor", cursor).Int("page_size", pageSize).
				Msg("page fetch failed, halving page size")
			limit = pageSize
			if cursor >= 0 && int64(limit) > cursor+1 {
				limit = int(cursor + 1)
			}
			page, err = w.fetchPage(ctx, account, cursor, limit)
		}
		if err != nil {
			if rpc.IsTransient(err) {
				return nil, fmt.Errorf("%w: account %s at cursor %d: %v", ErrTransportExhausted, account, cursor, err)
			}
			return nil, fmt.Errorf("walking %s at cursor %d: %w", account, cursor, err)
		}

		if len(page) == 0 {
			break
		}
		pages++

		minSeq := page[0].Sequence
		oldest := page[0].Timestamp
		newest := page[0].Timestamp
		for _, op := range page[1:] {
			if op.Sequence < minSeq {
				minSeq = op.Sequence
			}
			if op.Timestamp.Before(oldest) {
				oldest = op.Timestamp
			}
			if op.Timestamp.After(newest) {
				newest = op.Timestamp
			}
		}

		if newest.Before(window.Start) {
			// History older than the window; nothing further back can
			// qualify.
			break
		}

		if oldest.After(window.End) {
			// Entire page is newer than the window: fast-forward without
			// emitting. A page straddling the end bound falls through to
			// the filter below.
			w.log.Debug().Int64("cursor", cursor).Time("oldest", oldest).
				Msg("page newer than window, fast-forwarding")
		} else {
			for _, op := range page {
				if window.Contains(op.Timestamp) {
					out = append(out, op)
				}
			}
		}

		next := minSeq - 1
		if next <= 0 {
			break
		}
		if next == cursor {
			w.log.Warn().Int64("cursor", cursor).Msg("cursor stagnated, stopping walk")
			break
		}
		cursor = next
	}

	w.log.Info().Int("pages", pages).Int("operations", len(out)).
		Time("start", window.Start).Time("end", window.End).
		Msg("history walk complete")
	return out, nil
}

func (w *Walker) fetchPage(ctx context.Context, account string, cursor int64, limit int) ([]model.RawOperation, error) {
	var page []model.RawOperation
	err := w.retry.Do(ctx, func() error {
		p, err := w.fetch.AccountHistory(ctx, account, cursor, limit)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	return page, err
}
