// Package ledger turns classified operations and reconstructed fills into
// exportable rows, deduplicates and buckets them, and writes the CSV files.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hiveledger-dev/hiveledger/internal/model"
)

// Venue labels for exported rows.
const (
	VenueInternalMarket = "Hive Internal Market"
	VenueEngineMarket   = "Hive Engine Market"
	VenueEngine         = "Hive Engine"
)

// RateSource converts staked-asset amounts to their liquid equivalent.
type RateSource interface {
	HivePerVests(ctx context.Context, at time.Time) (decimal.Decimal, error)
}

// Builder renders classified operations and fills as ledger rows. Asset
// symbols are normalized here, on both legs, so wrapped side-chain symbols
// never reach the output.
type Builder struct {
	rates RateSource
	log   zerolog.Logger

	skipped int
}

// NewBuilder creates a Builder.
func NewBuilder(rates RateSource, log zerolog.Logger) *Builder {
	return &Builder{rates: rates, log: log.With().Str("component", "ledger").Logger()}
}

// Skipped returns the number of rows dropped for per-record problems.
func (b *Builder) Skipped() int { return b.skipped }

// sourceID returns the dedup identity for rows built from op. Virtual
// operations all carry the zero transaction id, so those rows key on the
// history sequence index instead; two interest payments in one year must not
// collapse into one row.
func sourceID(op model.ClassifiedOperation) string {
	if model.IsVirtualTxID(op.Raw.TxID) {
		return fmt.Sprintf("seq-%d", op.Raw.Sequence)
	}
	return op.Raw.TxID
}

// Rows renders all operations and fills. Record-level failures (a missing
// conversion rate, an unexpected payload variant) skip the affected row and
// are logged; the rest of the output is unaffected.
func (b *Builder) Rows(ctx context.Context, ops []model.ClassifiedOperation, fills []model.Fill) []model.LedgerRow {
	var rows []model.LedgerRow
	for _, op := range ops {
		rows = append(rows, b.rowsFromOperation(ctx, op)...)
	}
	for _, fill := range fills {
		rows = append(rows, RowFromFill(fill))
	}
	return rows
}

func (b *Builder) rowsFromOperation(ctx context.Context, op model.ClassifiedOperation) []model.LedgerRow {
	switch details := op.Details.(type) {
	case model.TransferDetails:
		return []model.LedgerRow{b.transferRow(op, details.Amount, details.Symbol, details.Memo)}

	case model.EngineTokenDetails:
		switch op.Category {
		case model.CategoryIncome:
			return []model.LedgerRow{{
				Timestamp:  op.Raw.Timestamp,
				Type:       model.RowTypeIncome,
				InAmount:   details.Quantity,
				InCurrency: model.NormalizeSymbol(details.Symbol),
				Venue:      VenueEngine,
				Note:       "token issue",
				SourceTxID: sourceID(op),
			}}
		case model.CategoryStakeChange:
			return []model.LedgerRow{b.stakeRow(op, details)}
		default:
			return []model.LedgerRow{b.transferRow(op, details.Quantity, details.Symbol, details.Memo)}
		}

	case model.RewardDetails:
		return b.rewardRows(ctx, op, details)

	case model.InterestDetails:
		return []model.LedgerRow{{
			Timestamp:  op.Raw.Timestamp,
			Type:       model.RowTypeInterest,
			InAmount:   details.Amount,
			InCurrency: model.NormalizeSymbol(details.Symbol),
			SourceTxID: sourceID(op),
		}}

	case model.ConversionDetails:
		// Legs follow value direction, not the operation's field names:
		// In carries amount_out (what the conversion credited to the
		// account), Out carries amount_in (what it debited). Keep this
		// orientation; swapping it misstates every conversion.
		return []model.LedgerRow{{
			Timestamp:   op.Raw.Timestamp,
			Type:        model.RowTypeTransaction,
			InAmount:    details.AmountOut,
			InCurrency:  model.NormalizeSymbol(details.SymbolOut),
			OutAmount:   details.AmountIn,
			OutCurrency: model.NormalizeSymbol(details.SymbolIn),
			Venue:       VenueInternalMarket,
			Note:        "Conversion",
			SourceTxID:  sourceID(op),
		}}

	case model.OrderFillDetails:
		return []model.LedgerRow{b.orderFillRow(op, details)}

	case model.EngineTradeDetails:
		// Settlement amounts come from the reconstructor's fills.
		return nil

	default:
		return nil
	}
}

func (b *Builder) transferRow(op model.ClassifiedOperation, amount decimal.Decimal, symbol, memo string) model.LedgerRow {
	row := model.LedgerRow{
		Timestamp:  op.Raw.Timestamp,
		Note:       memo,
		SourceTxID: sourceID(op),
	}
	if op.Category == model.CategoryIncomingTransfer {
		row.Type = model.RowTypeDeposit
		row.InAmount = amount
		row.InCurrency = model.NormalizeSymbol(symbol)
	} else {
		row.Type = model.RowTypeWithdrawal
		row.OutAmount = amount
		row.OutCurrency = model.NormalizeSymbol(symbol)
	}
	return row
}

func (b *Builder) stakeRow(op model.ClassifiedOperation, details model.EngineTokenDetails) model.LedgerRow {
	row := model.LedgerRow{
		Timestamp:  op.Raw.Timestamp,
		Type:       model.RowTypeStaking,
		Venue:      VenueEngine,
		Note:       details.Action,
		SourceTxID: sourceID(op),
	}
	if details.Action == "unstake" {
		row.InAmount = details.Quantity
		row.InCurrency = model.NormalizeSymbol(details.Symbol)
	} else {
		row.OutAmount = details.Quantity
		row.OutCurrency = model.NormalizeSymbol(details.Symbol)
	}
	return row
}

// rewardRows splits a reward claim into one row per non-zero component.
// VESTS are reported as their liquid HP equivalent using the day's rate.
func (b *Builder) rewardRows(ctx context.Context, op model.ClassifiedOperation, details model.RewardDetails) []model.LedgerRow {
	var rows []model.LedgerRow
	sub := 0

	add := func(amount decimal.Decimal, symbol string) {
		rows = append(rows, model.LedgerRow{
			Timestamp:  op.Raw.Timestamp,
			Type:       model.RowTypeIncome,
			InAmount:   amount,
			InCurrency: symbol,
			SourceTxID: sourceID(op),
			SubIndex:   sub,
		})
		sub++
	}

	if details.Hive.IsPositive() {
		add(details.Hive, model.SymbolHive)
	}
	if details.HBD.IsPositive() {
		add(details.HBD, model.SymbolHBD)
	}
	if details.Vests.IsPositive() {
		rate, err := b.rates.HivePerVests(ctx, op.Raw.Timestamp)
		if err != nil {
			b.skipped++
			b.log.Warn().Err(err).Str("tx", op.Raw.TxID).
				Msg("no conversion rate, skipping staked reward component")
		} else {
			add(details.Vests.Mul(rate), model.SymbolHivePower)
		}
	}
	return rows
}

func (b *Builder) orderFillRow(op model.ClassifiedOperation, details model.OrderFillDetails) model.LedgerRow {
	row := model.LedgerRow{
		Timestamp:  op.Raw.Timestamp,
		Type:       model.RowTypeTrade,
		Venue:      VenueInternalMarket,
		Note:       "Trade",
		SourceTxID: sourceID(op),
	}
	if op.Role == model.RoleSender {
		// Account is the current (taker) side: pays current, receives open.
		row.OutAmount, row.OutCurrency = details.CurrentPays, model.NormalizeSymbol(details.CurrentSym)
		row.InAmount, row.InCurrency = details.OpenPays, model.NormalizeSymbol(details.OpenSym)
	} else {
		row.OutAmount, row.OutCurrency = details.OpenPays, model.NormalizeSymbol(details.OpenSym)
		row.InAmount, row.InCurrency = details.CurrentPays, model.NormalizeSymbol(details.CurrentSym)
	}
	return row
}

// RowFromFill renders one reconstructed fill as a trade row.
func RowFromFill(fill model.Fill) model.LedgerRow {
	return model.LedgerRow{
		Timestamp:   fill.Timestamp,
		Type:        model.RowTypeTrade,
		InAmount:    fill.ReceivedAmount,
		InCurrency:  model.NormalizeSymbol(fill.ReceivedCurrency),
		OutAmount:   fill.GivenAmount,
		OutCurrency: model.NormalizeSymbol(fill.GivenCurrency),
		Venue:       VenueEngineMarket,
		Note:        fill.Note,
		SourceTxID:  fill.SourceTxID,
		SubIndex:    fill.SubIndex,
	}
}
