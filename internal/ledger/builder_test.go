package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveledger-dev/hiveledger/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

type fixedRate struct {
	rate decimal.Decimal
	err  error
}

func (f fixedRate) HivePerVests(ctx context.Context, at time.Time) (decimal.Decimal, error) {
	return f.rate, f.err
}

func classified(category model.Category, role model.Role, details model.Details) model.ClassifiedOperation {
	return model.ClassifiedOperation{
		Raw: model.RawOperation{
			TxID:      "tx1",
			Timestamp: date(2024, 6, 15),
			Payload:   json.RawMessage(`{}`),
		},
		Category: category,
		Role:     role,
		Details:  details,
	}
}

func TestRewardRowsSplitPerComponent(t *testing.T) {
	b := NewBuilder(fixedRate{rate: dec("0.0005")}, zerolog.Nop())
	op := classified(model.CategoryIncome, model.RoleRecipient, model.RewardDetails{
		Hive:  dec("1.000"),
		HBD:   decimal.Zero,
		Vests: dec("2000"),
	})

	rows := b.Rows(context.Background(), []model.ClassifiedOperation{op}, nil)
	require.Len(t, rows, 2)

	assert.Equal(t, model.RowTypeIncome, rows[0].Type)
	assert.Equal(t, model.SymbolHive, rows[0].InCurrency)
	assert.False(t, rows[0].HasOut(), "income rows have only an in leg")

	// 2000 VESTS at 0.0005 HIVE each reports as 1 HP.
	assert.Equal(t, model.SymbolHivePower, rows[1].InCurrency)
	assert.True(t, rows[1].InAmount.Equal(dec("1")), "got %s", rows[1].InAmount)

	// Sub-indices distinguish the components of one claim.
	assert.Equal(t, 0, rows[0].SubIndex)
	assert.Equal(t, 1, rows[1].SubIndex)
}

func TestRewardRowsSkipStakedComponentWithoutRate(t *testing.T) {
	b := NewBuilder(fixedRate{err: errors.New("node down")}, zerolog.Nop())
	op := classified(model.CategoryIncome, model.RoleRecipient, model.RewardDetails{
		HBD:   dec("0.125"),
		Vests: dec("2000"),
	})

	rows := b.Rows(context.Background(), []model.ClassifiedOperation{op}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, model.SymbolHBD, rows[0].InCurrency)
	assert.Equal(t, 1, b.Skipped())
}

func TestInterestRow(t *testing.T) {
	b := NewBuilder(fixedRate{}, zerolog.Nop())
	op := classified(model.CategoryIncome, model.RoleRecipient, model.InterestDetails{
		Amount: dec("0.040"),
		Symbol: model.SymbolHBD,
	})

	rows := b.Rows(context.Background(), []model.ClassifiedOperation{op}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, model.RowTypeInterest, rows[0].Type)
	assert.False(t, rows[0].HasOut())
}

func TestConversionRowHasBothLegs(t *testing.T) {
	b := NewBuilder(fixedRate{}, zerolog.Nop())
	op := classified(model.CategoryConversion, model.RoleRecipient, model.ConversionDetails{
		AmountIn:  dec("10.000"),
		SymbolIn:  model.SymbolHBD,
		AmountOut: dec("25.000"),
		SymbolOut: model.SymbolHive,
	})

	rows := b.Rows(context.Background(), []model.ClassifiedOperation{op}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, model.RowTypeTransaction, rows[0].Type)
	assert.Equal(t, model.SymbolHive, rows[0].InCurrency)
	assert.Equal(t, model.SymbolHBD, rows[0].OutCurrency)
	assert.Equal(t, VenueInternalMarket, rows[0].Venue)
}

func TestOrderFillRowByRole(t *testing.T) {
	details := model.OrderFillDetails{
		CurrentOwner: "alice",
		CurrentPays:  dec("10.000"),
		CurrentSym:   model.SymbolHBD,
		OpenOwner:    "bob",
		OpenPays:     dec("35.000"),
		OpenSym:      model.SymbolHive,
	}
	b := NewBuilder(fixedRate{}, zerolog.Nop())

	// Taker: pays the current side.
	taker := classified(model.CategoryTrade, model.RoleSender, details)
	rows := b.Rows(context.Background(), []model.ClassifiedOperation{taker}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, model.SymbolHBD, rows[0].OutCurrency)
	assert.Equal(t, model.SymbolHive, rows[0].InCurrency)

	// Maker: pays the open side.
	maker := classified(model.CategoryTrade, model.RoleRecipient, details)
	rows = b.Rows(context.Background(), []model.ClassifiedOperation{maker}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, model.SymbolHive, rows[0].OutCurrency)
	assert.Equal(t, model.SymbolHBD, rows[0].InCurrency)
}

func TestTransferRows(t *testing.T) {
	b := NewBuilder(fixedRate{}, zerolog.Nop())

	out := classified(model.CategoryOutgoingTransfer, model.RoleSender, model.TransferDetails{
		From: "alice", To: "bob", Amount: dec("1.500"), Symbol: model.SymbolHive, Memo: "rent",
	})
	rows := b.Rows(context.Background(), []model.ClassifiedOperation{out}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, model.RowTypeWithdrawal, rows[0].Type)
	assert.False(t, rows[0].HasIn(), "withdrawal rows have only an out leg")

	in := classified(model.CategoryIncomingTransfer, model.RoleRecipient, model.TransferDetails{
		From: "bob", To: "alice", Amount: dec("0.005"), Symbol: model.SymbolHive,
	})
	rows = b.Rows(context.Background(), []model.ClassifiedOperation{in}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, model.RowTypeDeposit, rows[0].Type)
	assert.False(t, rows[0].HasOut())
}

func TestEngineTradeOperationYieldsNoDirectRow(t *testing.T) {
	b := NewBuilder(fixedRate{}, zerolog.Nop())
	op := classified(model.CategoryTrade, model.RoleRecipient, model.EngineTradeDetails{
		Action: "buy", Symbol: "LEO", Quantity: dec("100"),
	})

	rows := b.Rows(context.Background(), []model.ClassifiedOperation{op}, nil)
	assert.Empty(t, rows)
}

func TestRowFromFillNormalizesWrappedSymbol(t *testing.T) {
	fill := model.Fill{
		Timestamp:        date(2024, 6, 15),
		Counterparty:     "seller1",
		GivenAmount:      dec("2.5"),
		GivenCurrency:    model.SymbolSwapHive,
		ReceivedAmount:   dec("10"),
		ReceivedCurrency: "LEO",
		SourceTxID:       "tx1",
		SubIndex:         0,
		Note:             "buy fill from seller1",
	}

	row := RowFromFill(fill)
	assert.Equal(t, model.RowTypeTrade, row.Type)
	assert.Equal(t, model.SymbolHive, row.OutCurrency, "wrapped symbol normalized on the out leg")
	assert.Equal(t, "LEO", row.InCurrency)
	assert.Equal(t, VenueEngineMarket, row.Venue)
}

const zeroTxID = "0000000000000000000000000000000000000000"

func virtualInterest(seq int64, ts time.Time, amount string) model.ClassifiedOperation {
	return model.ClassifiedOperation{
		Raw: model.RawOperation{
			Sequence:  seq,
			TxID:      zeroTxID,
			Timestamp: ts,
			Type:      "interest",
		},
		Category: model.CategoryIncome,
		Role:     model.RoleRecipient,
		Details:  model.InterestDetails{Amount: dec(amount), Symbol: model.SymbolHBD},
	}
}

func TestVirtualOperationsKeepDistinctIdentities(t *testing.T) {
	// The chain reports the zero transaction id for every virtual operation
	// (interest, order fills, conversions). Two interest payments in one
	// year must both survive assembly.
	b := NewBuilder(fixedRate{}, zerolog.Nop())
	ops := []model.ClassifiedOperation{
		virtualInterest(10, date(2024, 6, 1), "0.040"),
		virtualInterest(20, date(2024, 6, 15), "0.055"),
	}

	rows := b.Rows(context.Background(), ops, nil)
	require.Len(t, rows, 2)
	assert.NotEqual(t, rows[0].SourceTxID, rows[1].SourceTxID)

	regular, dust := NewAssembler(dec("0.01")).Assemble(rows)
	assert.Empty(t, dust)
	require.Len(t, regular, 2, "both interest payments must survive assembly")
	assert.True(t, regular[0].InAmount.Equal(dec("0.040")))
	assert.True(t, regular[1].InAmount.Equal(dec("0.055")))
}

func TestVirtualOperationRereadStillDedups(t *testing.T) {
	// The same virtual operation read twice (a repeated page) keeps one row:
	// the sequence-derived identity is stable across reads.
	b := NewBuilder(fixedRate{}, zerolog.Nop())
	op := virtualInterest(10, date(2024, 6, 1), "0.040")

	rows := b.Rows(context.Background(), []model.ClassifiedOperation{op, op}, nil)
	require.Len(t, rows, 2)

	regular, _ := NewAssembler(dec("0.01")).Assemble(rows)
	assert.Len(t, regular, 1)
}

func TestStakeRows(t *testing.T) {
	b := NewBuilder(fixedRate{}, zerolog.Nop())
	stake := classified(model.CategoryStakeChange, model.RoleSender, model.EngineTokenDetails{
		Action: "stake", Symbol: "LEO", Quantity: dec("25"),
	})

	rows := b.Rows(context.Background(), []model.ClassifiedOperation{stake}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, model.RowTypeStaking, rows[0].Type)
	assert.True(t, rows[0].HasOut())
	assert.False(t, rows[0].HasIn())
}
