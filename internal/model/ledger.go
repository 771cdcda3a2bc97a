package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RowType is the exported transaction type label.
type RowType string

const (
	RowTypeTrade       RowType = "Trade"
	RowTypeIncome      RowType = "Income"
	RowTypeInterest    RowType = "Interest"
	RowTypeDeposit     RowType = "Deposit"
	RowTypeWithdrawal  RowType = "Withdrawal"
	RowTypeTransaction RowType = "Transaction"
	RowTypeStaking     RowType = "Staking"
)

// LedgerRow is the exportable unit. Exactly one of the in/out legs is set
// for income and transfer rows; trades and conversions set both. An unset
// leg has an empty currency and renders as empty fields, never zero.
type LedgerRow struct {
	Timestamp   time.Time
	Type        RowType
	InAmount    decimal.Decimal
	InCurrency  string
	OutAmount   decimal.Decimal
	OutCurrency string
	FeeAmount   decimal.Decimal
	FeeCurrency string
	Venue       string
	Note        string

	// Dedup identity: SourceTxID plus SubIndex for multi-fill transactions.
	SourceTxID string
	SubIndex   int
}

// HasIn reports whether the row has an incoming leg.
func (r LedgerRow) HasIn() bool { return r.InCurrency != "" }

// HasOut reports whether the row has an outgoing leg.
func (r LedgerRow) HasOut() bool { return r.OutCurrency != "" }

// HasFee reports whether the row has a fee leg.
func (r LedgerRow) HasFee() bool { return r.FeeCurrency != "" }
