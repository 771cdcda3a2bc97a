package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies an operation by its tax-relevant meaning.
type Category string

const (
	CategoryTrade            Category = "trade"
	CategoryIncome           Category = "income"
	CategoryIncomingTransfer Category = "incoming-transfer"
	CategoryOutgoingTransfer Category = "outgoing-transfer"
	CategoryStakeChange      Category = "stake-change"
	CategoryConversion       Category = "conversion"
	CategoryIgnored          Category = "ignored"
)

// Role is the account's part in an operation.
type Role string

const (
	RoleSender    Role = "sender"
	RoleRecipient Role = "recipient"
	RoleNeither   Role = "neither"
)

// virtualTxID is the transaction id the chain reports for virtual
// operations (interest payments, order fills, conversion fills), which are
// generated by the chain itself rather than carried in a signed transaction.
const virtualTxID = "0000000000000000000000000000000000000000"

// IsVirtualTxID reports whether id is the all-zero virtual-operation
// sentinel. Virtual operations share this id, so it cannot serve as a
// per-operation identity on its own.
func IsVirtualTxID(id string) bool {
	return id == virtualTxID || id == ""
}

// RawOperation is one entry from the account-history log.
// Sequence indices decrease as history is walked backward from most recent.
type RawOperation struct {
	Sequence  int64           `json:"sequence"`
	TxID      string          `json:"tx_id"`
	Block     uint32          `json:"block"`
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

// ClassifiedOperation is a RawOperation with its category, the account's
// role, and the decoded payload variant for that category.
type ClassifiedOperation struct {
	Raw      RawOperation
	Category Category
	Role     Role
	Details  Details
}

// Details is the closed set of per-category payload variants. Exactly the
// fields valid for the category, nothing optional.
type Details interface {
	isDetails()
}

// TransferDetails covers transfer and fill_recurrent_transfer operations.
type TransferDetails struct {
	From   string
	To     string
	Amount decimal.Decimal
	Symbol string
	Memo   string
}

// RewardDetails covers claim_reward_balance. Zero components are kept; the
// ledger builder skips them.
type RewardDetails struct {
	Hive  decimal.Decimal
	HBD   decimal.Decimal
	Vests decimal.Decimal
}

// InterestDetails covers HBD savings interest payments.
type InterestDetails struct {
	Amount decimal.Decimal
	Symbol string
}

// ConversionDetails covers fill_convert_request (HBD -> HIVE conversion).
type ConversionDetails struct {
	AmountIn  decimal.Decimal
	SymbolIn  string
	AmountOut decimal.Decimal
	SymbolOut string
}

// OrderFillDetails covers fill_order on the base-chain internal market.
// Current is the side the account placed when taker; amounts for both sides
// are present in the raw record, so no enrichment is needed.
type OrderFillDetails struct {
	CurrentOwner string
	CurrentPays  decimal.Decimal
	CurrentSym   string
	OpenOwner    string
	OpenPays     decimal.Decimal
	OpenSym      string
}

// EngineTradeDetails covers side-chain market actions carried in custom_json
// envelopes. Settlement amounts are not in the envelope; the enricher fetches
// the transaction's event log.
type EngineTradeDetails struct {
	Action   string
	Symbol   string
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// EngineTokenDetails covers side-chain token actions (transfer, stake, issue)
// whose amounts are fully present in the envelope.
type EngineTokenDetails struct {
	Action   string
	Symbol   string
	Quantity decimal.Decimal
	From     string
	To       string
	Memo     string
}

func (TransferDetails) isDetails()    {}
func (RewardDetails) isDetails()      {}
func (InterestDetails) isDetails()    {}
func (ConversionDetails) isDetails()  {}
func (OrderFillDetails) isDetails()   {}
func (EngineTradeDetails) isDetails() {}
func (EngineTokenDetails) isDetails() {}

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
