package model

import "github.com/shopspring/decimal"

// EventTransferFromContract marks events that move assets out of the market
// contract; the reconstructor only pairs events of this kind.
const EventTransferFromContract = "transferFromContract"

// Event is one entry of a side-chain transaction's event log, in execution
// order. Index is the event's position in the original log.
type Event struct {
	Index    int
	Contract string
	Kind     string
	From     string
	To       string
	Symbol   string
	Quantity decimal.Decimal
}

// DetailRecord is the decoded per-transaction detail used to reconstruct
// individual fills from an aggregated market transaction.
type DetailRecord struct {
	TxID   string
	Action EngineTradeDetails
	Events []Event
}
