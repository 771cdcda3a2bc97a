package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fill is one counterparty-level settlement extracted from an aggregated
// trade transaction. GivenAmount and ReceivedAmount are positive after
// reconstruction.
type Fill struct {
	Timestamp        time.Time
	Counterparty     string
	GivenAmount      decimal.Decimal
	GivenCurrency    string
	ReceivedAmount   decimal.Decimal
	ReceivedCurrency string
	SourceTxID       string
	SubIndex         int
	Note             string
}
