package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hiveledger-dev/hiveledger/internal/model"
)

// Header is the fixed CSV header row.
const Header = "Timestamp,Type,In,In-Currency,Out,Out-Currency,Fee,Fee-Currency,Venue,Note"

const (
	numFields     = 10
	timeFormat    = "2006-01-02 15:04:05"
	colTimestamp  = 0
	colType       = 1
	colIn         = 2
	colInCurrency = 3
	colOut        = 4
	colOutCurr    = 5
	colFee        = 6
	colFeeCurr    = 7
	colVenue      = 8
	colNote       = 9
)

// MarshalRow converts a LedgerRow to a CSV row ([]string). Absent legs
// render as empty fields, never zero.
func MarshalRow(r model.LedgerRow) []string {
	row := make([]string, numFields)
	row[colTimestamp] = r.Timestamp.UTC().Format(timeFormat)
	row[colType] = string(r.Type)

	if r.HasIn() {
		row[colIn] = r.InAmount.StringFixed(model.SymbolDecimals(r.InCurrency))
		row[colInCurrency] = r.InCurrency
	}
	if r.HasOut() {
		row[colOut] = r.OutAmount.StringFixed(model.SymbolDecimals(r.OutCurrency))
		row[colOutCurr] = r.OutCurrency
	}
	if r.HasFee() {
		row[colFee] = r.FeeAmount.StringFixed(model.SymbolDecimals(r.FeeCurrency))
		row[colFeeCurr] = r.FeeCurrency
	}

	row[colVenue] = r.Venue
	row[colNote] = r.Note
	return row
}

// WriteRows writes rows (including header) to w.
func WriteRows(w io.Writer, rows []model.LedgerRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// WriteFile writes rows to path atomically: the file appears complete or not
// at all, so an interrupted run never leaves a partial ledger behind.
func WriteFile(path string, rows []model.LedgerRow) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteRows(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving ledger into place: %w", err)
	}
	return nil
}
