package ledger

import (
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/hiveledger-dev/hiveledger/internal/model"
)

// maxNoteLen caps sanitized free-text fields.
const maxNoteLen = 200

// Assembler deduplicates rows, buckets them into regular and dust ledgers,
// and sorts both chronologically.
type Assembler struct {
	dust decimal.Decimal
}

// NewAssembler creates an Assembler with a HIVE-denominated dust threshold.
func NewAssembler(dust decimal.Decimal) Assembler {
	return Assembler{dust: dust}
}

type rowKey struct {
	txID string
	sub  int
}

// Assemble returns the regular and dust ledgers. Rows sharing a
// (transaction, sub-index) identity are collapsed to the first seen, so
// repeated page reads never double-count a settlement. A row whose HIVE leg
// (either side) is below the dust threshold goes to the dust ledger;
// dust is segregated, never dropped.
func (a Assembler) Assemble(rows []model.LedgerRow) (regular, dust []model.LedgerRow) {
	seen := make(map[rowKey]bool, len(rows))

	for _, row := range rows {
		key := rowKey{txID: row.SourceTxID, sub: row.SubIndex}
		if seen[key] {
			continue
		}
		seen[key] = true

		row.Note = sanitizeFreeText(row.Note)
		if a.isDust(row) {
			dust = append(dust, row)
		} else {
			regular = append(regular, row)
		}
	}

	sortRows(regular)
	sortRows(dust)
	return regular, dust
}

// isDust applies the threshold to HIVE legs only; the traded token itself is
// never dust-filtered.
func (a Assembler) isDust(row model.LedgerRow) bool {
	if row.HasIn() && row.InCurrency == model.SymbolHive && row.InAmount.LessThan(a.dust) {
		return true
	}
	if row.HasOut() && row.OutCurrency == model.SymbolHive && row.OutAmount.LessThan(a.dust) {
		return true
	}
	return false
}

func sortRows(rows []model.LedgerRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].Timestamp.Before(rows[j].Timestamp)
		}
		if rows[i].SourceTxID != rows[j].SourceTxID {
			return rows[i].SourceTxID < rows[j].SourceTxID
		}
		return rows[i].SubIndex < rows[j].SubIndex
	})
}

// sanitizeFreeText makes memo/note text safe for single-line CSV fields:
// control characters and field separators become spaces, runs of whitespace
// collapse, and overlong text is truncated with a marker.
func sanitizeFreeText(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)

	cleaned := strings.Join(strings.Fields(mapped), " ")

	runes := []rune(cleaned)
	if len(runes) > maxNoteLen {
		cleaned = string(runes[:maxNoteLen]) + "..."
	}
	return cleaned
}
