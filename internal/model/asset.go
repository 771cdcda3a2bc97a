package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Base-chain asset symbols.
const (
	SymbolHive  = "HIVE"
	SymbolHBD   = "HBD"
	SymbolVests = "VESTS"

	// SymbolSwapHive is the wrapped representation of HIVE on the token
	// side-chain. Always normalized to HIVE in output.
	SymbolSwapHive = "SWAP.HIVE"

	// SymbolHivePower is the display symbol for vested (staked) HIVE.
	SymbolHivePower = "HP"
)

// Asset is a parsed chain amount like "1.234 HIVE".
type Asset struct {
	Amount decimal.Decimal
	Symbol string
}

// ParseAsset parses a chain-formatted amount string ("1.234 HIVE").
func ParseAsset(s string) (Asset, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return Asset{}, fmt.Errorf("invalid asset %q", s)
	}
	amount, err := decimal.NewFromString(parts[0])
	if err != nil {
		return Asset{}, fmt.Errorf("invalid asset amount %q: %w", parts[0], err)
	}
	return Asset{Amount: amount, Symbol: parts[1]}, nil
}

// NormalizeSymbol maps wrapped side-chain symbols to their base-chain
// display symbol. Applied to both legs of every exported row.
func NormalizeSymbol(symbol string) string {
	if symbol == SymbolSwapHive {
		return SymbolHive
	}
	return symbol
}

// SymbolDecimals returns the native display precision for a symbol.
// Side-chain tokens carry up to 8 decimal places.
func SymbolDecimals(symbol string) int32 {
	switch symbol {
	case SymbolHive, SymbolHBD, SymbolHivePower:
		return 3
	case SymbolVests:
		return 6
	default:
		return 8
	}
}
