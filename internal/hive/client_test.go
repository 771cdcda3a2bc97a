package hive

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const historyItem = `[
	1523,
	{
		"trx_id": "a9f3b2c1d4e5f60718293a4b5c6d7e8f90a1b2c3",
		"block": 81234567,
		"trx_in_block": 4,
		"op_in_trx": 0,
		"virtual_op": 0,
		"timestamp": "2024-06-15T09:30:21",
		"op": [
			"transfer",
			{"from": "alice", "to": "bob", "amount": "1.500 HIVE", "memo": "thanks"}
		]
	}
]`

func TestParseHistoryItem(t *testing.T) {
	op, err := parseHistoryItem(json.RawMessage(historyItem))
	require.NoError(t, err)

	assert.Equal(t, int64(1523), op.Sequence)
	assert.Equal(t, "a9f3b2c1d4e5f60718293a4b5c6d7e8f90a1b2c3", op.TxID)
	assert.Equal(t, uint32(81234567), op.Block)
	assert.Equal(t, "transfer", op.Type)
	assert.True(t, op.Timestamp.Equal(time.Date(2024, 6, 15, 9, 30, 21, 0, time.UTC)))

	var payload struct {
		From   string `json:"from"`
		Amount string `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(op.Payload, &payload))
	assert.Equal(t, "alice", payload.From)
	assert.Equal(t, "1.500 HIVE", payload.Amount)
}

func TestParseHistoryItemRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not a pair":    `{"trx_id": "x"}`,
		"short pair":    `[1]`,
		"bad index":     `["x", {}]`,
		"bad op":        `[1, {"timestamp": "2024-06-15T09:30:21", "op": ["transfer"]}]`,
		"bad timestamp": `[1, {"timestamp": "June 15", "op": ["transfer", {}]}]`,
	}
	for name, input := range cases {
		_, err := parseHistoryItem(json.RawMessage(input))
		assert.Error(t, err, name)
	}
}
