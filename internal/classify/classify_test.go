package classify

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveledger-dev/hiveledger/internal/model"
)

func rawOp(opType, payload string) model.RawOperation {
	return model.RawOperation{
		Sequence:  1,
		TxID:      "abc123",
		Timestamp: time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC),
		Type:      opType,
		Payload:   json.RawMessage(payload),
	}
}

func newTestClassifier() Classifier {
	return New("alice", "LEO", zerolog.Nop())
}

func TestClassifyOutgoingTransfer(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify(rawOp("transfer", `{"from":"alice","to":"bob","amount":"1.500 HIVE","memo":"rent"}`))

	assert.Equal(t, model.CategoryOutgoingTransfer, got.Category)
	assert.Equal(t, model.RoleSender, got.Role)
	details, ok := got.Details.(model.TransferDetails)
	require.True(t, ok)
	assert.Equal(t, "bob", details.To)
	assert.Equal(t, "1.5", details.Amount.String())
	assert.Equal(t, "HIVE", details.Symbol)
	assert.Equal(t, "rent", details.Memo)
}

func TestClassifyIncomingTransfer(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify(rawOp("transfer", `{"from":"bob","to":"alice","amount":"0.005 HIVE","memo":""}`))

	assert.Equal(t, model.CategoryIncomingTransfer, got.Category)
	assert.Equal(t, model.RoleRecipient, got.Role)
}

func TestClassifyThirdPartyTransferIgnored(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify(rawOp("transfer", `{"from":"bob","to":"carol","amount":"1.000 HIVE","memo":""}`))

	assert.Equal(t, model.CategoryIgnored, got.Category)
	assert.Equal(t, model.RoleNeither, got.Role)
}

func TestClassifyRewardClaim(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify(rawOp("claim_reward_balance",
		`{"account":"alice","reward_hive":"0.000 HIVE","reward_hbd":"0.125 HBD","reward_vests":"1234.567890 VESTS"}`))

	assert.Equal(t, model.CategoryIncome, got.Category)
	details, ok := got.Details.(model.RewardDetails)
	require.True(t, ok)
	assert.True(t, details.Hive.IsZero())
	assert.Equal(t, "0.125", details.HBD.String())
	assert.Equal(t, "1234.56789", details.Vests.String())
}

func TestClassifyInterest(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify(rawOp("interest", `{"owner":"alice","interest":"0.040 HBD"}`))

	assert.Equal(t, model.CategoryIncome, got.Category)
	details, ok := got.Details.(model.InterestDetails)
	require.True(t, ok)
	assert.Equal(t, "HBD", details.Symbol)
}

func TestClassifyConversion(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify(rawOp("fill_convert_request",
		`{"owner":"alice","requestid":1,"amount_in":"10.000 HBD","amount_out":"25.000 HIVE"}`))

	assert.Equal(t, model.CategoryConversion, got.Category)
	details, ok := got.Details.(model.ConversionDetails)
	require.True(t, ok)
	assert.Equal(t, "HBD", details.SymbolIn)
	assert.Equal(t, "HIVE", details.SymbolOut)
}

func TestClassifyOrderFill(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify(rawOp("fill_order",
		`{"current_owner":"alice","current_pays":"10.000 HBD","open_owner":"bob","open_pays":"35.000 HIVE"}`))

	assert.Equal(t, model.CategoryTrade, got.Category)
	assert.Equal(t, model.RoleSender, got.Role)
	details, ok := got.Details.(model.OrderFillDetails)
	require.True(t, ok)
	assert.Equal(t, "HBD", details.CurrentSym)
	assert.Equal(t, "HIVE", details.OpenSym)
}

func engineEnvelope(embedded string) string {
	b, _ := json.Marshal(embedded)
	return fmt.Sprintf(`{"id":"ssc-mainnet-hive","required_auths":["alice"],"required_posting_auths":[],"json":%s}`, b)
}

func TestClassifyEngineMarketBuy(t *testing.T) {
	c := newTestClassifier()
	embedded := `{"contractName":"market","contractAction":"buy","contractPayload":{"symbol":"LEO","quantity":"100","price":"0.25"}}`
	got := c.Classify(rawOp("custom_json", engineEnvelope(embedded)))

	assert.Equal(t, model.CategoryTrade, got.Category)
	assert.Equal(t, model.RoleRecipient, got.Role)
	details, ok := got.Details.(model.EngineTradeDetails)
	require.True(t, ok)
	assert.Equal(t, "buy", details.Action)
	assert.Equal(t, "100", details.Quantity.String())
	assert.Equal(t, "0.25", details.Price.String())
}

func TestClassifyEngineMarketSellBatch(t *testing.T) {
	c := newTestClassifier()
	embedded := `[{"contractName":"market","contractAction":"marketSell","contractPayload":{"symbol":"LEO","quantity":"50"}}]`
	got := c.Classify(rawOp("custom_json", engineEnvelope(embedded)))

	assert.Equal(t, model.CategoryTrade, got.Category)
	assert.Equal(t, model.RoleSender, got.Role)
}

func TestClassifyEngineWrongToken(t *testing.T) {
	c := newTestClassifier()
	embedded := `{"contractName":"market","contractAction":"buy","contractPayload":{"symbol":"BEE","quantity":"100","price":"0.25"}}`
	got := c.Classify(rawOp("custom_json", engineEnvelope(embedded)))

	assert.Equal(t, model.CategoryIgnored, got.Category)
}

func TestClassifyEngineWrongNamespace(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify(rawOp("custom_json",
		`{"id":"sm_token_transfer","required_auths":[],"required_posting_auths":["alice"],"json":"{}"}`))

	assert.Equal(t, model.CategoryIgnored, got.Category)
}

func TestClassifyEngineAccountNotInAuths(t *testing.T) {
	c := newTestClassifier()
	embedded := `{"contractName":"market","contractAction":"buy","contractPayload":{"symbol":"LEO","quantity":"100","price":"0.25"}}`
	envelope := `{"id":"ssc-mainnet-hive","required_auths":["bob"],"required_posting_auths":[],"json":` + mustJSON(embedded) + `}`
	got := c.Classify(rawOp("custom_json", envelope))

	assert.Equal(t, model.CategoryIgnored, got.Category)
}

func TestClassifyEngineMalformedEmbeddedJSON(t *testing.T) {
	c := newTestClassifier()
	envelope := `{"id":"ssc-mainnet-hive","required_auths":["alice"],"required_posting_auths":[],"json":"{not json"}`
	got := c.Classify(rawOp("custom_json", envelope))

	// Malformed embedded JSON is skipped with a warning, never fatal.
	assert.Equal(t, model.CategoryIgnored, got.Category)
}

func TestClassifyEngineTokenStake(t *testing.T) {
	c := newTestClassifier()
	embedded := `{"contractName":"tokens","contractAction":"stake","contractPayload":{"symbol":"LEO","quantity":"25","to":"alice"}}`
	got := c.Classify(rawOp("custom_json", engineEnvelope(embedded)))

	assert.Equal(t, model.CategoryStakeChange, got.Category)
	details, ok := got.Details.(model.EngineTokenDetails)
	require.True(t, ok)
	assert.Equal(t, "25", details.Quantity.String())
}

func TestClassifyEngineTokenTransfer(t *testing.T) {
	c := newTestClassifier()
	embedded := `{"contractName":"tokens","contractAction":"transfer","contractPayload":{"symbol":"LEO","quantity":"10","to":"bob","memo":"gift"}}`
	got := c.Classify(rawOp("custom_json", engineEnvelope(embedded)))

	assert.Equal(t, model.CategoryOutgoingTransfer, got.Category)
	assert.Equal(t, model.RoleSender, got.Role)
}

func TestClassifyUnknownTypeIgnored(t *testing.T) {
	c := newTestClassifier()
	got := c.Classify(rawOp("vote", `{"voter":"alice","author":"bob"}`))

	assert.Equal(t, model.CategoryIgnored, got.Category)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := newTestClassifier()
	op := rawOp("transfer", `{"from":"alice","to":"bob","amount":"1.500 HIVE","memo":"rent"}`)

	first := c.Classify(op)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Classify(op))
	}
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
