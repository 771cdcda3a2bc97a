// Package classify maps raw account-history operations to their tax-relevant
// categories. Classification is deterministic: the same operation and account
// always produce the same result.
package classify

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hiveledger-dev/hiveledger/internal/model"
)

// EngineEnvelopeID is the custom_json namespace of the token side-chain.
const EngineEnvelopeID = "ssc-mainnet-hive"

// Side-chain contract and action names recognized by the classifier.
const (
	contractMarket = "market"
	contractTokens = "tokens"
)

var marketActions = map[string]bool{
	"buy":        true,
	"sell":       true,
	"marketBuy":  true,
	"marketSell": true,
}

// Classifier tags operations for one account and one configured token.
type Classifier struct {
	account string
	token   string
	log     zerolog.Logger
}

// New creates a Classifier.
func New(account, token string, log zerolog.Logger) Classifier {
	return Classifier{
		account: account,
		token:   token,
		log:     log.With().Str("component", "classify").Logger(),
	}
}

// Classify tags a raw operation. Operations that do not involve the account,
// carry an unknown type, or fail to parse are Ignored; a parse failure is
// logged, never fatal.
func (c Classifier) Classify(op model.RawOperation) model.ClassifiedOperation {
	switch op.Type {
	case "transfer", "fill_recurrent_transfer":
		return c.classifyTransfer(op)
	case "claim_reward_balance":
		return c.classifyReward(op)
	case "interest":
		return c.classifyInterest(op)
	case "fill_convert_request":
		return c.classifyConversion(op)
	case "fill_order":
		return c.classifyOrderFill(op)
	case "custom_json":
		return c.classifyCustomJSON(op)
	default:
		return c.ignored(op)
	}
}

func (c Classifier) ignored(op model.RawOperation) model.ClassifiedOperation {
	return model.ClassifiedOperation{Raw: op, Category: model.CategoryIgnored, Role: model.RoleNeither}
}

func (c Classifier) ignoredWarn(op model.RawOperation, err error, what string) model.ClassifiedOperation {
	c.log.Warn().Err(err).Str("tx", op.TxID).Str("type", op.Type).Msgf("skipping unparseable %s", what)
	return c.ignored(op)
}

func (c Classifier) classifyTransfer(op model.RawOperation) model.ClassifiedOperation {
	var payload struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount string `json:"amount"`
		Memo   string `json:"memo"`
	}
	if err := json.Unmarshal(op.Payload, &payload); err != nil {
		return c.ignoredWarn(op, err, "transfer payload")
	}

	var role model.Role
	var category model.Category
	switch c.account {
	case payload.From:
		role, category = model.RoleSender, model.CategoryOutgoingTransfer
	case payload.To:
		role, category = model.RoleRecipient, model.CategoryIncomingTransfer
	default:
		return c.ignored(op)
	}

	amount, err := model.ParseAsset(payload.Amount)
	if err != nil {
		return c.ignoredWarn(op, err, "transfer amount")
	}

	return model.ClassifiedOperation{
		Raw:      op,
		Category: category,
		Role:     role,
		Details: model.TransferDetails{
			From:   payload.From,
			To:     payload.To,
			Amount: amount.Amount,
			Symbol: amount.Symbol,
			Memo:   payload.Memo,
		},
	}
}

func (c Classifier) classifyReward(op model.RawOperation) model.ClassifiedOperation {
	var payload struct {
		Account     string `json:"account"`
		RewardHive  string `json:"reward_hive"`
		RewardHBD   string `json:"reward_hbd"`
		RewardVests string `json:"reward_vests"`
	}
	if err := json.Unmarshal(op.Payload, &payload); err != nil {
		return c.ignoredWarn(op, err, "reward payload")
	}
	if payload.Account != c.account {
		return c.ignored(op)
	}

	hive, err := model.ParseAsset(payload.RewardHive)
	if err != nil {
		return c.ignoredWarn(op, err, "reward amount")
	}
	hbd, err := model.ParseAsset(payload.RewardHBD)
	if err != nil {
		return c.ignoredWarn(op, err, "reward amount")
	}
	vests, err := model.ParseAsset(payload.RewardVests)
	if err != nil {
		return c.ignoredWarn(op, err, "reward amount")
	}

	return model.ClassifiedOperation{
		Raw:      op,
		Category: model.CategoryIncome,
		Role:     model.RoleRecipient,
		Details:  model.RewardDetails{Hive: hive.Amount, HBD: hbd.Amount, Vests: vests.Amount},
	}
}

func (c Classifier) classifyInterest(op model.RawOperation) model.ClassifiedOperation {
	var payload struct {
		Owner    string `json:"owner"`
		Interest string `json:"interest"`
	}
	if err := json.Unmarshal(op.Payload, &payload); err != nil {
		return c.ignoredWarn(op, err, "interest payload")
	}
	if payload.Owner != c.account {
		return c.ignored(op)
	}

	amount, err := model.ParseAsset(payload.Interest)
	if err != nil {
		return c.ignoredWarn(op, err, "interest amount")
	}

	return model.ClassifiedOperation{
		Raw:      op,
		Category: model.CategoryIncome,
		Role:     model.RoleRecipient,
		Details:  model.InterestDetails{Amount: amount.Amount, Symbol: amount.Symbol},
	}
}

func (c Classifier) classifyConversion(op model.RawOperation) model.ClassifiedOperation {
	var payload struct {
		Owner     string `json:"owner"`
		AmountIn  string `json:"amount_in"`
		AmountOut string `json:"amount_out"`
	}
	if err := json.Unmarshal(op.Payload, &payload); err != nil {
		return c.ignoredWarn(op, err, "conversion payload")
	}
	if payload.Owner != c.account {
		return c.ignored(op)
	}

	in, err := model.ParseAsset(payload.AmountIn)
	if err != nil {
		return c.ignoredWarn(op, err, "conversion amount")
	}
	out, err := model.ParseAsset(payload.AmountOut)
	if err != nil {
		return c.ignoredWarn(op, err, "conversion amount")
	}

	return model.ClassifiedOperation{
		Raw:      op,
		Category: model.CategoryConversion,
		Role:     model.RoleRecipient,
		Details: model.ConversionDetails{
			AmountIn:  in.Amount,
			SymbolIn:  in.Symbol,
			AmountOut: out.Amount,
			SymbolOut: out.Symbol,
		},
	}
}

func (c Classifier) classifyOrderFill(op model.RawOperation) model.ClassifiedOperation {
	var payload struct {
		CurrentOwner string `json:"current_owner"`
		CurrentPays  string `json:"current_pays"`
		OpenOwner    string `json:"open_owner"`
		OpenPays     string `json:"open_pays"`
	}
	if err := json.Unmarshal(op.Payload, &payload); err != nil {
		return c.ignoredWarn(op, err, "order fill payload")
	}

	var role model.Role
	switch c.account {
	case payload.CurrentOwner:
		role = model.RoleSender
	case payload.OpenOwner:
		role = model.RoleRecipient
	default:
		return c.ignored(op)
	}

	current, err := model.ParseAsset(payload.CurrentPays)
	if err != nil {
		return c.ignoredWarn(op, err, "order fill amount")
	}
	open, err := model.ParseAsset(payload.OpenPays)
	if err != nil {
		return c.ignoredWarn(op, err, "order fill amount")
	}

	return model.ClassifiedOperation{
		Raw:      op,
		Category: model.CategoryTrade,
		Role:     role,
		Details: model.OrderFillDetails{
			CurrentOwner: payload.CurrentOwner,
			CurrentPays:  current.Amount,
			CurrentSym:   current.Symbol,
			OpenOwner:    payload.OpenOwner,
			OpenPays:     open.Amount,
			OpenSym:      open.Symbol,
		},
	}
}

// engineAction is the embedded side-chain action carried inside a custom_json
// envelope.
type engineAction struct {
	ContractName    string `json:"contractName"`
	ContractAction  string `json:"contractAction"`
	ContractPayload struct {
		Symbol   string `json:"symbol"`
		Quantity string `json:"quantity"`
		Price    string `json:"price"`
		To       string `json:"to"`
		Memo     string `json:"memo"`
	} `json:"contractPayload"`
}

func (c Classifier) classifyCustomJSON(op model.RawOperation) model.ClassifiedOperation {
	var envelope struct {
		ID                   string   `json:"id"`
		JSON                 string   `json:"json"`
		RequiredAuths        []string `json:"required_auths"`
		RequiredPostingAuths []string `json:"required_posting_auths"`
	}
	if err := json.Unmarshal(op.Payload, &envelope); err != nil {
		return c.ignoredWarn(op, err, "custom_json envelope")
	}
	if envelope.ID != EngineEnvelopeID {
		return c.ignored(op)
	}
	if !contains(envelope.RequiredAuths, c.account) && !contains(envelope.RequiredPostingAuths, c.account) {
		return c.ignored(op)
	}

	actions, err := decodeActions(envelope.JSON)
	if err != nil {
		return c.ignoredWarn(op, err, "side-chain action")
	}

	for _, action := range actions {
		if classified, ok := c.classifyEngineAction(op, action); ok {
			return classified
		}
	}
	return c.ignored(op)
}

// decodeActions accepts both a single embedded action and a batch array.
func decodeActions(embedded string) ([]engineAction, error) {
	trimmed := strings.TrimSpace(embedded)
	if strings.HasPrefix(trimmed, "[") {
		var actions []engineAction
		if err := json.Unmarshal([]byte(trimmed), &actions); err != nil {
			return nil, err
		}
		return actions, nil
	}
	var action engineAction
	if err := json.Unmarshal([]byte(trimmed), &action); err != nil {
		return nil, err
	}
	return []engineAction{action}, nil
}

func (c Classifier) classifyEngineAction(op model.RawOperation, action engineAction) (model.ClassifiedOperation, bool) {
	if action.ContractPayload.Symbol != c.token {
		return model.ClassifiedOperation{}, false
	}

	quantity, qErr := decimal.NewFromString(action.ContractPayload.Quantity)

	switch {
	case action.ContractName == contractMarket && marketActions[action.ContractAction]:
		if qErr != nil {
			return c.ignoredWarn(op, qErr, "market action quantity"), true
		}
		price := decimal.Zero
		if action.ContractPayload.Price != "" {
			p, err := decimal.NewFromString(action.ContractPayload.Price)
			if err != nil {
				return c.ignoredWarn(op, err, "market action price"), true
			}
			price = p
		}
		role := model.RoleRecipient
		if action.ContractAction == "sell" || action.ContractAction == "marketSell" {
			role = model.RoleSender
		}
		return model.ClassifiedOperation{
			Raw:      op,
			Category: model.CategoryTrade,
			Role:     role,
			Details: model.EngineTradeDetails{
				Action:   action.ContractAction,
				Symbol:   action.ContractPayload.Symbol,
				Quantity: quantity,
				Price:    price,
			},
		}, true

	case action.ContractName == contractTokens:
		if qErr != nil {
			return c.ignoredWarn(op, qErr, "token action quantity"), true
		}
		details := model.EngineTokenDetails{
			Action:   action.ContractAction,
			Symbol:   action.ContractPayload.Symbol,
			Quantity: quantity,
			From:     c.account,
			To:       action.ContractPayload.To,
			Memo:     action.ContractPayload.Memo,
		}
		switch action.ContractAction {
		case "transfer":
			if action.ContractPayload.To == c.account {
				// Self-transfer, nothing reportable.
				return c.ignored(op), true
			}
			return model.ClassifiedOperation{
				Raw:      op,
				Category: model.CategoryOutgoingTransfer,
				Role:     model.RoleSender,
				Details:  details,
			}, true
		case "stake", "unstake":
			return model.ClassifiedOperation{
				Raw:      op,
				Category: model.CategoryStakeChange,
				Role:     model.RoleSender,
				Details:  details,
			}, true
		case "issue":
			if action.ContractPayload.To != c.account {
				return model.ClassifiedOperation{}, false
			}
			return model.ClassifiedOperation{
				Raw:      op,
				Category: model.CategoryIncome,
				Role:     model.RoleRecipient,
				Details:  details,
			}, true
		}
	}
	return model.ClassifiedOperation{}, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
