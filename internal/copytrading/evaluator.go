package copytrading

import (
	"strings"

	"github.com/copytrade-hub/internal/models"
	"github.com/shopspring/decimal"
)

// SkipReason explains why a subscriber was not copied into a trade.
type SkipReason string

const (
	ReasonCopyingDisabled SkipReason = "copying_disabled"
	ReasonTokenExcluded   SkipReason = "token_excluded"
	ReasonTokenNotAllowed SkipReason = "token_not_allowed"
	ReasonNoUSDValue      SkipReason = "no_usd_value"
	ReasonNegativeValue   SkipReason = "negative_value"
	ReasonBelowMinSize    SkipReason = "below_min_size"
	ReasonAboveMaxSize    SkipReason = "above_max_size"
	ReasonInvalidSizing   SkipReason = "invalid_sizing_mode"
)

// Decision is the outcome of evaluating one subscriber's settings
// against one trade: either copy with an amount, or skip with a reason.
type Decision struct {
	Copy   bool            `json:"copy"`
	Amount decimal.Decimal `json:"amount,omitempty"`
	Reason SkipReason      `json:"reason,omitempty"`
}

func copyDecision(amount decimal.Decimal) Decision {
	return Decision{Copy: true, Amount: amount}
}

func skip(reason SkipReason) Decision {
	return Decision{Reason: reason}
}

var hundred = decimal.NewFromInt(100)

// Evaluator is the pure eligibility decision function. It performs no
// I/O; everything it needs is passed in.
type Evaluator struct {
	// SkipNegativeValue skips trades with a negative USD value instead
	// of letting the sizing formulas propagate the sign.
	SkipNegativeValue bool
}

// Evaluate decides whether and how much of a trade to copy under the
// given settings.
//
// Check order matters and is fixed:
//
//	enabled → deny-list → allow-list → valuation → sizing → bounds
//
// The deny-list always wins over the allow-list, and an empty allow-list
// permits all tokens. Both min and max bounds are inclusive.
func (e Evaluator) Evaluate(trade *models.Trade, settings *models.CopySettings) Decision {
	if !settings.CopyEnabled {
		return skip(ReasonCopyingDisabled)
	}

	tokenIn := strings.ToUpper(strings.TrimSpace(trade.TokenIn))
	tokenOut := strings.ToUpper(strings.TrimSpace(trade.TokenOut))

	if containsToken(settings.ExcludedTokens, tokenIn) || containsToken(settings.ExcludedTokens, tokenOut) {
		return skip(ReasonTokenExcluded)
	}
	if len(settings.AllowedTokens) > 0 &&
		!containsToken(settings.AllowedTokens, tokenIn) && !containsToken(settings.AllowedTokens, tokenOut) {
		return skip(ReasonTokenNotAllowed)
	}

	if !trade.USDValue.Valid || trade.USDValue.Decimal.IsZero() {
		return skip(ReasonNoUSDValue)
	}
	usdValue := trade.USDValue.Decimal
	if e.SkipNegativeValue && usdValue.IsNegative() {
		return skip(ReasonNegativeValue)
	}

	var amount decimal.Decimal
	switch settings.SizingMode {
	case models.SizingPercentage:
		amount = usdValue.Mul(settings.CopyAmount).Div(hundred)
	case models.SizingFixed:
		amount = settings.CopyAmount
	case models.SizingProportional:
		amount = usdValue.Mul(settings.CopyAmount)
	default:
		return skip(ReasonInvalidSizing)
	}

	if settings.MinTradeSize.Valid && amount.LessThan(settings.MinTradeSize.Decimal) {
		return skip(ReasonBelowMinSize)
	}
	if settings.MaxTradeSize.Valid && amount.GreaterThan(settings.MaxTradeSize.Decimal) {
		return skip(ReasonAboveMaxSize)
	}

	return copyDecision(amount)
}

func containsToken(list models.TokenList, token string) bool {
	for _, t := range list {
		if strings.ToUpper(strings.TrimSpace(t)) == token {
			return true
		}
	}
	return false
}
