package copytrading_test

import (
	"testing"

	"github.com/copytrade-hub/internal/copytrading"
	"github.com/copytrade-hub/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func tradeWithValue(usd string) *models.Trade {
	t := &models.Trade{
		ID:       1,
		TraderID: 10,
		TokenIn:  "ETH",
		TokenOut: "USDC",
	}
	if usd != "" {
		t.USDValue = nullDec(usd)
	}
	return t
}

func percentageSettings(amount string) *models.CopySettings {
	return &models.CopySettings{
		CopyEnabled: true,
		SizingMode:  models.SizingPercentage,
		CopyAmount:  dec(amount),
	}
}

func TestEvaluateSizingModes(t *testing.T) {
	e := copytrading.Evaluator{}

	tests := []struct {
		name     string
		usdValue string
		mode     models.SizingMode
		amount   string
		want     string
	}{
		{"percentage takes a cut of trade value", "1000", models.SizingPercentage, "50", "500"},
		{"fixed ignores trade value", "1000", models.SizingFixed, "250", "250"},
		{"proportional multiplies trade value", "300", models.SizingProportional, "2", "600"},
		{"percentage keeps fractional cents exact", "333.33", models.SizingPercentage, "10", "33.333"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := &models.CopySettings{
				CopyEnabled: true,
				SizingMode:  tt.mode,
				CopyAmount:  dec(tt.amount),
			}
			d := e.Evaluate(tradeWithValue(tt.usdValue), settings)
			require.True(t, d.Copy)
			assert.True(t, d.Amount.Equal(dec(tt.want)),
				"want %s got %s", tt.want, d.Amount)
		})
	}
}

func TestEvaluateSkipsWithoutValuation(t *testing.T) {
	e := copytrading.Evaluator{}

	t.Run("null usd value", func(t *testing.T) {
		d := e.Evaluate(tradeWithValue(""), percentageSettings("50"))
		assert.False(t, d.Copy)
		assert.Equal(t, copytrading.ReasonNoUSDValue, d.Reason)
	})

	t.Run("zero usd value", func(t *testing.T) {
		d := e.Evaluate(tradeWithValue("0"), percentageSettings("50"))
		assert.False(t, d.Copy)
		assert.Equal(t, copytrading.ReasonNoUSDValue, d.Reason)
	})
}

func TestEvaluateCopyDisabled(t *testing.T) {
	e := copytrading.Evaluator{}
	settings := percentageSettings("50")
	settings.CopyEnabled = false

	d := e.Evaluate(tradeWithValue("1000"), settings)
	assert.False(t, d.Copy)
	assert.Equal(t, copytrading.ReasonCopyingDisabled, d.Reason)
}

func TestEvaluateTokenFilters(t *testing.T) {
	e := copytrading.Evaluator{}

	t.Run("deny list wins over allow list", func(t *testing.T) {
		settings := percentageSettings("50")
		settings.AllowedTokens = models.TokenList{"ETH", "USDC"}
		settings.ExcludedTokens = models.TokenList{"ETH"}

		d := e.Evaluate(tradeWithValue("1000"), settings)
		assert.False(t, d.Copy)
		assert.Equal(t, copytrading.ReasonTokenExcluded, d.Reason)
	})

	t.Run("empty allow list permits all tokens", func(t *testing.T) {
		d := e.Evaluate(tradeWithValue("1000"), percentageSettings("50"))
		assert.True(t, d.Copy)
	})

	t.Run("allow list blocks unlisted pair", func(t *testing.T) {
		settings := percentageSettings("50")
		settings.AllowedTokens = models.TokenList{"BTC", "SOL"}

		d := e.Evaluate(tradeWithValue("1000"), settings)
		assert.False(t, d.Copy)
		assert.Equal(t, copytrading.ReasonTokenNotAllowed, d.Reason)
	})

	t.Run("allow list matches either side of the pair", func(t *testing.T) {
		settings := percentageSettings("50")
		settings.AllowedTokens = models.TokenList{"USDC"}

		d := e.Evaluate(tradeWithValue("1000"), settings)
		assert.True(t, d.Copy)
	})

	t.Run("token matching ignores case and whitespace", func(t *testing.T) {
		settings := percentageSettings("50")
		settings.ExcludedTokens = models.TokenList{" eth "}

		d := e.Evaluate(tradeWithValue("1000"), settings)
		assert.False(t, d.Copy)
		assert.Equal(t, copytrading.ReasonTokenExcluded, d.Reason)
	})
}

func TestEvaluateSizeBoundsInclusive(t *testing.T) {
	e := copytrading.Evaluator{}

	tests := []struct {
		name     string
		usdValue string
		min, max string
		wantCopy bool
		reason   copytrading.SkipReason
	}{
		{"exactly at min copies", "1000", "500", "", true, ""},
		{"one cent below min skips", "999.98", "500", "", false, copytrading.ReasonBelowMinSize},
		{"exactly at max copies", "1000", "", "500", true, ""},
		{"one cent above max skips", "1000.02", "", "500", false, copytrading.ReasonAboveMaxSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := percentageSettings("50")
			if tt.min != "" {
				settings.MinTradeSize = nullDec(tt.min)
			}
			if tt.max != "" {
				settings.MaxTradeSize = nullDec(tt.max)
			}

			d := e.Evaluate(tradeWithValue(tt.usdValue), settings)
			assert.Equal(t, tt.wantCopy, d.Copy)
			if !tt.wantCopy {
				assert.Equal(t, tt.reason, d.Reason)
			}
		})
	}
}

func TestEvaluateNegativeValuePolicy(t *testing.T) {
	t.Run("propagates the sign by default", func(t *testing.T) {
		e := copytrading.Evaluator{}
		d := e.Evaluate(tradeWithValue("-1000"), percentageSettings("50"))
		require.True(t, d.Copy)
		assert.True(t, d.Amount.Equal(dec("-500")))
	})

	t.Run("skips when configured", func(t *testing.T) {
		e := copytrading.Evaluator{SkipNegativeValue: true}
		d := e.Evaluate(tradeWithValue("-1000"), percentageSettings("50"))
		assert.False(t, d.Copy)
		assert.Equal(t, copytrading.ReasonNegativeValue, d.Reason)
	})
}

func TestEvaluateUnknownSizingMode(t *testing.T) {
	e := copytrading.Evaluator{}
	settings := percentageSettings("50")
	settings.SizingMode = "MARTINGALE"

	d := e.Evaluate(tradeWithValue("1000"), settings)
	assert.False(t, d.Copy)
	assert.Equal(t, copytrading.ReasonInvalidSizing, d.Reason)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e := copytrading.Evaluator{}
	trade := tradeWithValue("1234.56")
	settings := percentageSettings("12.5")
	settings.MinTradeSize = nullDec("10")
	settings.MaxTradeSize = nullDec("10000")

	first := e.Evaluate(trade, settings)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Evaluate(trade, settings))
	}
}
