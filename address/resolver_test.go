package address

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/nivelet/bookkeep/knowledge"
	"github.com/nivelet/bookkeep/transfer"
)

func assetKnowledge(t *testing.T) *knowledge.Base {
	t.Helper()

	base, err := knowledge.New(map[knowledge.Category]knowledge.TreeData{
		knowledge.AssetCodes: {
			Root: "ASSETS",
			Children: map[string][]string{
				"ASSETS":                      {"CURRENT_PUBLIC_STOCK_SHARES", "CRYPTO_CURRENCIES"},
				"CURRENT_PUBLIC_STOCK_SHARES": {"LISTED_SHARES", "ETF_SHARES"},
			},
		},
		knowledge.IncomeSources: {
			Root: "INCOME",
			Children: map[string][]string{
				"INCOME":   {"DIVIDEND"},
				"DIVIDEND": {"LISTED_DIVIDEND"},
			},
		},
	})
	assert.NoError(t, err)
	return base
}

func TestParse(t *testing.T) {
	addr, err := Parse("trade.currency.EUR")
	assert.NoError(t, err)
	assert.Equal(t, ReasonTrade, addr.Reason)
	assert.Equal(t, transfer.TypeCurrency, addr.Type)
	assert.Equal(t, "EUR", addr.Asset)
	assert.Equal(t, "trade.currency.EUR", addr.String())

	for _, bad := range []string{"", "trade", "trade.currency", "trade..EUR"} {
		_, err := Parse(bad)
		assert.Error(t, err, "expected error for %q", bad)
	}
}

func TestResolve_DirectAccount(t *testing.T) {
	res, err := Resolve(New(ReasonTransfer, transfer.TypeAccount, "1910"), Context{Strict: true})
	assert.NoError(t, err)
	assert.Equal(t, "1910", res.Account)
}

func TestResolve_Strict(t *testing.T) {
	ctx := Context{
		Strict:   true,
		Currency: "EUR",
		Addresses: map[string]string{
			"trade.currency.*":   "1910",
			"trade.currency.USD": "1920",
			"trade.crypto.*":     "1549",
		},
	}

	t.Run("wildcard match", func(t *testing.T) {
		res, err := Resolve(New(ReasonTrade, transfer.TypeCrypto, "ETH"), ctx)
		assert.NoError(t, err)
		assert.Equal(t, "1549", res.Account)
	})

	t.Run("specific currency", func(t *testing.T) {
		res, err := Resolve(New(ReasonTrade, transfer.TypeCurrency, "USD"), ctx)
		assert.NoError(t, err)
		assert.Equal(t, "1920", res.Account)
	})

	t.Run("default currency prefers the agnostic entry", func(t *testing.T) {
		withEUR := Context{
			Strict:   true,
			Currency: "EUR",
			Addresses: map[string]string{
				"trade.currency.*":   "1910",
				"trade.currency.EUR": "1911",
			},
		}
		res, err := Resolve(New(ReasonTrade, transfer.TypeCurrency, "EUR"), withEUR)
		assert.NoError(t, err)
		assert.Equal(t, "1910", res.Account)
	})

	t.Run("miss resolves to nil", func(t *testing.T) {
		res, err := Resolve(New(ReasonDebt, transfer.TypeCurrency, "EUR"), ctx)
		assert.NoError(t, err)
		assert.Zero(t, res)
	})
}

func TestResolve_StrictRuleExpression(t *testing.T) {
	ctx := Context{
		Strict:   true,
		Currency: "EUR",
		Addresses: map[string]string{
			"trade.currency.*": `currency == 'EUR' ? '1910' : '1920'`,
		},
	}

	res, err := Resolve(New(ReasonTrade, transfer.TypeCurrency, "EUR"), ctx)
	assert.NoError(t, err)
	assert.Equal(t, "1910", res.Account)

	// Malformed expressions surface as parse errors
	bad := Context{
		Strict:    true,
		Addresses: map[string]string{"trade.currency.*": "currency == "},
	}
	_, err = Resolve(New(ReasonTrade, transfer.TypeCurrency, "EUR"), bad)
	assert.Error(t, err)
}

func TestResolve_StrictAncestorLookup(t *testing.T) {
	ctx := Context{
		Strict:    true,
		Currency:  "EUR",
		Knowledge: assetKnowledge(t),
		Addresses: map[string]string{
			"income.statement.DIVIDEND": "3010",
		},
	}

	// LISTED_DIVIDEND is configured only at its DIVIDEND ancestor
	res, err := Resolve(New(ReasonIncome, transfer.TypeStatement, "LISTED_DIVIDEND"), ctx)
	assert.NoError(t, err)
	assert.Equal(t, "3010", res.Account)
}

func TestResolve_Predicate(t *testing.T) {
	ctx := Context{
		Currency:  "EUR",
		Plugin:    "nordnet",
		Knowledge: assetKnowledge(t),
	}

	t.Run("stock expands descendants in stable order", func(t *testing.T) {
		res, err := Resolve(New(ReasonTrade, transfer.TypeStock, "*"), ctx)
		assert.NoError(t, err)

		assert.Equal(t, Predicate{
			{Field: "code", Op: OpIn, Value: []string{"CURRENT_PUBLIC_STOCK_SHARES", "LISTED_SHARES", "ETF_SHARES"}},
			{Field: "type", Op: OpEq, Value: "ASSET"},
			{Field: "plugin", Op: OpEq, Value: "nordnet"},
		}, res.Predicate)
	})

	t.Run("foreign currency adds a currency clause", func(t *testing.T) {
		res, err := Resolve(New(ReasonTrade, transfer.TypeCurrency, "USD"), ctx)
		assert.NoError(t, err)

		assert.Equal(t, Predicate{
			{Field: "code", Op: OpEq, Value: "CASH"},
			{Field: "type", Op: OpEq, Value: "ASSET"},
			{Field: "currency", Op: OpEq, Value: "USD"},
			{Field: "plugin", Op: OpEq, Value: "nordnet"},
		}, res.Predicate)
	})

	t.Run("default currency omits the currency clause", func(t *testing.T) {
		res, err := Resolve(New(ReasonTrade, transfer.TypeCurrency, "EUR"), Context{Currency: "EUR"})
		assert.NoError(t, err)

		assert.Equal(t, Predicate{
			{Field: "code", Op: OpEq, Value: "CASH"},
			{Field: "type", Op: OpEq, Value: "ASSET"},
		}, res.Predicate)
	})

	t.Run("short positions constrain to liability accounts", func(t *testing.T) {
		res, err := Resolve(New(ReasonShort, transfer.TypeStock, "NAKD"), Context{Currency: "USD"})
		assert.NoError(t, err)

		assert.Equal(t, Predicate{
			{Field: "code", Op: OpEq, Value: "SHORT_POSITIONS"},
			{Field: "type", Op: OpEq, Value: "LIABILITY"},
		}, res.Predicate)
	})

	t.Run("unaddressable combinations resolve to nil", func(t *testing.T) {
		res, err := Resolve(New(ReasonDistribution, transfer.TypeCurrency, "EUR"), ctx)
		assert.NoError(t, err)
		assert.Zero(t, res)

		res, err = Resolve(New(ReasonUnknown, transfer.TypeForex, "X"), ctx)
		assert.NoError(t, err)
		assert.Zero(t, res)
	})
}
