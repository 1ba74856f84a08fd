// Package transfer defines the semantic input model of the analysis engine.
// A Transfer is one leg of a business event ("paid a fee", "received 1.5
// ETH") that is not yet tied to any ledger account; an ordered sequence of
// transfers describes one event and must net out to a balanced posting
// group.
package transfer

import "github.com/shopspring/decimal"

// Reason classifies why a transfer happened.
type Reason string

const (
	ReasonTrade      Reason = "trade"
	ReasonFee        Reason = "fee"
	ReasonIncome     Reason = "income"
	ReasonExpense    Reason = "expense"
	ReasonDividend   Reason = "dividend"
	ReasonTax        Reason = "tax"
	ReasonTransfer   Reason = "transfer"
	ReasonDeposit    Reason = "deposit"
	ReasonWithdrawal Reason = "withdrawal"
	ReasonCorrection Reason = "correction"
	ReasonForex      Reason = "forex"
	ReasonInvestment Reason = "investment"
	ReasonUnknown    Reason = "unknown"
)

// Type classifies what kind of asset the transfer moves.
type Type string

const (
	TypeCurrency  Type = "currency"
	TypeCrypto    Type = "crypto"
	TypeStock     Type = "stock"
	TypeAccount   Type = "account"
	TypeExternal  Type = "external"
	TypeStatement Type = "statement"
	TypeForex     Type = "forex"
)

// Transfer is one immutable leg of a business event.
//
// Asset holds the symbol ("ETH", "EUR", a statement code) or, when Type is
// TypeAccount, a concrete account number that bypasses semantic resolution.
// Amount is in signed integer minor currency units; nil means "solve from
// the sibling transfers of the same event".
type Transfer struct {
	Reason Reason
	Type   Type
	Asset  string
	Amount *int64
	Data   *Data
}

// Data is the free-form side channel of a transfer.
type Data struct {
	// Text is a human description fragment from the source document.
	Text string
	// Currency names the currency of the amount when it differs from the
	// books' default.
	Currency string
	// Rates carries a conversion rate table for forex transfers.
	Rates map[string]decimal.Decimal
	// Count is the per-unit quantity of an asset trade, e.g. 1.5 for
	// buying 1.5 ETH.
	Count *decimal.Decimal
	// Value is an explicit minor-unit value used to solve sibling
	// transfers that carry no amount of their own.
	Value *int64
}

// Amount wraps a minor-unit amount for use in a Transfer literal.
func Amount(n int64) *int64 { return &n }

// Count wraps a unit count for use in a Data literal.
func Count(d decimal.Decimal) *decimal.Decimal { return &d }

// Text returns the descriptive fragment of the transfer, if any.
func (t Transfer) Text() string {
	if t.Data == nil {
		return ""
	}
	return t.Data.Text
}

// Count returns the per-unit count of the transfer, if any.
func (t Transfer) Count() (decimal.Decimal, bool) {
	if t.Data == nil || t.Data.Count == nil {
		return decimal.Decimal{}, false
	}
	return *t.Data.Count, true
}

// Value returns the explicit side-channel value of the transfer, if any.
func (t Transfer) Value() (int64, bool) {
	if t.Data == nil || t.Data.Value == nil {
		return 0, false
	}
	return *t.Data.Value, true
}
