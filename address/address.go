// Package address resolves semantic account addresses. An address is a
// dotted path `reason.type.asset` such as trade.currency.EUR or
// tax.statement.WITHHOLDING_TAX. Resolution maps it either to one concrete
// account (strict mode, through the configured address map) or to a
// conjunctive lookup predicate the caller can run against its chart of
// accounts (non-strict mode).
package address

import (
	"fmt"
	"strings"

	"github.com/nivelet/bookkeep/transfer"
)

// Reason is the first segment of an account address. It is a superset of
// transfer reasons: resolution targets such as a debt account or a short
// position account are addressable without ever appearing on a transfer.
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

	// Address-only reasons
	ReasonDebt         Reason = "debt"
	ReasonShort        Reason = "short"
	ReasonProfit       Reason = "profit"
	ReasonLoss         Reason = "loss"
	ReasonDistribution Reason = "distribution"
)

// Address is a parsed semantic account address.
type Address struct {
	Reason Reason
	Type   transfer.Type
	Asset  string
}

// New builds an address from its segments.
func New(reason Reason, typ transfer.Type, asset string) Address {
	return Address{Reason: reason, Type: typ, Asset: asset}
}

// Parse splits a dotted address into its reason, type and asset segments.
// The asset segment may itself contain dots.
func Parse(s string) (Address, error) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Address{}, fmt.Errorf("invalid account address %q", s)
	}
	return Address{
		Reason: Reason(parts[0]),
		Type:   transfer.Type(parts[1]),
		Asset:  parts[2],
	}, nil
}

// String returns the dotted form of the address.
func (a Address) String() string {
	return string(a.Reason) + "." + string(a.Type) + "." + a.Asset
}

// wildcard returns the address with its asset segment replaced by *.
func (a Address) wildcard() string {
	return string(a.Reason) + "." + string(a.Type) + ".*"
}

// withAsset returns the dotted address with a different asset segment.
func (a Address) withAsset(asset string) string {
	return string(a.Reason) + "." + string(a.Type) + "." + asset
}
