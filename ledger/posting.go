// Package ledger provides the double-entry output model of the analysis
// engine and the two derived stores built from it: running per-account
// balances and per-asset stock positions. Amounts are signed integers in
// minor currency units; quantities use decimal arithmetic to avoid floating
// point precision issues.
package ledger

import (
	"github.com/shopspring/decimal"
)

// Posting is one concrete, immutable ledger line: a real account and a
// signed minor-unit amount. Every posting group synthesized for an event
// sums to exactly zero.
type Posting struct {
	Account     string
	Amount      int64
	Description string
	Data        *PostingData
}

// PostingData is the optional payload attached to a posting: a stock delta
// consumed by the stock ledger, a conversion rate table, or an original
// currency value.
type PostingData struct {
	Stock    *StockPayload
	Rates    map[string]decimal.Decimal
	Currency string
	// CurrencyValue is the amount in the original currency, in its minor
	// units, when Currency differs from the books' default.
	CurrencyValue int64
}

// Kind classifies a stock position.
type Kind string

const (
	KindCrypto Kind = "crypto"
	KindStock  Kind = "stock"
	KindShort  Kind = "short"
)

// Delta is one asset's position change in a stock payload. Amount is the
// quantity change; Value is the minor-unit cost basis change.
type Delta struct {
	Kind   Kind
	Amount decimal.Decimal
	Value  int64
}

// StockPayload is the stock side channel of a posting. Change entries are
// relative deltas; Set entries are authoritative absolute snapshots.
type StockPayload struct {
	Change map[string]Delta
	Set    map[string]Delta
}

// Group is one balanced set of postings synthesized for a single document.
type Group struct {
	Postings []Posting
}

// Sum returns the sum of all posting amounts in the group. It is zero for
// every group the analyzer emits.
func (g Group) Sum() int64 {
	var sum int64
	for _, p := range g.Postings {
		sum += p.Amount
	}
	return sum
}
