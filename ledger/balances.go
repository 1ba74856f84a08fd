package ledger

import (
	"sort"
	"time"
)

// Balances tracks running and historical per-account balances. History is an
// append-only log of (time, delta, total) points per account; revert appends
// an inverse delta rather than rewriting history, so point-in-time queries
// stay correct.
//
// Balances provides no locking: one processing pipeline owns a ledger pair
// exclusively for the duration of a batch.
type Balances struct {
	names    map[string]string
	accounts map[string]*history
}

type history struct {
	points []point
	total  int64
}

type point struct {
	at    time.Time
	delta int64
	total int64
}

// NewBalances creates an empty balance ledger.
func NewBalances() *Balances {
	return &Balances{
		names:    make(map[string]string),
		accounts: make(map[string]*history),
	}
}

// ConfigureNames registers the semantic address of each concrete account so
// balances can be queried by address as well as by account number.
func (b *Balances) ConfigureNames(names map[string]string) {
	for addr, account := range names {
		b.names[addr] = account
	}
}

// Account maps a configured semantic address to its concrete account.
// Unconfigured keys pass through unchanged, so concrete account numbers are
// always valid arguments.
func (b *Balances) Account(key string) string {
	if account, ok := b.names[key]; ok {
		return account
	}
	return key
}

// Apply adds a posting's amount to the account's running total and appends a
// history point. A zero time means now. Accounts are created on first apply.
func (b *Balances) Apply(p Posting, at time.Time) {
	b.add(p.Account, p.Amount, at)
}

// Revert applies the arithmetic inverse of a posting by appending an inverse
// delta. History is never rewritten.
func (b *Balances) Revert(p Posting, at time.Time) {
	b.add(p.Account, -p.Amount, at)
}

func (b *Balances) add(account string, delta int64, at time.Time) {
	if at.IsZero() {
		at = time.Now()
	}

	h, ok := b.accounts[b.Account(account)]
	if !ok {
		h = &history{}
		b.accounts[b.Account(account)] = h
	}

	h.total += delta
	h.points = append(h.points, point{at: at, delta: delta, total: h.total})
}

// Balance returns the live running total of an account (or configured
// address). Unknown accounts are zero.
func (b *Balances) Balance(key string) int64 {
	h, ok := b.accounts[b.Account(key)]
	if !ok {
		return 0
	}
	return h.total
}

// BalanceAt returns the balance at or before the given time. Points sharing
// that exact timestamp are all included, in application order.
func (b *Balances) BalanceAt(key string, at time.Time) int64 {
	h, ok := b.accounts[b.Account(key)]
	if !ok {
		return 0
	}

	// First point strictly after the queried time
	idx := sort.Search(len(h.points), func(i int) bool {
		return h.points[i].at.After(at)
	})
	if idx == 0 {
		return 0
	}
	return h.points[idx-1].total
}

// Accounts returns the concrete account numbers with recorded history, in
// deterministic order.
func (b *Balances) Accounts() []string {
	accounts := make([]string, 0, len(b.accounts))
	for account := range b.accounts {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts
}
