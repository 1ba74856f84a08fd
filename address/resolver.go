package address

import (
	"regexp"

	"github.com/nivelet/bookkeep/knowledge"
	"github.com/nivelet/bookkeep/rules"
	"github.com/nivelet/bookkeep/transfer"
)

// AccountType is the constraint on the kind of concrete account an address
// may resolve to.
type AccountType string

const (
	AccountAsset     AccountType = "ASSET"
	AccountLiability AccountType = "LIABILITY"
	AccountEquity    AccountType = "EQUITY"
	AccountIncome    AccountType = "INCOME"
	AccountExpense   AccountType = "EXPENSE"
)

// Context carries everything one resolution needs. It is passed explicitly
// to every call so the resolver stays reentrant across tenants.
type Context struct {
	// Plugin discriminates accounts created by different data plugins.
	Plugin string
	// Currency is the default currency of the books.
	Currency string
	// Strict requires resolution to a single configured concrete account
	// instead of a lookup predicate.
	Strict bool
	// Knowledge expands semantic codes into their descendants. Optional.
	Knowledge *knowledge.Base
	// Addresses maps semantic addresses to concrete account numbers or to
	// rule expressions producing one.
	Addresses map[string]string
}

// Result is a successful resolution: exactly one of Account and Predicate
// is set.
type Result struct {
	Account   string
	Predicate Predicate
}

// mapping is one row of the fixed (reason, type) table. An empty code means
// the asset segment itself is the semantic code (statement addresses).
type mapping struct {
	code     string
	accType  AccountType
	category knowledge.Category
	currency bool // the asset segment is a currency code
}

type tableKey struct {
	reason Reason
	typ    transfer.Type
}

// table maps (reason, type) pairs to their base semantic account code and
// account type constraint. A nil entry marks a combination that is known but
// intentionally unaddressable: callers must configure those explicitly.
var table = map[tableKey]*mapping{
	{ReasonTrade, transfer.TypeCurrency}:      {code: "CASH", accType: AccountAsset, currency: true},
	{ReasonDividend, transfer.TypeCurrency}:   {code: "CASH", accType: AccountAsset, currency: true},
	{ReasonDeposit, transfer.TypeCurrency}:    {code: "CASH", accType: AccountAsset, currency: true},
	{ReasonWithdrawal, transfer.TypeCurrency}: {code: "CASH", accType: AccountAsset, currency: true},
	{ReasonTransfer, transfer.TypeCurrency}:   {code: "CASH", accType: AccountAsset, currency: true},
	{ReasonForex, transfer.TypeCurrency}:      {code: "CASH", accType: AccountAsset, currency: true},
	{ReasonCorrection, transfer.TypeCurrency}: {code: "CASH", accType: AccountAsset, currency: true},
	{ReasonInvestment, transfer.TypeCurrency}: {code: "CASH", accType: AccountAsset, currency: true},

	{ReasonFee, transfer.TypeCurrency}:  {code: "FEES", accType: AccountExpense, category: knowledge.ExpenseSinks, currency: true},
	{ReasonDebt, transfer.TypeCurrency}: {code: "DEBT", accType: AccountLiability, currency: true},

	{ReasonTrade, transfer.TypeCrypto}: {code: "CRYPTO_CURRENCIES", accType: AccountAsset, category: knowledge.AssetCodes},
	{ReasonTrade, transfer.TypeStock}:  {code: "CURRENT_PUBLIC_STOCK_SHARES", accType: AccountAsset, category: knowledge.AssetCodes},
	{ReasonShort, transfer.TypeCrypto}: {code: "SHORT_POSITIONS", accType: AccountLiability, category: knowledge.AssetCodes},
	{ReasonShort, transfer.TypeStock}:  {code: "SHORT_POSITIONS", accType: AccountLiability, category: knowledge.AssetCodes},

	{ReasonIncome, transfer.TypeStatement}:  {accType: AccountIncome, category: knowledge.IncomeSources},
	{ReasonProfit, transfer.TypeStatement}:  {accType: AccountIncome, category: knowledge.IncomeSources},
	{ReasonExpense, transfer.TypeStatement}: {accType: AccountExpense, category: knowledge.ExpenseSinks},
	{ReasonLoss, transfer.TypeStatement}:    {accType: AccountExpense, category: knowledge.ExpenseSinks},
	{ReasonTax, transfer.TypeStatement}:     {accType: AccountExpense, category: knowledge.TaxTypes},

	// Counterparties outside the books and owner distributions are never
	// resolvable by a generic rule.
	{ReasonDeposit, transfer.TypeExternal}:       nil,
	{ReasonWithdrawal, transfer.TypeExternal}:    nil,
	{ReasonTransfer, transfer.TypeExternal}:      nil,
	{ReasonDistribution, transfer.TypeCurrency}:  nil,
	{ReasonDistribution, transfer.TypeStatement}: nil,
}

// accountLiteral matches configured values that are concrete account
// numbers or identifiers; anything else is treated as a rule expression.
var accountLiteral = regexp.MustCompile(`^[0-9A-Za-z:_-]+$`)

// Resolve maps a semantic address to a concrete account or a lookup
// predicate. A nil result with a nil error means no generic rule applies:
// the address must be configured explicitly, which the caller may or may not
// treat as fatal.
func Resolve(addr Address, ctx Context) (*Result, error) {
	// A literal account number bypasses all resolution.
	if addr.Type == transfer.TypeAccount {
		return &Result{Account: addr.Asset}, nil
	}

	if ctx.Strict {
		return resolveConfigured(addr, ctx)
	}
	return resolvePredicate(addr, ctx)
}

// resolveConfigured resolves through the configured address map. Candidate
// keys are tried most specific first, walking statement codes up their
// knowledge tree, with one twist: for the default currency the
// currency-agnostic wildcard entry wins over the currency-specific one, so
// single-currency books stay simple.
func resolveConfigured(addr Address, ctx Context) (*Result, error) {
	for _, key := range candidateKeys(addr, ctx) {
		value, ok := ctx.Addresses[key]
		if !ok {
			continue
		}
		return configuredResult(addr, ctx, value)
	}
	return nil, nil
}

func candidateKeys(addr Address, ctx Context) []string {
	m := table[tableKey{addr.Reason, addr.Type}]

	exact := addr.String()
	wildcard := addr.wildcard()

	if m != nil && m.currency && addr.Asset == ctx.Currency {
		return []string{wildcard, exact}
	}

	keys := []string{exact}
	if m != nil && m.code == "" && ctx.Knowledge != nil {
		// Statement codes may be configured at any ancestor level.
		for _, ancestor := range ctx.Knowledge.Ancestors(m.category, addr.Asset)[1:] {
			keys = append(keys, addr.withAsset(ancestor))
		}
	}
	return append(keys, wildcard)
}

// configuredResult interprets one configured value: either a literal
// concrete account or a rule expression producing one.
func configuredResult(addr Address, ctx Context, value string) (*Result, error) {
	if accountLiteral.MatchString(value) {
		return &Result{Account: value}, nil
	}

	v, err := rules.Evaluate(value, &rules.Env{
		Strict: true,
		Vars: map[string]rules.Value{
			"reason":   rules.String(string(addr.Reason)),
			"type":     rules.String(string(addr.Type)),
			"asset":    rules.String(addr.Asset),
			"currency": rules.String(ctx.Currency),
			"plugin":   rules.String(ctx.Plugin),
		},
	})
	if err != nil {
		return nil, err
	}
	return &Result{Account: v.String()}, nil
}

// resolvePredicate builds the conjunctive lookup predicate for an address
// from the fixed table, expanding the semantic code through the knowledge
// base and appending scoping clauses only where they discriminate.
func resolvePredicate(addr Address, ctx Context) (*Result, error) {
	m, known := table[tableKey{addr.Reason, addr.Type}]
	if !known || m == nil {
		return nil, nil
	}

	code := m.code
	if code == "" {
		code = addr.Asset
	}

	var p Predicate
	codes := []string{code}
	if ctx.Knowledge != nil {
		codes = ctx.Knowledge.Descendants(m.category, code)
	}
	if len(codes) > 1 {
		p = append(p, Clause{Field: "code", Op: OpIn, Value: codes})
	} else {
		p = append(p, Clause{Field: "code", Op: OpEq, Value: code})
	}

	p = append(p, Clause{Field: "type", Op: OpEq, Value: string(m.accType)})

	// The currency clause is omitted for the default currency and for
	// wildcard addresses: there it does not discriminate, and books in a
	// single currency prefer the currency-agnostic account.
	if m.currency && addr.Asset != "*" && addr.Asset != ctx.Currency {
		p = append(p, Clause{Field: "currency", Op: OpEq, Value: addr.Asset})
	}

	if ctx.Plugin != "" {
		p = append(p, Clause{Field: "plugin", Op: OpEq, Value: ctx.Plugin})
	}

	return &Result{Predicate: p}, nil
}
