// Package analysis turns semantic transfer events into balanced double-entry
// posting groups. The analyzer resolves each transfer's account through the
// address resolver, consults the stock ledger for cost basis and short
// positions, consults the balance ledger for automatic debt financing, and
// applies the finished groups to both ledgers. An event either posts fully
// or not at all.
package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/nivelet/bookkeep/address"
	"github.com/nivelet/bookkeep/knowledge"
	"github.com/nivelet/bookkeep/ledger"
	"github.com/nivelet/bookkeep/transfer"
	"github.com/shopspring/decimal"
)

// Config is the analyzer configuration, delivered by collaborators as plain
// data.
type Config struct {
	// Addresses maps semantic account addresses to concrete accounts or to
	// rule expressions producing one.
	Addresses map[string]string
	// AllowShortSelling permits events that open short positions.
	AllowShortSelling bool
	// Currency is the default currency of the books.
	Currency string
	// Plugin discriminates accounts created by different data plugins.
	Plugin string
	// Answers maps renamed asset symbols to their previous symbol so a sell
	// finds the position accumulated under the old name.
	Answers map[string]string
	// Knowledge expands semantic codes during address resolution. Optional.
	Knowledge *knowledge.Base
}

// Event is one business event: an ordered, non-empty sequence of transfers
// that must net out to a balanced posting group.
type Event struct {
	Time      time.Time
	Transfers []*transfer.Transfer
}

// Analyzer owns a balance and stock ledger pair and is not safe for
// concurrent use: one pipeline owns an analyzer exclusively for a batch.
type Analyzer struct {
	cfg      Config
	balances *ledger.Balances
	stock    *ledger.Stock
}

// New creates an analyzer over the given ledger pair.
func New(cfg Config, balances *ledger.Balances, stock *ledger.Stock) *Analyzer {
	return &Analyzer{cfg: cfg, balances: balances, stock: stock}
}

// Balances exposes the analyzer's balance ledger for queries.
func (a *Analyzer) Balances() *ledger.Balances { return a.balances }

// Stock exposes the analyzer's stock ledger for queries.
func (a *Analyzer) Stock() *ledger.Stock { return a.stock }

// Process analyzes one event into balanced posting groups and applies them
// to the ledgers. The whole computation happens before any application, so a
// failing event leaves both ledgers untouched.
func (a *Analyzer) Process(ev Event) ([]ledger.Group, error) {
	if len(ev.Transfers) == 0 {
		return nil, fmt.Errorf("event has no transfers")
	}

	amounts, err := a.solveAmounts(ev.Transfers)
	if err != nil {
		return nil, err
	}

	group, err := a.synthesize(ev, amounts)
	if err != nil {
		return nil, err
	}

	if err := a.apply(group, ev.Time); err != nil {
		return nil, err
	}
	return []ledger.Group{group}, nil
}

// solveAmounts fills in nil transfer amounts from sibling transfers carrying
// an explicit side-channel value. Values are claimed in declaration order,
// each at most once.
func (a *Analyzer) solveAmounts(transfers []*transfer.Transfer) ([]int64, error) {
	amounts := make([]int64, len(transfers))
	claimed := make([]bool, len(transfers))

	for i, t := range transfers {
		if t.Amount != nil {
			amounts[i] = *t.Amount
			continue
		}

		solved := false
		for j, sibling := range transfers {
			if j == i || claimed[j] {
				continue
			}
			if value, ok := sibling.Value(); ok {
				amounts[i] = value
				claimed[j] = true
				solved = true
				break
			}
		}
		if !solved {
			return nil, NewUnresolvedAmountError(t)
		}
	}
	return amounts, nil
}

// synthesize computes the balanced posting group for one event without
// touching either ledger.
func (a *Analyzer) synthesize(ev Event, amounts []int64) (ledger.Group, error) {
	var (
		postings []ledger.Posting
		pnlClass string // set when a sell or buy-to-cover realized P&L
	)

	eventText := describe(texts(ev.Transfers)...)
	verbatim := strings.Join(texts(ev.Transfers), " ")

	for i, t := range ev.Transfers {
		amount := amounts[i]

		switch {
		case t.Type == transfer.TypeAccount:
			// Literal account, verbatim description, no resolution.
			postings = append(postings, ledger.Posting{
				Account:     t.Asset,
				Amount:      amount,
				Description: verbatim,
				Data:        sideData(t, amount, a.cfg.Currency),
			})

		case t.Reason == transfer.ReasonTrade && (t.Type == transfer.TypeCrypto || t.Type == transfer.TypeStock):
			legs, class, err := a.settleTrade(t, amount, eventText)
			if err != nil {
				return ledger.Group{}, err
			}
			postings = append(postings, legs...)
			if class != "" {
				pnlClass = class
			}

		case t.Reason == transfer.ReasonTrade && t.Type == transfer.TypeCurrency:
			legs, err := a.fundTrade(t, amount, eventText)
			if err != nil {
				return ledger.Group{}, err
			}
			postings = append(postings, legs...)

		default:
			account, err := a.account(address.New(address.Reason(t.Reason), t.Type, t.Asset))
			if err != nil {
				return ledger.Group{}, err
			}
			postings = append(postings, ledger.Posting{
				Account:     account,
				Amount:      amount,
				Description: eventText,
				Data:        sideData(t, amount, a.cfg.Currency),
			})
		}
	}

	group := ledger.Group{Postings: postings}
	if residue := group.Sum(); residue != 0 {
		if pnlClass == "" {
			return ledger.Group{}, &UnbalancedEventError{Residue: residue}
		}
		leg, err := a.realizedLeg(-residue, pnlClass, eventText)
		if err != nil {
			return ledger.Group{}, err
		}
		group.Postings = append(group.Postings, leg)
	}
	return group, nil
}

// settleTrade books the asset leg of a buy or sell, including short position
// handling. It returns the postings plus the realized P&L class when the leg
// realizes profit or loss.
func (a *Analyzer) settleTrade(t *transfer.Transfer, amount int64, eventText string) ([]ledger.Posting, string, error) {
	count, ok := t.Count()
	if !ok || count.IsZero() {
		return nil, "", fmt.Errorf("trade of %s carries no unit count", t.Asset)
	}

	kind := ledger.KindCrypto
	class := "CRYPTO"
	if t.Type == transfer.TypeStock {
		kind = ledger.KindStock
		class = "STOCK"
	}

	asset := t.Asset
	pos := a.stock.Current(kind, asset)

	if count.IsNegative() {
		// A renamed asset sells against the position held under its
		// previous symbol.
		if pos.Amount.IsZero() {
			if previous, ok := a.cfg.Answers[asset]; ok {
				asset = previous
				pos = a.stock.Current(kind, asset)
			}
		}
		return a.settleSell(t, amount, count, kind, class, asset, pos, eventText)
	}
	return a.settleBuy(t, amount, count, kind, class, asset, eventText)
}

func (a *Analyzer) settleBuy(t *transfer.Transfer, amount int64, count decimal.Decimal, kind ledger.Kind, class, asset, eventText string) ([]ledger.Posting, string, error) {
	short := a.stock.Current(ledger.KindShort, asset)
	if short.Amount.IsNegative() {
		// Buy-to-cover: release a proportional share of the short
		// position's booked proceeds and realize the difference.
		held := short.Amount.Neg()
		if count.GreaterThan(held) {
			return nil, "", &InsufficientPositionError{Asset: asset, Requested: count, Held: held}
		}
		basis := portion(short.Value, count, held)

		account, err := a.account(address.New(address.ReasonShort, t.Type, asset))
		if err != nil {
			return nil, "", err
		}
		posting := ledger.Posting{
			Account:     account,
			Amount:      -basis,
			Description: describe(eventText, fmt.Sprintf("Closing short position %s %s", signed(count), asset)),
			Data: &ledger.PostingData{Stock: &ledger.StockPayload{Change: map[string]ledger.Delta{
				asset: {Kind: ledger.KindShort, Amount: count, Value: -basis},
			}}},
		}
		return []ledger.Posting{posting}, "SHORT", nil
	}

	account, err := a.account(address.New(address.ReasonTrade, t.Type, asset))
	if err != nil {
		return nil, "", err
	}
	posting := ledger.Posting{
		Account:     account,
		Amount:      amount,
		Description: describe(eventText, fmt.Sprintf("Buy %s %s", signed(count), asset)),
		Data: &ledger.PostingData{Stock: &ledger.StockPayload{Change: map[string]ledger.Delta{
			asset: {Kind: kind, Amount: count, Value: amount},
		}}},
	}
	return []ledger.Posting{posting}, "", nil
}

func (a *Analyzer) settleSell(t *transfer.Transfer, amount int64, count decimal.Decimal, kind ledger.Kind, class, asset string, pos ledger.Position, eventText string) ([]ledger.Posting, string, error) {
	if pos.Amount.Sign() > 0 {
		sellCount := count.Neg()
		if sellCount.GreaterThan(pos.Amount) {
			return nil, "", &InsufficientPositionError{Asset: asset, Requested: sellCount, Held: pos.Amount}
		}
		basis := portion(pos.Value, sellCount, pos.Amount)

		account, err := a.account(address.New(address.ReasonTrade, t.Type, asset))
		if err != nil {
			return nil, "", err
		}
		posting := ledger.Posting{
			Account:     account,
			Amount:      -basis,
			Description: describe(eventText, fmt.Sprintf("Sell %s %s", signed(count), asset)),
			Data: &ledger.PostingData{Stock: &ledger.StockPayload{Change: map[string]ledger.Delta{
				asset: {Kind: kind, Amount: count, Value: -basis},
			}}},
		}
		return []ledger.Posting{posting}, class, nil
	}

	// No position to sell from: this opens a short.
	if !a.cfg.AllowShortSelling {
		return nil, "", NewShortSellingDisabledError(asset)
	}
	account, err := a.account(address.New(address.ReasonShort, t.Type, asset))
	if err != nil {
		return nil, "", err
	}
	posting := ledger.Posting{
		Account:     account,
		Amount:      amount,
		Description: describe(eventText, fmt.Sprintf("Short selling %s %s", signed(count), asset)),
		Data: &ledger.PostingData{Stock: &ledger.StockPayload{Change: map[string]ledger.Delta{
			asset: {Kind: ledger.KindShort, Amount: count, Value: amount},
		}}},
	}
	return []ledger.Posting{posting}, "", nil
}

// fundTrade books the funding currency leg. A payment that would drive the
// funding balance negative is split against the configured debt account for
// that currency, draining the funding account to zero at most. Without a
// debt account the funding account simply goes negative.
func (a *Analyzer) fundTrade(t *transfer.Transfer, amount int64, eventText string) ([]ledger.Posting, error) {
	account, err := a.account(address.New(address.ReasonTrade, transfer.TypeCurrency, t.Asset))
	if err != nil {
		return nil, err
	}

	if amount < 0 {
		balance := a.balances.Balance(account)
		if balance+amount < 0 {
			if debt, ok := a.debtAccount(t.Asset); ok {
				cash := int64(0)
				if balance > 0 {
					cash = -balance
				}
				legs := []ledger.Posting{}
				if cash != 0 {
					legs = append(legs, ledger.Posting{
						Account:     account,
						Amount:      cash,
						Description: eventText,
						Data:        sideData(t, cash, a.cfg.Currency),
					})
				}
				legs = append(legs, ledger.Posting{
					Account:     debt,
					Amount:      amount - cash,
					Description: describe(eventText, "Debt financing"),
				})
				return legs, nil
			}
		}
	}

	return []ledger.Posting{{
		Account:     account,
		Amount:      amount,
		Description: eventText,
		Data:        sideData(t, amount, a.cfg.Currency),
	}}, nil
}

// realizedLeg books the residue of a trade event as realized profit or loss.
// A gain posts negative because the profit account is of income type.
func (a *Analyzer) realizedLeg(amount int64, class, eventText string) (ledger.Posting, error) {
	reason := address.ReasonProfit
	phrase := "Realized profit"
	code := "TRADE_PROFIT_" + class
	if amount > 0 {
		reason = address.ReasonLoss
		phrase = "Realized loss"
		code = "TRADE_LOSS_" + class
	}

	account, err := a.account(address.New(reason, transfer.TypeStatement, code))
	if err != nil {
		return ledger.Posting{}, err
	}
	return ledger.Posting{
		Account:     account,
		Amount:      amount,
		Description: describe(eventText, phrase),
	}, nil
}

// account resolves a semantic address to exactly one concrete account and
// registers the pair with the balance ledger so balances stay queryable by
// address.
func (a *Analyzer) account(addr address.Address) (string, error) {
	result, err := address.Resolve(addr, a.resolution())
	if err != nil {
		return "", err
	}
	if result == nil || result.Account == "" {
		return "", address.NewUnresolvedError(addr)
	}
	a.balances.ConfigureNames(map[string]string{addr.String(): result.Account})
	return result.Account, nil
}

// debtAccount reports the configured debt account for a currency, if any.
func (a *Analyzer) debtAccount(currency string) (string, bool) {
	result, err := address.Resolve(address.New(address.ReasonDebt, transfer.TypeCurrency, currency), a.resolution())
	if err != nil || result == nil || result.Account == "" {
		return "", false
	}
	return result.Account, true
}

func (a *Analyzer) resolution() address.Context {
	return address.Context{
		Plugin:    a.cfg.Plugin,
		Currency:  a.cfg.Currency,
		Strict:    true,
		Knowledge: a.cfg.Knowledge,
		Addresses: a.cfg.Addresses,
	}
}

// apply posts the group to both ledgers. Stock ordering is pre-checked for
// every delta of the group before anything is written.
func (a *Analyzer) apply(group ledger.Group, at time.Time) error {
	for _, p := range group.Postings {
		if p.Data == nil || p.Data.Stock == nil {
			continue
		}
		for asset, d := range p.Data.Stock.Change {
			if last, ok := a.stock.LastChange(d.Kind, asset); ok && at.Before(last) {
				return ledger.NewOutOfOrderError(string(d.Kind), asset, at, last)
			}
		}
		for asset, d := range p.Data.Stock.Set {
			if last, ok := a.stock.LastChange(d.Kind, asset); ok && at.Before(last) {
				return ledger.NewOutOfOrderError(string(d.Kind), asset, at, last)
			}
		}
	}

	for _, p := range group.Postings {
		if p.Data != nil && p.Data.Stock != nil {
			if err := a.stock.Apply(p.Data.Stock, at); err != nil {
				return err
			}
		}
		a.balances.Apply(p, at)
	}
	return nil
}

// portion computes the share of a position's booked value covered by count
// units out of held. A full settlement is exact; partial settlements round
// to the nearest minor unit, with the realized P&L leg absorbing the
// remainder so the group still sums to zero.
func portion(value int64, count, held decimal.Decimal) int64 {
	if count.Equal(held) {
		return value
	}
	return decimal.NewFromInt(value).Mul(count).Div(held).Round(0).IntPart()
}

// signed formats a quantity with an explicit sign, e.g. +1.5 or -100.
func signed(d decimal.Decimal) string {
	if d.Sign() > 0 {
		return "+" + d.String()
	}
	return d.String()
}

// texts collects the non-empty description fragments of the transfers in
// declaration order.
func texts(transfers []*transfer.Transfer) []string {
	var out []string
	for _, t := range transfers {
		if text := t.Text(); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// describe joins description fragments with ", ", dropping empty and
// duplicate fragments while keeping first-seen order.
func describe(fragments ...string) string {
	var (
		out  []string
		seen = map[string]bool{}
	)
	for _, f := range fragments {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return strings.Join(out, ", ")
}

// sideData builds the posting payload from a transfer's side channel: the
// rate table and, for amounts stated in a foreign currency, the original
// currency and value.
func sideData(t *transfer.Transfer, amount int64, defaultCurrency string) *ledger.PostingData {
	if t.Data == nil {
		return nil
	}

	data := &ledger.PostingData{}
	populated := false

	if len(t.Data.Rates) > 0 {
		data.Rates = t.Data.Rates
		populated = true
	}
	if t.Data.Currency != "" && t.Data.Currency != defaultCurrency {
		data.Currency = t.Data.Currency
		data.CurrencyValue = amount
		if value, ok := t.Value(); ok {
			data.CurrencyValue = value
		}
		populated = true
	}

	if !populated {
		return nil
	}
	return data
}
