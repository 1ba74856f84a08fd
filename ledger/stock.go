package ledger

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Stock tracks the quantity and aggregate acquisition cost of every held
// position, keyed by (kind, asset). Each change appends a timestamped
// snapshot, and snapshots must arrive in chronological order per position.
type Stock struct {
	positions map[positionKey][]snapshot
}

type positionKey struct {
	kind  Kind
	asset string
}

type snapshot struct {
	at     time.Time
	amount decimal.Decimal
	value  int64
}

// Position is the state of a single holding at some point in time.
type Position struct {
	Amount decimal.Decimal
	Value  int64
}

func (p Position) zero() bool {
	return p.Amount.IsZero() && p.Value == 0
}

// NewStock creates an empty stock ledger.
func NewStock() *Stock {
	return &Stock{positions: make(map[positionKey][]snapshot)}
}

func (s *Stock) last(key positionKey) (snapshot, bool) {
	snaps := s.positions[key]
	if len(snaps) == 0 {
		return snapshot{}, false
	}
	return snaps[len(snaps)-1], true
}

// Change applies a relative delta to a position and appends the resulting
// snapshot. A change timestamped before the position's latest snapshot is
// rejected with an OutOfOrderError.
func (s *Stock) Change(kind Kind, asset string, amount decimal.Decimal, value int64, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}

	key := positionKey{kind: kind, asset: asset}
	prev, ok := s.last(key)
	if ok && at.Before(prev.at) {
		return NewOutOfOrderError(string(kind), asset, at, prev.at)
	}

	s.positions[key] = append(s.positions[key], snapshot{
		at:     at,
		amount: prev.amount.Add(amount),
		value:  prev.value + value,
	})
	return nil
}

// Set records an absolute position state, subject to the same ordering rule
// as Change.
func (s *Stock) Set(kind Kind, asset string, amount decimal.Decimal, value int64, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}

	key := positionKey{kind: kind, asset: asset}
	if prev, ok := s.last(key); ok && at.Before(prev.at) {
		return NewOutOfOrderError(string(kind), asset, at, prev.at)
	}

	s.positions[key] = append(s.positions[key], snapshot{at: at, amount: amount, value: value})
	return nil
}

// At returns the state of a position at or before the given time. A position
// with no snapshot up to that time is the zero position.
func (s *Stock) At(kind Kind, asset string, at time.Time) Position {
	snaps := s.positions[positionKey{kind: kind, asset: asset}]
	var found Position
	for _, snap := range snaps {
		if snap.at.After(at) {
			break
		}
		found = Position{Amount: snap.amount, Value: snap.value}
	}
	return found
}

// LastChange returns the time of a position's latest snapshot. The second
// return value is false when the position has never been touched.
func (s *Stock) LastChange(kind Kind, asset string) (time.Time, bool) {
	snap, ok := s.last(positionKey{kind: kind, asset: asset})
	return snap.at, ok
}

// Current returns the latest state of a position.
func (s *Stock) Current(kind Kind, asset string) Position {
	if snap, ok := s.last(positionKey{kind: kind, asset: asset}); ok {
		return Position{Amount: snap.amount, Value: snap.value}
	}
	return Position{}
}

// Apply records every delta of a stock payload at the given time. The whole
// payload is checked against the ordering rule before any position is
// touched, so a rejected payload leaves the ledger unchanged. Deltas are
// applied per asset in deterministic order.
func (s *Stock) Apply(payload *StockPayload, at time.Time) error {
	if payload == nil {
		return nil
	}
	if at.IsZero() {
		at = time.Now()
	}

	check := func(deltas map[string]Delta) error {
		for _, asset := range sortedKeys(deltas) {
			key := positionKey{kind: deltas[asset].Kind, asset: asset}
			if prev, ok := s.last(key); ok && at.Before(prev.at) {
				return NewOutOfOrderError(string(deltas[asset].Kind), asset, at, prev.at)
			}
		}
		return nil
	}
	if err := check(payload.Change); err != nil {
		return err
	}
	if err := check(payload.Set); err != nil {
		return err
	}

	for _, asset := range sortedKeys(payload.Change) {
		d := payload.Change[asset]
		if err := s.Change(d.Kind, asset, d.Amount, d.Value, at); err != nil {
			return err
		}
	}
	for _, asset := range sortedKeys(payload.Set) {
		d := payload.Set[asset]
		if err := s.Set(d.Kind, asset, d.Amount, d.Value, at); err != nil {
			return err
		}
	}
	return nil
}

// Totals returns every currently non-zero position, keyed by (kind, asset).
func (s *Stock) Totals() map[Kind]map[string]Position {
	totals := make(map[Kind]map[string]Position)
	for key := range s.positions {
		pos := s.Current(key.kind, key.asset)
		if pos.zero() {
			continue
		}
		if totals[key.kind] == nil {
			totals[key.kind] = make(map[string]Position)
		}
		totals[key.kind][key.asset] = pos
	}
	return totals
}

// Total returns the aggregate acquisition cost of all non-zero positions.
func (s *Stock) Total() int64 {
	var total int64
	for key := range s.positions {
		total += s.Current(key.kind, key.asset).Value
	}
	return total
}

// TotalAsset returns the aggregate acquisition cost of one asset across all
// kinds, e.g. a long holding net of a short position in the same symbol.
func (s *Stock) TotalAsset(asset string) int64 {
	var total int64
	for key := range s.positions {
		if key.asset != asset {
			continue
		}
		total += s.Current(key.kind, key.asset).Value
	}
	return total
}

// TotalOf returns the aggregate acquisition cost of one kind's positions.
func (s *Stock) TotalOf(kind Kind) int64 {
	var total int64
	for key := range s.positions {
		if key.kind != kind {
			continue
		}
		total += s.Current(key.kind, key.asset).Value
	}
	return total
}

// MarshalJSON rolls current positions up by asset across kinds, producing a
// stable  asset -> {amount, value}  object of non-zero holdings.
func (s *Stock) MarshalJSON() ([]byte, error) {
	type holding struct {
		Amount decimal.Decimal `json:"amount"`
		Value  int64           `json:"value"`
	}

	byAsset := make(map[string]holding)
	for key := range s.positions {
		pos := s.Current(key.kind, key.asset)
		if pos.zero() {
			continue
		}
		h := byAsset[key.asset]
		h.Amount = h.Amount.Add(pos.Amount)
		h.Value += pos.Value
		byAsset[key.asset] = h
	}
	return json.Marshal(byAsset)
}

func sortedKeys(m map[string]Delta) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
