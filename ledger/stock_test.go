package ledger_test

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/nivelet/bookkeep/ledger"
	"github.com/shopspring/decimal"
)

func TestChangeAccumulatesPosition(t *testing.T) {
	s := ledger.NewStock()

	assert.NoError(t, s.Change(ledger.KindCrypto, "ETH", decimal.NewFromInt(2), 3000_00, day(1)))
	assert.NoError(t, s.Change(ledger.KindCrypto, "ETH", decimal.NewFromFloat(1.5), 2500_00, day(2)))

	pos := s.Current(ledger.KindCrypto, "ETH")
	assert.True(t, pos.Amount.Equal(decimal.NewFromFloat(3.5)))
	assert.Equal(t, int64(5500_00), pos.Value)
}

func TestSetOverridesPosition(t *testing.T) {
	s := ledger.NewStock()

	assert.NoError(t, s.Change(ledger.KindStock, "NAKD", decimal.NewFromInt(100), 1000_00, day(1)))
	assert.NoError(t, s.Set(ledger.KindStock, "NAKD", decimal.NewFromInt(40), 400_00, day(2)))

	pos := s.Current(ledger.KindStock, "NAKD")
	assert.True(t, pos.Amount.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, int64(400_00), pos.Value)
}

func TestOutOfOrderRejected(t *testing.T) {
	s := ledger.NewStock()
	assert.NoError(t, s.Change(ledger.KindCrypto, "BTC", decimal.NewFromInt(1), 40_000_00, day(5)))

	err := s.Change(ledger.KindCrypto, "BTC", decimal.NewFromInt(1), 41_000_00, day(4))
	var oooErr *ledger.OutOfOrderError
	assert.True(t, errors.As(err, &oooErr))
	assert.Equal(t, "BTC", oooErr.Asset)

	// Rejected change leaves the position untouched
	pos := s.Current(ledger.KindCrypto, "BTC")
	assert.True(t, pos.Amount.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, int64(40_000_00), pos.Value)

	// Same timestamp as the latest snapshot is allowed
	assert.NoError(t, s.Change(ledger.KindCrypto, "BTC", decimal.NewFromInt(1), 41_000_00, day(5)))
}

func TestPositionAt(t *testing.T) {
	s := ledger.NewStock()
	assert.NoError(t, s.Change(ledger.KindCrypto, "ETH", decimal.NewFromInt(2), 3000_00, day(2)))
	assert.NoError(t, s.Change(ledger.KindCrypto, "ETH", decimal.NewFromInt(-1), -1500_00, day(4)))

	before := s.At(ledger.KindCrypto, "ETH", day(1))
	assert.True(t, before.Amount.IsZero())
	assert.Equal(t, int64(0), before.Value)

	mid := s.At(ledger.KindCrypto, "ETH", day(3))
	assert.True(t, mid.Amount.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, int64(3000_00), mid.Value)

	after := s.At(ledger.KindCrypto, "ETH", day(5))
	assert.True(t, after.Amount.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, int64(1500_00), after.Value)
}

func TestApplyPayloadAtomically(t *testing.T) {
	s := ledger.NewStock()
	assert.NoError(t, s.Change(ledger.KindStock, "NAKD", decimal.NewFromInt(10), 100_00, day(5)))

	payload := &ledger.StockPayload{
		Change: map[string]ledger.Delta{
			"ETH":  {Kind: ledger.KindCrypto, Amount: decimal.NewFromInt(1), Value: 1500_00},
			"NAKD": {Kind: ledger.KindStock, Amount: decimal.NewFromInt(5), Value: 50_00},
		},
	}

	// One stale position rejects the whole payload
	err := s.Apply(payload, day(3))
	var oooErr *ledger.OutOfOrderError
	assert.True(t, errors.As(err, &oooErr))
	assert.True(t, s.Current(ledger.KindCrypto, "ETH").Amount.IsZero())

	assert.NoError(t, s.Apply(payload, day(6)))
	assert.True(t, s.Current(ledger.KindCrypto, "ETH").Amount.Equal(decimal.NewFromInt(1)))
	assert.True(t, s.Current(ledger.KindStock, "NAKD").Amount.Equal(decimal.NewFromInt(15)))
}

func TestTotals(t *testing.T) {
	s := ledger.NewStock()
	assert.NoError(t, s.Change(ledger.KindCrypto, "ETH", decimal.NewFromInt(2), 3000_00, day(1)))
	assert.NoError(t, s.Change(ledger.KindStock, "NAKD", decimal.NewFromInt(100), 80_00, day(1)))
	assert.NoError(t, s.Change(ledger.KindCrypto, "BTC", decimal.NewFromInt(1), 40_000_00, day(1)))
	// Closed out position drops from the totals
	assert.NoError(t, s.Change(ledger.KindCrypto, "BTC", decimal.NewFromInt(-1), -40_000_00, day(2)))

	totals := s.Totals()
	assert.Equal(t, 1, len(totals[ledger.KindCrypto]))
	assert.Equal(t, int64(3000_00), totals[ledger.KindCrypto]["ETH"].Value)
	assert.Equal(t, int64(80_00), totals[ledger.KindStock]["NAKD"].Value)

	assert.Equal(t, int64(3080_00), s.Total())
	assert.Equal(t, int64(3000_00), s.TotalOf(ledger.KindCrypto))
	assert.Equal(t, int64(80_00), s.TotalOf(ledger.KindStock))
	assert.Equal(t, int64(3000_00), s.TotalAsset("ETH"))
	assert.Equal(t, int64(0), s.TotalAsset("BTC"))
}

func TestMarshalRollsUpByAsset(t *testing.T) {
	s := ledger.NewStock()
	assert.NoError(t, s.Change(ledger.KindStock, "GME", decimal.NewFromInt(10), 2000_00, day(1)))
	assert.NoError(t, s.Change(ledger.KindShort, "GME", decimal.NewFromInt(-5), -900_00, day(1)))

	out, err := s.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `{"GME":{"amount":"5","value":110000}}`, string(out))
}
