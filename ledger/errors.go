package ledger

import (
	"fmt"
	"time"
)

// OutOfOrderError is returned when a stock update is timestamped before the
// latest snapshot already recorded for its position.
type OutOfOrderError struct {
	Kind  string
	Asset string
	At    time.Time
	Last  time.Time
}

// NewOutOfOrderError creates an OutOfOrderError for the given position.
func NewOutOfOrderError(kind, asset string, at, last time.Time) *OutOfOrderError {
	return &OutOfOrderError{Kind: kind, Asset: asset, At: at, Last: last}
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("stock update for %s/%s at %s precedes last snapshot at %s",
		e.Kind, e.Asset, e.At.Format(time.RFC3339), e.Last.Format(time.RFC3339))
}
