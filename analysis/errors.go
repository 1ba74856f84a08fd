package analysis

import (
	"fmt"
	"strings"

	"github.com/nivelet/bookkeep/transfer"
	"github.com/shopspring/decimal"
)

// UnresolvedAmountError is returned when a transfer carries no amount and no
// sibling transfer of the event supplies an unclaimed value to solve it.
type UnresolvedAmountError struct {
	Reason transfer.Reason
	Type   transfer.Type
	Asset  string
}

// NewUnresolvedAmountError creates an UnresolvedAmountError for a transfer
// whose amount could not be solved from its siblings.
func NewUnresolvedAmountError(t *transfer.Transfer) *UnresolvedAmountError {
	return &UnresolvedAmountError{Reason: t.Reason, Type: t.Type, Asset: t.Asset}
}

func (e *UnresolvedAmountError) Error() string {
	return fmt.Sprintf("no amount for %s.%s.%s and no sibling transfer supplies one",
		e.Reason, e.Type, e.Asset)
}

// ShortSellingDisabledError is returned when an event would open a short
// position while short selling is not allowed by configuration.
type ShortSellingDisabledError struct {
	Asset string
}

// NewShortSellingDisabledError creates a ShortSellingDisabledError for the
// given asset.
func NewShortSellingDisabledError(asset string) *ShortSellingDisabledError {
	return &ShortSellingDisabledError{Asset: asset}
}

func (e *ShortSellingDisabledError) Error() string {
	return fmt.Sprintf("selling %s would open a short position but short selling is disabled", e.Asset)
}

// InsufficientPositionError is returned when a sell or a buy-to-cover asks
// for more units than the current position holds. Positions never flip sign
// within a single event.
type InsufficientPositionError struct {
	Asset     string
	Requested decimal.Decimal
	Held      decimal.Decimal
}

func (e *InsufficientPositionError) Error() string {
	return fmt.Sprintf("cannot settle %s units of %s against a position of %s",
		e.Requested, e.Asset, e.Held)
}

// UnbalancedEventError is returned when an event's postings do not sum to
// zero and no trade leg exists to absorb the residue as realized profit or
// loss. It signals malformed input, not an analyzer bug.
type UnbalancedEventError struct {
	Residue int64
}

func (e *UnbalancedEventError) Error() string {
	return fmt.Sprintf("event postings do not balance: residue of %d minor units", e.Residue)
}

// BatchErrors wraps the failures of a batch run. Events fail independently;
// successful events of the same batch stay applied.
type BatchErrors struct {
	Errors []error
}

func (e *BatchErrors) Error() string {
	messages := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		messages[i] = err.Error()
	}
	return fmt.Sprintf("analysis failed with %d error(s):\n%s", len(e.Errors), strings.Join(messages, "\n"))
}

// Unwrap returns the individual errors for use with errors.Is and errors.As.
func (e *BatchErrors) Unwrap() []error {
	return e.Errors
}
