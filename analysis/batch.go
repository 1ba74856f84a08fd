package analysis

import (
	"context"
	"fmt"
	"sort"

	"github.com/nivelet/bookkeep/ledger"
	"github.com/nivelet/bookkeep/telemetry"
)

// ProcessAll analyzes a batch of events in chronological order. Events fail
// independently: a failing event is skipped without touching the ledgers
// while later events still apply, and the failures come back wrapped in a
// single BatchErrors.
//
// The batch is sorted stably by event time first, because the stock ledger
// rejects out-of-order updates.
func (a *Analyzer) ProcessAll(ctx context.Context, events []Event) ([]ledger.Group, error) {
	timer := telemetry.FromContext(ctx).Start("Analyze transfers")
	defer timer.End()

	ordered := make([]Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Time.Before(ordered[j].Time)
	})

	var (
		groups []ledger.Group
		errs   []error
	)
	for i, ev := range ordered {
		child := timer.Child(fmt.Sprintf("event %d", i+1))
		eventGroups, err := a.Process(ev)
		child.End()

		if err != nil {
			errs = append(errs, fmt.Errorf("event %d: %w", i+1, err))
			continue
		}
		groups = append(groups, eventGroups...)
	}

	if len(errs) > 0 {
		return groups, &BatchErrors{Errors: errs}
	}
	return groups, nil
}
