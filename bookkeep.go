// Package bookkeep is the entry point of the transfer analysis and ledger
// bookkeeping core. It wires an analysis.Analyzer to a fresh balance and
// stock ledger pair and parses the analyzer configuration document.
//
// The package is a library boundary only: collaborators hand in plain data
// (transfers, configuration, knowledge catalogs) and receive plain data back
// (balanced posting groups, ledger state). Transport, persistence and UI
// live elsewhere.
package bookkeep

import (
	"github.com/nivelet/bookkeep/analysis"
	"github.com/nivelet/bookkeep/ledger"
)

// New returns an analyzer over fresh, empty ledgers. One analyzer owns its
// ledger pair exclusively; process one batch per analyzer or serialize
// access externally.
func New(cfg analysis.Config) *analysis.Analyzer {
	return analysis.New(cfg, ledger.NewBalances(), ledger.NewStock())
}
