// Package errors provides error formatting infrastructure for analysis
// failures. It separates error presentation from domain logic, allowing the
// same errors to be rendered in multiple formats (text, JSON) for different
// consumers.
//
// The package defines a Formatter interface and provides two implementations:
//   - TextFormatter: plain text with rule source context where available
//   - JSONFormatter: structured JSON for APIs and web interfaces
//
// Domain-specific error types remain in their respective packages (rules,
// address, ledger, analysis); this package handles the presentation layer.
package errors

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/nivelet/bookkeep/address"
	"github.com/nivelet/bookkeep/analysis"
	"github.com/nivelet/bookkeep/knowledge"
	"github.com/nivelet/bookkeep/ledger"
	"github.com/nivelet/bookkeep/rules"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	// Format formats a single error.
	Format(err error) string

	// FormatAll formats multiple errors.
	FormatAll(errs []error) string
}

// TextFormatter formats errors as plain text. When the failing rule
// expression's source is supplied, parse errors show the offending line with
// a caret under the error column.
type TextFormatter struct {
	source []byte
}

// TextFormatterOption is an option for configuring TextFormatter.
type TextFormatterOption func(*TextFormatter)

// WithSource sets the rule expression source for parse error context.
func WithSource(source []byte) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.source = source
	}
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts ...TextFormatterOption) *TextFormatter {
	tf := &TextFormatter{}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Format formats a single error.
func (tf *TextFormatter) Format(err error) string {
	if batch, ok := err.(*analysis.BatchErrors); ok {
		return tf.FormatAll(batch.Errors)
	}

	if e, ok := err.(*rules.ParseError); ok && tf.source != nil {
		return tf.formatWithSourceContext(e)
	}

	return err.Error()
}

// FormatAll formats multiple errors, separating them with blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf bytes.Buffer
	for i, err := range errs {
		buf.WriteString(tf.Format(err))

		// Blank line between errors, not after the last one
		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// formatWithSourceContext shows the error message followed by the offending
// source line and a caret pointing at the error column.
func (tf *TextFormatter) formatWithSourceContext(e *rules.ParseError) string {
	var buf bytes.Buffer

	buf.WriteString(e.Error())
	buf.WriteString("\n\n")

	lines := strings.Split(string(tf.source), "\n")
	if e.Line < 1 || e.Line > len(lines) {
		return e.Error()
	}

	buf.WriteString("   ")
	buf.WriteString(lines[e.Line-1])
	buf.WriteByte('\n')

	if e.Column > 0 {
		buf.WriteString("   ")
		for j := 0; j < e.Column-1; j++ {
			buf.WriteByte(' ')
		}
		buf.WriteString("^\n")
	}

	return buf.String()
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.toJSON(err))
	return string(data)
}

// FormatAll formats multiple errors as a JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	data, _ := json.MarshalIndent(jf.FormatAllToSlice(errs), "", "  ")
	return string(data)
}

// FormatAllToSlice returns errors as a slice of ErrorJSON structs.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		result = append(result, jf.toJSON(err))
	}
	return result
}

// toJSON converts an error to ErrorJSON, mapping each failure class of the
// analysis core to a stable type identifier with structured details.
func (jf *JSONFormatter) toJSON(err error) ErrorJSON {
	out := ErrorJSON{
		Type:    "error",
		Message: err.Error(),
		Details: make(map[string]interface{}),
	}

	switch e := err.(type) {
	case *rules.ParseError:
		out.Type = "rule_parsing"
		out.Details["line"] = e.Line
		out.Details["column"] = e.Column
		if e.Token != "" {
			out.Details["token"] = e.Token
		}

	case *knowledge.InvalidTreeError:
		out.Type = "invalid_tree"
		out.Details["code"] = e.Code

	case *address.UnresolvedError:
		out.Type = "unresolved_address"
		out.Details["address"] = e.Address.String()

	case *analysis.UnresolvedAmountError:
		out.Type = "unresolved_amount"
		out.Details["reason"] = string(e.Reason)
		out.Details["asset"] = e.Asset

	case *analysis.ShortSellingDisabledError:
		out.Type = "short_selling_disabled"
		out.Details["asset"] = e.Asset

	case *analysis.InsufficientPositionError:
		out.Type = "insufficient_position"
		out.Details["asset"] = e.Asset
		out.Details["requested"] = e.Requested.String()
		out.Details["held"] = e.Held.String()

	case *analysis.UnbalancedEventError:
		out.Type = "unbalanced_event"
		out.Details["residue"] = e.Residue

	case *ledger.OutOfOrderError:
		out.Type = "out_of_order_stock_update"
		out.Details["kind"] = e.Kind
		out.Details["asset"] = e.Asset

	case *analysis.BatchErrors:
		out.Type = "batch"
		out.Details["errors"] = jf.FormatAllToSlice(e.Errors)
	}

	if len(out.Details) == 0 {
		out.Details = nil
	}
	return out
}
