package knowledge

import "fmt"

// InvalidTreeError is returned when catalog data does not form a valid tree:
// a code with several parents, a cycle, or a code unreachable from the root.
type InvalidTreeError struct {
	Code   string
	Reason string
}

func (e *InvalidTreeError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("invalid code tree: %s", e.Reason)
	}
	return fmt.Sprintf("invalid code tree: %s: %s", e.Code, e.Reason)
}

// NewInvalidTreeError creates an error for malformed catalog data.
func NewInvalidTreeError(code, reason string) *InvalidTreeError {
	return &InvalidTreeError{Code: code, Reason: reason}
}
