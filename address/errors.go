package address

import "fmt"

// UnresolvedError is returned when a semantic address has no applicable
// generic rule and no configured override. The failing event is rejected as
// a whole; nothing is applied to the ledgers.
type UnresolvedError struct {
	Address Address
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("no account configured for address %s", e.Address)
}

// NewUnresolvedError creates an error for an address without a configured
// account.
func NewUnresolvedError(addr Address) *UnresolvedError {
	return &UnresolvedError{Address: addr}
}
