package services

import (
	"errors"
)

var (
	ErrAccountNotFound = errors.New("account not found")
)

// ProvisioningError carries the identity provider's rejection verbatim so the
// diagnostic detail (duplicate email, invalid redirect, quota) reaches the
// administrator.
type ProvisioningError struct {
	Message string
}

func (e *ProvisioningError) Error() string {
	return e.Message
}

// NewProvisioningError wraps a provider failure, preserving its message.
func NewProvisioningError(err error) *ProvisioningError {
	return &ProvisioningError{Message: err.Error()}
}

// IsProvisioningError reports whether err is a provider rejection.
func IsProvisioningError(err error) bool {
	var pe *ProvisioningError
	return errors.As(err, &pe)
}
