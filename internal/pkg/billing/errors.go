package billing

import (
	"errors"
	"fmt"
)

// ErrIdentityNotFound means a notification resolved to a provider customer
// email with no matching local account. The notification must fail without
// touching any other account.
var ErrIdentityNotFound = errors.New("billing: no local account matches the provider customer email")

// ErrMissingReference means a notification carried neither a subscription
// nor a checkout session reference.
var ErrMissingReference = errors.New("billing: notification carries no subscription or session reference")

// ConfigError reports a required secret or reference missing at the point of
// use. It is fatal to the single operation and operator-actionable.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("billing: missing configuration: %s", e.Missing)
}

// ProviderError wraps a failed payment provider call.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("billing: provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
