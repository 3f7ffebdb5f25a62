package dwd

import (
	"fmt"
	"strings"
)

type _error string

func (e _error) Error() string {
	return string(e)
}

const (
	// ErrNoneSucceeded is returned by discovery when every IP provider failed
	// or none was configured.
	ErrNoneSucceeded _error = "no ip provider succeeded"

	// ErrRecordNotFound is returned by DNS providers that update an existing
	// record in place when no record matches the configured host.
	ErrRecordNotFound _error = "dns record not found"

	// ErrNotConfigured is returned when a provider was selected but its
	// configuration block is absent.
	ErrNotConfigured _error = "provider is not configured"
)

// UnsupportedProviderError reports a provider name outside of the known set.
type UnsupportedProviderError struct {
	Kind string // "ip" or "dns"
	Name string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("%s provider %q is not supported", e.Kind, e.Name)
}

// MissingCredentialsError is returned at publish time when neither the
// configuration nor the environment supplies a provider's credentials.
type MissingCredentialsError struct {
	Provider ProviderName
	Env      []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("missing credentials for %s: set them in the config or via %s",
		e.Provider, strings.Join(e.Env, ", "))
}

// InvalidAddressError is returned when a lookup produced something that is
// not an IPv4 or IPv6 address.
type InvalidAddressError struct {
	Raw string
	Err error
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid ip address %q: %s", e.Raw, e.Err)
}

func (e *InvalidAddressError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response or an error payload from a provider API.
type APIError struct {
	Provider ProviderName
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s api error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.Status, e.Message)
}
