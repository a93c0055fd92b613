package dyndns

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound is matched by every *RecordNotFoundError.
var ErrRecordNotFound = errors.New("record not found")

var errWrongFamily = errors.New("address is not of the expected family")

// NetworkError is a transport level failure or unexpected status from an HTTP endpoint.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("request to %s failed: %s", e.URL, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError is returned when an IP lookup response is not an address of the requested family.
type ParseError struct {
	Input  string
	Family Family
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse %s address from %q: %s", e.Family, e.Input, e.Err)
}
func (e *ParseError) Unwrap() error { return e.Err }

// ProviderError is a failed call to the DNS provider API.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string { return fmt.Sprintf("dns provider %s: %s", e.Op, e.Err) }
func (e *ProviderError) Unwrap() error { return e.Err }

// RecordNotFoundError is returned when the provider has no record of the
// required family for the target name. Records are never created.
type RecordNotFoundError struct {
	Family Family
	Name   string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("No %s record found for %s", e.Family, e.Name)
}
func (e *RecordNotFoundError) Is(target error) bool { return target == ErrRecordNotFound }

// NotifyError is a failed webhook delivery.
// StatusCode is zero when the request never got a response.
type NotifyError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *NotifyError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("webhook returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("webhook delivery failed: %s", e.Err)
}
func (e *NotifyError) Unwrap() error { return e.Err }
