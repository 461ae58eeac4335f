package ports

import (
	"errors"
	"fmt"
)

var (
	// No cached rate exists and the external source cannot be reached.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// The parcel already has a delivery company; assignment lost the race.
	ErrCompanyConflict = errors.New("delivery company already assigned")

	ErrParcelNotFound     = errors.New("parcel not found")
	ErrParcelTypeNotFound = errors.New("parcel type not found")
	ErrCompanyNotFound    = errors.New("company not found")

	// The store aborted a conditional write due to serializable-isolation
	// conflict. Distinct from ErrCompanyConflict: retrying the same attempt
	// is safe and may still win.
	ErrSerialization = errors.New("serialization failure")
)

// Kind of external rate-fetch failure.
type FetchErrorKind string

const (
	FetchNetwork FetchErrorKind = "network"
	FetchParse   FetchErrorKind = "parse"
	FetchTimeout FetchErrorKind = "timeout"
)

// FetchError classifies failures of the external rate source so callers can
// log them distinguishably. Timeouts are handled identically to network
// failures; the kind exists for diagnosis only.
type FetchError struct {
	Kind FetchErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("rate fetch failed (%s): %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
