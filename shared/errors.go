package shared

import (
	"errors"
	"fmt"
)

var (
	ErrTransport     = errors.New("transport failure")
	ErrAuthorization = errors.New("authorization rejected")
	ErrStatus        = errors.New("unexpected status")
	ErrDecode        = errors.New("malformed response")
	ErrCancelled     = errors.New("cancelled")
)

// FetchError carries the failure kind of a single request, plus the HTTP status when there was one.
type FetchError struct {
	Kind   error
	Status int
	Url    string
	Err    error
}

func (fe *FetchError) Error() string {
	if fe.Status != 0 && fe.Err != nil {
		return fmt.Sprintf("%v: %s: status %d: %v", fe.Kind, fe.Url, fe.Status, fe.Err)
	}
	if fe.Status != 0 {
		return fmt.Sprintf("%v: %s: status %d", fe.Kind, fe.Url, fe.Status)
	}
	if fe.Err != nil {
		return fmt.Sprintf("%v: %s: %v", fe.Kind, fe.Url, fe.Err)
	}
	return fmt.Sprintf("%v: %s", fe.Kind, fe.Url)
}

func (fe *FetchError) Is(target error) bool {
	return fe.Kind == target
}

func (fe *FetchError) Unwrap() error {
	return fe.Err
}

func NewFetchError(kind error, url string, status int, err error) *FetchError {
	return &FetchError{Kind: kind, Status: status, Url: url, Err: err}
}
