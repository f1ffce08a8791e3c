package client

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// TransportError is a request that never produced an HTTP response.
type TransportError struct {
	Op  string
	Url string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s [%s] failed: %v", e.Op, e.Url, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ActionRejectedError is a non-success HTTP status. Detail is the backend's explanation.
type ActionRejectedError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *ActionRejectedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s rejected with status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s rejected with status %d: %s", e.Op, e.StatusCode, e.Detail)
}

// IsCancelled reports whether err is the result of the caller giving up.
func IsCancelled(err error) bool {
	return err != nil && errors.Is(err, context.Canceled)
}

// Detail extracts the most user-presentable text from an error returned by a StatusClient.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var rejected *ActionRejectedError
	if errors.As(err, &rejected) && rejected.Detail != "" {
		return rejected.Detail
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport.Err.Error()
	}
	return err.Error()
}
