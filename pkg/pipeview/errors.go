package pipeview

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/askiada/go-pipeview/pkg/pipeview/model"
)

var (
	ErrInvalidEndpoint = errors.New("endpoint must be an absolute http(s) url")
	ErrInvalidInterval = errors.New("interval must be greater than 0")
	ErrAlreadyPolling  = errors.New("poller is already polling")
	ErrTransport       = errors.New("transport failure")
	ErrStatus          = errors.New("unexpected status")
	ErrSuperseded      = errors.New("response superseded by a newer snapshot")

	ErrMalformedDocument = model.ErrMalformedDocument
)

// FetchError describes a failed fetch. It matches both its Kind
// (ErrTransport, ErrStatus or ErrMalformedDocument) and the underlying error with errors.Is.
type FetchError struct {
	Seq  uint64
	Kind error
	Err  error
}

func (e *FetchError) Error() string {
	if errors.Is(e.Err, e.Kind) {
		return fmt.Sprintf("fetch #%d: %v", e.Seq, e.Err)
	}

	return fmt.Sprintf("fetch #%d: %v: %v", e.Seq, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
