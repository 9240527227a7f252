package speech

import (
	"context"
	"errors"
	"fmt"
)

// Provider is the external synthesis collaborator: text in, encoded audio
// bytes out.
type Provider interface {
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)
	Name() string
}

// ErrorKind decides whether a synthesis failure is retried.
type ErrorKind int

const (
	KindFatal ErrorKind = iota
	KindRateLimited
)

func (k ErrorKind) String() string {
	if k == KindRateLimited {
		return "rate_limited"
	}
	return "fatal"
}

// Error is returned by providers.
type Error struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s synthesis error (HTTP %d, %s): %s", e.Provider, e.StatusCode, e.Kind, msg)
	}
	return fmt.Sprintf("%s synthesis error (%s): %s", e.Provider, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrRetriesExhausted is wrapped when every attempt was rate limited.
var ErrRetriesExhausted = errors.New("synthesis retries exhausted")

// KindOf reports the kind of err. Unknown errors are fatal.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindFatal
}
