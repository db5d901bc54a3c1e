package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// FloodWaitError is returned by a provider when the platform asks the caller
// to wait before repeating the request.
type FloodWaitError struct {
	Wait time.Duration
	Err  error
}

func (e *FloodWaitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flood wait %s: %v", e.Wait, e.Err)
	}
	return fmt.Sprintf("flood wait %s", e.Wait)
}

func (e *FloodWaitError) Unwrap() error { return e.Err }

// TransientError marks a remote failure that may succeed on retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func FloodWait(wait time.Duration, err error) error {
	return &FloodWaitError{Wait: wait, Err: err}
}

func Transient(err error) error {
	return &TransientError{Err: err}
}

// Kind is the outcome of one attempt of a remote call.
type Kind int

const (
	OutcomeOk Kind = iota
	OutcomeRateLimited
	OutcomeTransient
	OutcomeFatal
)

func (k Kind) String() string {
	switch k {
	case OutcomeOk:
		return "ok"
	case OutcomeRateLimited:
		return "flood_wait"
	case OutcomeTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// Outcome is the classified result of one attempt.
type Outcome struct {
	Kind Kind
	Wait time.Duration
	Err  error
}

// Classify maps an attempt error to its outcome.
func Classify(err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeOk}
	}
	var flood *FloodWaitError
	if errors.As(err, &flood) {
		return Outcome{Kind: OutcomeRateLimited, Wait: flood.Wait, Err: err}
	}
	var transient *TransientError
	if errors.As(err, &transient) {
		return Outcome{Kind: OutcomeTransient, Err: err}
	}
	return Outcome{Kind: OutcomeFatal, Err: err}
}
