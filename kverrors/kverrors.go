// Package kverrors carries the three error kinds the CORE surfaces to
// callers: UnknownShard, NotFound, and Internal. It deliberately knows
// nothing about wire formats or status codes. Mapping a Kind onto a
// transport-specific response is the boundary's job.
package kverrors

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind uint8

const (
	// KindUnknownShard means the shard id named in a request is not present
	// in the ShardMap at dispatch time.
	KindUnknownShard Kind = iota
	// KindNotFound means a Get targeted a key absent from the shard.
	KindNotFound
	// KindInternal means an unexpected invariant violation was caught
	// inside a worker (for example, a recovered panic).
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUnknownShard:
		return "unknown_shard"
	case KindNotFound:
		return "not_found"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a Kind-tagged error. Callers that care about the distinction use
// errors.As to recover it; callers that don't can treat it like any other
// error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrUnknownShard is returned when a request names a shard id the ShardMap
// does not have registered. The core never retries this itself; placing
// the shard is the controller's responsibility.
var ErrUnknownShard = &Error{Kind: KindUnknownShard, Err: errors.New("unknown shard")}

// ErrNotFound is returned when a Get targets an absent key.
var ErrNotFound = &Error{Kind: KindNotFound, Err: errors.New("key not found")}

// Internal wraps cause as a KindInternal error, for invariant violations a
// worker catches (a recovered panic, a poisoned expectation) rather than
// letting them escape and kill the worker goroutine.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Err: cause}
}

// Is reports whether err is a kverrors.Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
