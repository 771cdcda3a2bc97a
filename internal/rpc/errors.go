package rpc

import (
	"errors"
	"fmt"
)

// ErrorKind splits transport failures into retryable and terminal classes.
type ErrorKind int

const (
	// KindTransient covers rate limiting, temporary unavailability and
	// network-level failures. Eligible for retry.
	KindTransient ErrorKind = iota
	// KindPermanent covers malformed requests, not-found and remote
	// rejections. Never retried.
	KindPermanent
)

// Error is a classified transport failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	kind := "permanent"
	if e.Kind == KindTransient {
		kind = "transient"
	}
	return fmt.Sprintf("%s: %s transport error: %v", e.Op, kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransient reports whether err is a transport error worth retrying.
func IsTransient(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == KindTransient
}
