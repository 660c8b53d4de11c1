package types

import (
	"errors"

	"nannyhub/pkg/query"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrAlreadyAssigned   = errors.New("appointment already has a nanny")
	ErrNoLongerAvailable = errors.New("nanny is no longer available")
	ErrInvalidInterval   = errors.New("invalid interval")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidQuerySpec  = query.ErrInvalidSpec
)

type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindAlreadyAssigned   ErrorKind = "already_assigned"
	KindNoLongerAvailable ErrorKind = "no_longer_available"
	KindInvalidInterval   ErrorKind = "invalid_interval"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindInvalidQuerySpec  ErrorKind = "invalid_query_spec"
	KindInternal          ErrorKind = "internal"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrNotFound, KindNotFound},
	{ErrUnauthorized, KindUnauthorized},
	{ErrAlreadyAssigned, KindAlreadyAssigned},
	{ErrNoLongerAvailable, KindNoLongerAvailable},
	{ErrInvalidInterval, KindInvalidInterval},
	{ErrInvalidTransition, KindInvalidTransition},
	{ErrInvalidQuerySpec, KindInvalidQuerySpec},
}

// Kind maps err onto the domain taxonomy. Anything unrecognised is internal.
func Kind(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsConflict reports whether err is a lost race the caller can retry with
// another nanny or slot.
func IsConflict(err error) bool {
	kind := Kind(err)
	return kind == KindAlreadyAssigned || kind == KindNoLongerAvailable
}
