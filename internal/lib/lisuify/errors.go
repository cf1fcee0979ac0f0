package lisuify

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("object does not exist")
	ErrWrongKind           = errors.New("expected object not package")
	ErrSchemaMismatch      = errors.New("unexpected stake pool schema")
	ErrNoFunds             = errors.New("no coins")
	ErrDryRunFailure       = errors.New("dry run failed")
	ErrValidatorNotFound   = errors.New("can not find validator")
	ErrSystemStateRequired = errors.New("sui system state is required")
	ErrNoStakingValidator  = errors.New("no validator given and the pool has no staking validator")
	ErrNotConfirmed        = errors.New("transaction not confirmed")
)

// DecodeError is a stake pool decoding failure.  Kind is one of ErrNotFound, ErrWrongKind or
// ErrSchemaMismatch.
type DecodeError struct {
	Kind   error
	Field  string
	Detail string
}

func (e *DecodeError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg += ", field " + e.Field
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

func schemaError(field, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: ErrSchemaMismatch, Field: field, Detail: fmt.Sprintf(format, args...)}
}
