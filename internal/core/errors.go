package core

import (
	"errors"
	"fmt"
)

// Client facing messages.
const (
	MsgInvalidItemBy  = `Invalid value for item_by parameter. Must be "quantity" or "price".`
	MsgRankOutOfRange = "Value of n exceeds the number of items available."
	MsgInvalidRank    = "Value of n must be a positive integer."
	MsgInternal       = "An internal server error occurred."
	MsgMalformedDate  = "Values of start_date and end_date must begin with a valid YYYY-MM date."
	MsgInvalidYear    = "Value of year must be a four digit year."
)

// ErrorKind classifies a failed query so the transport can pick a status code.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInvalidInput
	KindValidation
	KindComputation
	KindSource
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindValidation:
		return "validation"
	case KindComputation:
		return "computation"
	case KindSource:
		return "source"
	default:
		return "internal"
	}
}

// ClientVisible reports whether the error message may be returned to callers.
func (k ErrorKind) ClientVisible() bool {
	return k == KindInvalidInput || k == KindValidation
}

// QueryError is the tagged failure of a single query.
type QueryError struct {
	Kind    ErrorKind
	Op      string
	Message string // safe to show to the client when Kind is client visible
	Err     error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError builds a QueryError.
func NewQueryError(kind ErrorKind, op, message string, err error) *QueryError {
	return &QueryError{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of err, KindInternal when err carries none.
func KindOf(err error) ErrorKind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindInternal
}
