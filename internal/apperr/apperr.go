// Package apperr defines the error kinds returned by the trading core.
//
// Every kind except StoreUnavailable is an expected, user-correctable
// condition. Errors compare by kind, so a wrapped or re-messaged error still
// matches its sentinel with errors.Is.
package apperr

import "errors"

type Kind string

const (
	KindInvalidQuantity    Kind = "invalid_quantity"
	KindMissingSymbol      Kind = "missing_symbol"
	KindUnknownSymbol      Kind = "unknown_symbol"
	KindInsufficientFunds  Kind = "insufficient_funds"
	KindInsufficientShares Kind = "insufficient_shares"
	KindUnknownAccount     Kind = "unknown_account"
	KindMissingUsername    Kind = "missing_username"
	KindMissingPassword    Kind = "missing_password"
	KindPasswordMismatch   Kind = "password_mismatch"
	KindDuplicateUsername  Kind = "duplicate_username"
	KindWeakPassword       Kind = "weak_password"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindStoreUnavailable   Kind = "store_unavailable"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidQuantity    = &Error{Kind: KindInvalidQuantity, Msg: "shares must be a positive integer"}
	ErrMissingSymbol      = &Error{Kind: KindMissingSymbol, Msg: "missing symbol"}
	ErrUnknownSymbol      = &Error{Kind: KindUnknownSymbol, Msg: "invalid symbol"}
	ErrInsufficientFunds  = &Error{Kind: KindInsufficientFunds, Msg: "can't afford"}
	ErrInsufficientShares = &Error{Kind: KindInsufficientShares, Msg: "not enough shares"}
	ErrUnknownAccount     = &Error{Kind: KindUnknownAccount, Msg: "account not found"}
	ErrMissingUsername    = &Error{Kind: KindMissingUsername, Msg: "must provide username"}
	ErrMissingPassword    = &Error{Kind: KindMissingPassword, Msg: "missing password"}
	ErrPasswordMismatch   = &Error{Kind: KindPasswordMismatch, Msg: "passwords don't match"}
	ErrDuplicateUsername  = &Error{Kind: KindDuplicateUsername, Msg: "account already exists"}
	ErrWeakPassword       = &Error{Kind: KindWeakPassword, Msg: "password requires a letter, number, and a symbol"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Msg: "invalid username and/or password"}
	ErrStoreUnavailable   = &Error{Kind: KindStoreUnavailable, Msg: "store unavailable"}
)

// StoreUnavailable wraps a persistence failure. A nil err returns nil.
func StoreUnavailable(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindStoreUnavailable, Msg: "store unavailable", Err: err}
}

// Wrap attaches a cause to one of the sentinel kinds.
func Wrap(kind *Error, err error) error {
	return &Error{Kind: kind.Kind, Msg: kind.Msg, Err: err}
}

// KindOf returns the kind carried by err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsFault reports whether err is a system fault rather than a validation
// outcome. Errors without a kind are treated as faults.
func IsFault(err error) bool {
	if err == nil {
		return false
	}
	k := KindOf(err)
	return k == "" || k == KindStoreUnavailable
}
