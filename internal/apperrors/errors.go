// Package apperrors defines the typed error kinds the core returns to its
// callers (spec §7): invalid-input, not-found, insufficient-balance,
// crypto-failure, rpc-failure, storage-failure, and internal.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an *Error for the caller's propagation policy.
type Kind string

const (
	KindInvalidInput        Kind = "invalid-input"
	KindNotFound            Kind = "not-found"
	KindInsufficientBalance Kind = "insufficient-balance"
	KindCryptoFailure       Kind = "crypto-failure"
	KindRPCFailure          Kind = "rpc-failure"
	KindStorageFailure      Kind = "storage-failure"
	KindInternal            Kind = "internal"
)

// Error is the single error type the core raises. Code is a short machine
// readable tag (e.g. "cache-file-not-found", "proof-generation-failed") named
// throughout spec.md; Msg is the human-readable detail.
type Error struct {
	Kind  Kind
	Code  string
	Msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets callers match on Kind via errors.Is(err, &apperrors.Error{Kind: k});
// a target with a non-empty Code must match that Code as well.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	if other.Code != "" && other.Code != e.Code {
		return false
	}
	return other.Kind == e.Kind
}

func new_(kind Kind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg, cause: cause}
}

func InvalidInput(code, msg string) *Error             { return new_(KindInvalidInput, code, msg, nil) }
func NotFound(code, msg string) *Error                 { return new_(KindNotFound, code, msg, nil) }
func InsufficientBalance(code, msg string) *Error      { return new_(KindInsufficientBalance, code, msg, nil) }
func CryptoFailure(code, msg string, cause error) *Error {
	return new_(KindCryptoFailure, code, msg, cause)
}
func RPCFailure(code, msg string, cause error) *Error {
	return new_(KindRPCFailure, code, msg, cause)
}
func StorageFailure(code, msg string, cause error) *Error {
	return new_(KindStorageFailure, code, msg, cause)
}
func Internal(code, msg string, cause error) *Error { return new_(KindInternal, code, msg, cause) }

// KindOf returns the Kind of err if it is (or wraps) an *Error, else KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the Code of err if it is (or wraps) an *Error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
