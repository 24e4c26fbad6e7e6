package domain

import (
	"errors"
	"fmt"
)

var (
	ErrStaleOrMissingRate = errors.New("rate is stale or missing")
	ErrInvalidPairKey     = errors.New("invalid pair key")
	ErrInvalidAmount      = errors.New("amount must be positive")
)

type SourceErrorKind string

const (
	SourceErrNetwork    SourceErrorKind = "network"
	SourceErrStatus     SourceErrorKind = "status"
	SourceErrPayload    SourceErrorKind = "payload"
	SourceErrCredential SourceErrorKind = "credential"
)

// SourceError is a classified failure of a single rate source fetch.
type SourceError struct {
	Source string
	Kind   SourceErrorKind
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Source, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func NewSourceError(source string, kind SourceErrorKind, err error) *SourceError {
	return &SourceError{Source: source, Kind: kind, Err: err}
}

type CurrencyNotFoundError struct {
	Code string
}

func (e *CurrencyNotFoundError) Error() string {
	return fmt.Sprintf("unknown currency %q", e.Code)
}

// StorageError wraps a failed read or write of a data file.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

type InsufficientFundsError struct {
	Code      string
	Available float64
	Required  float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %.4f %s, required %.4f %s", e.Available, e.Code, e.Required, e.Code)
}
