// Package errors provides structured error handling for scout.
// It defines the wallet error taxonomy, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the scout CLI.
const (
	ExitSuccess  = 0 // Successful execution
	ExitGeneral  = 1 // General/unknown error
	ExitInput    = 2 // Invalid input
	ExitRejected = 3 // User declined a wallet prompt
	ExitNotFound = 4 // Resource not found
	ExitWallet   = 5 // Wallet missing, not connected, or on the wrong chain
)

// ScoutError is the structured error type for scout.
type ScoutError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *ScoutError) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ScoutError) Unwrap() error {
	return e.Cause
}

// Is matches on Code so wrapped copies still compare equal to their sentinel.
func (e *ScoutError) Is(target error) bool {
	var t *ScoutError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Wallet error taxonomy.
var (
	ErrExtensionAbsent = &ScoutError{
		Code:       "EXTENSION_ABSENT",
		Message:    "wallet extension not found",
		Suggestion: "install or start a wallet and retry",
		ExitCode:   ExitWallet,
	}

	ErrUserRejected = &ScoutError{
		Code:     "USER_REJECTED",
		Message:  "request rejected in wallet",
		ExitCode: ExitRejected,
	}

	ErrWrongChain = &ScoutError{
		Code:     "WRONG_CHAIN",
		Message:  "wallet is connected to an unexpected network",
		ExitCode: ExitWallet,
	}

	ErrChainUnknown = &ScoutError{
		Code:     "CHAIN_UNKNOWN_TO_EXTENSION",
		Message:  "network is unknown to the wallet",
		ExitCode: ExitWallet,
	}

	ErrNetworkQueryFailed = &ScoutError{
		Code:     "NETWORK_QUERY_FAILED",
		Message:  "network query failed",
		ExitCode: ExitGeneral,
	}

	ErrUnknown = &ScoutError{
		Code:     "UNKNOWN",
		Message:  "wallet request failed",
		ExitCode: ExitGeneral,
	}
)

// General errors.
var (
	ErrGeneral = &ScoutError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &ScoutError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &ScoutError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrNotConnected = &ScoutError{
		Code:       "NOT_CONNECTED",
		Message:    "wallet is not connected",
		Suggestion: "run 'scout connect' first",
		ExitCode:   ExitWallet,
	}

	ErrNoAccounts = &ScoutError{
		Code:     "NO_ACCOUNTS",
		Message:  "wallet returned no accounts",
		ExitCode: ExitRejected,
	}

	ErrInvalidAddress = &ScoutError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrInvalidAmount = &ScoutError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	ErrConfigNotFound = &ScoutError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &ScoutError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &ScoutError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}

	ErrCatalogInvalid = &ScoutError{
		Code:     "CATALOG_INVALID",
		Message:  "creator catalog is invalid",
		ExitCode: ExitInput,
	}

	ErrTxFailed = &ScoutError{
		Code:     "TX_FAILED",
		Message:  "transaction reverted",
		ExitCode: ExitGeneral,
	}
)

// New creates a new ScoutError with the given code and message.
func New(code, message string) *ScoutError {
	return &ScoutError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var se *ScoutError
	if errors.As(err, &se) {
		return &ScoutError{
			Code:       se.Code,
			Message:    fmt.Sprintf("%s: %s", msg, se.Message),
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      err,
			ExitCode:   se.ExitCode,
		}
	}

	return &ScoutError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// Because attaches an underlying cause to a sentinel while keeping its code,
// message and exit code. Use it when the sentinel is the classification and
// cause is what actually failed.
func Because(sentinel *ScoutError, cause error) error {
	return &ScoutError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    sentinel.Details,
		Suggestion: sentinel.Suggestion,
		Cause:      cause,
		ExitCode:   sentinel.ExitCode,
	}
}

// WithMessage returns a copy of err with its message replaced.
func WithMessage(err error, message string) error {
	if err == nil {
		return nil
	}

	var se *ScoutError
	if errors.As(err, &se) {
		return &ScoutError{
			Code:       se.Code,
			Message:    message,
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &ScoutError{
		Code:     "GENERAL_ERROR",
		Message:  message,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var se *ScoutError
	if errors.As(err, &se) {
		return &ScoutError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    details,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &ScoutError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var se *ScoutError
	if errors.As(err, &se) {
		return &ScoutError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    se.Details,
			Suggestion: suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &ScoutError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// Message returns the human-readable message of err without its cause chain.
// Plain errors return their full text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se *ScoutError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var se *ScoutError
	if errors.As(err, &se) {
		return se.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var se *ScoutError
	if errors.As(err, &se) {
		return se.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
