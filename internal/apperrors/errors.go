package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrExternalService indicates that a call to the loyalty or POS backend failed
// (network error, auth failure, or backend-side error). Jobs that fail with this
// error re-enter the retry cycle.
var ErrExternalService = errors.New("external service error")

// ErrInsufficientBalance indicates a redemption was refused because the member's
// point balance is lower than the requested debit. Terminal; never retried.
var ErrInsufficientBalance = errors.New("insufficient points balance")

// ErrConflict indicates the operation conflicts with the current state of a resource.
var ErrConflict = errors.New("resource conflict")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")
