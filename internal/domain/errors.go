package domain

import "fmt"

// Error types for consistent error handling across the API.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open for a provider.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrWordCount indicates an interview answer below the prompt's minimum.
// Carries the exact required/actual counts so the UI can show them.
type ErrWordCount struct {
	PromptKey string
	Required  int
	Actual    int
}

func (e *ErrWordCount) Error() string {
	return fmt.Sprintf("answer for '%s' needs at least %d words, got %d", e.PromptKey, e.Required, e.Actual)
}

// ErrUnauthorized indicates a missing or invalid session.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrTokenExchange indicates the session-token exchange with the host
// failed. The handler maps this to 401 plus an OAuth redirect URL.
type ErrTokenExchange struct {
	Shop string
	Err  error
}

func (e *ErrTokenExchange) Error() string {
	return fmt.Sprintf("token exchange failed for shop %s: %v", e.Shop, e.Err)
}

func (e *ErrTokenExchange) Unwrap() error {
	return e.Err
}

// ErrShopInactive indicates the shop exists but the app is uninstalled
// or the subscription is suspended.
type ErrShopInactive struct {
	Domain string
}

func (e *ErrShopInactive) Error() string {
	return fmt.Sprintf("shop is inactive: %s", e.Domain)
}

// ErrQuotaExceeded indicates the shop hit its monthly generation limit.
type ErrQuotaExceeded struct {
	Used  int
	Limit int
}

func (e *ErrQuotaExceeded) Error() string {
	return fmt.Sprintf("monthly generation limit reached: %d/%d", e.Used, e.Limit)
}

// ErrContentPolicy indicates the provider's safety filter rejected the input.
type ErrContentPolicy struct {
	Message string
}

func (e *ErrContentPolicy) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "content rejected by safety filter"
}

// ErrDuplicate indicates a duplicate operation (idempotency check).
type ErrDuplicate struct {
	Key string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("duplicate operation: %s", e.Key)
}

// ErrConflict indicates the operation is not valid in the current state
// (e.g. synthesis requested before the interview is complete).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}
