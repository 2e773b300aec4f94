package common

import "fmt"

// ValidationError indicates invalid input data.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// UnauthorizedError indicates missing or invalid authentication.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return e.Message
}

// NewUnauthorizedError creates a new UnauthorizedError.
func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

// ConfigError indicates malformed or missing configuration.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(message string) *ConfigError {
	return &ConfigError{Message: message}
}

// StoreError indicates a claim store backend failure.
type StoreError struct {
	Backend string
	Message string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store error: %s", e.Backend, e.Message)
}

// NewStoreError creates a new StoreError.
func NewStoreError(backend, message string) *StoreError {
	return &StoreError{Backend: backend, Message: message}
}
