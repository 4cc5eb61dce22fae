package usecase

import (
	"errors"
	"net/http"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeGeneration   = "GENERATION_FAILED"
	CodeDelivery     = "DELIVERY_FAILED"
	CodeStore        = "STORE_ERROR"
)

// DomainError is a failure the caller caused and can fix; it maps to a 4xx.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) HTTPStatus() int {
	switch e.Code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError is an infrastructure failure; it maps to a 5xx.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// StatusOf returns the HTTP status an error should surface as.
func StatusOf(err error) int {
	var de *DomainError
	if errors.As(err, &de) {
		return de.HTTPStatus()
	}
	return http.StatusInternalServerError
}
