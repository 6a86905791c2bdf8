// Package httperr carries tagged errors from handlers to the HTTP layer.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error is a failure with an HTTP status classification attached.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return e.Message
}

// New builds an Error with the given status and message.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// UnprocessableInput is returned when request validation fails,
// before any store access.
func UnprocessableInput() *Error {
	return New(http.StatusUnprocessableEntity, "Invalid inputs passed, please check your data.")
}

// NotFound indicates an identifier that resolves to no record.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Conflict indicates a duplicate unique key.
func Conflict(message string) *Error {
	return New(http.StatusUnprocessableEntity, message)
}

// InvalidCredentials covers every login mismatch with one message.
func InvalidCredentials() *Error {
	return New(http.StatusUnauthorized, "Invalid credentials, could not log you in.")
}

// StoreUnavailable indicates the persistence layer itself failed.
func StoreUnavailable(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

// Write reports err to the client as {"error": message}. Anything that is
// not an *Error becomes a generic 500 so internal detail never leaks.
func Write(w http.ResponseWriter, err error) {
	var he *Error
	if !errors.As(err, &he) {
		he = New(http.StatusInternalServerError, "Something went wrong, please try again later.")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.Status)
	json.NewEncoder(w).Encode(he)
}
