// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package apierr is the single place the API server (and the tools that
// share its error taxonomy) maps a typed failure onto an HTTP status code
// and response body, per spec §7 and §4.G's error-mapping table.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bottlerocket-os/settings-engine/datastore"
)

// Class enumerates the response classes spec §4.G's table distinguishes.
type Class int

const (
	ClassInternal Class = iota
	ClassInvalidInput
	ClassNotFound
	ClassEmptyCommit
	ClassUpdateLockHeld
	ClassDisallowedInState
)

func (c Class) Status() int {
	switch c {
	case ClassInvalidInput:
		return http.StatusBadRequest
	case ClassNotFound:
		return http.StatusNotFound
	case ClassEmptyCommit:
		return http.StatusUnprocessableEntity
	case ClassUpdateLockHeld:
		return http.StatusLocked
	case ClassDisallowedInState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is the typed error every handler returns; Write renders it.
type Error struct {
	Class   Class
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(class Class, message string) *Error { return &Error{Class: class, Message: message} }

func Invalid(message string) *Error           { return New(ClassInvalidInput, message) }
func NotFound(message string) *Error          { return New(ClassNotFound, message) }
func EmptyCommit(message string) *Error       { return New(ClassEmptyCommit, message) }
func UpdateLockHeld(message string) *Error    { return New(ClassUpdateLockHeld, message) }
func DisallowedInState(message string) *Error { return New(ClassDisallowedInState, message) }
func Internal(message string) *Error          { return New(ClassInternal, message) }

// FromDatastore maps a *datastore.Error onto the API's Class taxonomy.
func FromDatastore(err error) *Error {
	var dsErr *datastore.Error
	if errors.As(err, &dsErr) {
		switch dsErr.Code {
		case datastore.NotFoundErr:
			return NotFound(dsErr.Message)
		case datastore.InvalidTransactionErr:
			return EmptyCommit(dsErr.Message)
		default:
			return Internal(dsErr.Message)
		}
	}
	return Internal(err.Error())
}

// body is the JSON response shape every error produces.
type body struct {
	Error string `json:"error"`
}

// Write renders err (converting a plain error to an internal Error first)
// as a JSON error body with the mapped status code.
func Write(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*Error)
	if !ok {
		apiErr = Internal(err.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Class.Status())
	_ = json.NewEncoder(w).Encode(body{Error: apiErr.Message})
}
