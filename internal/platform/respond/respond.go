// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package respond provides a unified API response envelope for the platform.

It ensures that every HTTP response, whether a success payload or an error
diagnostic, follows a predictable JSON structure for client robustness.

Architecture:

  - Envelope: every response is {success, message?, data?, error?:{code}, timestamp}.
  - JSON: Default content-type is 'application/json; charset=utf-8'.
  - Errors: Integrates with 'apperr' for consistent error reporting.

This package eliminates the need for manual JSON marshalling in individual handlers.
*/
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/ctxkey"
	"github.com/taibuivan/aegis/pkg/pagination"
)

// # JSON Envelope

// Envelope is the single response shape returned by every endpoint.
type Envelope struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	Data      interface{}    `json:"data,omitempty"`
	Error     *EnvelopeError `json:"error,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// EnvelopeError carries the machine-readable failure code.
type EnvelopeError struct {
	Code string `json:"code"`
}

// listData wraps a slice alongside pagination metadata under Envelope.Data.
type listData struct {
	Items interface{}     `json:"items"`
	Meta  pagination.Meta `json:"meta"`
}

// validationData surfaces per-field validation failures under Envelope.Data.
type validationData struct {
	Fields []apperr.FieldError `json:"fields"`
}

// # Response Helpers

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with data wrapped in the standard envelope.
func OK(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusOK, Envelope{Success: true, Data: data, Timestamp: now()})
}

// Created writes a 201 Created response with data wrapped in the standard envelope.
func Created(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusCreated, Envelope{Success: true, Data: data, Timestamp: now()})
}

// Message writes a 200 OK response carrying only a human-readable message, no data.
// Used by endpoints whose contract is "accepted, nothing to return" (e.g. password
// reset request, which must not reveal whether the address exists).
func Message(writer http.ResponseWriter, message string) {
	JSON(writer, http.StatusOK, Envelope{Success: true, Message: message, Timestamp: now()})
}

// Paginated writes a 200 OK response with a list and its pagination metadata.
func Paginated(writer http.ResponseWriter, items interface{}, metadata pagination.Meta) {
	JSON(writer, http.StatusOK, Envelope{
		Success:   true,
		Data:      listData{Items: items, Meta: metadata},
		Timestamp: now(),
	})
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// NotImplemented returns a placeholder 501 error.
func NotImplemented(writer http.ResponseWriter, request *http.Request) {
	Error(writer, request, &apperr.AppError{
		Code:       "NOT_IMPLEMENTED",
		Message:    "Endpoint is not fully implemented yet.",
		HTTPStatus: http.StatusNotImplemented,
	})
}

// # Error Handling

// Error converts any Go error into the standardized envelope.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	appError := apperr.As(err)

	// If the error is not already an [apperr.AppError], treat it as an internal failure.
	if appError == nil {
		logger := getLoggerFromContext(request)
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", getRequestIDFromContext(request)),
		)
		appError = apperr.Internal(err)
	}

	if appError.HTTPStatus >= 500 {
		logger := getLoggerFromContext(request)
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", getRequestIDFromContext(request)),
			slog.Any("cause", appError.Cause),
		)
	}

	envelope := Envelope{
		Success:   false,
		Message:   appError.Message,
		Error:     &EnvelopeError{Code: appError.Code},
		Timestamp: now(),
	}
	if len(appError.Details) > 0 {
		envelope.Data = validationData{Fields: appError.Details}
	}

	JSON(writer, appError.HTTPStatus, envelope)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// getLoggerFromContext extracts the per-request logger.
func getLoggerFromContext(request *http.Request) *slog.Logger {
	if logger, ok := request.Context().Value(ctxkey.KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// getRequestIDFromContext extracts the X-Request-ID for log correlation.
func getRequestIDFromContext(request *http.Request) string {
	if id, ok := request.Context().Value(ctxkey.KeyRequestID).(string); ok {
		return id
	}
	return ""
}
