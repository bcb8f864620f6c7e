package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/logger"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/scripting"
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]any
	requestID string
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]any),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause records the underlying error message.
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

// Build creates the final EngineError
func (eb *ErrorBuilder) Build() EngineError {
	ctx := eb.context
	if len(ctx) == 0 {
		ctx = nil
	}
	return EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   ctx,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// classify maps an engine error to an HTTP status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidStake), errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, ErrTypeInvalidStake
	case errors.Is(err, domain.ErrInvalidRisk), errors.Is(err, domain.ErrInvalidRows):
		return http.StatusBadRequest, ErrTypeInvalidParams
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusPaymentRequired, ErrTypeInsufficientBalance
	case errors.Is(err, domain.ErrInvalidSessionState):
		return http.StatusConflict, ErrTypeInvalidState
	case errors.Is(err, domain.ErrUnknownGame):
		return http.StatusNotFound, ErrTypeGameNotFound
	case errors.Is(err, domain.ErrOutcomeNotFound), errors.Is(err, domain.ErrUnknownPackage):
		return http.StatusNotFound, ErrTypeNotFound
	case errors.Is(err, scripting.ErrInvalidScript):
		return http.StatusBadRequest, ErrTypeInvalidParams
	case errors.Is(err, scripting.ErrAlreadyRunning), errors.Is(err, scripting.ErrNotRunning):
		return http.StatusConflict, ErrTypeAutoplayConflict
	default:
		return http.StatusInternalServerError, ErrTypeInternal
	}
}

func statusForType(errType string) int {
	switch errType {
	case ErrTypeGameNotFound, ErrTypeNotFound:
		return http.StatusNotFound
	case ErrTypeInsufficientBalance:
		return http.StatusPaymentRequired
	case ErrTypeInvalidState, ErrTypeAutoplayConflict:
		return http.StatusConflict
	case ErrTypeTimeout:
		return http.StatusGatewayTimeout
	case ErrTypeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// ErrorHandler writes structured error responses and logs them.
type ErrorHandler struct{}

// NewErrorHandler creates a new error handler
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

// HandleError writes err with the status its domain sentinel maps to.
// Internal errors do not leak their message.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var engineErr EngineError
	if errors.As(err, &engineErr) {
		eh.write(w, r, statusForType(engineErr.Type), engineErr)
		return
	}

	status, errType := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	b := NewError(errType, msg).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method)
	if status == http.StatusInternalServerError {
		b = b.WithCause(err)
	}
	eh.write(w, r, status, b.Build())
}

// HandleValidationError reports a malformed or invalid request body.
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	b := NewError(ErrTypeValidation, "Validation failed").
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = describeField(fe)
		}
		b = b.WithContext("fields", fields)
	} else {
		b = b.WithCause(err)
	}
	eh.write(w, r, http.StatusBadRequest, b.Build())
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	default:
		return "Invalid value"
	}
}

func (eh *ErrorHandler) write(w http.ResponseWriter, r *http.Request, status int, engineErr EngineError) {
	category := GetErrorCategory(engineErr.Type)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.FromContext(r.Context()).Log(r.Context(), level, "request failed",
		"type", engineErr.Type,
		"category", category,
		"status", status,
		"method", r.Method,
		"path", r.URL.Path,
		"message", engineErr.Message,
		"context", engineErr.Context)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.Header().Set("X-Error-Type", engineErr.Type)
	w.Header().Set("X-Error-Category", string(category))
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(engineErr); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// RecoveryHandler turns a panic into a 500 response.
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil || rvr == http.ErrAbortHandler {
				if rvr != nil {
					panic(rvr)
				}
				return
			}
			logger.FromContext(r.Context()).Error("panic recovered",
				"path", r.URL.Path,
				"method", r.Method,
				"panic", fmt.Sprint(rvr))

			engineErr := NewError(ErrTypeInternal, "Internal server error").
				WithRequestID(middleware.GetReqID(r.Context())).
				WithContext("path", r.URL.Path).
				WithContext("method", r.Method).
				Build()
			eh.write(w, r, http.StatusInternalServerError, engineErr)
		}()

		next.ServeHTTP(w, r)
	})
}
