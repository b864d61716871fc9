package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/ppiankov/claimadjudicate/internal/intake"
	"github.com/ppiankov/claimadjudicate/internal/reconcile"
	"github.com/ppiankov/claimadjudicate/internal/session"
	"github.com/ppiankov/claimadjudicate/internal/workflow"
	"go.uber.org/zap"
)

// Response is the JSON envelope of every API reply
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Dev     string      `json:"dev,omitempty"`
}

// AppError carries the status and the messages shown to clients and developers
type AppError struct {
	StatusCode    int
	ClientMessage string
	DevMessage    string
	Err           error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.DevMessage, e.Err)
	}
	return e.DevMessage
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(err error, status int, clientMessage, devMessage string) *AppError {
	return &AppError{StatusCode: status, ClientMessage: clientMessage, DevMessage: devMessage, Err: err}
}

var (
	errBadRequest = func(err error, dev string) *AppError {
		return newAppError(err, http.StatusBadRequest, "The request could not be processed", dev)
	}
	errConflict = func(err error, client string) *AppError {
		return newAppError(err, http.StatusConflict, client, "workflow state conflict")
	}
	errUnprocessable = func(err error, client string) *AppError {
		return newAppError(err, http.StatusUnprocessableEntity, client, "claim state rejected the request")
	}
	errNotFound = func(err error, client string) *AppError {
		return newAppError(err, http.StatusNotFound, client, "resource not found")
	}
	errTooManyRequests = newAppError(nil, http.StatusTooManyRequests, "Too many requests, slow down", "rate limit exceeded")
	errInternal        = func(err error) *AppError {
		return newAppError(err, http.StatusInternalServerError, "Something went wrong on our side", "internal error")
	}
)

// classify maps domain errors onto an AppError
func classify(err error) *AppError {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, workflow.ErrInvalidTransition):
		return errConflict(err, "That action is not available at this step")
	case errors.Is(err, session.ErrProcessingPending):
		return errConflict(err, "Processing has not finished yet")
	case errors.Is(err, session.ErrNotInReview):
		return errConflict(err, "The claim is not in review")
	case errors.Is(err, workflow.ErrIncompleteResult), errors.Is(err, workflow.ErrInvalidItems):
		return errUnprocessable(err, "Processing did not produce a reviewable claim")
	case errors.Is(err, reconcile.ErrNotConfirmed):
		return errUnprocessable(err, "Confirm every line item before submitting")
	case errors.Is(err, intake.ErrMissingRequired), errors.Is(err, intake.ErrInvalidDocument):
		return newAppError(err, http.StatusBadRequest, err.Error(), "document set rejected")
	default:
		return errInternal(err)
	}
}

// writeJSON writes a success envelope
func writeJSON(w http.ResponseWriter, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Message: message, Data: data})
}

// writeError writes an error envelope. Developer messages are only
// exposed outside production.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	appErr := classify(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("dev", appErr.DevMessage), zap.Error(appErr.Err))
	} else {
		s.log.Debug("request rejected", zap.Int("status", appErr.StatusCode), zap.Error(appErr))
	}

	resp := Response{Success: false, Message: appErr.ClientMessage}
	if !s.production {
		resp.Dev = appErr.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
