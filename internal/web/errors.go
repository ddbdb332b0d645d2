package web

// errors.go provides unified error responses for the web layer.
//
// Every error is logged with its technical details and the request ID, then
// answered with the user-facing message from core.MapError: as an alert
// fragment for HTMX requests, as JSON otherwise.
//
// Two kinds of failure reach the client:
//  1. Transport and resource errors (bad form, file too large, busy, timeout)
//     answered by respondError with a status from errorStatus
//  2. Failed conversions, which are not Go errors but Results carrying a
//     message, answered by respondFailure with 422

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/csvkit/internal/core"
	"github.com/JonMunkholm/csvkit/internal/logging"
	"github.com/JonMunkholm/csvkit/internal/tabular"
	"github.com/JonMunkholm/csvkit/internal/web/templates"
)

// ErrorResponse is the JSON body of a transport error.
// Code is machine-readable; Message and Action are for people.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Action    string `json:"action,omitempty"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// FailureResponse is the JSON body of a failed conversion: the Result plus
// the mapped user message.
type FailureResponse struct {
	tabular.Result
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the user-friendly error in the format the
// client expects.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Warn("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if isHTMX(r) {
		renderErrorPartial(w, r, msg, status)
		return
	}
	respondErrorJSON(w, r, err, status)
}

// respondErrorJSON writes err as an ErrorResponse without logging it.
func respondErrorJSON(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)
	writeJSON(w, status, ErrorResponse{
		Error:     clientErrorText(err),
		Message:   msg.Message,
		Action:    msg.Action,
		Code:      msg.Code,
		RequestID: requestID(r),
	})
}

// clientErrorText returns the technical text of a recognised error and the
// generic ERR000 message otherwise, so internal details stay in the log.
func clientErrorText(err error) string {
	if core.IsUserFacing(err) {
		return err.Error()
	}
	return core.MapError(err).Message
}

// respondFailure answers a failed Result with 422.
func respondFailure(w http.ResponseWriter, r *http.Request, res tabular.Result) {
	msg := core.MapMessage(res.Error)

	logging.FromContext(r.Context()).Info("conversion failed",
		"path", r.URL.Path,
		"error", res.Error,
		"code", msg.Code,
	)

	if wantsHTML(r) {
		renderErrorPartial(w, r, msg, http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, FailureResponse{
		Result:  res,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error alert", "error", err)
	}
}

// errorStatus picks the HTTP status for a transport or resource error.
func errorStatus(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyConversions):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrDecoderUnavailable):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, errNoResult):
		return http.StatusNotFound
	case errors.Is(err, core.ErrEmptyInput),
		errors.Is(err, core.ErrUnsupportedEncoding),
		errors.Is(err, core.ErrUnknownFormat),
		errors.Is(err, errNoFile),
		errors.Is(err, errBadField):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsHTML reports whether the client asked for an HTML fragment.
func wantsHTML(r *http.Request) bool {
	return isHTMX(r) || r.URL.Query().Get("format") == "html"
}

// requestID returns chi's request ID, empty outside the middleware.
func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
