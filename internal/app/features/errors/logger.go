// internal/app/features/errors/logger.go
package errors

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ErrorLogger logs a failure with request context and renders the matching
// error response: the HTML error page, an inline HTMX fragment, or JSON
// for /api callers.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

// LogServerError logs at error level and responds 500 with userMsg.
// If backURL is empty, a safe back URL is resolved from the request.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Error(msg, requestFields(r, err)...)
	e.respond(w, r, http.StatusInternalServerError, "Something went wrong", userMsg, backURL)
}

// LogBadRequest logs at warn level and responds 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Warn(msg, requestFields(r, err)...)
	e.respond(w, r, http.StatusBadRequest, "Invalid request", userMsg, backURL)
}

// LogForbidden logs at warn level and responds 403 with userMsg.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Warn(msg, requestFields(r, err)...)
	e.respond(w, r, http.StatusForbidden, "Not allowed", userMsg, backURL)
}

// LogNotFound logs at info level and responds 404 with userMsg.
func (e *ErrorLogger) LogNotFound(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Info(msg, requestFields(r, err)...)
	e.respond(w, r, http.StatusNotFound, "Not found", userMsg, backURL)
}

// LogConflict logs at info level and responds 409; used when a visit is in
// the wrong state for the requested action.
func (e *ErrorLogger) LogConflict(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Info(msg, requestFields(r, err)...)
	e.respond(w, r, http.StatusConflict, "Can't do that right now", userMsg, backURL)
}

// LogTooManyRequests logs at warn level and responds 429.
func (e *ErrorLogger) LogTooManyRequests(w http.ResponseWriter, r *http.Request, msg, userMsg string) {
	e.Log.Warn(msg, requestFields(r, nil)...)
	e.respond(w, r, http.StatusTooManyRequests, "Slow down", userMsg, "")
}

func (e *ErrorLogger) respond(w http.ResponseWriter, r *http.Request, status int, title, userMsg, backURL string) {
	if backURL == "" {
		backURL = httpnav.ResolveBackURL(r, "/visits")
	}
	render(w, r, status, pageData{
		Title:   title,
		Status:  status,
		Message: userMsg,
		BackURL: backURL,
	})
}

func requestFields(r *http.Request, err error) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	return fields
}

// WantsJSON reports whether r is an API call.
func WantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type jsonError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.Status = status
	if WantsJSON(r) {
		WriteJSON(w, status, jsonError{Status: "error", Message: data.Message})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Header.Get("HX-Request") != "" {
		// Swapped into the page's #flash region.
		w.Header().Set("HX-Retarget", "#flash")
		w.Header().Set("HX-Reswap", "innerHTML")
		w.WriteHeader(status)
		templates.RenderSnippet(w, "error_inline", data)
		return
	}
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}
