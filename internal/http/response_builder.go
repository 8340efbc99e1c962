// Package http serves the sales dashboard: the htmx page and partials,
// rendered chart images, the JSON API and the admin endpoints.
package http

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
)

// Response collects status, headers, htmx events and body, and writes them
// in the right order. Handlers chain setters and finish with Write.
type Response struct {
	status   int
	header   http.Header
	triggers map[string]any
	body     []byte
}

// NewResponse starts a 200 response with no body.
func NewResponse() *Response {
	return &Response{status: http.StatusOK, header: make(http.Header)}
}

func (r *Response) Status(code int) *Response {
	r.status = code
	return r
}

func (r *Response) Header(name, value string) *Response {
	r.header.Set(name, value)
	return r
}

// Trigger queues an htmx client event, sent in the HX-Trigger header.
// Later calls with the same name replace the payload.
func (r *Response) Trigger(event string, payload any) *Response {
	if r.triggers == nil {
		r.triggers = make(map[string]any)
	}
	r.triggers[event] = payload
	return r
}

// TriggerChartsRefresh makes the dashboard reload its chart panel.
func (r *Response) TriggerChartsRefresh() *Response {
	return r.Trigger("charts:refresh", struct{}{})
}

// TriggerCachePurged reports how many figures were dropped.
func (r *Response) TriggerCachePurged(removed int) *Response {
	return r.Trigger("cache:purged", map[string]int{"removed": removed})
}

// TriggerImportQueued reports the id of a queued import job.
func (r *Response) TriggerImportQueued(jobID string) *Response {
	return r.Trigger("import:queued", map[string]string{"job_id": jobID})
}

// Notify shows a toast in the dashboard's notice area for three seconds.
func (r *Response) Notify(level, message string) *Response {
	return r.Trigger("show-notification", map[string]any{
		"type":     level,
		"message":  message,
		"duration": 3000,
	})
}

// HTML sets an already rendered HTML body.
func (r *Response) HTML(html string) *Response {
	r.header.Set("Content-Type", contentTypeHTML)
	r.body = []byte(html)
	return r
}

// JSON encodes v as the body, newline terminated. If v cannot be encoded
// the response becomes a 500.
func (r *Response) JSON(v any) *Response {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("JSON response encoding failed", "error", err)
		r.status = http.StatusInternalServerError
		data = []byte(`{"error":"internal error"}`)
	}
	r.header.Set("Content-Type", contentTypeJSON)
	r.body = append(data, '\n')
	return r
}

// Body sets a raw body; the caller sets Content-Type.
func (r *Response) Body(b []byte) *Response {
	r.body = b
	return r
}

func (r *Response) Write(w http.ResponseWriter) {
	h := w.Header()
	for name, values := range r.header {
		h[name] = values
	}
	if len(r.triggers) > 0 {
		if events, err := json.Marshal(r.triggers); err == nil {
			h.Set("HX-Trigger", string(events))
		}
	}
	w.WriteHeader(r.status)
	if len(r.body) > 0 {
		_, _ = w.Write(r.body)
	}
}

// ErrorHTML is an escaped error fragment for htmx to swap in.
func ErrorHTML(status int, message string) *Response {
	return NewResponse().
		Status(status).
		HTML(`<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`)
}

// ErrorJSON is the API error body {"error": message}.
func ErrorJSON(status int, message string) *Response {
	return NewResponse().Status(status).JSON(map[string]string{"error": message})
}
