package httputil

import "net/http"

// Envelope is the response shape of the annotation endpoints:
// {"success": bool, "<entity>": {...}} on success and
// {"success": false, "errors": [...]} on failure.
type Envelope map[string]interface{}

// RespondSuccess writes a success envelope carrying one named entity.
// Pass an empty name to send {"success": true} alone.
func RespondSuccess(w http.ResponseWriter, status int, name string, entity interface{}) {
	body := Envelope{"success": true}
	if name != "" {
		body[name] = entity
	}
	RespondJSON(w, status, body)
}

// RespondFailure writes a failure envelope with the given error messages.
func RespondFailure(w http.ResponseWriter, status int, errs []string) {
	RespondJSON(w, status, Envelope{
		"success": false,
		"errors":  errs,
	})
}
