package transport

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// ListResponse wraps collection payloads. Degraded is set when the backend could not
// be queried and Items is empty for that reason rather than for lack of data.
type ListResponse struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Degraded bool        `json:"degraded,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string, details map[string]string) {
	WriteJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

func WriteList(w http.ResponseWriter, items interface{}, total int, degraded bool) {
	WriteJSON(w, http.StatusOK, ListResponse{
		Items:    items,
		Total:    total,
		Degraded: degraded,
	})
}

func WriteRaw(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
