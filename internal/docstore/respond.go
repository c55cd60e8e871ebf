package docstore

import (
	"encoding/json"
	"net/http"

	"github.com/Makepad-fr/tada/internal/docstore/api"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: http.StatusText(status), Code: status, Message: msg})
}
