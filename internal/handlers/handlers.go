package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/models"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeChatError writes the flat {"error": msg} body the chat widget expects.
func writeChatError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ChatErrorResponse{Error: message})
}
