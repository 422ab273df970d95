package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vango-go/voicebridge/pkg/core"
)

type errorEnvelope struct {
	Error *core.Error `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeCoreErrorJSON(w http.ResponseWriter, reqID string, err *core.Error, status int) {
	if err != nil && err.RequestID == "" {
		err.RequestID = reqID
	}
	writeJSON(w, status, errorEnvelope{Error: err})
}
