package ops

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Database      string `json:"database"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type statsResponse struct {
	OrdersTotal  int `json:"orders_total"`
	PendingUndos int `json:"pending_undos"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Pre-marshaled fallback so an encoding failure still yields valid JSON.
var fallbackErrorResponse []byte

func init() {
	var err error
	fallbackErrorResponse, err = json.Marshal(errorResponse{Error: "internal server error"})
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal fallback error response at startup: %v", err))
	}
}

// writeJSONResponse marshals first to catch encoding errors before any
// headers go out.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Ops writeJSONResponse failed to marshal", "error", err)
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Ops writeJSONResponse failed to write", "error", writeErr)
	}
}
