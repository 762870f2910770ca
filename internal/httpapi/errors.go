package httpapi

import (
	"encoding/json"
	"net/http"
)

// apiError is the {code, message} body every failed API call returns (§7).
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "badRequest", message)
}

func writeInvalidArgument(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "invalidArgument", message)
}

func writeMapNotFound(w http.ResponseWriter, id string) {
	writeError(w, http.StatusNotFound, "mapNotFound", "map not found: "+id)
}

func writeInvalidToken(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalidToken", "authorization header is missing or malformed")
}

func writeUnknownToken(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "unknownToken", "player token is not recognized")
}

func writeInvalidMethod(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "invalidMethod", "method not allowed, expected: "+allow)
}
