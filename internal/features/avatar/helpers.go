package avatar

import (
	"encoding/json"
	"net/http"
)

// statusFor maps a failure kind to its HTTP status.
func statusFor(kind Kind) int {
	switch kind {
	case KindNone:
		return http.StatusOK
	case KindUploadTransport:
		return http.StatusBadRequest
	case KindUnsupportedMIME, KindUnsupportedImage:
		return http.StatusUnsupportedMediaType
	case KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindMissingSource:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeResult(w http.ResponseWriter, status int, result Result) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}
