package json

import (
	"net/http"
)

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, err error, message string) {
	_ = Write(w, status, errorEnvelope{
		Error:   err.Error(),
		Message: message,
	})
}

func WriteValidationError(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusBadRequest, err, "Validation failed")
}

func WriteBadRequestError(w http.ResponseWriter, message string) {
	_ = Write(w, http.StatusBadRequest, errorEnvelope{
		Error:   "bad request",
		Message: message,
	})
}

// WriteInternalError hides the underlying error from the client.
func WriteInternalError(w http.ResponseWriter, _ error) {
	_ = Write(w, http.StatusInternalServerError, errorEnvelope{
		Error:   "internal server error",
		Message: "Something went wrong",
	})
}
