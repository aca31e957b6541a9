package handler

import (
	"net/http"

	"clinic-appointment-service/pkg/response"
)

// ErrorReporter writes 500 responses. Outside production the cause is echoed to the client.
type ErrorReporter struct {
	ExposeDetails bool
}

func (e ErrorReporter) internal(w http.ResponseWriter, message string, err error) {
	if e.ExposeDetails && err != nil {
		response.Error(w, http.StatusInternalServerError, message, err.Error())
		return
	}
	response.InternalServerError(w, message)
}
