package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"text2phenotype.com/gst/logger"
)

var defaultLogger = logger.NewLogger("API")

type endpointLoggerFields struct {
	Method    string `json:"method"`
	Url       string `json:"url"`
	RequestID string `json:"request_id"`
}

const RequestInfoFieldsKey = "request_info"

func makeRequestLogger(request *http.Request, requestID string) zerolog.Logger {
	fields := endpointLoggerFields{
		Method:    request.Method,
		Url:       request.URL.String(),
		RequestID: requestID,
	}
	return defaultLogger.
		With().Interface(RequestInfoFieldsKey, fields).Logger()
}
