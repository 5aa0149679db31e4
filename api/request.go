package api

import (
	"io"
	"net/http"

	"github.com/google/uuid"

	"text2phenotype.com/gst/metrics"
	"text2phenotype.com/gst/pipeline"
)

const RequestIDHeader = "X-Request-Id"

// MaxBodyBytes bounds the corpus text accepted by one request.
const MaxBodyBytes = 32 << 20

type Request struct {
	Pipeline pipeline.Pipeline
}

// Handler serves the pipeline on / and the prometheus metrics on /metrics.
func Handler(ppln pipeline.Pipeline) http.Handler {
	req := &Request{Pipeline: ppln}
	mux := http.NewServeMux()
	mux.HandleFunc("/", req.ProcessData)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)
	w.Header().Set("Content-Type", "application/json")

	logger := makeRequestLogger(r, requestID)

	if r.Method != http.MethodPost {
		logger.Error().Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	msg, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	request := pipeline.Request{
		Tid:  requestID,
		Text: string(msg),
	}
	logger.Info().Str("tid", request.Tid).Int("length", len(msg)).Msg("Starting pipeline for request from API")
	resp, ok := <-req.Pipeline(request)
	if !ok {
		logger.Error().Int("status", http.StatusInternalServerError).Msg("Pipeline returned no response")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(resp))
	logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}
