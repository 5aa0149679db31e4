package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text2phenotype.com/gst/pipeline"
	"text2phenotype.com/gst/types"
)

func echoPipeline(request pipeline.Request) <-chan string {
	ch := make(chan string, 1)
	b, _ := json.Marshal(request)
	ch <- string(b)
	close(ch)
	return ch
}

func TestProcessData(t *testing.T) {
	handler := Handler(echoPipeline)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("The cat sat.")))
	require.Equal(t, http.StatusOK, recorder.Code)

	requestID := recorder.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(requestID)
	require.NoError(t, err)

	var request pipeline.Request
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &request))
	assert.Equal(t, pipeline.Request{Text: "The cat sat.", Tid: requestID}, request)
}

func TestProcessDataKeepsRequestID(t *testing.T) {
	recorder := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("text"))
	r.Header.Set(RequestIDHeader, "req-7")
	Handler(echoPipeline).ServeHTTP(recorder, r)

	assert.Equal(t, "req-7", recorder.Header().Get(RequestIDHeader))
	assert.Contains(t, recorder.Body.String(), `"tid":"req-7"`)
}

func TestProcessDataErrors(t *testing.T) {
	recorder := httptest.NewRecorder()
	Handler(echoPipeline).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)

	closed := func(request pipeline.Request) <-chan string {
		ch := make(chan string)
		close(ch)
		return ch
	}
	recorder = httptest.NewRecorder()
	Handler(closed).ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x")))
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestSuffixTreeOverHTTP(t *testing.T) {
	ppln, err := pipeline.SuffixTree([]types.Configuration{types.DefaultConfiguration()})
	require.NoError(t, err)
	server := httptest.NewServer(Handler(ppln))
	defer server.Close()

	resp, err := http.Post(server.URL, "text/plain", strings.NewReader("The cat sat. The dog sat."))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var response map[string]pipeline.ConfigResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	assert.Equal(t, 2, response["default"].Documents)
	assert.NotEmpty(t, response["default"].Tree)

	metricsResp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}
