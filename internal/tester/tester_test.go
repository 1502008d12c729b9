package tester

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/moamenhredeen/oascontract/internal/exchange"
	"github.com/moamenhredeen/oascontract/internal/models"
	"github.com/moamenhredeen/oascontract/internal/recorder"
	"github.com/moamenhredeen/oascontract/internal/validator"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const userID = "3fa85f64-5717-4562-b3fc-2c963f66afa6"

func newTester(t *testing.T) *Tester {
	t.Helper()
	fs := afero.NewOsFs()
	v, err := validator.New(context.Background(), fs, "../../testdata/openapi.yaml")
	require.NoError(t, err)
	return NewTester(exchange.NewBuilder(fs, ""), v, zap.NewNop())
}

func loadSources(t *testing.T, path string) []Source {
	t.Helper()
	recordings, err := recorder.LoadCassette(afero.NewOsFs(), path)
	require.NoError(t, err)
	sources := make([]Source, 0, len(recordings))
	for _, rec := range recordings {
		sources = append(sources, rec)
	}
	return sources
}

// createMockServer serves the users API described by testdata/openapi.yaml
func createMockServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/users/"+userID:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"id":"` + userID + `","name":"Alice","role":"admin"}`))
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/users/"):
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"not found"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/users":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`[{"id":"` + userID + `","name":"Alice","role":"admin"}]`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func TestExchangesFromCassette(t *testing.T) {
	tr := newTester(t)
	summary := tr.TestExchanges(context.Background(), loadSources(t, "../../testdata/exchanges.yaml"), nil)

	require.Equal(t, 4, summary.TotalTests)
	assert.Equal(t, 3, summary.Passed)
	assert.Equal(t, 1, summary.Failed)

	tests := []struct {
		name      string
		passed    bool
		operation string
	}{
		{"get user", true, "get /users/{id}"},
		{"create user", true, "post /users"},
		{"upload avatar", true, "put /users/{id}/avatar"},
		{"missing user", false, "get /users/{id}"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := summary.Results[i]
			assert.Equal(t, tt.name, result.Name)
			assert.Equal(t, tt.passed, result.Passed, result.Error)
			assert.Equal(t, tt.operation, result.Operation)
		})
	}

	missing := summary.Results[3]
	assert.True(t, missing.Request.Passed())
	require.NotNil(t, missing.Response.Failure)
	assert.Equal(t, "status_code", missing.Response.Failure.Field)
	assert.Equal(t, 404, missing.StatusCode)
	assert.Contains(t, missing.Error, "404")
}

func TestExchangesFromJSONCassette(t *testing.T) {
	tr := newTester(t)
	summary := tr.TestExchanges(context.Background(), loadSources(t, "../../testdata/exchanges.json"), nil)

	require.Len(t, summary.Results, 1)
	result := summary.Results[0]
	assert.False(t, result.Passed)
	require.NotNil(t, result.Request.Failure)
	assert.Equal(t, "query.limit", result.Request.Failure.Field)
	assert.True(t, strings.HasPrefix(result.Error, "request: "))
}

func TestExchangesEvents(t *testing.T) {
	tr := newTester(t)
	sources := loadSources(t, "../../testdata/exchanges.yaml")

	var events []TestEvent
	tr.TestExchanges(context.Background(), sources, func(event TestEvent) {
		events = append(events, event)
	})

	require.Len(t, events, 2*len(sources))
	assert.Equal(t, EventStarting, events[0].Type)
	assert.Nil(t, events[0].Result)
	assert.Equal(t, EventCompleted, events[1].Type)
	require.NotNil(t, events[1].Result)
	assert.Equal(t, "get user", events[1].Name)
	assert.Equal(t, len(sources), events[1].Total)
	assert.Equal(t, len(sources)-1, events[len(events)-1].Index)
}

func TestCheckWithLiveRecorder(t *testing.T) {
	server := createMockServer()
	defer server.Close()

	tr := newTester(t)
	rec := recorder.New(afero.NewMemMapFs())
	defer rec.Close()
	client := rec.Client(server.Client())

	resp, err := client.Get(server.URL + "/users/" + userID)
	require.NoError(t, err)
	resp.Body.Close()

	outcome, err := tr.CheckRequest(context.Background(), rec, rec)
	require.NoError(t, err)
	assert.True(t, outcome.Passed(), outcome.Message())

	outcome, address, err := tr.CheckResponse(context.Background(), rec, rec)
	require.NoError(t, err)
	assert.True(t, outcome.Passed(), outcome.Message())
	assert.Equal(t, models.NewOperationAddress("/users/{id}", "GET"), address)

	// repeated checks see the same client state
	again, _, err := tr.CheckResponse(context.Background(), rec, rec)
	require.NoError(t, err)
	assert.Equal(t, outcome, again)
}

func TestCheckResponseUndeclaredStatus(t *testing.T) {
	server := createMockServer()
	defer server.Close()

	tr := newTester(t)
	rec := recorder.New(afero.NewMemMapFs())
	client := rec.Client(server.Client())

	resp, err := client.Get(server.URL + "/users/7c9e6679-7425-40de-944b-e07fc1f90ae7")
	require.NoError(t, err)
	resp.Body.Close()

	outcome, _, err := tr.CheckResponse(context.Background(), rec, rec)
	require.NoError(t, err)
	require.False(t, outcome.Passed())
	assert.Contains(t, outcome.Message(), "404")
}

func TestCheckBeforeAnyRequest(t *testing.T) {
	tr := newTester(t)
	rec := recorder.New(afero.NewMemMapFs())

	_, err := tr.CheckRequest(context.Background(), rec, rec)
	assert.True(t, errors.Is(err, models.ErrNoRequest))

	_, _, err = tr.CheckResponse(context.Background(), rec, rec)
	assert.True(t, errors.Is(err, models.ErrNoRequest))
}

func TestExchangeExecutionError(t *testing.T) {
	tr := newTester(t)
	rec := recorder.New(afero.NewMemMapFs())

	result := tr.TestExchange(context.Background(), namedRecorder{rec})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Error, "test execution error")
}

type namedRecorder struct {
	*recorder.Recorder
}

func (namedRecorder) Name() string { return "live" }
