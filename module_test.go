package oascontract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	fixture = "testdata/openapi.yaml"
	userID  = "3fa85f64-5717-4562-b3fc-2c963f66afa6"
	user    = `{"id":"3fa85f64-5717-4562-b3fc-2c963f66afa6","name":"Alice","role":"admin"}`
)

// newUsersServer serves the users API described by testdata/openapi.yaml
func newUsersServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/users/"+userID:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(user))
		case r.Method == http.MethodGet && r.URL.Path == "/users/42":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(user))
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/users/"):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"not found"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/users":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(user))
		case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/avatar"):
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

type recordingT struct {
	failed   bool
	messages []string
}

func (t *recordingT) Errorf(format string, args ...interface{}) {
	t.messages = append(t.messages, fmt.Sprintf(format, args...))
}

func (t *recordingT) FailNow() {
	t.failed = true
}

func newModule(t *testing.T, rec *Recorder, cfg Config) *Module {
	t.Helper()
	if cfg.OpenAPI == "" {
		cfg.OpenAPI = fixture
	}
	m, err := New(context.Background(), cfg, Dependencies{Client: rec, Headers: rec}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return m
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(context.Background(), Config{OpenAPI: fixture}, Dependencies{})

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "dependencies", cfgErr.Key)
	assert.Contains(t, err.Error(), "openapi: path/to/openapi.yaml")
}

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	rec := NewRecorder(afero.NewMemMapFs())
	deps := Dependencies{Client: rec, Headers: rec}

	tests := []struct {
		name string
		cfg  Config
		key  string
	}{
		{"missing document", Config{}, KeyOpenAPI},
		{"document not found", Config{OpenAPI: "testdata/nope.yaml"}, KeyOpenAPI},
		{"invalid boundary", Config{OpenAPI: fixture, MultipartBoundary: "inv@lid"}, KeyMultipartBoundary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.cfg, deps)
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}
}

func TestNewFailsOnInvalidDocument(t *testing.T) {
	rec := NewRecorder(afero.NewMemMapFs())
	_, err := New(context.Background(), Config{OpenAPI: "testdata/invalid.yaml"}, Dependencies{Client: rec, Headers: rec})

	var loadErr *SpecLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestModuleMatchingExchange(t *testing.T) {
	server := newUsersServer()
	defer server.Close()

	rec := NewRecorder(afero.NewMemMapFs())
	m := newModule(t, rec, Config{})
	client := rec.Client(server.Client())

	resp, err := client.Get(server.URL + "/users/" + userID)
	require.NoError(t, err)
	resp.Body.Close()

	m.SeeRequestMatchesOpenAPISpecification(t)
	m.SeeResponseMatchesOpenAPISpecification(t)
}

func TestModuleReportsMismatch(t *testing.T) {
	server := newUsersServer()
	defer server.Close()

	rec := NewRecorder(afero.NewMemMapFs())
	m := newModule(t, rec, Config{})
	client := rec.Client(server.Client())

	resp, err := client.Get(server.URL + "/users/7c9e6679-7425-40de-944b-e07fc1f90ae7")
	require.NoError(t, err)
	resp.Body.Close()

	rt := &recordingT{}
	m.SeeResponseMatchesOpenAPISpecification(rt)
	require.True(t, rt.failed)
	require.NotEmpty(t, rt.messages)
	assert.Contains(t, rt.messages[0], "404")

	outcome, err := m.ValidateResponse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "status_code", outcome.Failure.Field)
}

func TestModuleNumericIdentifierIsNotResolved(t *testing.T) {
	server := newUsersServer()
	defer server.Close()

	rec := NewRecorder(afero.NewMemMapFs())
	m := newModule(t, rec, Config{})
	client := rec.Client(server.Client())

	resp, err := client.Get(server.URL + "/users/42")
	require.NoError(t, err)
	resp.Body.Close()

	outcome, err := m.ValidateRequest(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Passed(), outcome.Message())

	outcome, err = m.ValidateResponse(context.Background())
	require.NoError(t, err)
	require.False(t, outcome.Passed())
	assert.Equal(t, "operation", outcome.Failure.Field)
}

func TestModuleWithoutExchange(t *testing.T) {
	rec := NewRecorder(afero.NewMemMapFs())
	m := newModule(t, rec, Config{})

	_, err := m.ValidateRequest(context.Background())
	assert.True(t, errors.Is(err, ErrNoRequest))

	rt := &recordingT{}
	m.SeeRequestMatchesOpenAPISpecification(rt)
	assert.True(t, rt.failed)
}

func TestModuleMultipartUpload(t *testing.T) {
	server := newUsersServer()
	defer server.Close()

	// uploads are spilled where the module reads them from
	rec := NewRecorder(afero.NewOsFs())
	defer rec.Close()
	m := newModule(t, rec, Config{MultipartBoundary: "fixed-boundary"})
	client := rec.Client(server.Client())

	send := func(withFile bool) {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		require.NoError(t, w.WriteField("name", "Alice"))
		if withFile {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", `form-data; name="avatar"; filename="alice.png"`)
			h.Set("Content-Type", "image/png")
			part, err := w.CreatePart(h)
			require.NoError(t, err)
			_, err = part.Write([]byte("PNGDATA"))
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())

		req, err := http.NewRequest(http.MethodPut, server.URL+"/users/"+userID+"/avatar", &body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}

	send(true)
	m.SeeRequestMatchesOpenAPISpecification(t)
	m.SeeResponseMatchesOpenAPISpecification(t)

	send(false)
	outcome, err := m.ValidateRequest(context.Background())
	require.NoError(t, err)
	require.False(t, outcome.Passed())
	assert.Equal(t, "body", outcome.Failure.Field)
}
