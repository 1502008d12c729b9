// Package recorder supplies the exchanges checked by the OpenAPI assertions:
// a transport that records the last exchange of an http.Client, and cassettes
// of exchanges recorded earlier.
package recorder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"github.com/moamenhredeen/oascontract/internal/models"
	"github.com/spf13/afero"
)

// Recorder keeps the last request and response that went through its transport
type Recorder struct {
	fs afero.Fs

	mu       sync.Mutex
	request  *models.ClientRequest
	headers  map[string][]*string
	response *models.ClientResponse
	uploads  []string
}

// New creates a recorder that stores uploaded files in fs
func New(fs afero.Fs) *Recorder {
	return &Recorder{fs: fs}
}

// Client returns a shallow copy of base whose transport records every exchange
func (r *Recorder) Client(base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	c := *base
	c.Transport = r.Transport(base.Transport)
	return &c
}

// Transport wraps base so that every exchange is recorded
func (r *Recorder) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{recorder: r, base: base}
}

// InternalRequest returns the last recorded request
func (r *Recorder) InternalRequest() (*models.ClientRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.request == nil {
		return nil, models.ErrNoRequest
	}
	return r.request, nil
}

// InternalResponse returns the last recorded response
func (r *Recorder) InternalResponse() (*models.ClientResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.response == nil {
		return nil, models.ErrNoResponse
	}
	return r.response, nil
}

// RequestHeaders returns the headers of the last recorded request
func (r *Recorder) RequestHeaders() (map[string][]*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.request == nil {
		return nil, models.ErrNoRequest
	}
	return r.headers, nil
}

// Close removes the uploaded files kept for the last request
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeUploads()
}

func (r *Recorder) removeUploads() error {
	var errs []error
	for _, name := range r.uploads {
		if err := r.fs.Remove(name); err != nil {
			errs = append(errs, err)
		}
	}
	r.uploads = nil
	return errors.Join(errs...)
}

func (r *Recorder) recordRequest(req *http.Request, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.removeUploads(); err != nil {
		return fmt.Errorf("failed to remove previous uploads: %w", err)
	}

	recorded := &models.ClientRequest{
		Method:  req.Method,
		URI:     req.URL.String(),
		Content: body,
	}

	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		if err := r.readForm(recorded, body, params["boundary"]); err != nil {
			return err
		}
	}

	r.request = recorded
	r.headers = headerValues(req.Header)
	r.response = nil
	return nil
}

// readForm splits a multipart body into its fields and files, in body order.
// File contents are written to temporary files.
func (r *Recorder) readForm(recorded *models.ClientRequest, body []byte, boundary string) error {
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read multipart body: %w", err)
		}

		content, err := io.ReadAll(part)
		if err != nil {
			return fmt.Errorf("failed to read part %s: %w", part.FormName(), err)
		}

		if part.FileName() == "" {
			recorded.Parameters = append(recorded.Parameters, models.FormField{Name: part.FormName(), Value: string(content)})
			continue
		}

		f, err := afero.TempFile(r.fs, "", "oascontract-upload-*")
		if err != nil {
			return fmt.Errorf("failed to create upload file: %w", err)
		}
		r.uploads = append(r.uploads, f.Name())
		if _, err := f.Write(content); err != nil {
			f.Close()
			return fmt.Errorf("failed to write upload file: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write upload file: %w", err)
		}

		recorded.Files = append(recorded.Files, models.UploadedFile{
			Field:   part.FormName(),
			Name:    part.FileName(),
			Type:    part.Header.Get("Content-Type"),
			TmpName: f.Name(),
		})
	}
}

func (r *Recorder) recordResponse(resp *http.Response, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	headers := make(map[string][]string, len(resp.Header))
	for name, values := range resp.Header {
		headers[name] = append([]string(nil), values...)
	}
	r.response = &models.ClientResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Content:    body,
	}
}

type transport struct {
	recorder *Recorder
	base     http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil && req.Body != http.NoBody {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
	}

	out := req.Clone(req.Context())
	if body != nil {
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	if err := t.recorder.recordRequest(out, body); err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(respBody))

	t.recorder.recordResponse(resp, respBody)
	return resp, nil
}

// headerValues converts headers to the nullable form used by HeaderSource
func headerValues(header map[string][]string) map[string][]*string {
	out := make(map[string][]*string, len(header))
	for name, values := range header {
		for _, value := range values {
			out[name] = append(out[name], &value)
		}
	}
	return out
}

func normalizeURI(uri string) string {
	if strings.HasPrefix(uri, "/") || strings.Contains(uri, "://") {
		return uri
	}
	return "/" + uri
}
