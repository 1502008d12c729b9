// Package exchange turns the state of the HTTP-driving test client into
// request and response snapshots the validator can consume.
package exchange

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/moamenhredeen/oascontract/internal/models"
	"github.com/spf13/afero"
)

const multipartFormData = "multipart/form-data"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Builder builds exchange snapshots from client requests and responses
type Builder struct {
	fs       afero.Fs
	boundary string
}

// NewBuilder creates a new builder. Uploaded files are read from fs; boundary,
// when not empty, is used for re-encoded multipart bodies.
func NewBuilder(fs afero.Fs, boundary string) *Builder {
	return &Builder{fs: fs, boundary: boundary}
}

// BuildRequest builds a request snapshot from the client request and the
// request headers as seen by the application
func (b *Builder) BuildRequest(req *models.ClientRequest, rawHeaders map[string][]*string) (models.Exchange, error) {
	if req == nil {
		return models.Exchange{}, fmt.Errorf("client request is nil")
	}

	u, err := url.Parse(req.URI)
	if err != nil {
		return models.Exchange{}, fmt.Errorf("failed to parse request URI %q: %w", req.URI, err)
	}

	ex := models.Exchange{
		Method: strings.ToUpper(req.Method),
		URL:    u,
		Header: FilterHeaders(rawHeaders),
		Body:   req.Content,
	}

	if IsMultipart(ex.Header) {
		body, contentType, err := b.encodeMultipart(req)
		if err != nil {
			return models.Exchange{}, err
		}
		ex.Body = body
		ex.Header.Set("Content-Type", contentType)
	}

	return ex, nil
}

// BuildResponse builds a response snapshot from the client response
func (b *Builder) BuildResponse(resp *models.ClientResponse) (models.Exchange, error) {
	if resp == nil {
		return models.Exchange{}, fmt.Errorf("client response is nil")
	}

	header := http.Header{}
	for name, values := range resp.Headers {
		for _, value := range values {
			header.Add(name, value)
		}
	}

	return models.Exchange{
		Header:     header,
		Body:       resp.Content,
		StatusCode: resp.StatusCode,
	}, nil
}

// FilterHeaders drops null header values. Headers left without any value are
// omitted entirely.
func FilterHeaders(raw map[string][]*string) http.Header {
	header := http.Header{}
	for name, values := range raw {
		for _, value := range values {
			if value != nil {
				header.Add(name, *value)
			}
		}
	}
	return header
}

// IsMultipart reports whether any Content-Type value contains multipart/form-data
func IsMultipart(header http.Header) bool {
	for _, value := range header.Values("Content-Type") {
		if strings.Contains(strings.ToLower(value), multipartFormData) {
			return true
		}
	}
	return false
}

// encodeMultipart writes the form fields followed by the uploaded files. The
// header of the snapshot is rewritten to carry the boundary actually used.
func (b *Builder) encodeMultipart(req *models.ClientRequest) ([]byte, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if b.boundary != "" {
		if err := w.SetBoundary(b.boundary); err != nil {
			return nil, "", fmt.Errorf("failed to set multipart boundary: %w", err)
		}
	}

	for _, field := range req.Parameters {
		if err := w.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", field.Name, err)
		}
	}

	for _, file := range req.Files {
		if file.Field == "" || file.TmpName == "" {
			continue
		}

		content, err := afero.ReadFile(b.fs, file.TmpName)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read uploaded file %s: %w", file.Field, err)
		}

		contentType := file.Type
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(file.Field), quoteEscaper.Replace(file.Name)))
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part %s: %w", file.Field, err)
		}
		if _, err := part.Write(content); err != nil {
			return nil, "", fmt.Errorf("failed to write part %s: %w", file.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	return body.Bytes(), w.FormDataContentType(), nil
}
