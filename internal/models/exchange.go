package models

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ClientRequest is the last request executed by the HTTP-driving test client
type ClientRequest struct {
	Method     string
	URI        string
	Parameters []FormField
	Files      []UploadedFile
	Content    []byte
}

// FormField is a named text field of a form submission
type FormField struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// UploadedFile is a file attached to a form submission.
// TmpName points at the uploaded content; entries without it are not usable.
type UploadedFile struct {
	Field   string `yaml:"field" json:"field"`
	Name    string `yaml:"name" json:"name"`
	Type    string `yaml:"type" json:"type"`
	TmpName string `yaml:"tmp_name" json:"tmp_name"`
}

// ClientResponse is the last response received by the HTTP-driving test client
type ClientResponse struct {
	StatusCode int
	Headers    map[string][]string
	Content    []byte
}

// Exchange is a snapshot of one request or response, built fresh for every assertion
type Exchange struct {
	Method     string
	URL        *url.URL
	Header     http.Header
	Body       []byte
	StatusCode int // responses only
}

// HTTPRequest builds a new *http.Request from the snapshot. Each call returns a
// request with its own body reader, so the snapshot can be validated repeatedly.
func (e Exchange) HTTPRequest(ctx context.Context) (*http.Request, error) {
	if e.URL == nil {
		return nil, fmt.Errorf("exchange has no URL")
	}

	req, err := http.NewRequestWithContext(ctx, e.Method, e.URL.String(), bytes.NewReader(e.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if len(e.Body) == 0 {
		req.Body = http.NoBody
	}
	req.Header = e.Header.Clone()
	if req.Header == nil {
		req.Header = http.Header{}
	}
	return req, nil
}
