package recorder

import (
	"fmt"
	"path/filepath"

	"github.com/moamenhredeen/oascontract/internal/models"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Cassette is a file of recorded exchanges, in YAML or JSON
type Cassette struct {
	Exchanges []*Recording `yaml:"exchanges"`
}

// Recording is one recorded exchange. Request header values may be null.
type Recording struct {
	Title    string           `yaml:"name"`
	Request  RecordedRequest  `yaml:"request"`
	Response RecordedResponse `yaml:"response"`
}

// RecordedRequest is the request half of a recording
type RecordedRequest struct {
	Method  string                `yaml:"method"`
	URI     string                `yaml:"uri"`
	Headers map[string][]*string  `yaml:"headers"`
	Form    []models.FormField    `yaml:"form"`
	Files   []models.UploadedFile `yaml:"files"`
	Body    string                `yaml:"body"`
}

// RecordedResponse is the response half of a recording
type RecordedResponse struct {
	Status  int                 `yaml:"status"`
	Headers map[string][]string `yaml:"headers"`
	Body    string              `yaml:"body"`
}

// LoadCassette reads the recordings of a cassette. Relative upload paths are
// resolved against the directory of the cassette.
func LoadCassette(fs afero.Fs, path string) ([]*Recording, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cassette: %w", err)
	}

	var cassette Cassette
	if err := yaml.Unmarshal(data, &cassette); err != nil {
		return nil, fmt.Errorf("failed to parse cassette %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i, rec := range cassette.Exchanges {
		if rec == nil {
			return nil, fmt.Errorf("cassette %s: exchange %d is empty", path, i)
		}
		if rec.Title == "" {
			rec.Title = fmt.Sprintf("%s#%d", filepath.Base(path), i+1)
		}
		if rec.Request.Method == "" {
			rec.Request.Method = "GET"
		}
		rec.Request.URI = normalizeURI(rec.Request.URI)
		for j, file := range rec.Request.Files {
			if file.TmpName != "" && !filepath.IsAbs(file.TmpName) {
				rec.Request.Files[j].TmpName = filepath.Join(dir, file.TmpName)
			}
		}
	}

	return cassette.Exchanges, nil
}

// Name returns the title of the recording
func (r *Recording) Name() string {
	return r.Title
}

// InternalRequest returns the recorded request
func (r *Recording) InternalRequest() (*models.ClientRequest, error) {
	return &models.ClientRequest{
		Method:     r.Request.Method,
		URI:        r.Request.URI,
		Parameters: r.Request.Form,
		Files:      r.Request.Files,
		Content:    []byte(r.Request.Body),
	}, nil
}

// InternalResponse returns the recorded response
func (r *Recording) InternalResponse() (*models.ClientResponse, error) {
	if r.Response.Status == 0 {
		return nil, models.ErrNoResponse
	}
	return &models.ClientResponse{
		StatusCode: r.Response.Status,
		Headers:    r.Response.Headers,
		Content:    []byte(r.Response.Body),
	}, nil
}

// RequestHeaders returns the recorded request headers
func (r *Recording) RequestHeaders() (map[string][]*string, error) {
	return r.Request.Headers, nil
}
