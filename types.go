package oascontract

import (
	"github.com/moamenhredeen/oascontract/internal/models"
	"github.com/moamenhredeen/oascontract/internal/recorder"
	"github.com/moamenhredeen/oascontract/internal/tester"
	"github.com/spf13/afero"
)

type (
	// Client exposes the last exchange of the HTTP-driving test client
	Client = tester.Client
	// HeaderSource exposes the request headers as the application received them
	HeaderSource = tester.HeaderSource

	ClientRequest     = models.ClientRequest
	ClientResponse    = models.ClientResponse
	FormField         = models.FormField
	UploadedFile      = models.UploadedFile
	OperationAddress  = models.OperationAddress
	ValidationOutcome = models.ValidationOutcome
	ValidationError   = models.ValidationError

	ConfigurationError = models.ConfigurationError
	SpecLoadError      = models.SpecLoadError

	// Recorder records the last exchange of an http.Client
	Recorder = recorder.Recorder
	// Recording is an exchange read from a cassette
	Recording = recorder.Recording
)

var (
	ErrNoRequest  = models.ErrNoRequest
	ErrNoResponse = models.ErrNoResponse
)

// NewRecorder creates a recorder that keeps uploaded files on fs
func NewRecorder(fs afero.Fs) *Recorder {
	return recorder.New(fs)
}

// LoadCassette reads the exchanges recorded in a YAML or JSON cassette
func LoadCassette(fs afero.Fs, path string) ([]*Recording, error) {
	return recorder.LoadCassette(fs, path)
}
