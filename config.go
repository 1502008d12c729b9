package oascontract

import (
	"fmt"
	"mime/multipart"

	"github.com/moamenhredeen/oascontract/internal/models"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Configuration keys
const (
	KeyOpenAPI           = "openapi"
	KeyMultipartBoundary = "multipart_boundary"
)

// ExampleConfig is shown when the module is set up without its collaborators
const ExampleConfig = `openapi: path/to/openapi.yaml
multipart_boundary: optional-fixed-boundary

module, err := oascontract.New(ctx, cfg, oascontract.Dependencies{
	Client:  recorder,
	Headers: recorder,
})`

// Config holds the module settings
type Config struct {
	// OpenAPI is the path of the OpenAPI document, YAML or JSON
	OpenAPI string `mapstructure:"openapi"`
	// MultipartBoundary, when set, is used to re-encode multipart request bodies
	MultipartBoundary string `mapstructure:"multipart_boundary"`
}

// LoadConfig reads the module settings from v
func LoadConfig(v *viper.Viper) (Config, error) {
	var cfg Config

	if raw := v.Get(KeyMultipartBoundary); raw != nil {
		if _, ok := raw.(string); !ok {
			return cfg, &models.ConfigurationError{
				Key:    KeyMultipartBoundary,
				Reason: fmt.Sprintf("must be a string, got %T", raw),
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the document exists on fs and that the boundary,
// when set, is usable in a multipart body
func (c Config) Validate(fs afero.Fs) error {
	if c.OpenAPI == "" {
		return &models.ConfigurationError{Key: KeyOpenAPI, Reason: "is required"}
	}

	exists, err := afero.Exists(fs, c.OpenAPI)
	if err != nil {
		return fmt.Errorf("failed to check OpenAPI document: %w", err)
	}
	if !exists {
		return &models.ConfigurationError{Key: KeyOpenAPI, Reason: fmt.Sprintf("file %s does not exist", c.OpenAPI)}
	}

	if c.MultipartBoundary != "" {
		w := multipart.NewWriter(nil)
		if err := w.SetBoundary(c.MultipartBoundary); err != nil {
			return &models.ConfigurationError{Key: KeyMultipartBoundary, Reason: err.Error()}
		}
	}

	return nil
}
