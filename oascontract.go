// Package oascontract asserts that HTTP exchanges made during a test conform
// to an OpenAPI document.
package oascontract

import (
	"context"
	"fmt"

	"github.com/moamenhredeen/oascontract/internal/exchange"
	"github.com/moamenhredeen/oascontract/internal/models"
	"github.com/moamenhredeen/oascontract/internal/tester"
	"github.com/moamenhredeen/oascontract/internal/validator"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Dependencies are the collaborators the module reads exchanges from
type Dependencies struct {
	// Client is the HTTP-driving test client
	Client Client
	// Headers returns the request headers as the application received them
	Headers HeaderSource
}

// Module checks the last exchange of its client against an OpenAPI document
type Module struct {
	config Config
	deps   Dependencies
	fs     afero.Fs
	logger *zap.Logger
	tester *tester.Tester
}

// Option configures a Module
type Option func(*Module)

// WithLogger sets the logger, zap.NewNop by default
func WithLogger(logger *zap.Logger) Option {
	return func(m *Module) {
		m.logger = logger
	}
}

// WithFs sets the filesystem the document and uploaded files are read from
func WithFs(fs afero.Fs) Option {
	return func(m *Module) {
		m.fs = fs
	}
}

// New validates the configuration and the collaborators and loads the
// OpenAPI document. A document that cannot be loaded is a *SpecLoadError.
func New(ctx context.Context, cfg Config, deps Dependencies, opts ...Option) (*Module, error) {
	m := &Module{
		config: cfg,
		deps:   deps,
		fs:     afero.NewOsFs(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if deps.Client == nil || deps.Headers == nil {
		return nil, &models.ConfigurationError{
			Key:    "dependencies",
			Reason: "a Client and a HeaderSource are required, for example:\n" + ExampleConfig,
		}
	}
	if err := cfg.Validate(m.fs); err != nil {
		return nil, err
	}

	v, err := validator.New(ctx, m.fs, cfg.OpenAPI)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("loaded OpenAPI document", zap.String("path", cfg.OpenAPI))

	m.tester = tester.NewTester(exchange.NewBuilder(m.fs, cfg.MultipartBoundary), v, m.logger)
	return m, nil
}

// Config returns the configuration the module was created with
func (m *Module) Config() Config {
	return m.config
}

// ValidateRequest checks the last request of the client. The error is only
// set when the request could not be captured.
func (m *Module) ValidateRequest(ctx context.Context) (ValidationOutcome, error) {
	return m.tester.CheckRequest(ctx, m.deps.Client, m.deps.Headers)
}

// ValidateResponse checks the last response of the client against the
// operation resolved from the last request
func (m *Module) ValidateResponse(ctx context.Context) (ValidationOutcome, error) {
	outcome, _, err := m.tester.CheckResponse(ctx, m.deps.Client, m.deps.Headers)
	return outcome, err
}

// SeeRequestMatchesOpenAPISpecification fails t unless the last request
// matches the document
func (m *Module) SeeRequestMatchesOpenAPISpecification(t require.TestingT) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	outcome, err := m.ValidateRequest(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Passed(), outcome.Message())
}

// SeeResponseMatchesOpenAPISpecification fails t unless the last response
// matches the document
func (m *Module) SeeResponseMatchesOpenAPISpecification(t require.TestingT) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	outcome, err := m.ValidateResponse(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Passed(), outcome.Message())
}

// AssertionError is returned by the scenario steps when an exchange does not
// match the document
type AssertionError struct {
	Subject string
	Outcome ValidationOutcome
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s does not match the OpenAPI specification: %s", e.Subject, e.Outcome.Message())
}
