package tester

import (
	"context"
	"fmt"

	"github.com/moamenhredeen/oascontract/internal/exchange"
	"github.com/moamenhredeen/oascontract/internal/models"
	"github.com/moamenhredeen/oascontract/internal/resolver"
	"github.com/moamenhredeen/oascontract/internal/validator"
	"go.uber.org/zap"
)

// Client exposes the last exchange of the HTTP-driving test client
type Client interface {
	InternalRequest() (*models.ClientRequest, error)
	InternalResponse() (*models.ClientResponse, error)
}

// HeaderSource exposes the request headers as the application received them.
// A nil value stands for a header that is present but unset.
type HeaderSource interface {
	RequestHeaders() (map[string][]*string, error)
}

// Source is a named exchange that can be verified on its own
type Source interface {
	Client
	HeaderSource
	Name() string
}

// EventType represents the type of test event
type EventType int

const (
	// EventStarting indicates a test is about to start
	EventStarting EventType = iota
	// EventCompleted indicates a test has completed
	EventCompleted
)

// TestEvent represents an event during verification of recorded exchanges
type TestEvent struct {
	Type   EventType
	Name   string
	Result *models.TestResult // nil for Starting events
	Index  int                // current test index (0-based)
	Total  int                // total number of tests
}

// OnTestEvent is a callback function for test events
type OnTestEvent func(event TestEvent)

// Tester captures exchanges from a client and validates them
type Tester struct {
	builder   *exchange.Builder
	validator *validator.Validator
	logger    *zap.Logger
}

// NewTester creates a new tester instance
func NewTester(builder *exchange.Builder, v *validator.Validator, logger *zap.Logger) *Tester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tester{
		builder:   builder,
		validator: v,
		logger:    logger,
	}
}

// CaptureRequest snapshots the last request of the client
func (t *Tester) CaptureRequest(client Client, headers HeaderSource) (models.Exchange, error) {
	req, err := client.InternalRequest()
	if err != nil {
		return models.Exchange{}, fmt.Errorf("failed to get request: %w", err)
	}
	rawHeaders, err := headers.RequestHeaders()
	if err != nil {
		return models.Exchange{}, fmt.Errorf("failed to get request headers: %w", err)
	}

	ex, err := t.builder.BuildRequest(req, rawHeaders)
	if err != nil {
		return models.Exchange{}, err
	}

	t.logger.Debug("captured request",
		zap.String("method", ex.Method),
		zap.String("uri", ex.URL.String()),
		zap.Int("body_bytes", len(ex.Body)))
	return ex, nil
}

// CaptureResponse snapshots the last response of the client
func (t *Tester) CaptureResponse(client Client) (models.Exchange, error) {
	resp, err := client.InternalResponse()
	if err != nil {
		return models.Exchange{}, fmt.Errorf("failed to get response: %w", err)
	}

	ex, err := t.builder.BuildResponse(resp)
	if err != nil {
		return models.Exchange{}, err
	}

	t.logger.Debug("captured response",
		zap.Int("status", ex.StatusCode),
		zap.Int("body_bytes", len(ex.Body)))
	return ex, nil
}

// CheckRequest validates the last request of the client. The error is only
// set when the request could not be captured.
func (t *Tester) CheckRequest(ctx context.Context, client Client, headers HeaderSource) (models.ValidationOutcome, error) {
	req, err := t.CaptureRequest(client, headers)
	if err != nil {
		return models.ValidationOutcome{}, err
	}

	outcome := t.validator.ValidateRequest(ctx, req)
	t.report("request", req.Method+" "+req.URL.Path, outcome)
	return outcome, nil
}

// CheckResponse validates the last response of the client against the
// operation resolved from the request that produced it
func (t *Tester) CheckResponse(ctx context.Context, client Client, headers HeaderSource) (models.ValidationOutcome, models.OperationAddress, error) {
	req, err := t.CaptureRequest(client, headers)
	if err != nil {
		return models.ValidationOutcome{}, models.OperationAddress{}, err
	}
	resp, err := t.CaptureResponse(client)
	if err != nil {
		return models.ValidationOutcome{}, models.OperationAddress{}, err
	}

	address := resolver.ResolveOperation(req.Method, req.URL)
	t.logger.Debug("resolved operation", zap.Stringer("operation", address))

	outcome := t.validator.ValidateResponse(ctx, address, req, resp)
	t.report("response", address.String(), outcome)
	return outcome, address, nil
}

// TestExchange validates both the request and the response of a source
func (t *Tester) TestExchange(ctx context.Context, source Source) models.TestResult {
	result := models.TestResult{
		Name:   source.Name(),
		Passed: false,
	}

	if req, err := source.InternalRequest(); err == nil && req != nil {
		result.Method = req.Method
		result.Path = req.URI
	}

	requestOutcome, err := t.CheckRequest(ctx, source, source)
	if err != nil {
		result.Error = fmt.Sprintf("test execution error: %v", err)
		return result
	}
	result.Request = requestOutcome

	responseOutcome, address, err := t.CheckResponse(ctx, source, source)
	if err != nil {
		result.Error = fmt.Sprintf("test execution error: %v", err)
		return result
	}
	result.Response = responseOutcome
	result.Operation = address.String()

	if resp, err := source.InternalResponse(); err == nil && resp != nil {
		result.StatusCode = resp.StatusCode
	}

	switch {
	case !requestOutcome.Passed():
		result.Error = "request: " + requestOutcome.Message()
	case !responseOutcome.Passed():
		result.Error = "response: " + responseOutcome.Message()
	default:
		result.Passed = true
	}

	return result
}

// TestExchanges validates multiple sources with optional live event reporting
func (t *Tester) TestExchanges(ctx context.Context, sources []Source, onEvent OnTestEvent) models.TestSummary {
	summary := models.TestSummary{
		Results: make([]models.TestResult, 0, len(sources)),
	}
	total := len(sources)

	for i, source := range sources {
		if onEvent != nil {
			onEvent(TestEvent{Type: EventStarting, Name: source.Name(), Index: i, Total: total})
		}

		result := t.TestExchange(ctx, source)
		summary.AddResult(result)

		if onEvent != nil {
			onEvent(TestEvent{Type: EventCompleted, Name: source.Name(), Result: &result, Index: i, Total: total})
		}
	}

	return summary
}

func (t *Tester) report(kind, subject string, outcome models.ValidationOutcome) {
	if outcome.Passed() {
		t.logger.Debug(kind+" matches the OpenAPI specification", zap.String("subject", subject))
		return
	}
	t.logger.Info(kind+" does not match the OpenAPI specification",
		zap.String("subject", subject),
		zap.String("field", outcome.Failure.Field),
		zap.String("message", outcome.Message()))
}
