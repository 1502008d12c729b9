package oascontract

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// Step phrases, with or without the "I see that" prefix
const (
	RequestStep  = `^(?:I see that )?(?:the )?request matches the OpenAPI specification$`
	ResponseStep = `^(?:I see that )?(?:the )?response matches the OpenAPI specification$`
)

// RegisterSteps adds the request and response assertions to a scenario
func (m *Module) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Then(RequestStep, m.requestMatches)
	sc.Then(ResponseStep, m.responseMatches)
}

func (m *Module) requestMatches(ctx context.Context) error {
	outcome, err := m.ValidateRequest(ctx)
	if err != nil {
		return fmt.Errorf("failed to validate request: %w", err)
	}
	if !outcome.Passed() {
		return &AssertionError{Subject: "request", Outcome: outcome}
	}
	return nil
}

func (m *Module) responseMatches(ctx context.Context) error {
	outcome, err := m.ValidateResponse(ctx)
	if err != nil {
		return fmt.Errorf("failed to validate response: %w", err)
	}
	if !outcome.Passed() {
		return &AssertionError{Subject: "response", Outcome: outcome}
	}
	return nil
}
