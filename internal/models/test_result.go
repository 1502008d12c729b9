package models

// ValidationError represents a specific validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ValidationOutcome is the result of validating one request or response.
// A nil Failure means the exchange conforms to the document.
type ValidationOutcome struct {
	Failure *ValidationError `json:"failure,omitempty"`
}

// Success returns a passing outcome
func Success() ValidationOutcome {
	return ValidationOutcome{}
}

// Fail returns a failing outcome
func Fail(field, message, cause string) ValidationOutcome {
	return ValidationOutcome{Failure: &ValidationError{Field: field, Message: message, Cause: cause}}
}

// Passed reports whether the exchange conforms to the document
func (o ValidationOutcome) Passed() bool {
	return o.Failure == nil
}

// Message renders the failure as "message -> cause", or "" for a passing outcome
func (o ValidationOutcome) Message() string {
	if o.Failure == nil {
		return ""
	}
	if o.Failure.Cause == "" {
		return o.Failure.Message
	}
	return o.Failure.Message + " -> " + o.Failure.Cause
}

// TestResult represents the result of verifying a single recorded exchange
type TestResult struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Method string `json:"method"`

	// Resolved operation used for the response
	Operation string `json:"operation"`

	// Test status
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`

	StatusCode int `json:"status_code"`

	Request  ValidationOutcome `json:"request"`
	Response ValidationOutcome `json:"response"`
}

// TestSummary represents the overall verification results
type TestSummary struct {
	TotalTests int          `json:"total_tests"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	Results    []TestResult `json:"results"`
}

// AddResult adds a test result to the summary
func (s *TestSummary) AddResult(result TestResult) {
	s.TotalTests++
	s.Results = append(s.Results, result)
	if result.Passed {
		s.Passed++
	} else {
		s.Failed++
	}
}
