package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRequest is returned when the client has not executed a request yet
	ErrNoRequest = errors.New("no request has been executed")
	// ErrNoResponse is returned when the client has not received a response yet
	ErrNoResponse = errors.New("no response has been received")
)

// ConfigurationError reports a missing or invalid configuration value
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %q: %s", e.Key, e.Reason)
}

// SpecLoadError reports an OpenAPI document that could not be loaded
type SpecLoadError struct {
	Path string
	Err  error
}

func (e *SpecLoadError) Error() string {
	return fmt.Sprintf("failed to load OpenAPI document %s: %v", e.Path, e.Err)
}

func (e *SpecLoadError) Unwrap() error {
	return e.Err
}
