package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"
)

// authenticate checks that the credentials a security scheme asks for are
// present on the request. It does not verify them.
func authenticate(_ context.Context, input *openapi3filter.AuthenticationInput) error {
	scheme := input.SecurityScheme
	req := input.RequestValidationInput.Request
	if scheme == nil || req == nil {
		return nil
	}

	switch scheme.Type {
	case "apiKey":
		switch scheme.In {
		case "header":
			if req.Header.Get(scheme.Name) == "" {
				return fmt.Errorf("missing API key header %s", scheme.Name)
			}
		case "query":
			if !req.URL.Query().Has(scheme.Name) {
				return fmt.Errorf("missing API key query parameter %s", scheme.Name)
			}
		case "cookie":
			if _, err := req.Cookie(scheme.Name); err != nil {
				return fmt.Errorf("missing API key cookie %s", scheme.Name)
			}
		}
	case "http":
		return requireAuthorization(req.Header.Get("Authorization"), scheme.Scheme)
	case "oauth2", "openIdConnect":
		return requireAuthorization(req.Header.Get("Authorization"), "bearer")
	}

	return nil
}

func requireAuthorization(value, scheme string) error {
	if !strings.HasPrefix(strings.ToLower(value), strings.ToLower(scheme)+" ") {
		return fmt.Errorf("missing %s credentials in Authorization header", scheme)
	}
	return nil
}
