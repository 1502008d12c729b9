package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/moamenhredeen/oascontract/internal/models"
)

// describe converts an openapi3filter error into a failing outcome. The
// message names what failed, the cause carries the schema-level reason.
func describe(err error, subject string) models.ValidationOutcome {
	var secErr *openapi3filter.SecurityRequirementsError
	var reqErr *openapi3filter.RequestError
	var respErr *openapi3filter.ResponseError

	switch {
	case errors.As(err, &secErr):
		causes := make([]string, 0, len(secErr.Errors))
		for _, e := range secErr.Errors {
			causes = append(causes, e.Error())
		}
		return models.Fail("security",
			fmt.Sprintf("security requirements are not satisfied for %s", subject),
			strings.Join(causes, "; "))

	case errors.As(err, &reqErr):
		cause := chain(reqErr.Reason, reqErr.Err)
		if p := reqErr.Parameter; p != nil {
			return models.Fail(p.In+"."+p.Name,
				fmt.Sprintf("%s parameter %q is invalid for %s", p.In, p.Name, subject), cause)
		}
		if reqErr.RequestBody != nil {
			return models.Fail("body", fmt.Sprintf("request body is invalid for %s", subject), cause)
		}
		return models.Fail("request", fmt.Sprintf("%s is invalid", subject), cause)

	case errors.As(err, &respErr):
		field := "response"
		if strings.Contains(respErr.Reason, "header") {
			field = "header"
		} else if strings.Contains(respErr.Reason, "body") {
			field = "body"
		}
		return models.Fail(field, fmt.Sprintf("%s is invalid", subject), chain(respErr.Reason, respErr.Err))
	}

	return models.Fail("request", fmt.Sprintf("%s is invalid", subject), causeOf(err))
}

func chain(reason string, err error) string {
	if err == nil {
		return reason
	}
	cause := causeOf(err)
	if reason == "" || reason == cause || reason == err.Error() {
		return cause
	}
	return reason + ": " + cause
}

func causeOf(err error) string {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		causes := make([]string, 0, len(multi))
		for _, e := range multi {
			causes = append(causes, causeOf(e))
		}
		return strings.Join(causes, "; ")
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if pointer := schemaErr.JSONPointer(); len(pointer) > 0 {
			return fmt.Sprintf("/%s: %s", strings.Join(pointer, "/"), schemaErr.Reason)
		}
		return schemaErr.Reason
	}

	return err.Error()
}
