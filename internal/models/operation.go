package models

import "strings"

// Operation represents an OpenAPI operation declared in the document
type Operation struct {
	Path        string
	Method      string
	OperationID string
	Tags        []string
}

// OperationAddress identifies the operation a request or response is validated against
type OperationAddress struct {
	Path   string // path template as declared in the document, e.g. /users/{id}
	Method string // lowercase HTTP verb
}

// NewOperationAddress creates an address with the method normalized to lowercase
func NewOperationAddress(path, method string) OperationAddress {
	return OperationAddress{Path: path, Method: strings.ToLower(method)}
}

func (a OperationAddress) String() string {
	return a.Method + " " + a.Path
}
