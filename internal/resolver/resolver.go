// Package resolver maps concrete request paths onto the operations declared in
// an OpenAPI document.
package resolver

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/moamenhredeen/oascontract/internal/models"
)

// IDPlaceholder replaces UUID-shaped path segments
const IDPlaceholder = "{id}"

var uuidSegment = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ResolveOperation derives the operation address of a request. Path segments in
// canonical UUID form are replaced by {id}; any other identifier scheme is left
// untouched and has to be declared literally in the document to match.
func ResolveOperation(method string, u *url.URL) models.OperationAddress {
	path := ""
	if u != nil {
		path = u.Path
	}
	return models.NewOperationAddress(TemplatePath(path), method)
}

// TemplatePath replaces every UUID-shaped segment of path with {id}
func TemplatePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if uuidSegment.MatchString(segment) {
			segments[i] = IDPlaceholder
		}
	}
	return strings.Join(segments, "/")
}
