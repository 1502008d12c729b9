package parser

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/moamenhredeen/oascontract/internal/models"
	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"github.com/spf13/afero"
)

// methods lists the HTTP methods an OpenAPI path item can declare, in document order
var methods = []string{"GET", "PUT", "POST", "DELETE", "OPTIONS", "HEAD", "PATCH", "TRACE"}

// Parser exposes the operation catalogue of an OpenAPI document
type Parser struct {
	model *v3.Document
}

// ParseFile parses an OpenAPI specification file and returns a Parser instance
func ParseFile(fs afero.Fs, filePath string) (*Parser, error) {
	specBytes, err := afero.ReadFile(fs, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI file: %w", err)
	}

	document, err := libopenapi.NewDocumentWithConfiguration(specBytes, &datamodel.DocumentConfiguration{
		BasePath:            filepath.Dir(filePath),
		AllowFileReferences: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}

	model, errs := document.BuildV3Model()
	if errs != nil {
		return nil, fmt.Errorf("failed to build v3 model: %v", errs)
	}
	if model == nil {
		return nil, fmt.Errorf("failed to build v3 model: document is not OpenAPI 3")
	}

	return &Parser{model: &model.Model}, nil
}

// GetServerURLs returns the server URLs from the OpenAPI spec with
// variables replaced by their default values
func (p *Parser) GetServerURLs() []string {
	urls := make([]string, 0, len(p.model.Servers))
	for _, server := range p.model.Servers {
		if server == nil || server.URL == "" {
			continue
		}
		serverURL := server.URL
		if server.Variables != nil {
			for pair := server.Variables.First(); pair != nil; pair = pair.Next() {
				if pair.Value() != nil {
					serverURL = strings.ReplaceAll(serverURL, "{"+pair.Key()+"}", pair.Value().Default)
				}
			}
		}
		urls = append(urls, serverURL)
	}
	return urls
}

// BasePaths returns the non-root path prefixes of the declared servers
func (p *Parser) BasePaths() []string {
	var basePaths []string
	seen := map[string]bool{}
	for _, serverURL := range p.GetServerURLs() {
		u, err := url.Parse(serverURL)
		if err != nil {
			continue
		}
		basePath := strings.TrimRight(u.Path, "/")
		if basePath == "" || seen[basePath] {
			continue
		}
		seen[basePath] = true
		basePaths = append(basePaths, basePath)
	}
	return basePaths
}

// GetOperations extracts all operations from the OpenAPI spec
func (p *Parser) GetOperations() []models.Operation {
	var operations []models.Operation
	paths := p.model.Paths

	if paths == nil || paths.PathItems == nil {
		return operations
	}

	for pair := paths.PathItems.First(); pair != nil; pair = pair.Next() {
		pathItem := pair.Key()
		pathItemValue := pair.Value()
		if pathItemValue == nil {
			continue
		}

		for _, method := range methods {
			op := operationFor(pathItemValue, method)
			if op == nil {
				continue
			}

			tags := []string{}
			if op.Tags != nil {
				tags = append(tags, op.Tags...)
			}

			operations = append(operations, models.Operation{
				Path:        pathItem,
				Method:      method,
				OperationID: op.OperationId,
				Tags:        tags,
			})
		}
	}

	return operations
}

// OperationDetails holds the declared parts of a single operation
type OperationDetails struct {
	Operation   *v3.Operation
	Path        string
	Method      string
	Parameters  []*v3.Parameter
	RequestBody *v3.RequestBody
	Responses   *v3.Responses
}

// GetOperationDetails extracts detailed information for a specific operation
func (p *Parser) GetOperationDetails(path, method string) (*OperationDetails, error) {
	paths := p.model.Paths
	if paths == nil || paths.PathItems == nil {
		return nil, fmt.Errorf("path not found: %s", path)
	}

	pathItem, ok := paths.PathItems.Get(path)
	if !ok || pathItem == nil {
		return nil, fmt.Errorf("path not found: %s", path)
	}

	method = strings.ToUpper(method)
	operation := operationFor(pathItem, method)
	if operation == nil {
		return nil, fmt.Errorf("operation not found: %s %s", method, path)
	}

	var parameters []*v3.Parameter
	parameters = append(parameters, pathItem.Parameters...)
	parameters = append(parameters, operation.Parameters...)

	return &OperationDetails{
		Operation:   operation,
		Path:        path,
		Method:      method,
		Parameters:  parameters,
		RequestBody: operation.RequestBody,
		Responses:   operation.Responses,
	}, nil
}

// FindResponse returns the response declared for a status code, looking at the
// exact code first, then the default response, then the status code range (2XX).
func (d *OperationDetails) FindResponse(statusCode int) (*v3.Response, bool) {
	if d == nil || d.Responses == nil {
		return nil, false
	}

	statusCodeStr := strconv.Itoa(statusCode)
	if d.Responses.Codes != nil {
		for pair := d.Responses.Codes.First(); pair != nil; pair = pair.Next() {
			if pair.Key() == statusCodeStr {
				return pair.Value(), true
			}
		}
	}

	if d.Responses.Default != nil {
		return d.Responses.Default, true
	}

	if d.Responses.Codes != nil {
		statusRange := fmt.Sprintf("%dXX", statusCode/100)
		for pair := d.Responses.Codes.First(); pair != nil; pair = pair.Next() {
			if strings.EqualFold(pair.Key(), statusRange) {
				return pair.Value(), true
			}
		}
	}

	return nil, false
}

// DeclaredStatusCodes lists the response keys of the operation in document order
func (d *OperationDetails) DeclaredStatusCodes() []string {
	var codes []string
	if d == nil || d.Responses == nil {
		return codes
	}
	if d.Responses.Codes != nil {
		for pair := d.Responses.Codes.First(); pair != nil; pair = pair.Next() {
			codes = append(codes, pair.Key())
		}
	}
	if d.Responses.Default != nil {
		codes = append(codes, "default")
	}
	return codes
}

func operationFor(pathItem *v3.PathItem, method string) *v3.Operation {
	switch method {
	case "GET":
		return pathItem.Get
	case "PUT":
		return pathItem.Put
	case "POST":
		return pathItem.Post
	case "DELETE":
		return pathItem.Delete
	case "OPTIONS":
		return pathItem.Options
	case "HEAD":
		return pathItem.Head
	case "PATCH":
		return pathItem.Patch
	case "TRACE":
		return pathItem.Trace
	}
	return nil
}
