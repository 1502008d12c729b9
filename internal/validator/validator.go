package validator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/moamenhredeen/oascontract/internal/models"
	"github.com/moamenhredeen/oascontract/internal/parser"
	"github.com/moamenhredeen/oascontract/internal/resolver"
	"github.com/spf13/afero"
)

// decoderMu guards the process-wide body decoder table of openapi3filter for
// the duration of a request validation that registers part decoders
var decoderMu sync.Mutex

// Validator validates requests and responses against an OpenAPI document
type Validator struct {
	doc     *openapi3.T
	catalog *parser.Parser
	router  *resolver.Router
	options *openapi3filter.Options
}

// New loads the OpenAPI document at specPath. Any failure to read, parse or
// validate the document is returned as a *models.SpecLoadError.
func New(ctx context.Context, fs afero.Fs, specPath string) (*Validator, error) {
	data, err := afero.ReadFile(fs, specPath)
	if err != nil {
		return nil, &models.SpecLoadError{Path: specPath, Err: err}
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true
	loader.ReadFromURIFunc = readFromFs(fs)

	doc, err := loader.LoadFromDataWithPath(data, &url.URL{Path: filepath.ToSlash(specPath)})
	if err != nil {
		return nil, &models.SpecLoadError{Path: specPath, Err: fmt.Errorf("invalid OpenAPI specification: %w", err)}
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, &models.SpecLoadError{Path: specPath, Err: fmt.Errorf("invalid OpenAPI specification: %w", err)}
	}

	catalog, err := parser.ParseFile(fs, specPath)
	if err != nil {
		return nil, &models.SpecLoadError{Path: specPath, Err: err}
	}

	return &Validator{
		doc:     doc,
		catalog: catalog,
		router:  resolver.NewRouter(catalog.GetOperations(), catalog.BasePaths()),
		options: &openapi3filter.Options{
			IncludeResponseStatus: true,
			AuthenticationFunc:    authenticate,
		},
	}, nil
}

// Catalog returns the operation catalogue of the loaded document
func (v *Validator) Catalog() *parser.Parser {
	return v.catalog
}

// ValidateRequest validates method, path, parameters, security and body of a
// request snapshot against the operation its path resolves to
func (v *Validator) ValidateRequest(ctx context.Context, req models.Exchange) models.ValidationOutcome {
	if req.URL == nil {
		return models.Fail("request", "request has no URI", "")
	}

	match, ok := v.router.Match(req.Method, req.URL.EscapedPath())
	if !ok {
		address := models.NewOperationAddress(req.URL.Path, req.Method)
		return models.Fail("operation", fmt.Sprintf("operation [%s] is not declared in the OpenAPI document", address), "")
	}

	address := models.NewOperationAddress(match.Template, req.Method)
	route, outcome := v.route(address)
	if route == nil {
		return outcome
	}

	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return models.Fail("request", fmt.Sprintf("request [%s] cannot be read", address), err.Error())
	}

	decoderMu.Lock()
	defer decoderMu.Unlock()

	registered, err := registerPartDecoders(req)
	defer unregisterDecoders(registered)
	if err != nil {
		return models.Fail("body", fmt.Sprintf("request body is invalid for request [%s]", address), err.Error())
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    httpReq,
		PathParams: match.PathParams,
		Route:      route,
		Options:    v.options,
	}
	if err := openapi3filter.ValidateRequest(ctx, input); err != nil {
		return describe(err, "request ["+address.String()+"]")
	}

	return models.Success()
}

// ValidateResponse validates status code, headers and body of a response
// snapshot against the operation at address. req is the request that produced
// the response.
func (v *Validator) ValidateResponse(ctx context.Context, address models.OperationAddress, req, resp models.Exchange) models.ValidationOutcome {
	template, ok := v.router.Lookup(address.Path)
	if !ok {
		return models.Fail("operation", fmt.Sprintf("operation [%s] is not declared in the OpenAPI document", address), "")
	}

	address = models.NewOperationAddress(template, address.Method)
	route, outcome := v.route(address)
	if route == nil {
		return outcome
	}

	details, err := v.catalog.GetOperationDetails(address.Path, address.Method)
	if err != nil {
		return models.Fail("operation", fmt.Sprintf("operation [%s] is not declared in the OpenAPI document", address), err.Error())
	}
	if _, found := details.FindResponse(resp.StatusCode); !found {
		return models.Fail("status_code",
			fmt.Sprintf("status code %d is not declared for operation [%s]", resp.StatusCode, address),
			"declared: "+strings.Join(details.DeclaredStatusCodes(), ", "))
	}

	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return models.Fail("request", fmt.Sprintf("request [%s] cannot be read", address), err.Error())
	}

	var pathParams map[string]string
	if req.URL != nil {
		if match, ok := v.router.Match(req.Method, req.URL.EscapedPath()); ok && match.Template == address.Path {
			pathParams = match.PathParams
		}
	}

	header := resp.Header.Clone()
	if header == nil {
		header = make(map[string][]string)
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    httpReq,
			PathParams: pathParams,
			Route:      route,
			Options:    v.options,
		},
		Status:  resp.StatusCode,
		Header:  header,
		Options: v.options,
	}
	input.SetBodyBytes(resp.Body)

	decoderMu.Lock()
	defer decoderMu.Unlock()
	if err := openapi3filter.ValidateResponse(ctx, input); err != nil {
		return describe(err, fmt.Sprintf("response %d of [%s]", resp.StatusCode, address))
	}

	return models.Success()
}

func (v *Validator) route(address models.OperationAddress) (*routers.Route, models.ValidationOutcome) {
	notDeclared := models.Fail("operation", fmt.Sprintf("operation [%s] is not declared in the OpenAPI document", address), "")

	pathItem := v.doc.Paths.Value(address.Path)
	if pathItem == nil {
		return nil, notDeclared
	}
	method := strings.ToUpper(address.Method)
	operation := pathItem.GetOperation(method)
	if operation == nil {
		return nil, notDeclared
	}

	return &routers.Route{
		Spec:      v.doc,
		Path:      address.Path,
		PathItem:  pathItem,
		Method:    method,
		Operation: operation,
	}, models.Success()
}

// registerPartDecoders makes openapi3filter decode file parts whose content
// type it has no decoder for as raw binary. It returns the content types it
// registered; the caller holds decoderMu until they are unregistered.
func registerPartDecoders(req models.Exchange) ([]string, error) {
	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" || params["boundary"] == "" {
		return nil, nil
	}

	var registered []string
	r := multipart.NewReader(bytes.NewReader(req.Body), params["boundary"])
	for {
		part, err := r.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return registered, nil
			}
			return registered, fmt.Errorf("failed to read multipart body: %w", err)
		}
		contentType := part.Header.Get("Content-Type")
		if contentType == "" {
			continue
		}
		partType, _, _ := strings.Cut(contentType, ";")
		partType = strings.TrimSpace(partType)
		if openapi3filter.RegisteredBodyDecoder(partType) == nil {
			openapi3filter.RegisterBodyDecoder(partType, openapi3filter.FileBodyDecoder)
			registered = append(registered, partType)
		}
	}
}

func unregisterDecoders(contentTypes []string) {
	for _, contentType := range contentTypes {
		openapi3filter.UnregisterBodyDecoder(contentType)
	}
}

func readFromFs(fs afero.Fs) openapi3.ReadFromURIFunc {
	return func(loader *openapi3.Loader, location *url.URL) ([]byte, error) {
		if location.Scheme != "" && location.Scheme != "file" {
			return openapi3.DefaultReadFromURI(loader, location)
		}
		return afero.ReadFile(fs, filepath.FromSlash(location.Path))
	}
}
