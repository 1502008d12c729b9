package resolver

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/moamenhredeen/oascontract/internal/models"
)

var templateParam = regexp.MustCompile(`\{([^{}/]+)\}`)

// Route is a declared path template matched against a concrete path
type Route struct {
	Template   string
	PathParams map[string]string
}

type compiledTemplate struct {
	template string
	pattern  *regexp.Regexp
	names    []string
	methods  map[string]bool
	literals int
	order    int
}

// Router matches concrete request paths against declared path templates
type Router struct {
	templates []compiledTemplate
	basePaths []string
}

// NewRouter compiles the templates of the declared operations, in the order
// they are given. Base paths are prefixes (typically taken from the server
// URLs) that may precede a template in a concrete path.
func NewRouter(operations []models.Operation, basePaths []string) *Router {
	r := &Router{basePaths: basePaths}
	index := make(map[string]int)
	for _, op := range operations {
		i, ok := index[op.Path]
		if !ok {
			i = len(r.templates)
			index[op.Path] = i
			r.templates = append(r.templates, compileTemplate(op.Path, i))
		}
		r.templates[i].methods[strings.ToUpper(op.Method)] = true
	}

	// Templates with more literal segments win; document order breaks ties.
	sort.SliceStable(r.templates, func(i, j int) bool {
		if r.templates[i].literals != r.templates[j].literals {
			return r.templates[i].literals > r.templates[j].literals
		}
		return r.templates[i].order < r.templates[j].order
	})
	return r
}

// Match returns the route of the operation declaring method whose template
// matches escapedPath, trying the path as is and then with each base path
// stripped. escapedPath is a URL path in its escaped form; path parameters
// are unescaped once.
func (r *Router) Match(method, escapedPath string) (Route, bool) {
	method = strings.ToUpper(method)
	for _, candidate := range r.candidates(escapedPath) {
		for _, t := range r.templates {
			if !t.methods[method] {
				continue
			}
			if route, ok := t.match(candidate); ok {
				return route, true
			}
		}
	}
	return Route{}, false
}

// Lookup returns the declared template equal to template, trying it as is and
// then with each base path stripped
func (r *Router) Lookup(template string) (string, bool) {
	for _, candidate := range r.candidates(template) {
		for _, t := range r.templates {
			if t.template == candidate {
				return t.template, true
			}
		}
	}
	return "", false
}

func (r *Router) candidates(path string) []string {
	candidates := []string{path}
	for _, basePath := range r.basePaths {
		if rest, ok := strings.CutPrefix(path, basePath); ok && strings.HasPrefix(rest, "/") {
			candidates = append(candidates, rest)
		}
	}
	return candidates
}

func compileTemplate(template string, order int) compiledTemplate {
	var pattern strings.Builder
	var names []string
	literals := 0

	pattern.WriteString("^")
	for i, segment := range strings.Split(template, "/") {
		if i > 0 {
			pattern.WriteString("/")
		}
		if !templateParam.MatchString(segment) {
			if segment != "" {
				literals++
			}
			pattern.WriteString(regexp.QuoteMeta(segment))
			continue
		}

		last := 0
		for _, loc := range templateParam.FindAllStringSubmatchIndex(segment, -1) {
			pattern.WriteString(regexp.QuoteMeta(segment[last:loc[0]]))
			pattern.WriteString("([^/]+)")
			names = append(names, segment[loc[2]:loc[3]])
			last = loc[1]
		}
		pattern.WriteString(regexp.QuoteMeta(segment[last:]))
	}
	pattern.WriteString("$")

	return compiledTemplate{
		template: template,
		pattern:  regexp.MustCompile(pattern.String()),
		names:    names,
		methods:  make(map[string]bool),
		literals: literals,
		order:    order,
	}
}

func (t compiledTemplate) match(path string) (Route, bool) {
	matches := t.pattern.FindStringSubmatch(path)
	if matches == nil {
		return Route{}, false
	}

	params := make(map[string]string, len(t.names))
	for i, name := range t.names {
		value := matches[i+1]
		if unescaped, err := url.PathUnescape(value); err == nil {
			value = unescaped
		}
		params[name] = value
	}
	return Route{Template: t.template, PathParams: params}, true
}
