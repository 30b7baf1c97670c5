package servermodule

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"mercator-hq/devserver/pkg/pipeline"
)

// MockRoute is one canned response served by the mock module.
type MockRoute struct {
	// Method restricts the route to one HTTP method. Empty matches any.
	Method string `yaml:"method"`

	// Path is matched exactly, or as a prefix when it ends in "*".
	Path string `yaml:"path"`

	Status  int               `yaml:"status"`
	Headers map[string]string `yaml:"headers"`

	// Body and File are mutually exclusive. File is relative to the module
	// root and is read once when the module loads.
	Body string `yaml:"body"`
	File string `yaml:"file"`
}

type mockSettings struct {
	Routes []MockRoute `yaml:"routes"`
}

type mockResponse struct {
	method  string
	path    string
	prefix  bool
	status  int
	headers http.Header
	body    []byte
}

func (m *mockResponse) matches(r *http.Request) bool {
	if m.method != "" && !strings.EqualFold(m.method, r.Method) {
		return false
	}
	if m.prefix {
		return strings.HasPrefix(r.URL.Path, m.path)
	}
	return r.URL.Path == m.path
}

func newMock(lc *LoadContext) (*pipeline.Module, error) {
	var s mockSettings
	if err := lc.Decode(&s); err != nil {
		return nil, err
	}

	responses := make([]*mockResponse, 0, len(s.Routes))
	for i, route := range s.Routes {
		resp, err := buildMockResponse(lc, route)
		if err != nil {
			return nil, fmt.Errorf("routes[%d]: %w", i, err)
		}
		responses = append(responses, resp)
	}

	lc.Logger.Debug("mock routes loaded", "routes", len(responses))

	return pipeline.DirectHandler(lc.Name, func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		for _, resp := range responses {
			if !resp.matches(r) {
				continue
			}
			for k, vs := range resp.headers {
				w.Header()[k] = vs
			}
			w.WriteHeader(resp.status)
			if r.Method != http.MethodHead {
				_, _ = w.Write(resp.body)
			}
			return
		}
		next.ServeHTTP(w, r)
	}), nil
}

func buildMockResponse(lc *LoadContext, route MockRoute) (*mockResponse, error) {
	if route.Path == "" || !strings.HasPrefix(route.Path, "/") {
		return nil, fmt.Errorf("path %q must start with /", route.Path)
	}
	if route.Body != "" && route.File != "" {
		return nil, fmt.Errorf("route %s sets both body and file", route.Path)
	}

	resp := &mockResponse{
		method:  strings.ToUpper(route.Method),
		path:    strings.TrimSuffix(route.Path, "*"),
		prefix:  strings.HasSuffix(route.Path, "*"),
		status:  route.Status,
		headers: make(http.Header, len(route.Headers)),
		body:    []byte(route.Body),
	}
	if resp.status == 0 {
		resp.status = http.StatusOK
	}
	if resp.status < 100 || resp.status > 999 {
		return nil, fmt.Errorf("route %s has invalid status %d", route.Path, route.Status)
	}

	for k, v := range route.Headers {
		resp.headers.Set(k, v)
	}

	if route.File != "" {
		data, err := lc.ReadFile(route.File)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", route.Path, err)
		}
		resp.body = data

		if resp.headers.Get("Content-Type") == "" {
			if ct := mime.TypeByExtension(filepath.Ext(route.File)); ct != "" {
				resp.headers.Set("Content-Type", ct)
			}
		}
	}

	return resp, nil
}
