package token

import "net/http"

// Mode selects what the interceptor does for a route.
type Mode int

const (
	// None leaves the request untouched.
	None Mode = iota
	// Create issues a fresh token before the handler runs.
	Create
	// Validate requires the submitted token to match the session before the
	// handler runs, then replaces it.
	Validate
)

func (m Mode) String() string {
	switch m {
	case Create:
		return "create"
	case Validate:
		return "validate"
	default:
		return "none"
	}
}

// Route identifies a handler by HTTP method and request path.
type Route struct {
	Method string
	Path   string
}

// Directives maps routes to their token mode. Routes absent from the table
// have mode None.
type Directives map[Route]Mode

// Lookup returns the mode registered for method and path.
func (d Directives) Lookup(method, path string) Mode {
	if d == nil {
		return None
	}
	return d[Route{Method: method, Path: path}]
}

// Get registers a GET route with mode m.
func (d Directives) Get(path string, m Mode) Directives {
	d[Route{Method: http.MethodGet, Path: path}] = m
	return d
}

// Post registers a POST route with mode m.
func (d Directives) Post(path string, m Mode) Directives {
	d[Route{Method: http.MethodPost, Path: path}] = m
	return d
}
