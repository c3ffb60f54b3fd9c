// Package transport provides HTTP transport implementations for the EVDS client.
package transport

import (
	"context"
	"net/http"
	"strings"
)

// Transport defines the interface for EVDS request transports.
type Transport interface {
	// Name returns the transport name (e.g., "http").
	Name() string

	// Fetch performs an authenticated GET and returns the raw response.
	// Non-success statuses are reported as *StatusError.
	Fetch(ctx context.Context, req *Request) (*Response, error)

	// Close releases any resources held by the transport.
	Close() error
}

// Endpoints served by EVDS. The data endpoint has no path segment.
const (
	EndpointData       = ""
	EndpointCategories = "categories"
	EndpointDatagroups = "datagroups"
	EndpointSeriesList = "serieList"
)

// Param is a single query parameter. Order is preserved on the wire.
type Param struct {
	Key   string
	Value string
}

// Request represents an EVDS request.
type Request struct {
	Endpoint string      // Endpoint path segment, empty for series data
	Params   []Param     // Query parameters in wire order
	APIKey   string      // Sent as the "key" header
	Header   http.Header // Extra request headers
}

// Query renders the parameters the way EVDS expects them: key=value pairs
// joined by "&", skipping empty values.
func (r *Request) Query() string {
	parts := make([]string, 0, len(r.Params))
	for _, p := range r.Params {
		if p.Value == "" {
			continue
		}
		parts = append(parts, p.Key+"="+p.Value)
	}
	return strings.Join(parts, "&")
}

// Get returns the value of the first parameter named key.
func (r *Request) Get(key string) (string, bool) {
	for _, p := range r.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Response represents a successful EVDS response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Func adapts an ordinary function to the Transport interface.
type Func func(ctx context.Context, req *Request) (*Response, error)

func (f Func) Name() string { return "func" }

func (f Func) Fetch(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

func (f Func) Close() error { return nil }
