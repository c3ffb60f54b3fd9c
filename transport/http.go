package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultBaseURL is the EVDS web service root.
const DefaultBaseURL = "https://evds2.tcmb.gov.tr/service/evds"

// APIKeyHeader carries the API key on every request.
const APIKeyHeader = "key"

// maxErrorBody bounds how much of a failed response is kept.
const maxErrorBody = 64 << 10

// maxDetail bounds StatusError.Detail, in bytes.
const maxDetail = 512

// HTTP implements Transport over net/http.
type HTTP struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// HTTPOption configures an HTTP transport.
type HTTPOption func(*HTTP)

// WithBaseURL sets the service root URL.
func WithBaseURL(url string) HTTPOption {
	return func(h *HTTP) {
		h.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.httpClient = client
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(h *HTTP) {
		h.userAgent = ua
	}
}

// NewHTTP creates a new HTTP transport.
func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTP) Name() string { return "http" }

func (h *HTTP) Close() error {
	h.httpClient.CloseIdleConnections()
	return nil
}

// URL builds the request URL. EVDS does not use "?" for query strings; the
// parameters follow the endpoint path directly.
func (h *HTTP) URL(req *Request) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(h.baseURL, "/"))
	b.WriteByte('/')
	if req.Endpoint != "" {
		b.WriteString(req.Endpoint)
		b.WriteByte('/')
	}
	b.WriteString(req.Query())
	return b.String()
}

// Fetch sends the request and checks the response status.
func (h *HTTP) Fetch(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL(req), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if h.userAgent != "" {
		httpReq.Header.Set("User-Agent", h.userAgent)
	}
	if req.APIKey != "" {
		httpReq.Header.Set(APIKeyHeader, req.APIKey)
	}

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Detail:     extractDetail(body),
			Body:       body,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// StatusError reports a non-success HTTP status from the service.
type StatusError struct {
	StatusCode int
	Status     string
	Detail     string // Error text extracted from the response body
	Body       []byte
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("http status %d", e.StatusCode)
}

var (
	htmlBody = regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`)
	htmlTag  = regexp.MustCompile(`(?s)<[^>]+>`)
	spaces   = regexp.MustCompile(`\s+`)
)

// extractDetail pulls a readable message out of an error page. EVDS answers
// most failures with an HTML page whose body holds the message.
func extractDetail(body []byte) string {
	text := string(body)
	if m := htmlBody.FindStringSubmatch(text); m != nil {
		text = htmlTag.ReplaceAllString(m[1], " ")
	}
	text = strings.TrimSpace(spaces.ReplaceAllString(text, " "))
	if len(text) > maxDetail {
		n := maxDetail
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}
		text = text[:n]
	}
	return text
}
