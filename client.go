package tcmb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tcmb/tcmb-go/catalog"
	"github.com/tcmb/tcmb-go/internal/schema"
	"github.com/tcmb/tcmb-go/pattern"
	"github.com/tcmb/tcmb-go/security"
	"github.com/tcmb/tcmb-go/transport"
)

// Metadata record types returned by the service.
type (
	Category   = catalog.Category
	Datagroup  = catalog.Datagroup
	SeriesInfo = catalog.Series
)

// Client is an EVDS client.
// It is safe for concurrent use from multiple goroutines.
type Client struct {
	config    *clientConfig
	transport transport.Transport
	catalog   *catalog.Catalog
	logger    *slog.Logger
	metrics   *metrics
}

// New creates a new EVDS client with the given options.
//
// The API key is taken from WithAPIKey, then the TCMB_API_KEY environment
// variable, then tcmb.yaml. A client without a key can still resolve series
// offline; network operations fail with ErrMissingAPIKey.
//
// Example:
//
//	client, err := tcmb.New(tcmb.WithAPIKey("your-api-key"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	table, err := client.Read(ctx, []string{"TP.DK.USD.S.YTL"},
//	    tcmb.WithStart("2023-01-01"),
//	)
func New(opts ...Option) (*Client, error) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	settings, err := LoadSettings(config.configFile)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	applySettings(config, settings)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	t := config.transport
	if t == nil {
		httpOpts := []transport.HTTPOption{
			transport.WithBaseURL(config.baseURL),
			transport.WithUserAgent(config.userAgent),
		}
		if config.httpClient != nil {
			httpOpts = append(httpOpts, transport.WithHTTPClient(config.httpClient))
		} else if config.timeout > 0 {
			httpOpts = append(httpOpts, transport.WithHTTPClient(&http.Client{
				Timeout: config.timeout,
			}))
		}
		t = transport.NewHTTP(httpOpts...)
	}

	cat := config.catalog
	if cat == nil {
		cat, err = catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	}

	logger := config.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		config:    config,
		transport: t,
		catalog:   cat,
		logger:    logger,
		metrics:   newMetrics(config.registerer),
	}, nil
}

// MustNew creates a new EVDS client with the given options.
// Panics if the configuration is invalid.
// Use New() for error handling in production code.
func MustNew(opts ...Option) *Client {
	client, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return client
}

// validateConfig validates the client configuration.
func validateConfig(config *clientConfig) error {
	if config.timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if config.transport != nil {
		return nil
	}
	if config.baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	u, err := url.Parse(config.baseURL)
	if err != nil {
		return fmt.Errorf("base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL must be http or https, got %q", config.baseURL)
	}
	return nil
}

// Catalog returns the catalog used for wildcard resolution.
func (c *Client) Catalog() *catalog.Catalog {
	return c.catalog
}

// Read fetches observations for the given series keys in a single request.
// Keys may contain wildcards, which are expanded against the catalog first.
// Dates are validated before any request is made.
//
// Example:
//
//	table, err := client.Read(ctx, []string{"TP.DK.USD.*.YTL"},
//	    tcmb.WithStart("2023-01-01"),
//	    tcmb.WithEnd("2023-01-31"),
//	    tcmb.WithFrequency(tcmb.Monthly),
//	    tcmb.WithAggregation(tcmb.Average),
//	)
func (c *Client) Read(ctx context.Context, keys []string, opts ...ReadOption) (*Table, error) {
	table, err := c.read(ctx, keys, opts)
	return table, c.observe(err)
}

func (c *Client) read(ctx context.Context, keys []string, opts []ReadOption) (*Table, error) {
	rc := &readConfig{decimalSep: "."}
	for _, opt := range opts {
		opt(rc)
	}

	if err := c.requireKey(); err != nil {
		return nil, err
	}

	start, err := wireDate(rc.start, rc.startTime, DefaultStartDate)
	if err != nil {
		return nil, err
	}
	end, err := wireDate(rc.end, rc.endTime, c.config.now().Format(WireDateLayout))
	if err != nil {
		return nil, err
	}

	codes, err := c.Resolve(keys...)
	if err != nil {
		return nil, err
	}

	for _, a := range rc.aggregations {
		if !a.Valid() {
			return nil, configError(CodeInvalidArgument, fmt.Sprintf("unknown aggregation %q", a))
		}
	}
	aggs, err := joinParam("aggregation", rc.aggregations, len(codes), formatAggregation)
	if err != nil {
		return nil, err
	}

	for _, f := range rc.formulas {
		if !f.Valid() {
			return nil, configError(CodeInvalidArgument, fmt.Sprintf("unknown formula %d", f))
		}
	}
	formulas, err := joinParam("formula", rc.formulas, len(codes), formatFormula)
	if err != nil {
		return nil, err
	}

	if !rc.frequency.Valid() {
		return nil, configError(CodeInvalidArgument, fmt.Sprintf("unknown frequency %d", rc.frequency))
	}
	var freq string
	if rc.frequency != FrequencyNone {
		freq = strconv.Itoa(int(rc.frequency))
	}

	req := &transport.Request{
		Endpoint: transport.EndpointData,
		Params: []transport.Param{
			{Key: "series", Value: joinCodes(codes)},
			{Key: "startDate", Value: start},
			{Key: "endDate", Value: end},
			{Key: "type", Value: "json"},
			{Key: "aggregationTypes", Value: aggs},
			{Key: "formulas", Value: formulas},
			{Key: "frequency", Value: freq},
			{Key: "decimalSeperator", Value: rc.decimalSep},
		},
		APIKey: c.config.apiKey,
		Header: rc.header,
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	table, err := decodeObservations(resp.Body, codes, rc.decimalSep)
	if err != nil {
		return nil, err
	}

	if rc.metadata {
		table.Metadata = make(map[string][]SeriesInfo, len(codes))
		for _, code := range codes {
			if _, done := table.Metadata[code]; done {
				continue
			}
			infos, err := c.seriesList(ctx, code)
			if err != nil {
				return nil, fmt.Errorf("metadata for %s: %w", code, err)
			}
			table.Metadata[code] = infos
		}
	}

	return table, nil
}

// wireDate picks the date string sent for startDate or endDate.
func wireDate(s string, t time.Time, fallback string) (string, error) {
	switch {
	case s != "":
		return NormalizeDate(s)
	case !t.IsZero():
		return t.Format(WireDateLayout), nil
	default:
		return fallback, nil
	}
}

// CategoriesMetadata lists every EVDS category.
func (c *Client) CategoriesMetadata(ctx context.Context) ([]Category, error) {
	categories, err := c.categories(ctx)
	return categories, c.observe(err)
}

func (c *Client) categories(ctx context.Context) ([]Category, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, &transport.Request{
		Endpoint: transport.EndpointCategories,
		Params:   []transport.Param{{Key: "type", Value: "json"}},
		APIKey:   c.config.apiKey,
	})
	if err != nil {
		return nil, err
	}

	var out []Category
	if err := decodeRecords(resp.Body, schema.Category, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DatagroupMode selects which datagroups a DatagroupQuery returns.
type DatagroupMode int

// Datagroup query modes.
const (
	DatagroupModeAll      DatagroupMode = 0 // every datagroup
	DatagroupModeGroup    DatagroupMode = 1 // one datagroup by code
	DatagroupModeCategory DatagroupMode = 2 // every datagroup of a category
)

// DatagroupQuery filters DatagroupsMetadata. Code is a datagroup code in
// DatagroupModeGroup and a category ID in DatagroupModeCategory.
type DatagroupQuery struct {
	Mode DatagroupMode
	Code string
}

// AllDatagroups queries every datagroup.
func AllDatagroups() DatagroupQuery {
	return DatagroupQuery{Mode: DatagroupModeAll}
}

// DatagroupByCode queries a single datagroup.
func DatagroupByCode(code string) DatagroupQuery {
	return DatagroupQuery{Mode: DatagroupModeGroup, Code: code}
}

// DatagroupsOfCategory queries the datagroups of a category.
func DatagroupsOfCategory(categoryID int) DatagroupQuery {
	return DatagroupQuery{Mode: DatagroupModeCategory, Code: strconv.Itoa(categoryID)}
}

// DatagroupsMetadata lists datagroups matching q. An empty answer is
// reported as ErrNoData.
func (c *Client) DatagroupsMetadata(ctx context.Context, q DatagroupQuery) ([]Datagroup, error) {
	groups, err := c.datagroups(ctx, q)
	return groups, c.observe(err)
}

func (c *Client) datagroups(ctx context.Context, q DatagroupQuery) ([]Datagroup, error) {
	if q.Mode < DatagroupModeAll || q.Mode > DatagroupModeCategory {
		return nil, configError(CodeInvalidArgument, fmt.Sprintf("unknown datagroup mode %d", q.Mode))
	}
	if q.Mode != DatagroupModeAll && q.Code == "" {
		return nil, configError(CodeInvalidArgument, fmt.Sprintf("datagroup mode %d needs a code", q.Mode))
	}
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	code := q.Code
	if q.Mode == DatagroupModeAll {
		code = ""
	}
	resp, err := c.do(ctx, &transport.Request{
		Endpoint: transport.EndpointDatagroups,
		Params: []transport.Param{
			{Key: "mode", Value: strconv.Itoa(int(q.Mode))},
			{Key: "code", Value: code},
			{Key: "type", Value: "json"},
		},
		APIKey: c.config.apiKey,
	})
	if err != nil {
		return nil, err
	}

	var out []Datagroup
	if err := decodeRecords(resp.Body, schema.Datagroup, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, &Error{Code: CodeNoData, Message: "no data in response", Details: fmt.Sprintf("mode %d code %q", q.Mode, q.Code)}
	}
	return out, nil
}

// SeriesMetadata returns the metadata of a series, or of every series in a
// datagroup when series is empty. A wildcard series key is resolved against
// the catalog and queried once per match.
func (c *Client) SeriesMetadata(ctx context.Context, series, datagroup string) ([]SeriesInfo, error) {
	infos, err := c.seriesMetadata(ctx, series, datagroup)
	return infos, c.observe(err)
}

func (c *Client) seriesMetadata(ctx context.Context, series, datagroup string) ([]SeriesInfo, error) {
	if series == "" && datagroup == "" {
		return nil, configError(CodeInvalidArgument, "one of series or datagroup is required")
	}
	if err := c.requireKey(); err != nil {
		return nil, err
	}
	if series == "" {
		return c.seriesList(ctx, datagroup)
	}
	if !pattern.HasWildcard(series) {
		return c.seriesList(ctx, series)
	}

	codes, err := c.Resolve(series)
	if err != nil {
		return nil, err
	}
	var out []SeriesInfo
	for _, code := range codes {
		infos, err := c.seriesList(ctx, code)
		if err != nil {
			return nil, err
		}
		out = append(out, infos...)
	}
	return out, nil
}

// seriesList queries the serieList endpoint with a series or datagroup code.
func (c *Client) seriesList(ctx context.Context, code string) ([]SeriesInfo, error) {
	resp, err := c.do(ctx, &transport.Request{
		Endpoint: transport.EndpointSeriesList,
		Params: []transport.Param{
			{Key: "code", Value: code},
			{Key: "type", Value: "json"},
		},
		APIKey: c.config.apiKey,
	})
	if err != nil {
		return nil, err
	}

	var out []SeriesInfo
	if err := decodeRecords(resp.Body, schema.Series, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckAPIKey verifies the API key against the service. EVDS has no
// dedicated endpoint for this, so the categories endpoint is queried.
func (c *Client) CheckAPIKey(ctx context.Context) error {
	_, err := c.categories(ctx)
	return c.observe(err)
}

// Close releases resources held by the transport.
func (c *Client) Close() error {
	return c.transport.Close()
}

// String describes the client without exposing the API key.
func (c *Client) String() string {
	return fmt.Sprintf("tcmb.Client{transport: %s, key: %s}", c.transport.Name(), security.Redact(c.config.apiKey))
}

func (c *Client) requireKey() error {
	if c.config.apiKey == "" {
		return configError(CodeMissingAPIKey, "set WithAPIKey or "+EnvPrefix+"_API_KEY")
	}
	return nil
}

// do sends a request through the transport, logging and measuring it.
func (c *Client) do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	started := time.Now()
	resp, err := c.transport.Fetch(ctx, req)
	elapsed := time.Since(started)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	} else if err != nil {
		status = StatusCode(err)
	}
	c.metrics.request(req.Endpoint, status, elapsed)

	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = "data"
	}
	attrs := []any{
		slog.String("endpoint", endpoint),
		slog.String("transport", c.transport.Name()),
		slog.Int("status", status),
		slog.Duration("duration", elapsed),
		slog.String("key", security.Fingerprint(req.APIKey)),
	}
	if series, ok := req.Get("series"); ok {
		attrs = append(attrs, slog.String("series", series))
	}

	if err != nil {
		c.logger.DebugContext(ctx, "evds request failed", append(attrs, slog.String("error", err.Error()))...)
		return nil, transportError(err)
	}
	c.logger.DebugContext(ctx, "evds request", attrs...)
	return resp, nil
}

// observe counts a failed operation by error code and returns err.
func (c *Client) observe(err error) error {
	if err == nil {
		return nil
	}
	code := "unknown"
	var e *Error
	if errors.As(err, &e) {
		code = e.Code
	}
	c.metrics.failed(code)
	return err
}

// Read fetches observations with a client configured from the environment
// and the config file. It is a shortcut for New followed by Client.Read.
func Read(ctx context.Context, keys []string, opts ...ReadOption) (*Table, error) {
	client, err := New()
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return client.Read(ctx, keys, opts...)
}
