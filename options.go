package tcmb

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tcmb/tcmb-go/catalog"
	"github.com/tcmb/tcmb-go/transport"
)

const defaultTimeout = 30 * time.Second

// Option configures a Client.
type Option func(*clientConfig)

// clientConfig holds client configuration.
type clientConfig struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	userAgent  string
	configFile string
	transport  transport.Transport
	httpClient *http.Client
	logger     *slog.Logger
	registerer prometheus.Registerer
	catalog    *catalog.Catalog
	now        func() time.Time

	// set by WithBaseURL and WithTimeout; such values beat settings.
	baseURLSet bool
	timeoutSet bool
}

// defaultConfig returns the default client configuration.
func defaultConfig() *clientConfig {
	return &clientConfig{
		baseURL:   transport.DefaultBaseURL,
		timeout:   defaultTimeout,
		userAgent: "tcmb-go/" + Version,
		now:       time.Now,
	}
}

// WithAPIKey sets the EVDS API key. It takes precedence over the
// TCMB_API_KEY environment variable and the config file.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithBaseURL sets the service root URL (default: "https://evds2.tcmb.gov.tr/service/evds").
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
		c.baseURLSet = true
	}
}

// WithTimeout sets the request timeout (default: 30s).
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
		c.timeoutSet = true
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithHTTPClient sets a custom HTTP client for the default transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTransport replaces the HTTP transport. Base URL, timeout and HTTP
// client options are ignored when a transport is given.
func WithTransport(t transport.Transport) Option {
	return func(c *clientConfig) {
		c.transport = t
	}
}

// WithLogger sets the logger. Requests are logged at debug level. Nothing is
// logged by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithMetrics registers client metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *clientConfig) {
		c.registerer = reg
	}
}

// WithCatalog sets the catalog used for wildcard resolution (default: the
// bundled catalog).
func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *clientConfig) {
		c.catalog = cat
	}
}

// WithConfigFile reads settings from the given YAML file instead of
// searching for tcmb.yaml.
func WithConfigFile(path string) Option {
	return func(c *clientConfig) {
		c.configFile = path
	}
}

// withClock overrides the clock used for the default end date.
func withClock(now func() time.Time) Option {
	return func(c *clientConfig) {
		c.now = now
	}
}

// ReadOption configures a single Read call.
type ReadOption func(*readConfig)

// readConfig holds per-read configuration.
type readConfig struct {
	start        string
	end          string
	startTime    time.Time
	endTime      time.Time
	aggregations []Aggregation
	formulas     []Formula
	frequency    Frequency
	decimalSep   string
	header       http.Header
	metadata     bool
}

// WithStart sets the first observation date, as YYYY-MM-DD or DD-MM-YYYY.
func WithStart(date string) ReadOption {
	return func(c *readConfig) {
		c.start = date
	}
}

// WithEnd sets the last observation date, as YYYY-MM-DD or DD-MM-YYYY.
// Defaults to today.
func WithEnd(date string) ReadOption {
	return func(c *readConfig) {
		c.end = date
	}
}

// WithStartTime is WithStart for a time.Time.
func WithStartTime(t time.Time) ReadOption {
	return func(c *readConfig) {
		c.start = ""
		c.startTime = t
	}
}

// WithEndTime is WithEnd for a time.Time.
func WithEndTime(t time.Time) ReadOption {
	return func(c *readConfig) {
		c.end = ""
		c.endTime = t
	}
}

// WithAggregation sets the aggregation method used when the series are
// converted to a lower frequency. Give one value for all series or one per
// resolved series.
func WithAggregation(aggs ...Aggregation) ReadOption {
	return func(c *readConfig) {
		c.aggregations = aggs
	}
}

// WithFormula applies a transformation to the series. Give one value for all
// series or one per resolved series.
func WithFormula(fs ...Formula) ReadOption {
	return func(c *readConfig) {
		c.formulas = fs
	}
}

// WithFrequency converts the series to the given frequency.
func WithFrequency(f Frequency) ReadOption {
	return func(c *readConfig) {
		c.frequency = f
	}
}

// WithDecimalSeparator sets the decimal separator the service uses for
// values (default: ".").
func WithDecimalSeparator(sep string) ReadOption {
	return func(c *readConfig) {
		c.decimalSep = sep
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) ReadOption {
	return func(c *readConfig) {
		if c.header == nil {
			c.header = make(http.Header)
		}
		c.header.Add(key, value)
	}
}

// WithMetadata attaches the metadata of every resolved series to the result.
// This costs one extra request per series.
func WithMetadata() ReadOption {
	return func(c *readConfig) {
		c.metadata = true
	}
}
