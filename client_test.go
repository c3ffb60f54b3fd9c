package tcmb

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmb/tcmb-go/transport"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

// isolateEnv keeps the developer's environment and config files out of a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TCMB_API_KEY", "")
	t.Setenv("TCMB_BASE_URL", "")
	t.Setenv("TCMB_TIMEOUT", "")
}

// recorder is a stub transport that answers every request with the same body.
type recorder struct {
	body     string
	err      error
	requests []*transport.Request
}

func (r *recorder) fetch(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return &transport.Response{StatusCode: http.StatusOK, Body: []byte(r.body)}, nil
}

func newTestClient(t *testing.T, fetch transport.Func, opts ...Option) *Client {
	t.Helper()
	isolateEnv(t)
	if fetch == nil {
		fetch = func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			t.Errorf("unexpected request to %q", req.Endpoint)
			return nil, errors.New("unexpected request")
		}
	}
	base := []Option{
		WithAPIKey("test-key"),
		WithTransport(fetch),
		withClock(func() time.Time { return fixedNow }),
	}
	client, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return client
}

const usdBody = `{
	"totalCount": 3,
	"items": [
		{"Tarih": "25-01-2023", "TP_DK_USD_A_YTL": "18.7920", "TP_DK_USD_S_YTL": "18.8259", "UNIXTIME": {"$numberLong": "1674594000"}},
		{"Tarih": "26-01-2023", "TP_DK_USD_A_YTL": null, "TP_DK_USD_S_YTL": null, "UNIXTIME": {"$numberLong": "1674680400"}},
		{"Tarih": "27-01-2023", "TP_DK_USD_A_YTL": 18.8010, "TP_DK_USD_S_YTL": "", "UNIXTIME": {"$numberLong": "1674766800"}}
	]
}`

func TestReadSingleRequest(t *testing.T) {
	rec := &recorder{body: usdBody}
	client := newTestClient(t, rec.fetch)

	table, err := client.Read(context.Background(), []string{"TP.DK.USD.?.YTL"},
		WithStart("2023-01-25"),
		WithEnd("27-01-2023"),
	)
	require.NoError(t, err)
	require.Len(t, rec.requests, 1)

	req := rec.requests[0]
	assert.Equal(t, transport.EndpointData, req.Endpoint)
	assert.Equal(t, "test-key", req.APIKey)
	assert.Equal(t,
		"series=TP.DK.USD.A.YTL-TP.DK.USD.S.YTL&startDate=25-01-2023&endDate=27-01-2023&type=json&decimalSeperator=.",
		req.Query())

	assert.Equal(t, []string{"TP_DK_USD_A_YTL", "TP_DK_USD_S_YTL"}, table.Columns)
	require.Equal(t, 2, table.Len(), "all-missing row dropped")
	assert.Equal(t, time.Date(2023, 1, 25, 0, 0, 0, 0, time.UTC), table.Dates[0])
	assert.Equal(t, time.Date(2023, 1, 27, 0, 0, 0, 0, time.UTC), table.Dates[1])

	usd, ok := table.Column("TP.DK.USD.A.YTL")
	require.True(t, ok)
	assert.Equal(t, []float64{18.7920, 18.8010}, usd)

	sell, ok := table.Series("TP_DK_USD_S_YTL")
	require.True(t, ok)
	assert.Equal(t, 18.8259, sell.Values[0])
	assert.True(t, math.IsNaN(sell.Values[1]))
}

func TestReadDefaultsDates(t *testing.T) {
	rec := &recorder{body: usdBody}
	client := newTestClient(t, rec.fetch)

	_, err := client.Read(context.Background(), []string{"TP.DK.USD.A.YTL"})
	require.NoError(t, err)
	require.Len(t, rec.requests, 1)

	start, _ := rec.requests[0].Get("startDate")
	end, _ := rec.requests[0].Get("endDate")
	assert.Equal(t, "01-01-1970", start)
	assert.Equal(t, "15-03-2024", end)
}

func TestReadParameters(t *testing.T) {
	rec := &recorder{body: usdBody}
	client := newTestClient(t, rec.fetch)

	_, err := client.Read(context.Background(), []string{"TP.DK.USD.A.YTL", "TP.DK.USD.S.YTL"},
		WithStartTime(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
		WithEndTime(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)),
		WithAggregation(Average, Last),
		WithFormula(PercentChange),
		WithFrequency(Monthly),
		WithDecimalSeparator("."),
		WithHeader("X-Trace", "abc"),
	)
	require.NoError(t, err)

	req := rec.requests[0]
	assert.Equal(t,
		"series=TP.DK.USD.A.YTL-TP.DK.USD.S.YTL&startDate=01-01-2023&endDate=31-12-2023&type=json"+
			"&aggregationTypes=avg-last&formulas=1-1&frequency=5&decimalSeperator=.",
		req.Query())
	assert.Equal(t, "abc", req.Header.Get("X-Trace"))
}

func TestReadRejectsBeforeAnyRequest(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		opts []ReadOption
		want error
	}{
		{"malformed start", []string{"A.1"}, []ReadOption{WithStart("2023/01/25")}, ErrInvalidDate},
		{"malformed end", []string{"A.1"}, []ReadOption{WithEnd("31-02-2023")}, ErrInvalidDate},
		{"no keys", nil, nil, ErrInvalidArgument},
		{"unmatched wildcard", []string{"ZZZ.*"}, nil, ErrNoSeriesFound},
		{"bad aggregation", []string{"A.1"}, []ReadOption{WithAggregation("median")}, ErrInvalidArgument},
		{"aggregation count", []string{"A.1", "A.2", "A.3"}, []ReadOption{WithAggregation(Average, Sum)}, ErrInvalidArgument},
		{"bad formula", []string{"A.1"}, []ReadOption{WithFormula(Formula(9))}, ErrInvalidArgument},
		{"bad frequency", []string{"A.1"}, []ReadOption{WithFrequency(Frequency(4))}, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{body: usdBody}
			client := newTestClient(t, rec.fetch)

			_, err := client.Read(context.Background(), tt.keys, tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, rec.requests, "no request may be sent")
		})
	}
}

func TestMissingAPIKey(t *testing.T) {
	rec := &recorder{body: `[]`}
	isolateEnv(t)
	client, err := New(WithTransport(transport.Func(rec.fetch)))
	require.NoError(t, err, "a client without a key can still be built")

	codes, err := client.Resolve("TP.DK.EUR.*.YTL")
	require.NoError(t, err)
	assert.Len(t, codes, 2)

	ctx := context.Background()
	_, err = client.Read(ctx, []string{"TP.DK.USD.A.YTL"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.True(t, IsConfigError(err))

	_, err = client.CategoriesMetadata(ctx)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	_, err = client.DatagroupsMetadata(ctx, AllDatagroups())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	_, err = client.SeriesMetadata(ctx, "TP.DK.USD.A.YTL", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.ErrorIs(t, client.CheckAPIKey(ctx), ErrMissingAPIKey)

	assert.Empty(t, rec.requests)
}

func TestAPIKeyPrecedence(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "tcmb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: from-file\ntimeout: 5s\n"), 0o600))

	client, err := New(WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, "from-file", client.config.apiKey)
	assert.Equal(t, 5*time.Second, client.config.timeout)

	t.Setenv("TCMB_API_KEY", "from-env")
	client, err = New(WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, "from-env", client.config.apiKey)

	client, err = New(WithConfigFile(path), WithAPIKey("explicit"))
	require.NoError(t, err)
	assert.Equal(t, "explicit", client.config.apiKey)
	assert.Equal(t, "tcmb.Client{transport: http, key: ****icit}", client.String())
}

func TestExplicitOptionsBeatEnvironment(t *testing.T) {
	isolateEnv(t)
	t.Setenv("TCMB_BASE_URL", "https://env.example.test/evds")
	t.Setenv("TCMB_TIMEOUT", "5s")

	client, err := New()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.test/evds", client.config.baseURL)
	assert.Equal(t, 5*time.Second, client.config.timeout)

	client, err = New(WithBaseURL(transport.DefaultBaseURL), WithTimeout(defaultTimeout))
	require.NoError(t, err)
	assert.Equal(t, transport.DefaultBaseURL, client.config.baseURL)
	assert.Equal(t, defaultTimeout, client.config.timeout)
}

func TestConfigFileSearch(t *testing.T) {
	isolateEnv(t)
	home := os.Getenv("HOME")
	dir := filepath.Join(home, ".config", "tcmb")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tcmb.yaml"), []byte("api_key: from-home\n"), 0o600))

	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, "from-home", s.APIKey)

	_, err = LoadSettings(filepath.Join(home, "missing.yaml"))
	assert.Error(t, err)
}

func TestNewValidatesConfig(t *testing.T) {
	isolateEnv(t)

	_, err := New(WithTimeout(-time.Second))
	assert.Error(t, err)

	_, err = New(WithBaseURL("ftp://example.test"))
	assert.Error(t, err)

	assert.Panics(t, func() { MustNew(WithBaseURL("")) })
}

func TestReadHTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html><body>Invalid key</body></html>"))
	}))
	defer server.Close()

	isolateEnv(t)
	client, err := New(WithAPIKey("bad"), WithBaseURL(server.URL))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Read(context.Background(), []string{"TP.DK.USD.A.YTL"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTTPStatus)
	assert.True(t, IsTransportError(err))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.Contains(t, err.Error(), "Invalid key")

	var se *transport.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Invalid key", se.Detail)
}

func TestReadOverHTTP(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("key")
		_, _ = w.Write([]byte(usdBody))
	}))
	defer server.Close()

	isolateEnv(t)
	client, err := New(WithAPIKey("secret"), WithBaseURL(server.URL), withClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	table, err := client.Read(context.Background(), []string{"TP.DK.USD.A.YTL-TP.DK.USD.S.YTL"}, WithStart("25.01.2023"))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "/series=TP.DK.USD.A.YTL-TP.DK.USD.S.YTL&startDate=25-01-2023&endDate=15-03-2024&type=json&decimalSeperator=.", gotPath)
	assert.Equal(t, "secret", gotKey)
}

func TestReadInvalidSeriesCode(t *testing.T) {
	rec := &recorder{body: `<!DOCTYPE html><html><body><div class="error-title">Hata</div></body></html>`}
	client := newTestClient(t, rec.fetch)

	_, err := client.Read(context.Background(), []string{"TP.NOPE"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSeriesCode)
	assert.True(t, IsTransportError(err))
}

func TestReadRequestFailure(t *testing.T) {
	rec := &recorder{err: context.DeadlineExceeded}
	client := newTestClient(t, rec.fetch)

	_, err := client.Read(context.Background(), []string{"TP.DK.USD.A.YTL"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReadWithMetadata(t *testing.T) {
	var requests []*transport.Request
	fetch := func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		requests = append(requests, req)
		body := usdBody
		if req.Endpoint == transport.EndpointSeriesList {
			code, _ := req.Get("code")
			body = `{"SERIE_CODE": "` + code + `", "DATAGROUP_CODE": "bie_dkdovytl", "SERIE_NAME_ENG": "USD"}`
		}
		return &transport.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
	}
	client := newTestClient(t, fetch)

	table, err := client.Read(context.Background(), []string{"TP.DK.USD.A.YTL", "TP.DK.USD.S.YTL", "TP.DK.USD.A.YTL"}, WithMetadata())
	require.NoError(t, err)
	require.Len(t, requests, 3, "one data request plus one per distinct series")
	require.Len(t, table.Metadata, 2)
	assert.Equal(t, "TP.DK.USD.S.YTL", table.Metadata["TP.DK.USD.S.YTL"][0].Code)
}

func TestCategoriesMetadata(t *testing.T) {
	rec := &recorder{body: `[{"CATEGORY_ID": 1, "TOPIC_TITLE_TR": "PİYASA VERİLERİ", "TOPIC_TITLE_ENG": "MARKET STATISTICS"}, {"CATEGORY_ID": "2", "TOPIC_TITLE_ENG": "EXCHANGE RATES"}]`}
	client := newTestClient(t, rec.fetch)

	categories, err := client.CategoriesMetadata(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "MARKET STATISTICS", categories[0].Title)
	assert.EqualValues(t, 2, categories[1].ID)
	assert.Equal(t, transport.EndpointCategories, rec.requests[0].Endpoint)
	assert.Equal(t, "type=json", rec.requests[0].Query())

	require.NoError(t, client.CheckAPIKey(context.Background()))
}

func TestCategoriesMetadataRejectsBadShape(t *testing.T) {
	rec := &recorder{body: `[{"TOPIC_TITLE_ENG": "no id"}]`}
	client := newTestClient(t, rec.fetch)

	_, err := client.CategoriesMetadata(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestDatagroupsMetadata(t *testing.T) {
	rec := &recorder{body: `[{"DATAGROUP_CODE": "bie_dkdovytl", "CATEGORY_ID": 2, "FREQUENCY": "1"}]`}
	client := newTestClient(t, rec.fetch)
	ctx := context.Background()

	groups, err := client.DatagroupsMetadata(ctx, DatagroupsOfCategory(2))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "bie_dkdovytl", groups[0].Code)
	assert.EqualValues(t, 1, groups[0].Frequency)
	assert.Equal(t, "mode=2&code=2&type=json", rec.requests[0].Query())

	_, err = client.DatagroupsMetadata(ctx, DatagroupByCode("bie_dkdovytl"))
	require.NoError(t, err)
	assert.Equal(t, "mode=1&code=bie_dkdovytl&type=json", rec.requests[1].Query())

	_, err = client.DatagroupsMetadata(ctx, AllDatagroups())
	require.NoError(t, err)
	assert.Equal(t, "mode=0&type=json", rec.requests[2].Query())

	_, err = client.DatagroupsMetadata(ctx, DatagroupQuery{Mode: DatagroupModeGroup})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = client.DatagroupsMetadata(ctx, DatagroupQuery{Mode: 7, Code: "x"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Len(t, rec.requests, 3)

	rec.body = `[]`
	_, err = client.DatagroupsMetadata(ctx, AllDatagroups())
	assert.ErrorIs(t, err, ErrNoData)
	assert.True(t, IsResolutionError(err))
}

func TestSeriesMetadataObjectOrArray(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"object", `{"SERIE_CODE": "TP.DK.USD.A.YTL", "DATAGROUP_CODE": "bie_dkdovytl"}`, 1},
		{"array", `[{"SERIE_CODE": "TP.DK.USD.A.YTL"}, {"SERIE_CODE": "TP.DK.USD.S.YTL"}]`, 2},
		{"empty", `[]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{body: tt.body}
			client := newTestClient(t, rec.fetch)

			infos, err := client.SeriesMetadata(context.Background(), "", "bie_dkdovytl")
			require.NoError(t, err)
			assert.Len(t, infos, tt.want)
			assert.Equal(t, "code=bie_dkdovytl&type=json", rec.requests[0].Query())
		})
	}
}

func TestSeriesMetadataWildcard(t *testing.T) {
	rec := &recorder{body: `{"SERIE_CODE": "X"}`}
	client := newTestClient(t, rec.fetch)

	infos, err := client.SeriesMetadata(context.Background(), "TP.DK.GBP.*.YTL", "")
	require.NoError(t, err)
	assert.Len(t, infos, 2)
	require.Len(t, rec.requests, 2)
	code, _ := rec.requests[1].Get("code")
	assert.Equal(t, "TP.DK.GBP.S.YTL", code)

	_, err = client.SeriesMetadata(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := &recorder{body: usdBody}
	client := newTestClient(t, rec.fetch, WithMetrics(reg))

	_, err := client.Read(context.Background(), []string{"TP.DK.USD.*.YTL"})
	require.NoError(t, err)
	_, err = client.Read(context.Background(), []string{"ZZZ.*"})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(client.metrics.requestsTotal.WithLabelValues("data", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(client.metrics.resolvedSeries))
	assert.Equal(t, 1.0, testutil.ToFloat64(client.metrics.errorsTotal.WithLabelValues(CodeNoSeriesFound)))
	assert.Equal(t, 1, testutil.CollectAndCount(client.metrics.requestDuration))
}

func TestLoggingHidesKey(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rec := &recorder{body: usdBody}
	client := newTestClient(t, rec.fetch, WithLogger(logger))

	_, err := client.Read(context.Background(), []string{"TP.DK.USD.A.YTL"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "evds request")
	assert.Contains(t, out, "endpoint=data")
	assert.Contains(t, out, "key=b2:")
	assert.False(t, strings.Contains(out, "test-key"), "raw key must not be logged")
}

func TestPackageRead(t *testing.T) {
	isolateEnv(t)
	_, err := Read(context.Background(), []string{"TP.DK.USD.A.YTL"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
