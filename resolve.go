package tcmb

import (
	"strings"

	"github.com/tcmb/tcmb-go/catalog"
	"github.com/tcmb/tcmb-go/pattern"
)

// SeriesSeparator joins several series codes in one EVDS request.
const SeriesSeparator = "-"

// ResolveSeries expands series keys against cat. Keys without wildcards are
// returned unchanged and are not checked against the catalog. Each wildcard
// key must match at least one code. Results keep input order; duplicates are
// kept.
func ResolveSeries(cat *catalog.Catalog, keys ...string) ([]string, error) {
	if len(keys) == 0 {
		return nil, configError(CodeInvalidArgument, "no series keys given")
	}

	var out []string
	for _, key := range keys {
		for _, part := range strings.Split(key, SeriesSeparator) {
			part = strings.TrimSpace(part)
			if part == "" {
				return nil, configError(CodeInvalidArgument, "empty series key")
			}
			if !pattern.HasWildcard(part) {
				out = append(out, part)
				continue
			}

			codes, err := cat.Match(part)
			if err != nil {
				return nil, &Error{Code: CodeInvalidArgument, Message: "invalid argument", Details: part, Err: err}
			}
			if len(codes) == 0 {
				return nil, noSeriesFound(part)
			}
			out = append(out, codes...)
		}
	}
	return out, nil
}

// Resolve expands series keys against the client's catalog. It never makes a
// request.
func (c *Client) Resolve(keys ...string) ([]string, error) {
	codes, err := ResolveSeries(c.catalog, keys...)
	if err != nil {
		return nil, err
	}
	c.metrics.resolved(len(codes))
	return codes, nil
}
