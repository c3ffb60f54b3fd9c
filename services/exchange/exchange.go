// Package exchange reads TCMB indicative exchange rates.
package exchange

import (
	"context"
	"fmt"
	"strings"

	tcmb "github.com/tcmb/tcmb-go"
	"github.com/tcmb/tcmb-go/catalog"
)

// Side selects the buying or selling rate.
type Side string

// Rate sides, as they appear in series codes.
const (
	Buying  Side = "A"
	Selling Side = "S"
)

// ExchangeClient defines the interface for exchange rate operations.
// Implement this interface for testing with mocks.
type ExchangeClient interface {
	Rate(ctx context.Context, currency string, side Side, opts ...tcmb.ReadOption) (*tcmb.Series, error)
	Effective(ctx context.Context, currency string, side Side, opts ...tcmb.ReadOption) (*tcmb.Series, error)
	Rates(ctx context.Context, side Side, currencies []string, opts ...tcmb.ReadOption) (*tcmb.Table, error)
}

// Client is an exchange rate client.
type Client struct {
	client tcmb.Reader
}

// NewClient creates a new exchange rate client.
func NewClient(r tcmb.Reader) *Client {
	return &Client{client: r}
}

// Ensure Client implements ExchangeClient.
var _ ExchangeClient = (*Client)(nil)

// SeriesCode returns the code of the indicative rate for a currency, e.g.
// TP.DK.USD.S.YTL. Effective (banknote) rates carry an extra EF segment.
func SeriesCode(currency string, side Side, effective bool) (string, error) {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if len(cur) != 3 || strings.Trim(cur, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") != "" {
		return "", &tcmb.Error{Code: tcmb.CodeInvalidArgument, Message: "invalid argument", Details: fmt.Sprintf("currency %q", currency)}
	}
	if side != Buying && side != Selling {
		return "", &tcmb.Error{Code: tcmb.CodeInvalidArgument, Message: "invalid argument", Details: fmt.Sprintf("side %q", side)}
	}
	if effective {
		return "TP.DK." + cur + "." + string(side) + ".EF.YTL", nil
	}
	return "TP.DK." + cur + "." + string(side) + ".YTL", nil
}

// Rate reads the indicative rate of a currency against the lira.
//
// Example:
//
//	usd, err := fx.Rate(ctx, "USD", exchange.Selling, tcmb.WithStart("2024-01-01"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	day, rate, _ := usd.Last()
func (c *Client) Rate(ctx context.Context, currency string, side Side, opts ...tcmb.ReadOption) (*tcmb.Series, error) {
	return c.single(ctx, currency, side, false, opts)
}

// Effective reads the banknote rate of a currency.
func (c *Client) Effective(ctx context.Context, currency string, side Side, opts ...tcmb.ReadOption) (*tcmb.Series, error) {
	return c.single(ctx, currency, side, true, opts)
}

func (c *Client) single(ctx context.Context, currency string, side Side, effective bool, opts []tcmb.ReadOption) (*tcmb.Series, error) {
	code, err := SeriesCode(currency, side, effective)
	if err != nil {
		return nil, err
	}
	table, err := c.client.Read(ctx, []string{code}, opts...)
	if err != nil {
		return nil, err
	}
	s, ok := table.Series(code)
	if !ok {
		return nil, &tcmb.Error{Code: tcmb.CodeNoData, Message: "no data in response", Details: code}
	}
	return s, nil
}

// Rates reads several currencies in one request. Columns follow the order of
// currencies.
func (c *Client) Rates(ctx context.Context, side Side, currencies []string, opts ...tcmb.ReadOption) (*tcmb.Table, error) {
	if len(currencies) == 0 {
		return nil, &tcmb.Error{Code: tcmb.CodeInvalidArgument, Message: "invalid argument", Details: "no currencies given"}
	}
	codes := make([]string, len(currencies))
	for i, cur := range currencies {
		code, err := SeriesCode(cur, side, false)
		if err != nil {
			return nil, err
		}
		codes[i] = code
	}
	return c.client.Read(ctx, codes, opts...)
}

// Currencies lists the currencies with an indicative rate in cat, in catalog
// order.
func Currencies(cat *catalog.Catalog) ([]string, error) {
	codes, err := cat.Match("TP.DK.*.A.YTL")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		out = append(out, strings.Split(code, ".")[2])
	}
	return out, nil
}
