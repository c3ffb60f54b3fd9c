// Package tcmb provides a Go client for EVDS, the electronic data delivery
// system of the Central Bank of the Republic of Türkiye (TCMB).
//
// EVDS publishes thousands of statistical time series (exchange rates,
// interest rates, price indices) grouped into categories and datagroups.
// The client turns series keys into authenticated requests and shapes the
// JSON answers into time-indexed tables.
//
// # Quick Start
//
//	client, err := tcmb.New(tcmb.WithAPIKey("your-api-key"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	table, err := client.Read(ctx, []string{"TP.DK.USD.S.YTL"},
//	    tcmb.WithStart("2023-01-01"),
//	    tcmb.WithEnd("2023-01-31"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	usd, _ := table.Series("TP.DK.USD.S.YTL")
//	fmt.Println(usd.Last())
//
// # Wildcards
//
// Series keys may contain wildcards. They are expanded against a catalog
// bundled with the package before the request is sent, so a single call can
// read a whole family of series:
//
//	// every USD rate except the effective (EF) ones
//	table, err := client.Read(ctx, []string{"TP.DK.USD.*.YTL"})
//
// In a dotted key "*" and "?" match within one segment, an empty segment
// matches any segment and a "**" segment spans several. A "*" at the end of
// a key also spans the segments after it, so "TP.DK.USD.*" covers the EF
// rates too. A key without dots is matched against the whole code. Keys
// without wildcards are sent as given.
//
// # Configuration
//
// The API key is read from WithAPIKey, then the TCMB_API_KEY environment
// variable, then a tcmb.yaml file in the working directory or
// $HOME/.config/tcmb:
//
//	api_key: your-api-key
//	timeout: 10s
//
// # Error Handling
//
// Errors are typed and can be checked with errors.Is:
//
//	_, err := client.Read(ctx, []string{"ZZZ.*"})
//	if errors.Is(err, tcmb.ErrNoSeriesFound) {
//	    // The pattern matched nothing in the catalog
//	}
//	if tcmb.IsTransportError(err) {
//	    log.Printf("EVDS answered %d", tcmb.StatusCode(err))
//	}
//
// Configuration errors (missing key, malformed dates) are returned before any
// request is made.
//
// # Thread Safety
//
// The Client is safe for concurrent use from multiple goroutines.
package tcmb
