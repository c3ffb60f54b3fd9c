package tcmb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tcmb/tcmb-go/internal/schema"
)

// Fields of an observation record that are not series values.
const (
	fieldDate     = "Tarih"
	fieldUnixTime = "UNIXTIME"
)

// errorPageMarker appears in the HTML page EVDS serves with status 200 when a
// series code does not exist.
var errorPageMarker = []byte("error-title")

func isErrorPage(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return false
	}
	return bytes.Contains(trimmed, errorPageMarker)
}

// decodeDocument parses a JSON body. HTML error pages are reported as an
// invalid series code.
func decodeDocument(body []byte) (any, error) {
	if isErrorPage(body) {
		return nil, &Error{Code: CodeInvalidSeriesCode, Message: "invalid series code", Details: "service returned an error page"}
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, invalidResponse("malformed JSON", err)
	}
	return doc, nil
}

// decodeObservations shapes a data response into a Table. codes are the
// requested series and fix the column order; columns the service adds (for
// example formula results) follow the column of their series.
func decodeObservations(body []byte, codes []string, decimalSep string) (*Table, error) {
	doc, err := decodeDocument(body)
	if err != nil {
		return nil, err
	}
	if err := schema.Check(doc, schema.Observations); err != nil {
		return nil, invalidResponse("observations", err)
	}

	rawItems := doc.(map[string]any)["items"].([]any)
	if len(rawItems) == 0 {
		return nil, &Error{Code: CodeNoData, Message: "no data in response", Details: strings.Join(codes, SeriesSeparator)}
	}

	items := make([]map[string]any, len(rawItems))
	for i, it := range rawItems {
		items[i] = it.(map[string]any)
	}

	table := newTable(observationColumns(items, codes))
	row := make([]float64, len(table.Columns))
	for i, item := range items {
		date, err := parseObservationDate(item[fieldDate].(string))
		if err != nil {
			return nil, invalidResponse(fmt.Sprintf("item %d", i), err)
		}

		missing := 0
		for j, col := range table.Columns {
			v, err := parseValue(item[col], decimalSep)
			if err != nil {
				return nil, invalidResponse(fmt.Sprintf("item %d: %s", i, col), err)
			}
			row[j] = v
			if math.IsNaN(v) {
				missing++
			}
		}
		if missing == len(row) {
			continue
		}
		table.appendRow(date, row)
	}
	return table, nil
}

// observationColumns lists the value columns present in items, ordered by
// the requested series.
func observationColumns(items []map[string]any, codes []string) []string {
	present := make(map[string]bool)
	for _, item := range items {
		for k := range item {
			if k != fieldDate && k != fieldUnixTime {
				present[k] = true
			}
		}
	}

	all := make([]string, 0, len(present))
	for k := range present {
		all = append(all, k)
	}
	sort.Strings(all)

	columns := make([]string, 0, len(all))
	taken := make(map[string]bool, len(all))
	for _, code := range codes {
		name := ColumnName(code)
		for _, k := range all {
			if taken[k] {
				continue
			}
			if baseColumn(k) == name {
				columns = append(columns, k)
				taken[k] = true
			}
		}
	}
	for _, k := range all {
		if !taken[k] {
			columns = append(columns, k)
		}
	}
	return columns
}

// parseValue converts an observation to float64. Null, absent and empty
// values are NaN.
func parseValue(v any, decimalSep string) (float64, error) {
	switch x := v.(type) {
	case nil:
		return math.NaN(), nil
	case json.Number:
		return x.Float64()
	case float64:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "nan") {
			return math.NaN(), nil
		}
		if decimalSep != "" && decimalSep != "." {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, decimalSep, ".")
		}
		return strconv.ParseFloat(s, 64)
	}
	return 0, fmt.Errorf("unexpected value type %T", v)
}

// decodeRecords validates and decodes a metadata response. The service
// answers some queries with a single object instead of an array; both are
// accepted.
func decodeRecords(body []byte, schemaName string, dst any) error {
	doc, err := decodeDocument(body)
	if err != nil {
		return err
	}

	var items []any
	switch d := doc.(type) {
	case []any:
		items = d
	case map[string]any:
		items = []any{d}
	case nil:
		items = []any{}
	default:
		return invalidResponse(fmt.Sprintf("%s: expected object or array, got %T", schemaName, doc), nil)
	}

	if err := schema.CheckEach(items, schemaName); err != nil {
		return invalidResponse(schemaName, err)
	}

	normalized, err := json.Marshal(items)
	if err != nil {
		return invalidResponse(schemaName, err)
	}
	if err := json.Unmarshal(normalized, dst); err != nil {
		return invalidResponse(schemaName, err)
	}
	return nil
}
