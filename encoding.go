package tcmb

import (
	"strconv"
	"strings"
)

// FormulaSeparator joins a column name and the formula applied to it in the
// keys of a data response, e.g. TP_DK_USD_S_YTL-1.
const FormulaSeparator = "-"

// ColumnName returns the response key of a series: the code with dots
// replaced by underscores.
func ColumnName(code string) string {
	return strings.ReplaceAll(code, ".", "_")
}

// FormulaColumnName returns the response key of a series transformed by f.
func FormulaColumnName(code string, f Formula) string {
	return ColumnName(code) + FormulaSeparator + strconv.Itoa(int(f))
}

// baseColumn strips the formula suffix, if any, from a response key.
func baseColumn(column string) string {
	if i := strings.Index(column, FormulaSeparator); i >= 0 {
		return column[:i]
	}
	return column
}

// joinCodes renders series codes for the series request parameter.
func joinCodes(codes []string) string {
	return strings.Join(codes, SeriesSeparator)
}

func formatAggregation(a Aggregation) string { return string(a) }

func formatFormula(f Formula) string { return strconv.Itoa(int(f)) }
