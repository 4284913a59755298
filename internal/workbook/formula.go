package workbook

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/efp"
)

// rowRefPattern splits a single cell or row reference such as B7, $B$7 or 7.
var rowRefPattern = regexp.MustCompile(`^(\$?[A-Za-z]{0,3})(\$?)([0-9]+)$`)

// plainSheetPattern matches sheet names usable in a reference without quotes.
var plainSheetPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// shiftFormulaRows moves every relative row reference in formula by delta.
// Absolute rows, whole-column references, defined names and text are kept.
func shiftFormulaRows(formula string, delta int) string {
	if delta == 0 || strings.TrimSpace(formula) == "" {
		return formula
	}

	var b strings.Builder
	ps := efp.ExcelParser()
	for _, token := range ps.Parse(formula) {
		switch {
		case token.TType == efp.TokenTypeUnknown:
			return formula
		case token.TType == efp.TokenTypeOperand && token.TSubType == efp.TokenSubTypeRange:
			b.WriteString(shiftRangeRows(token.TValue, delta))
		case token.TType == efp.TokenTypeOperand && token.TSubType == efp.TokenSubTypeText:
			b.WriteRune(efp.QuoteDouble)
			b.WriteString(strings.ReplaceAll(token.TValue, `"`, `""`))
			b.WriteRune(efp.QuoteDouble)
		case token.TSubType == efp.TokenSubTypeStart &&
			(token.TType == efp.TokenTypeFunction || token.TType == efp.TokenTypeSubexpression):
			b.WriteString(token.TValue)
			b.WriteRune(efp.ParenOpen)
		case token.TSubType == efp.TokenSubTypeStop &&
			(token.TType == efp.TokenTypeFunction || token.TType == efp.TokenTypeSubexpression):
			b.WriteRune(efp.ParenClose)
		case token.TType == efp.TokenTypeOperatorInfix && token.TSubType == efp.TokenSubTypeIntersection:
			b.WriteRune(' ')
		default:
			b.WriteString(token.TValue)
		}
	}
	return b.String()
}

// shiftRangeRows shifts one range operand, which may carry a sheet prefix.
func shiftRangeRows(operand string, delta int) string {
	if strings.ContainsAny(operand, "[]") {
		return operand
	}
	prefix, ref := "", operand
	if i := strings.LastIndex(operand, "!"); i >= 0 {
		prefix, ref = sheetPrefix(operand[:i]), operand[i+1:]
	}

	parts := strings.Split(ref, ":")
	for i, part := range parts {
		m := rowRefPattern.FindStringSubmatch(part)
		if m == nil || m[2] == "$" {
			continue
		}
		row, err := strconv.Atoi(m[3])
		if err != nil || row+delta < 1 {
			continue
		}
		parts[i] = m[1] + strconv.Itoa(row+delta)
	}
	return prefix + strings.Join(parts, ":")
}

// sheetPrefix renders a sheet qualifier. The tokenizer strips the quotes
// around names such as 'My Sheet', so they are added back here.
func sheetPrefix(name string) string {
	if plainSheetPattern.MatchString(name) {
		return name + "!"
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'!"
}
