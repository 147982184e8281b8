package output

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatHeader returns a markdown header of the given level.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown list item "- **key**: value".
func FormatKeyValue(key, value string) string {
	return "- **" + key + "**: " + value
}

// FormatCodeBlock wraps content in a fenced code block.
func FormatCodeBlock(lang, content string) string {
	return "```" + lang + "\n" + strings.TrimRight(content, "\n") + "\n```"
}

// FormatMoney formats v as whole dollars with thousands separators.
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return printer.Sprint(v)
	}
	if v < 0 {
		return "-$" + printer.Sprintf("%.0f", -v)
	}
	return "$" + printer.Sprintf("%.0f", v)
}

// FormatMoneyCents formats v as dollars and cents with thousands separators.
func FormatMoneyCents(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return printer.Sprint(v)
	}
	if v < 0 {
		return "-$" + printer.Sprintf("%.2f", -v)
	}
	return "$" + printer.Sprintf("%.2f", v)
}

// FormatNumber formats v with thousands separators and the given decimals.
func FormatNumber(v float64, decimals int) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return printer.Sprintf("%."+strconv.Itoa(decimals)+"f", v)
}

// FormatCount formats an integer with thousands separators.
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}
