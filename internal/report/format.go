package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.BritishEnglish)

// FormatGBP rounds v to whole pounds and groups thousands: "£290,000",
// "-£1,250".
func FormatGBP(v float64) string {
	n := int64(math.Round(v))
	if n < 0 {
		return "-£" + printer.Sprint(number.Decimal(-n))
	}
	return "£" + printer.Sprint(number.Decimal(n))
}

// FormatPercent renders v with one decimal place: "11.4%".
func FormatPercent(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	if s == "-0.0" {
		s = "0.0"
	}
	return s + "%"
}

// FormatRate renders a percentage input without padding zeros, as used in
// row labels: 20 -> "20%", 5.8 -> "5.8%".
func FormatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// OrdinalDate renders a date as "19th October 2026".
func OrdinalDate(t time.Time) string {
	return fmt.Sprintf("%d%s %s %d", t.Day(), ordinalSuffix(t.Day()), t.Month(), t.Year())
}

func ordinalSuffix(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

var filenameReplacer = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
)

// DefaultFilename returns "{address} - Investment Report.pdf" with characters
// that are unsafe in file names removed.
func DefaultFilename(address string) string {
	name := strings.TrimSpace(filenameReplacer.Replace(address))
	if name == "" {
		return "Investment Report.pdf"
	}
	return name + " - Investment Report.pdf"
}

// orNA substitutes "N/A" for blank values.
func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return strings.TrimSpace(s)
}

// withUnit appends a unit to a value unless the value is missing.
func withUnit(s, unit string) string {
	v := orNA(s)
	if v == "N/A" {
		return v
	}
	return v + unit
}
