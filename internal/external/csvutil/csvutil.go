// Package csvutil holds the parsing quirks shared by the TWSE and TPEx CSV reports.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/traditionalchinese"
)

// DecodeBig5 converts a Big5/CP950 body to UTF-8. Undecodable bytes are replaced.
func DecodeBig5(body []byte) string {
	out, err := traditionalchinese.Big5.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(out)
}

// Records splits a report into CSV rows line by line.
// Reports mix preambles, notes and data; a broken line is skipped, not fatal.
func Records(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		r := csv.NewReader(strings.NewReader(line))
		r.LazyQuotes = true
		r.FieldsPerRecord = -1
		row, err := r.Read()
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

var cleaner = strings.NewReplacer(
	"=", "",
	"\"", "",
	",", "",
	" ", "",
	"\t", "",
	"&nbsp;", "",
	"\u00a0", "",
	"⊕", "",
	"⊙", "",
)

// Clean strips the ="..." quoting, thousands separators, blanks and footnote markers
func Clean(s string) string {
	return strings.TrimSpace(cleaner.Replace(s))
}

var securityID = regexp.MustCompile(`^\d+[A-Z]?$`)

// IsSecurityID reports whether id names a stock or ETF worth tracking.
// Warrants (5+ digit ids starting with 7) are excluded; ids with a leading zero
// are only kept for the 00/01/02 ETF and ETN ranges.
func IsSecurityID(id string) bool {
	if !securityID.MatchString(id) {
		return false
	}
	if len(id) > 4 && strings.HasPrefix(id, "7") {
		return false
	}
	if !strings.HasPrefix(id, "0") {
		return true
	}
	return strings.HasPrefix(id, "00") || strings.HasPrefix(id, "01") || strings.HasPrefix(id, "02")
}

var rocDate = regexp.MustCompile(`^(\d+)[./-](\d+)[./-](\d+)$`)

// ParseROCDate parses a Minguo calendar date such as "113/01/02" (year + 1911)
func ParseROCDate(s string) (time.Time, error) {
	m := rocDate.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, fmt.Errorf("%q is not a ROC date", s)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%q is not a ROC date", s)
	}

	d := time.Date(year+1911, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day {
		return time.Time{}, fmt.Errorf("%q is not a valid date", s)
	}
	return d, nil
}
