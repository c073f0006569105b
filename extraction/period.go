package extraction

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnparseablePeriod is returned when an extracted period string does not
// belong to any recognized format.
var ErrUnparseablePeriod = errors.New("extraction: unparseable period")

// monthNames matches Portuguese month names and their 3-letter abbreviations.
const monthNames = `jan(?:eiro)?|fev(?:ereiro)?|mar(?:[çc]o)?|abr(?:il)?|maio?|jun(?:ho)?|jul(?:ho)?|ago(?:sto)?|set(?:embro)?|out(?:ubro)?|nov(?:embro)?|dez(?:embro)?`

var (
	reMonthSlashYear   = regexp.MustCompile(`(?i)\b(` + monthNames + `)\s*/\s*(\d{4})\b`)
	reNumericMonthYear = regexp.MustCompile(`\b(0?[1-9]|1[0-2])\s*/\s*(\d{4})\b`)
	reMonthDashYear    = regexp.MustCompile(`(?i)\b(` + monthNames + `)\s*-\s*(\d{4})\b`)
	reMonthDeYear      = regexp.MustCompile(`(?i)\b(` + monthNames + `)\s+de\s+(\d{4})\b`)
	reBareYear         = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	reMonthToken       = regexp.MustCompile(`(?i)\b(` + monthNames + `)\b`)
	reWholeYear        = regexp.MustCompile(`^(?:19|20)\d{2}$`)
)

var monthByPrefix = map[string]int{
	"jan": 1, "fev": 2, "mar": 3, "abr": 4, "mai": 5, "jun": 6,
	"jul": 7, "ago": 8, "set": 9, "out": 10, "nov": 11, "dez": 12,
}

func monthFromToken(token string) int {
	token = strings.ToLower(token)
	if len(token) < 3 {
		return 0
	}
	return monthByPrefix[token[:3]]
}

// ExtractPeriod searches for the reporting period. With an approximate-line
// hint the order is: exactly that line, then a window of two lines before
// through two after. Only when no hint is configured is every line searched.
// The first satisfying line wins; there is no exhaustive scan past a hit.
func ExtractPeriod(lines []string, field PeriodField) (string, bool) {
	if field.ApproximateLine > 0 {
		idx := field.ApproximateLine - 1
		if idx < len(lines) {
			if v, ok := periodFromLine(lines[idx]); ok {
				return v, true
			}
		}
		for _, off := range []int{-2, -1, 1, 2} {
			j := idx + off
			if j < 0 || j >= len(lines) {
				continue
			}
			if v, ok := periodFromLine(lines[j]); ok {
				return v, true
			}
		}
		return "", false
	}

	for _, line := range lines {
		if v, ok := periodFromLine(line); ok {
			return v, true
		}
	}
	return "", false
}

// periodFromLine tries the period formats in order within a single line:
// month-name/year, numeric MM/YYYY, month-name-year, "month-name de year",
// bare year. A bare year triggers a re-scan of the same line for a month
// token, combined as MM/YYYY; a lone year is returned as-is.
func periodFromLine(line string) (string, bool) {
	if m := reMonthSlashYear.FindString(line); m != "" {
		return m, true
	}
	if m := reNumericMonthYear.FindString(line); m != "" {
		return m, true
	}
	if m := reMonthDashYear.FindString(line); m != "" {
		return m, true
	}
	if m := reMonthDeYear.FindString(line); m != "" {
		return m, true
	}
	if year := reBareYear.FindString(line); year != "" {
		if tok := reMonthToken.FindString(line); tok != "" {
			if month := monthFromToken(tok); month > 0 {
				return fmt.Sprintf("%02d/%s", month, year), true
			}
		}
		return year, true
	}
	return "", false
}

// ParsePeriod converts an extracted period string into (month, year) using
// the same format family as extraction. A bare year parses with month zero.
func ParsePeriod(s string) (month, year int, err error) {
	s = strings.TrimSpace(s)

	if m := reNumericMonthYear.FindStringSubmatch(s); m != nil && m[0] == s {
		month, _ = strconv.Atoi(m[1])
		year, _ = strconv.Atoi(m[2])
		return month, year, nil
	}
	for _, re := range []*regexp.Regexp{reMonthSlashYear, reMonthDashYear, reMonthDeYear} {
		if m := re.FindStringSubmatch(s); m != nil && m[0] == s {
			month = monthFromToken(m[1])
			year, _ = strconv.Atoi(m[2])
			if month == 0 {
				return 0, 0, ErrUnparseablePeriod
			}
			return month, year, nil
		}
	}
	if reWholeYear.MatchString(s) {
		year, _ = strconv.Atoi(s)
		return 0, year, nil
	}
	return 0, 0, ErrUnparseablePeriod
}
