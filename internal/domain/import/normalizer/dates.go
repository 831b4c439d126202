package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Months maps Portuguese month names to calendar months.
var Months = map[string]time.Month{
	"janeiro":   time.January,
	"fevereiro": time.February,
	"março":     time.March,
	"abril":     time.April,
	"maio":      time.May,
	"junho":     time.June,
	"julho":     time.July,
	"agosto":    time.August,
	"setembro":  time.September,
	"outubro":   time.October,
	"novembro":  time.November,
	"dezembro":  time.December,
}

// "24 de fevereiro de 2026 22:51 hs." - anything after the minutes is ignored.
var textualDate = regexp.MustCompile(`(?i)(\d{1,2})\s+de\s+(\p{L}+)\s+de\s+(\d{4})\s+(\d{2}):(\d{2})`)

// Serial cells are plain decimal text; exponents, hex and NaN/Inf are not dates.
var serialDate = regexp.MustCompile(`^\d+(\.\d+)?$`)

// MaxSerial is the spreadsheet serial of 9999-12-31.
const MaxSerial = 2958465

// ParseDate converts a date cell into a UTC time. Numeric values are treated
// as spreadsheet serial dates (1900 system); text must follow the
// "<day> de <month> de <year> <HH>:<MM>" pattern. Any failure yields nil.
func ParseDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if serialDate.MatchString(s) {
		serial, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return parseSerial(serial)
	}
	return parseTextual(s)
}

func parseSerial(serial float64) *time.Time {
	if serial <= 0 || serial > MaxSerial {
		return nil
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func parseTextual(s string) *time.Time {
	m := textualDate.FindStringSubmatch(s)
	if m == nil {
		return nil
	}

	month, ok := Months[strings.ToLower(m[2])]
	if !ok {
		return nil
	}

	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	if hour > 23 || minute > 59 {
		return nil
	}

	t := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	// time.Date normalizes overflow (31 de fevereiro -> março); reject it.
	if t.Day() != day || t.Month() != month {
		return nil
	}
	return &t
}
