package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimeLayouts are tried in order by ParseTime.
var TimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"02/01/2006 15:04:05",
	"02/01/2006",
	time.RFC3339,
}

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// ParseTime 按 TimeLayouts 顺序尝试解析时间字符串
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// ExcelSerialToTime converts an Excel serial day number to a time. Serial
// numbers past 60 are shifted by one day for the 1900 leap-year bug.
func ExcelSerialToTime(days float64) (time.Time, error) {
	if math.IsNaN(days) || math.IsInf(days, 0) || days < 0 {
		return time.Time{}, fmt.Errorf("invalid excel serial %v", days)
	}
	if days >= 60 {
		days--
	}
	base := time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	whole := int(days)
	frac := days - float64(whole)
	return base.AddDate(0, 0, whole).Add(time.Duration(86400 * frac * float64(time.Second))).Round(time.Second), nil
}

// ParseDecimal parses a number written with either a dot or a single comma
// as the decimal separator ("45.3", "45,3").
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	}
	return 0, fmt.Errorf("invalid number %q", s)
}
