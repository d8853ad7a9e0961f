package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/i94dw/pkg/errors"
)

// DateLayout is the canonical rendering of date cells.
const DateLayout = "2006-01-02"

// dateLayouts are accepted when parsing date strings; the compact form is how
// the raw immigration data encodes file dates.
var dateLayouts = []string{"20060102", DateLayout}

// Convert casts v to typ. A nil value stays nil.
func Convert(v any, typ FieldType) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch typ {
	case FieldTypeString:
		return ToString(v), nil
	case FieldTypeInt:
		return ToInt(v)
	case FieldTypeFloat:
		return ToFloat(v)
	case FieldTypeDate:
		return ToDate(v)
	default:
		return nil, errors.Newf(errors.ErrorTypeInternal, "unknown field type %q", typ)
	}
}

// ToInt converts v to int64. Floats truncate toward zero.
func ToInt(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return floatToInt(n, v)
	case float32:
		return floatToInt(float64(n), v)
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f, v)
		}
	}
	return 0, errors.Cast(v, string(FieldTypeInt))
}

func floatToInt(f float64, orig any) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, errors.Cast(orig, string(FieldTypeInt))
	}
	return int64(f), nil
}

// ToFloat converts v to float64.
func ToFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, nil
		}
	}
	return 0, errors.Cast(v, string(FieldTypeFloat))
}

// ToDate converts v to a date at UTC midnight.
func ToDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return truncateDay(d), nil
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, errors.Cast(v, string(FieldTypeDate))
}

// ToString renders v the way it is written to flat files.
func ToString(v any) string {
	return FormatValue(v)
}

// FormatValue renders a cell for delimited output; null is the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(DateLayout)
	default:
		return ""
	}
}

// ParseCell parses raw delimited text into a cell of typ; empty text is null.
func ParseCell(raw string, typ FieldType) (any, error) {
	if raw == "" {
		return nil, nil
	}
	return Convert(raw, typ)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
