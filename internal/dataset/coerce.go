package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies a target cell type for explicit coercion.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindDate   Kind = "date"
)

// dateLayouts are the accepted date formats, tried in order. Sources
// have historically mixed ISO dates with US-style slashes.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
}

// ParseKind converts a configuration string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindString:
		return KindString, nil
	case KindInt:
		return KindInt, nil
	case KindFloat:
		return KindFloat, nil
	case KindDate:
		return KindDate, nil
	}
	return "", fmt.Errorf("unknown column type %q", s)
}

// Coerce converts a cell value to the given kind. String inputs are
// trimmed first; thousands separators are stripped from numerics the
// way source extracts format them ("1,234.50"). A null value stays nil
// without error; null handling is a separate scrubbing step.
func Coerce(value any, kind Kind) (any, error) {
	if IsNull(value) {
		return nil, nil
	}

	switch kind {
	case KindString:
		return fmt.Sprintf("%v", value), nil
	case KindInt:
		return coerceInt(value)
	case KindFloat:
		return coerceFloat(value)
	case KindDate:
		return coerceDate(value)
	}
	return nil, fmt.Errorf("unknown kind %q", kind)
}

func coerceInt(value any) (any, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		if v != float64(int64(v)) {
			return nil, fmt.Errorf("value %v is not an integer", v)
		}
		return int64(v), nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// Extracts sometimes render integer ids as "17.0".
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != float64(int64(f)) {
				return nil, fmt.Errorf("cannot coerce %q to int", v)
			}
			return int64(f), nil
		}
		return n, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to int", value)
}

func coerceFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to float", v)
		}
		return f, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to float", value)
}

func coerceDate(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Truncate(24 * time.Hour), nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
			}
		}
		return nil, fmt.Errorf("cannot coerce %q to date", v)
	}
	return nil, fmt.Errorf("cannot coerce %T to date", value)
}
