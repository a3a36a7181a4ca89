package template

import (
	"strconv"
	"strings"
	"time"

	"github.com/osdu-tools/dataload/errors"
)

// normalizedTimestamp is the platform's canonical timestamp shape.
const normalizedTimestamp = "2006-01-02T15:04:05.000Z"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// coerce applies the default coercion chain to a lone-marker substitution:
// boolean, then integer, then decimal (invariant, '.' separator), then
// ISO-8601 timestamp normalized to UTC milliseconds, else string.
func coerce(data string) interface{} {
	if strings.EqualFold(data, "true") {
		return true
	}
	if strings.EqualFold(data, "false") {
		return false
	}
	if n, err := strconv.ParseInt(data, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(data, 64); err == nil {
		return f
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, data); err == nil {
			return ts.UTC().Format(normalizedTimestamp)
		}
	}
	return data
}

// coerceForced applies a specific coercion named by a wrapped call in the
// template, regardless of the substituted value's shape.
func coerceForced(kind, data string) (interface{}, error) {
	switch kind {
	case "int":
		n, err := strconv.ParseInt(data, 10, 64)
		if err != nil {
			return nil, errors.Newf(errors.ErrTemplateMalformed, "int(...) applied to non-integer value %q", data)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(data, 64)
		if err != nil {
			return nil, errors.Newf(errors.ErrTemplateMalformed, "float(...) applied to non-numeric value %q", data)
		}
		return f, nil
	case "bool":
		switch strings.ToLower(data) {
		case "true", "yes", "y", "t", "1":
			return true, nil
		default:
			return false, nil
		}
	case "datetime_YYYY-MM-DD":
		ts, err := time.Parse("2006-01-02", data)
		if err != nil {
			return nil, errors.Newf(errors.ErrTemplateMalformed, "datetime_YYYY-MM-DD(...) applied to %q", data)
		}
		return ts.Format("2006-01-02T15:04:05Z"), nil
	case "datetime_MM/DD/YYYY":
		ts, err := time.Parse("01/02/2006", data)
		if err != nil {
			return nil, errors.Newf(errors.ErrTemplateMalformed, "datetime_MM/DD/YYYY(...) applied to %q", data)
		}
		return ts.Format("2006-01-02T15:04:05"), nil
	}
	return nil, errors.Newf(errors.ErrTemplateMalformed, "unknown coercion call %q", kind)
}
