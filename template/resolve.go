package template

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/osdu-tools/dataload/errors"
)

var (
	indexedParam = regexp.MustCompile(`^(.+)\[([0-9]+)\]$`)
	forcedCall   = regexp.MustCompile(`^(int|float|bool|datetime_YYYY-MM-DD|datetime_MM/DD/YYYY)\(\s*\{\{([^{}]+)\}\}\s*\)$`)
)

// Resolve substitutes one row into the template and returns the populated
// document. A malformed template or unusable row value fails this row
// only; callers log and continue with the next row.
func (t *Template) Resolve(row Row, opts Options) (interface{}, error) {
	doc := t.Root()
	if opts.Namespace != "" {
		doc = substituteNamespace(doc, opts.Namespace)
	}
	doc, err := resolveOneOf(doc, row, opts)
	if err != nil {
		return nil, err
	}
	doc, err = t.substitute(doc, row, opts)
	if err != nil {
		return nil, err
	}
	doc = t.wrapParents(doc)
	doc = prune(doc)
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return doc, nil
}

// substituteNamespace replaces the <namespace> token in keys and string
// values throughout the document.
func substituteNamespace(node interface{}, ns string) interface{} {
	switch v := node.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			out[strings.ReplaceAll(key, NamespaceToken, ns)] = substituteNamespace(val, ns)
		}
		return out
	case []interface{}:
		for i, item := range v {
			v[i] = substituteNamespace(item, ns)
		}
		return v
	case string:
		return strings.ReplaceAll(v, NamespaceToken, ns)
	default:
		return node
	}
}

// substitute replaces parameter markers in every string scalar. Markers
// whose row value is empty are left in place and removed by pruning.
func (t *Template) substitute(node interface{}, row Row, opts Options) (interface{}, error) {
	switch v := node.(type) {
	case map[string]interface{}:
		for key, val := range v {
			sub, err := t.substitute(val, row, opts)
			if err != nil {
				return nil, err
			}
			v[key] = sub
		}
		return v, nil
	case []interface{}:
		for i, item := range v {
			sub, err := t.substitute(item, row, opts)
			if err != nil {
				return nil, err
			}
			v[i] = sub
		}
		return v, nil
	case string:
		return substituteString(v, row, opts)
	default:
		return node, nil
	}
}

func substituteString(s string, row Row, opts Options) (interface{}, error) {
	trimmed := strings.TrimSpace(s)

	if strings.HasPrefix(trimmed, TagFilename) {
		return resolveFilenameTag(trimmed, row, opts)
	}

	// Forced coercion calls take the whole scalar.
	if m := forcedCall.FindStringSubmatch(trimmed); m != nil {
		data, err := paramValue(row, strings.TrimSpace(m[2]))
		if err != nil {
			return nil, err
		}
		if data == "" {
			// Leave the marker for pruning to remove.
			return s, nil
		}
		return coerceForced(m[1], data)
	}

	names, err := markerNames(s)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return s, nil
	}

	loneMarker := len(names) == 1 &&
		strings.HasPrefix(trimmed, startDelim) &&
		strings.HasSuffix(trimmed, endDelim) &&
		strings.Count(trimmed, startDelim) == 1
	if loneMarker {
		data, err := paramValue(row, names[0])
		if err != nil {
			return nil, err
		}
		if data == "" {
			// Leave the marker for pruning to remove.
			return s, nil
		}
		return coerce(data), nil
	}

	// Rebuild the string over the matched marker spans, so padding
	// inside a marker still substitutes. Markers without row data stay
	// in place and prune the scalar later.
	var b strings.Builder
	rest := s
	for {
		start := strings.Index(rest, startDelim)
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], endDelim)
		name := strings.TrimSpace(rest[start+len(startDelim) : start+end])
		data, err := paramValue(row, name)
		if err != nil {
			return nil, err
		}
		if data == "" {
			b.WriteString(rest[:start+end+len(endDelim)])
		} else {
			b.WriteString(rest[:start])
			b.WriteString(data)
		}
		rest = rest[start+end+len(endDelim):]
	}
	return b.String(), nil
}

// resolveFilenameTag handles the reserved $filename marker: either the
// caller supplied a group file name, or the tag carries a row-templated
// expression, e.g. $filename(load_{{id}}.json).
func resolveFilenameTag(s string, row Row, opts Options) (interface{}, error) {
	if opts.GroupFileName != "" {
		return opts.GroupFileName, nil
	}
	rest := strings.TrimPrefix(s, TagFilename)
	if strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")") {
		expr := rest[1 : len(rest)-1]
		resolved, err := substituteString(expr, row, opts)
		if err != nil {
			return nil, err
		}
		return resolved, nil
	}
	return "", nil
}

// paramValue looks up a parameter in the row. Array-index syntax on the
// name (e.g. tags[1]) addresses one element of a JSON-encoded or
// comma-separated row value; an index beyond the value's length fails the
// row.
func paramValue(row Row, name string) (string, error) {
	m := indexedParam.FindStringSubmatch(name)
	if m == nil {
		return row.Get(name), nil
	}
	raw := row.Get(m[1])
	if raw == "" {
		return "", nil
	}
	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return "", errors.Newf(errors.ErrTemplateMalformed, "bad array index in parameter %q", name)
	}
	elems := splitArrayValue(raw)
	if idx >= len(elems) {
		return "", errors.Newf(errors.ErrTemplateMalformed, "index %d out of range for parameter %q (%d elements)", idx, m[1], len(elems))
	}
	return elems[idx], nil
}

func splitArrayValue(raw string) []string {
	if strings.HasPrefix(raw, "[") {
		var arr []interface{}
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			out := make([]string, len(arr))
			for i, e := range arr {
				switch t := e.(type) {
				case string:
					out[i] = t
				case json.Number:
					out[i] = t.String()
				case float64:
					out[i] = strconv.FormatFloat(t, 'f', -1, 64)
				case bool:
					out[i] = strconv.FormatBool(t)
				}
			}
			return out
		}
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// wrapParents applies the extracted array/object parent keys: a property
// whose key matches has its value wrapped in a single-element array or in
// an object under that key.
func (t *Template) wrapParents(node interface{}) interface{} {
	switch v := node.(type) {
	case map[string]interface{}:
		for key, val := range v {
			val = t.wrapParents(val)
			if key == t.ArrayParentKey && t.ArrayParentKey != "" {
				if _, isArr := val.([]interface{}); !isArr {
					val = []interface{}{val}
				}
			} else if key == t.ObjectParentKey && t.ObjectParentKey != "" {
				if _, isObj := val.(map[string]interface{}); !isObj {
					val = map[string]interface{}{key: val}
				}
			}
			v[key] = val
		}
		return v
	case []interface{}:
		for i, item := range v {
			v[i] = t.wrapParents(item)
		}
		return v
	default:
		return node
	}
}

// prune removes properties whose final value is null, empty string, empty
// array or empty object, and string values still carrying an unfilled
// parameter marker. Returns nil when node itself prunes away.
func prune(node interface{}) interface{} {
	switch v := node.(type) {
	case map[string]interface{}:
		for key, val := range v {
			p := prune(val)
			if p == nil {
				delete(v, key)
				continue
			}
			v[key] = p
		}
		if len(v) == 0 {
			return nil
		}
		return v
	case []interface{}:
		out := v[:0]
		for _, item := range v {
			if p := prune(item); p != nil {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		if strings.Contains(v, startDelim) && strings.Contains(v, endDelim) {
			return nil
		}
		return v
	case nil:
		return nil
	default:
		return node
	}
}
