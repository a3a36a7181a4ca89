package template

import (
	"sort"
	"strconv"
	"strings"

	"github.com/osdu-tools/dataload/errors"
)

const oneOfTag = "$$_oneOf_"

type oneOfAlt struct {
	priority int
	key      string
	value    interface{}
}

// resolveOneOf collapses every one-of group in the document: alternatives
// sharing a logical name are walked in ascending priority order and the
// first one whose parameters all have row data is kept under the logical
// key. When nothing matches, the lowest-priority alternative is kept as a
// default unless opts.DropUnmatchedOneOf is set.
func resolveOneOf(node interface{}, row Row, opts Options) (interface{}, error) {
	switch v := node.(type) {
	case map[string]interface{}:
		groups := map[string][]oneOfAlt{}
		for key := range v {
			if !strings.Contains(key, oneOfTag) {
				continue
			}
			m := oneOfPattern.FindStringSubmatch(key)
			if m == nil {
				return nil, errors.Newf(errors.ErrTemplateMalformed, "one-of marker with non-numeric priority: %q", key)
			}
			prio, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, errors.Newf(errors.ErrTemplateMalformed, "one-of marker with non-numeric priority: %q", key)
			}
			groups[m[1]] = append(groups[m[1]], oneOfAlt{priority: prio, key: key, value: v[key]})
		}
		for logical, alts := range groups {
			if _, exists := v[logical]; exists {
				return nil, errors.Newf(errors.ErrTemplateMalformed, "one-of group %q collides with an existing property", logical)
			}
			sort.Slice(alts, func(i, j int) bool { return alts[i].priority < alts[j].priority })
			var chosen *oneOfAlt
			for i := range alts {
				ok, err := altHasData(alts[i].value, row)
				if err != nil {
					return nil, err
				}
				if ok {
					chosen = &alts[i]
					break
				}
			}
			if chosen == nil && !opts.DropUnmatchedOneOf {
				chosen = &alts[0]
			}
			for i := range alts {
				delete(v, alts[i].key)
			}
			if chosen != nil {
				v[logical] = chosen.value
			}
		}
		for key, val := range v {
			res, err := resolveOneOf(val, row, opts)
			if err != nil {
				return nil, err
			}
			v[key] = res
		}
		return v, nil
	case []interface{}:
		for i, item := range v {
			res, err := resolveOneOf(item, row, opts)
			if err != nil {
				return nil, err
			}
			v[i] = res
		}
		return v, nil
	default:
		return node, nil
	}
}

// altHasData reports whether every parameter under the alternative has a
// non-empty value in the row. An alternative with no parameters matches
// trivially (a constant branch).
func altHasData(node interface{}, row Row) (bool, error) {
	matched := true
	err := walkStrings(node, Path{}, func(_ Path, s string) error {
		names, err := markerNames(s)
		if err != nil {
			return err
		}
		for _, name := range names {
			data, err := paramValue(row, name)
			if err != nil || data == "" {
				matched = false
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}
