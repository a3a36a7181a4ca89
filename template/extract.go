package template

import (
	"sort"
	"strings"

	"github.com/osdu-tools/dataload/errors"
)

// Parameter is a named placeholder plus every location at which it occurs
// in the template. A location is a path of object keys and array indices
// from the document root.
type Parameter struct {
	Name      string
	Locations []Path
}

// Path addresses one node in a document tree: elements are string keys or
// int indices.
type Path []interface{}

func (p Path) child(elem interface{}) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, elem)
}

// ExtractParameters walks the template depth-first, object keys in
// sorted order, and records every parameter marker with its path.
// Deterministic: parameters come back sorted by name, locations in
// visit order.
func (t *Template) ExtractParameters() ([]Parameter, error) {
	found := map[string][]Path{}
	order := []string{}
	err := walkStrings(t.root, Path{}, func(path Path, s string) error {
		names, err := markerNames(s)
		if err != nil {
			return err
		}
		for _, name := range names {
			if _, ok := found[name]; !ok {
				order = append(order, name)
			}
			found[name] = append(found[name], path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(order)
	params := make([]Parameter, 0, len(order))
	for _, name := range order {
		params = append(params, Parameter{Name: name, Locations: found[name]})
	}
	return params, nil
}

func walkStrings(node interface{}, path Path, fn func(Path, string) error) error {
	switch v := node.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if err := walkStrings(v[key], path.child(key), fn); err != nil {
				return err
			}
		}
	case []interface{}:
		for i, item := range v {
			if err := walkStrings(item, path.child(i), fn); err != nil {
				return err
			}
		}
	case string:
		return fn(path, v)
	}
	return nil
}

// markerNames returns the parameter names embedded in s, in order of
// appearance. A start delimiter with no matching end delimiter is a
// malformed template.
func markerNames(s string) ([]string, error) {
	var names []string
	for {
		start := strings.Index(s, startDelim)
		if start < 0 {
			if strings.Contains(s, endDelim) && len(names) == 0 {
				return nil, errors.Newf(errors.ErrTemplateMalformed, "unbalanced parameter marker in %q", s)
			}
			return names, nil
		}
		end := strings.Index(s[start:], endDelim)
		if end < 0 {
			return nil, errors.Newf(errors.ErrTemplateMalformed, "unbalanced parameter marker in %q", s)
		}
		name := strings.TrimSpace(s[start+len(startDelim) : start+end])
		if name != "" {
			names = append(names, name)
		}
		s = s[start+end+len(endDelim):]
	}
}
