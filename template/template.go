// Package template turns parameterized JSON templates plus rows of tabular
// data into platform-ready manifest documents. Documents are decoded JSON
// trees (map[string]interface{}, []interface{} and scalars) manipulated
// with explicit type switches; a Template is immutable once parsed and may
// be resolved against many rows.
package template

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/osdu-tools/dataload/errors"
)

const (
	startDelim = "{{"
	endDelim   = "}}"

	// TagFilename marks a string value that resolves to the manifest's
	// own output file name (or a row-derived expression).
	TagFilename = "$filename"

	// TagArrayParent and TagObjectParent name a property whose resolved
	// value must be wrapped before output.
	TagArrayParent  = "$array_parent"
	TagObjectParent = "$object_parent"

	// NamespaceToken is substituted with the target partition's schema
	// namespace everywhere it appears, keys included.
	NamespaceToken = "<namespace>"
)

var oneOfPattern = regexp.MustCompile(`^(.*)\$\$_oneOf_([0-9]+)\$\$$`)

// Template is a parsed, immutable template document plus the structural
// keys extracted from it.
type Template struct {
	root interface{}

	// ArrayParentKey and ObjectParentKey are recorded from the
	// $array_parent / $object_parent markers before they are stripped.
	ArrayParentKey  string
	ObjectParentKey string
}

// Parse decodes a template document and strips its structural markers.
func Parse(data []byte) (*Template, error) {
	var root interface{}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Newf(errors.ErrTemplateMalformed, "decoding template: %v", err)
	}
	t := &Template{}
	t.root = t.stripStructureTags(root)
	return t, nil
}

// Root returns a deep copy of the template document, so resolution can
// mutate freely without touching the shared template.
func (t *Template) Root() interface{} {
	return deepCopy(t.root)
}

// stripStructureTags removes $array_parent / $object_parent properties,
// recording the keys they name. The first occurrence of each wins.
func (t *Template) stripStructureTags(node interface{}) interface{} {
	switch v := node.(type) {
	case map[string]interface{}:
		for key, val := range v {
			switch key {
			case TagArrayParent:
				if s, ok := val.(string); ok && t.ArrayParentKey == "" {
					t.ArrayParentKey = s
				}
				delete(v, key)
			case TagObjectParent:
				if s, ok := val.(string); ok && t.ObjectParentKey == "" {
					t.ObjectParentKey = s
				}
				delete(v, key)
			default:
				v[key] = t.stripStructureTags(val)
			}
		}
		return v
	case []interface{}:
		for i, item := range v {
			v[i] = t.stripStructureTags(item)
		}
		return v
	default:
		return node
	}
}

// Row is one record of tabular input: column name to raw string value.
// Lookups are case-insensitive and whitespace-trimmed, matching how the
// source CSV headers are read.
type Row map[string]string

// Get returns the trimmed value for the named column, or "" when absent.
func (r Row) Get(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	for k, v := range r {
		if strings.TrimSpace(strings.ToLower(k)) == name {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Options controls one resolution pass.
type Options struct {
	// Namespace replaces the <namespace> token. Empty leaves the token
	// in place for a later pass (the orchestrator substitutes it at
	// submission time for standard reference manifests).
	Namespace string

	// GroupFileName overrides the $filename tag when many rows are
	// grouped into one physical manifest file.
	GroupFileName string

	// DropUnmatchedOneOf discards a one-of group with no matching row
	// data instead of keeping the lowest-priority alternative.
	DropUnmatchedOneOf bool
}

func deepCopy(node interface{}) interface{} {
	switch v := node.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			out[key] = deepCopy(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return node
	}
}
