package template

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOneOfPicksLowestMatchingPriority(t *testing.T) {
	tmpl := parseTemplate(t, `{
		"VerticalMeasurement$$_oneOf_0$$": {"Depth": "float({{md}})"},
		"VerticalMeasurement$$_oneOf_1$$": {"Depth": "float({{tvd}})"},
		"VerticalMeasurement$$_oneOf_2$$": {"Depth": "float({{est}})"}
	}`)

	// Priority 0 wins when its data is present, regardless of the rest.
	doc, err := tmpl.Resolve(Row{"md": "100", "tvd": "90", "est": "80"}, Options{})
	require.NoError(t, err)
	vm := doc.(map[string]interface{})["VerticalMeasurement"].(map[string]interface{})
	require.Equal(t, float64(100), vm["Depth"])

	// With priority 0's data absent, priority 1 wins.
	doc, err = tmpl.Resolve(Row{"tvd": "90", "est": "80"}, Options{})
	require.NoError(t, err)
	vm = doc.(map[string]interface{})["VerticalMeasurement"].(map[string]interface{})
	require.Equal(t, float64(90), vm["Depth"])

	doc, err = tmpl.Resolve(Row{"est": "80"}, Options{})
	require.NoError(t, err)
	vm = doc.(map[string]interface{})["VerticalMeasurement"].(map[string]interface{})
	require.Equal(t, float64(80), vm["Depth"])
}

func TestOneOfUnmatchedKeepsLowestPriority(t *testing.T) {
	tmpl := parseTemplate(t, `{
		"M$$_oneOf_0$$": {"A": "{{a}}"},
		"M$$_oneOf_1$$": {"B": "{{b}}"},
		"Keep": "{{k}}"
	}`)

	// Nothing matched: the lowest-priority alternative is kept, and its
	// unfilled markers prune away.
	doc, err := tmpl.Resolve(Row{"k": "x"}, Options{})
	require.NoError(t, err)
	m := doc.(map[string]interface{})
	require.NotContains(t, m, "M")
	require.Equal(t, "x", m["Keep"])
}

func TestOneOfUnmatchedDropped(t *testing.T) {
	tmpl := parseTemplate(t, `{
		"M$$_oneOf_0$$": {"A": "constant"},
		"Keep": "{{k}}"
	}`)

	// A constant alternative matches trivially, so it survives even with
	// DropUnmatchedOneOf set.
	doc, err := tmpl.Resolve(Row{"k": "x"}, Options{DropUnmatchedOneOf: true})
	require.NoError(t, err)
	m := doc.(map[string]interface{})
	require.Equal(t, "constant", m["M"].(map[string]interface{})["A"])

	tmpl = parseTemplate(t, `{
		"M$$_oneOf_0$$": {"A": "{{a}}"},
		"Keep": "{{k}}"
	}`)
	doc, err = tmpl.Resolve(Row{"k": "x"}, Options{DropUnmatchedOneOf: true})
	require.NoError(t, err)
	m = doc.(map[string]interface{})
	require.NotContains(t, m, "M")
	require.Equal(t, "x", m["Keep"])
}

func TestOneOfNonNumericPriority(t *testing.T) {
	tmpl := parseTemplate(t, `{"M$$_oneOf_x$$": {"A": "{{a}}"}}`)
	_, err := tmpl.Resolve(Row{"a": "1"}, Options{})
	require.Error(t, err)
}

func TestOneOfLogicalKeyCollision(t *testing.T) {
	tmpl := parseTemplate(t, `{
		"M": "already here",
		"M$$_oneOf_0$$": {"A": "{{a}}"}
	}`)
	_, err := tmpl.Resolve(Row{"a": "1"}, Options{})
	require.Error(t, err)
}

func TestOneOfNested(t *testing.T) {
	tmpl := parseTemplate(t, `{
		"data": {
			"Elevation$$_oneOf_0$$": "float({{kb}})",
			"Elevation$$_oneOf_1$$": "float({{gl}})"
		}
	}`)
	doc, err := tmpl.Resolve(Row{"gl": "12.5"}, Options{})
	require.NoError(t, err)
	data := doc.(map[string]interface{})["data"].(map[string]interface{})
	require.Equal(t, float64(12.5), data["Elevation"])
}
