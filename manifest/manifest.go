// Package manifest models the loading manifest documents exchanged with
// the platform: entity-type classification, the mapping files that pair
// templates with tabular sources, and the generation driver that turns
// rows into manifest files on disk.
package manifest

import (
	"strings"

	"github.com/osdu-tools/dataload/errors"
)

// Top-level manifest property names.
const (
	TagReferenceData = "ReferenceData"
	TagMasterData    = "MasterData"
	TagData          = "Data"
	TagKind          = "kind"

	// ManifestKind is the kind stamped on every wrapped manifest.
	ManifestKind = "osdu:wks:Manifest:1.0.0"
)

// EntityType classifies manifest content and drives batching and routing.
type EntityType int

const (
	TypeUnknown EntityType = iota
	TypeReference
	TypeMaster
	TypeWorkProduct
)

func (t EntityType) String() string {
	switch t {
	case TypeReference:
		return TagReferenceData
	case TypeMaster:
		return TagMasterData
	case TypeWorkProduct:
		return TagData
	}
	return "Unknown"
}

// Tag returns the manifest property this type's records live under.
func (t EntityType) Tag() string { return t.String() }

// Classify determines the entity type of a decoded manifest document:
// first by the presence of the well-known top-level properties, then by
// inspecting the kind discriminator. Unclassifiable manifests are an
// error the caller must surface, never silently drop.
func Classify(doc map[string]interface{}) (EntityType, error) {
	if recs, ok := doc[TagReferenceData].([]interface{}); ok && len(recs) > 0 {
		return TypeReference, nil
	}
	if recs, ok := doc[TagMasterData].([]interface{}); ok && len(recs) > 0 {
		return TypeMaster, nil
	}
	if _, ok := doc[TagData]; ok {
		return TypeWorkProduct, nil
	}
	if kind, ok := doc[TagKind].(string); ok {
		switch {
		case strings.Contains(kind, "reference-data"):
			return TypeReference, nil
		case strings.Contains(kind, "master-data"):
			return TypeMaster, nil
		case strings.Contains(kind, "work-product"):
			return TypeWorkProduct, nil
		}
	}
	return TypeUnknown, errors.New(errors.ErrUnclassified, "manifest matches no known entity type")
}

// Wrap builds the platform manifest envelope around a list of records of
// one entity type.
func Wrap(t EntityType, records []interface{}) map[string]interface{} {
	return map[string]interface{}{
		TagKind: ManifestKind,
		t.Tag(): records,
	}
}

// WrapData builds the envelope around one work-product document.
func WrapData(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		TagKind: ManifestKind,
		TagData: data,
	}
}

// Records returns the entity records of a classified manifest: the
// top-level array for reference/master data, or the single work-product
// document wrapped in a one-element slice.
func Records(doc map[string]interface{}, t EntityType) []interface{} {
	switch t {
	case TypeReference, TypeMaster:
		recs, _ := doc[t.Tag()].([]interface{})
		return recs
	case TypeWorkProduct:
		if data, ok := doc[TagData]; ok {
			return []interface{}{data}
		}
	}
	return nil
}
