package manifest

import (
	"encoding/json"
	"os"

	"github.com/osdu-tools/dataload/errors"
)

// Mapping is the per-dataset-group JSON file naming which template pairs
// with which tabular source file, and how the outputs are laid out.
type Mapping struct {
	// Name identifies the dataset group in logs and summaries.
	Name    string  `json:"name"`
	Entries []Entry `json:"mappings"`
}

// Entry pairs one template with one source file.
type Entry struct {
	// Template is the template file path, relative to the template dir.
	Template string `json:"template"`

	// Source is the tabular source file path, relative to the data dir.
	Source string `json:"source"`

	// Type names the entity type the template produces:
	// "ReferenceData", "MasterData" or "Data".
	Type string `json:"type"`

	// Output is the output file name (group file) or prefix (per-row
	// files) under the output dir.
	Output string `json:"output"`

	// GroupFile collapses all rows of the source into one manifest
	// file instead of one file per row.
	GroupFile bool `json:"groupFile"`
}

// EntityType maps the entry's declared type string onto its EntityType.
func (e Entry) EntityType() (EntityType, error) {
	switch e.Type {
	case TagReferenceData:
		return TypeReference, nil
	case TagMasterData:
		return TypeMaster, nil
	case TagData:
		return TypeWorkProduct, nil
	}
	return TypeUnknown, errors.Newf(errors.ErrConfig, "mapping entry for %s has unknown type %q", e.Source, e.Type)
}

// LoadMapping reads and validates one mapping file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading mapping file %s", path)
	}
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "decoding mapping file %s", path)
	}
	if len(m.Entries) == 0 {
		return nil, errors.Newf(errors.ErrConfig, "mapping file %s has no entries", path)
	}
	for _, e := range m.Entries {
		if e.Template == "" || e.Source == "" {
			return nil, errors.Newf(errors.ErrConfig, "mapping file %s has an entry missing template or source", path)
		}
		if _, err := e.EntityType(); err != nil {
			return nil, err
		}
	}
	return &m, nil
}
