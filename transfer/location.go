package transfer

import (
	"encoding/json"
	"os"

	"github.com/osdu-tools/dataload/errors"
)

// FileLocation records where one uploaded file ended up on the platform.
// The JSON field names are the artifact contract shared with the work
// product manifests that reference uploaded files.
type FileLocation struct {
	FileID            string `json:"file_id"`
	FileSource        string `json:"file_source"`
	FileRecordVersion string `json:"file_record_version"`
	Description       string `json:"description,omitempty"`
}

// LocationMap maps the base name of every uploaded file to its platform
// location. It is written after an upload run and read back when work
// product manifests are submitted.
type LocationMap map[string]FileLocation

// WriteFile persists the map as a JSON artifact.
func (m LocationMap) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding location map")
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return errors.Wrapf(err, "writing location map %s", path)
	}
	return nil
}

// ReadLocationMap loads a previously written location map artifact.
func ReadLocationMap(path string) (LocationMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading location map %s", path)
	}
	var m LocationMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "decoding location map %s", path)
	}
	return m, nil
}
