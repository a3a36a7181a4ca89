package ingest

import (
	"strings"

	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/transfer"
)

// namespaceToken is the placeholder standard manifests carry in place of
// a concrete data partition.
const namespaceToken = "{{NAMESPACE}}"

// standardNamespace is the authority prefix standard manifests are
// authored against; it is rewritten to the target partition on submit.
const standardNamespace = "osdu:"

// prepareRecord rewrites one record in place for the target partition:
// the namespace token and the standard authority prefix become the
// partition, and the compliance block is stamped on.
func prepareRecord(rec map[string]interface{}, p *Preparer) {
	rewriteStrings(rec, p.partition)
	p.stamp(rec)
}

// Preparer rewrites authored manifests into submittable ones.
type Preparer struct {
	partition string
	legalTag  string
	aclViewer string
	aclOwner  string
}

func NewPreparer(partition, legalTag, aclViewer, aclOwner string) *Preparer {
	return &Preparer{
		partition: partition,
		legalTag:  legalTag,
		aclViewer: aclViewer,
		aclOwner:  aclOwner,
	}
}

// stamp sets the compliance block on a record that does not already
// carry one. Authored legal/acl values win over configured defaults.
func (p *Preparer) stamp(rec map[string]interface{}) {
	if _, ok := rec["legal"]; !ok && p.legalTag != "" {
		rec["legal"] = map[string]interface{}{
			"legaltags":                  []interface{}{p.legalTag},
			"otherRelevantDataCountries": []interface{}{"US"},
			"status":                     "compliant",
		}
	}
	if _, ok := rec["acl"]; !ok && p.aclViewer != "" {
		rec["acl"] = map[string]interface{}{
			"viewers": []interface{}{p.aclViewer},
			"owners":  []interface{}{p.aclOwner},
		}
	}
}

// rewriteStrings walks a decoded JSON subtree and rewrites every string
// value for the target partition. References use the same authority
// prefix as ids, so the whole tree is treated uniformly.
func rewriteStrings(v interface{}, partition string) {
	switch tv := v.(type) {
	case map[string]interface{}:
		for k, val := range tv {
			if s, ok := val.(string); ok {
				tv[k] = rewriteString(s, partition)
			} else {
				rewriteStrings(val, partition)
			}
		}
	case []interface{}:
		for i, val := range tv {
			if s, ok := val.(string); ok {
				tv[i] = rewriteString(s, partition)
			} else {
				rewriteStrings(val, partition)
			}
		}
	}
}

func rewriteString(s, partition string) string {
	s = strings.ReplaceAll(s, namespaceToken, partition)
	for _, group := range []string{"reference-data", "master-data", "work-product", "dataset"} {
		prefix := standardNamespace + group
		if strings.HasPrefix(s, prefix) {
			return partition + ":" + strings.TrimPrefix(s, standardNamespace)
		}
	}
	return s
}

// surrogatePrefix marks placeholder ids that the platform (or the
// location map) resolves at ingestion time.
const surrogatePrefix = "surrogate-key:"

// ResolveLocations rewrites a work product document against the upload
// location map: every dataset's FileSource becomes the uploaded blob
// path, its surrogate id becomes the registered file record id, and the
// work product components' dataset references follow to the versioned
// id. Datasets with no uploaded counterpart are an error; a manifest
// referencing files that never arrived must not be submitted.
func ResolveLocations(data map[string]interface{}, locs transfer.LocationMap) error {
	datasets, _ := data["Datasets"].([]interface{})
	rewrites := map[string]string{}
	for _, d := range datasets {
		ds, ok := d.(map[string]interface{})
		if !ok {
			continue
		}
		name := datasetFileName(ds)
		if name == "" {
			return errors.New(errors.ErrBadRequest, "dataset carries no file name to resolve")
		}
		loc, ok := locs[name]
		if !ok {
			return errors.Newf(errors.ErrNotFound, "no uploaded location for dataset file %q", name)
		}
		setFileSource(ds, loc.FileSource)
		if id, ok := ds["id"].(string); ok && strings.HasPrefix(id, surrogatePrefix) {
			rewrites[id] = loc.FileID + ":" + loc.FileRecordVersion
			ds["id"] = loc.FileID
		}
	}

	wpcs, _ := data["WorkProductComponents"].([]interface{})
	for _, w := range wpcs {
		wpc, ok := w.(map[string]interface{})
		if !ok {
			continue
		}
		wd, _ := wpc["data"].(map[string]interface{})
		refs, _ := wd["Datasets"].([]interface{})
		for i, r := range refs {
			if s, ok := r.(string); ok {
				if resolved, ok := rewrites[s]; ok {
					refs[i] = resolved
				}
			}
		}
	}
	return nil
}

// datasetFileName digs out the authored file name of one dataset.
func datasetFileName(ds map[string]interface{}) string {
	dd, _ := ds["data"].(map[string]interface{})
	dp, _ := dd["DatasetProperties"].(map[string]interface{})
	fsi, _ := dp["FileSourceInfo"].(map[string]interface{})
	if name, ok := fsi["Name"].(string); ok && name != "" {
		return name
	}
	if src, ok := fsi["PreloadFilePath"].(string); ok && src != "" {
		if i := strings.LastIndexAny(src, "/\\"); i >= 0 {
			return src[i+1:]
		}
		return src
	}
	return ""
}

func setFileSource(ds map[string]interface{}, fileSource string) {
	dd, _ := ds["data"].(map[string]interface{})
	dp, _ := dd["DatasetProperties"].(map[string]interface{})
	fsi, _ := dp["FileSourceInfo"].(map[string]interface{})
	if fsi != nil {
		fsi["FileSource"] = fileSource
	}
}
