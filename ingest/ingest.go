// Package ingest drives manifest submission: it scans a directory of
// generated manifests, classifies and prepares them for the target
// partition, batches what the workflow allows batching, triggers
// ingestion runs and polls them to a terminal status. It also carries
// the after-the-fact operations on submitted data: verify, delete and
// run status checks.
package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/osdu-tools/dataload/client"
	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/logger"
	"github.com/osdu-tools/dataload/manifest"
	"github.com/osdu-tools/dataload/retry"
	"github.com/osdu-tools/dataload/transfer"
)

// Outcome is the terminal state of one submitted unit.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"

	// OutcomeUnknown marks a run that was still in flight when the poll
	// window closed. It is not a failure; the run may yet finish.
	OutcomeUnknown Outcome = "unknown"
)

// Orchestrator submits a directory of manifests as ingestion workflow
// runs and tracks each run to completion.
type Orchestrator struct {
	Client  *client.Client
	Retryer *retry.Retryer

	LegalTag  string
	ACLViewer string
	ACLOwner  string

	// BatchSize caps the records of one reference or master data run.
	BatchSize int

	PollInterval time.Duration
	PollTimeout  time.Duration

	// Locations resolves work product dataset references. Nil is fine
	// for runs without work products.
	Locations transfer.LocationMap

	// NoWait submits all units and returns without polling; every
	// submitted unit reports OutcomeUnknown.
	NoWait bool

	Log logger.Logger
}

// unit is one workflow submission: a batch of flattened records or a
// single work product manifest.
type unit struct {
	name     string
	typ      manifest.EntityType
	records  int
	manifest map[string]interface{}

	runID   string
	outcome Outcome
}

// TypeStats is the per-entity-type accounting of a run. Processed
// counts records, not files: a failed batch fails every record in it.
type TypeStats struct {
	Processed int
	Succeeded int
	Failed    int
	Unknown   int
}

// Report is the result of one submission run.
type Report struct {
	Types       map[string]*TypeStats
	FailedUnits []string
	Runs        []RunResult
}

// RunResult ties one submitted unit to its workflow run.
type RunResult struct {
	Unit    string
	Type    string
	Records int
	RunID   string
	Outcome Outcome
}

// Total sums the per-type stats.
func (r *Report) Total() TypeStats {
	var t TypeStats
	for _, s := range r.Types {
		t.Processed += s.Processed
		t.Succeeded += s.Succeeded
		t.Failed += s.Failed
		t.Unknown += s.Unknown
	}
	return t
}

// RunIDs returns the run ids of every unit that was submitted.
func (r *Report) RunIDs() []string {
	ids := make([]string, 0, len(r.Runs))
	for _, run := range r.Runs {
		if run.RunID != "" {
			ids = append(ids, run.RunID)
		}
	}
	return ids
}

// Run loads every manifest under dir, prepares and submits it, and polls
// the resulting workflow runs. Unit-level failures are accounted, not
// fatal; only setup failures (unreadable dir, missing legal tag) abort.
func (o *Orchestrator) Run(ctx context.Context, dir string) (*Report, error) {
	log := o.Log
	if log == nil {
		log = logger.NopLogger
	}

	if o.LegalTag != "" {
		corrID := client.NewCorrelationID("legal-check")
		ok, err := o.Client.LegalTagExists(ctx, o.LegalTag, corrID)
		if err != nil {
			return nil, errors.Wrap(err, "checking legal tag before submission")
		}
		if !ok {
			return nil, errors.Newf(errors.ErrConfig, "legal tag %q does not exist in partition %s", o.LegalTag, o.Client.Partition())
		}
	}

	units, err := o.buildUnits(dir, log)
	if err != nil {
		return nil, err
	}
	log.Infof("submitting %d units from %s", len(units), dir)

	report := &Report{Types: map[string]*TypeStats{}}
	for _, u := range units {
		if u.outcome == OutcomeFailed {
			continue
		}
		o.submit(ctx, u, log)
	}
	if !o.NoWait {
		o.poll(ctx, units, log)
	}

	for _, u := range units {
		stats := report.Types[u.typ.String()]
		if stats == nil {
			stats = &TypeStats{}
			report.Types[u.typ.String()] = stats
		}
		stats.Processed += u.records
		switch u.outcome {
		case OutcomeSucceeded:
			stats.Succeeded += u.records
		case OutcomeFailed:
			stats.Failed += u.records
			report.FailedUnits = append(report.FailedUnits, u.name)
		default:
			stats.Unknown += u.records
		}
		report.Runs = append(report.Runs, RunResult{
			Unit:    u.name,
			Type:    u.typ.String(),
			Records: u.records,
			RunID:   u.runID,
			Outcome: u.outcome,
		})
	}
	total := report.Total()
	log.Infof("submission finished: %d records processed, %d succeeded, %d failed, %d unknown",
		total.Processed, total.Succeeded, total.Failed, total.Unknown)
	return report, nil
}

// buildUnits scans, classifies and prepares the manifests of dir.
// Reference and master data records are flattened across files and
// re-chunked by BatchSize; work products go one unit per file, in file
// order. A file that cannot be read, classified or resolved becomes a
// failed unit and the scan continues.
func (o *Orchestrator) buildUnits(dir string, log logger.Logger) ([]*unit, error) {
	paths, err := listManifests(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.Newf(errors.ErrConfig, "no manifest files under %s", dir)
	}

	prep := NewPreparer(o.Client.Partition(), o.LegalTag, o.ACLViewer, o.ACLOwner)
	var (
		refRecords    []interface{}
		masterRecords []interface{}
		units         []*unit
	)
	for _, path := range paths {
		doc, err := readManifest(path)
		if err != nil {
			log.Warnf("skipping %s: %v", path, err)
			units = append(units, failedUnit(path, manifest.TypeUnknown))
			continue
		}
		typ, err := manifest.Classify(doc)
		if err != nil {
			log.Warnf("skipping %s: %v", path, err)
			units = append(units, failedUnit(path, typ))
			continue
		}
		switch typ {
		case manifest.TypeReference, manifest.TypeMaster:
			for _, rec := range manifest.Records(doc, typ) {
				if m, ok := rec.(map[string]interface{}); ok {
					prepareRecord(m, prep)
				}
			}
			if typ == manifest.TypeReference {
				refRecords = append(refRecords, manifest.Records(doc, typ)...)
			} else {
				masterRecords = append(masterRecords, manifest.Records(doc, typ)...)
			}
		case manifest.TypeWorkProduct:
			data, _ := doc[manifest.TagData].(map[string]interface{})
			if data == nil {
				log.Warnf("skipping %s: carries no work product data", path)
				units = append(units, failedUnit(path, typ))
				continue
			}
			rewriteStrings(data, o.Client.Partition())
			if err := ResolveLocations(data, o.Locations); err != nil {
				log.Warnf("skipping %s: resolving dataset locations: %v", path, err)
				units = append(units, failedUnit(path, typ))
				continue
			}
			stampWorkProduct(data, prep)
			units = append(units, &unit{
				name:     filepath.Base(path),
				typ:      manifest.TypeWorkProduct,
				records:  1,
				manifest: manifest.WrapData(data),
			})
		}
	}

	batched := chunkUnits(manifest.TypeReference, refRecords, o.batchSize())
	batched = append(batched, chunkUnits(manifest.TypeMaster, masterRecords, o.batchSize())...)
	// Reference data first: master data and work products reference it.
	units = append(batched, units...)
	return units, nil
}

// failedUnit records a manifest file that could not be prepared. It
// still counts as one processed, failed record; it is never submitted.
func failedUnit(path string, typ manifest.EntityType) *unit {
	return &unit{
		name:    filepath.Base(path),
		typ:     typ,
		records: 1,
		outcome: OutcomeFailed,
	}
}

func (o *Orchestrator) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return 25
}

// chunkUnits slices flattened records into submission units.
func chunkUnits(typ manifest.EntityType, records []interface{}, size int) []*unit {
	var units []*unit
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]
		units = append(units, &unit{
			name:     typ.String() + " batch " + strconv.Itoa(len(units)+1),
			typ:      typ,
			records:  len(chunk),
			manifest: manifest.Wrap(typ, chunk),
		})
	}
	return units
}

// stampWorkProduct stamps the compliance block on the work product, its
// components and its datasets.
func stampWorkProduct(data map[string]interface{}, prep *Preparer) {
	if wp, ok := data["WorkProduct"].(map[string]interface{}); ok {
		prep.stamp(wp)
	}
	for _, key := range []string{"WorkProductComponents", "Datasets"} {
		list, _ := data[key].([]interface{})
		for _, item := range list {
			if m, ok := item.(map[string]interface{}); ok {
				prep.stamp(m)
			}
		}
	}
}

// submit triggers one workflow run. A failed trigger fails the unit
// outright; polling never sees it.
func (o *Orchestrator) submit(ctx context.Context, u *unit, log logger.Logger) {
	corrID := client.NewCorrelationID("ingest")
	err := o.Retryer.Execute(ctx, "triggering workflow for "+u.name, func(ctx context.Context) error {
		runID, err := o.Client.TriggerWorkflow(ctx, u.manifest, corrID)
		if err != nil {
			return err
		}
		u.runID = runID
		return nil
	})
	if err != nil {
		u.outcome = OutcomeFailed
		log.Errorf("submission of %s failed: %v", u.name, err)
		return
	}
	u.outcome = OutcomeUnknown
	log.Infof("submitted %s as run %s (%d records)", u.name, u.runID, u.records)
}

// poll drives every submitted unit to a terminal status, or to unknown
// when the poll window closes first.
func (o *Orchestrator) poll(ctx context.Context, units []*unit, log logger.Logger) {
	interval := o.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	timeout := o.PollTimeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	deadline := time.Now().Add(timeout)

	pending := make([]*unit, 0, len(units))
	for _, u := range units {
		if u.runID != "" {
			pending = append(pending, u)
		}
	}
	for len(pending) > 0 {
		if time.Now().After(deadline) {
			for _, u := range pending {
				log.Warnf("run %s (%s) still not terminal after %s", u.runID, u.name, timeout)
			}
			return
		}
		var still []*unit
		for _, u := range pending {
			corrID := client.NewCorrelationID("status")
			run, err := o.Client.WorkflowStatus(ctx, u.runID, corrID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warnf("status check of run %s failed: %v", u.runID, err)
				still = append(still, u)
				continue
			}
			switch run.Status {
			case client.StatusFinished:
				u.outcome = OutcomeSucceeded
				log.Infof("run %s (%s) finished", u.runID, u.name)
			case client.StatusFailed:
				u.outcome = OutcomeFailed
				log.Errorf("run %s (%s) failed", u.runID, u.name)
			default:
				still = append(still, u)
			}
		}
		pending = still
		if len(pending) == 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// listManifests returns the sorted manifest files directly under dir.
func listManifests(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading manifest dir %s", dir)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func readManifest(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading manifest %s", path)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "decoding manifest %s", path)
	}
	return doc, nil
}
