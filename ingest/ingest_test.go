package ingest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdu-tools/dataload"
	"github.com/osdu-tools/dataload/auth"
	"github.com/osdu-tools/dataload/client"
	"github.com/osdu-tools/dataload/ingest"
	"github.com/osdu-tools/dataload/logger"
	"github.com/osdu-tools/dataload/retry"
	"github.com/osdu-tools/dataload/transfer"
)

// workflowServer fakes the legal, workflow, search and storage services.
type workflowServer struct {
	srv *httptest.Server

	mu        sync.Mutex
	runs      int
	manifests []map[string]interface{}

	// failRuns names run ids that report a failed status.
	failRuns map[string]bool
	// missingTag makes the legal tag check come back empty.
	missingTag bool
}

func newWorkflowServer() *workflowServer {
	ws := &workflowServer{failRuns: map[string]bool{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/legaltags/", func(w http.ResponseWriter, r *http.Request) {
		if ws.missingTag {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/workflow/Osdu_ingest/workflowRun", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExecutionContext struct {
				Manifest map[string]interface{} `json:"manifest"`
			} `json:"executionContext"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		ws.mu.Lock()
		ws.runs++
		runID := fmt.Sprintf("run-%d", ws.runs)
		ws.manifests = append(ws.manifests, req.ExecutionContext.Manifest)
		ws.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"runId": runID})
	})
	mux.HandleFunc("/workflow/Osdu_ingest/workflowRun/", func(w http.ResponseWriter, r *http.Request) {
		runID := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		status := client.StatusFinished
		ws.mu.Lock()
		if ws.failRuns[runID] {
			status = client.StatusFailed
		}
		ws.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"runId":  runID,
			"status": status,
		})
	})
	ws.srv = httptest.NewServer(mux)
	return ws
}

func (ws *workflowServer) submitted() []map[string]interface{} {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	out := make([]map[string]interface{}, len(ws.manifests))
	copy(out, ws.manifests)
	return out
}

func newOrchestrator(t *testing.T, ws *workflowServer, batchSize int) *ingest.Orchestrator {
	t.Helper()
	cfg := dataload.NewConfig()
	cfg.WorkflowURL = ws.srv.URL
	cfg.LegalURL = ws.srv.URL
	cfg.SearchURL = ws.srv.URL
	cfg.StorageURL = ws.srv.URL
	cfg.DataPartitionID = "opendes"
	c := client.New(cfg, auth.StaticTokenSource("tok"), nil)
	return &ingest.Orchestrator{
		Client:       c,
		Retryer:      retry.New(0, time.Millisecond, nil),
		LegalTag:     "opendes-public",
		ACLViewer:    "viewers@opendes",
		ACLOwner:     "owners@opendes",
		BatchSize:    batchSize,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
		Log:          logger.NewLogfLogger(t),
	}
}

func writeManifestFile(t *testing.T, dir, name string, doc map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func referenceManifest(n int, offset int) map[string]interface{} {
	records := make([]interface{}, n)
	for i := range records {
		records[i] = map[string]interface{}{
			"id":   fmt.Sprintf("osdu:reference-data--UnitOfMeasure:u%d", offset+i),
			"kind": "osdu:wks:reference-data--UnitOfMeasure:1.0.0",
		}
	}
	return map[string]interface{}{"ReferenceData": records}
}

func TestRunBatchesFlattenedRecords(t *testing.T) {
	ws := newWorkflowServer()
	defer ws.srv.Close()

	// Five records spread over two files, batch size two: three runs.
	dir := t.TempDir()
	writeManifestFile(t, dir, "a.json", referenceManifest(3, 0))
	writeManifestFile(t, dir, "b.json", referenceManifest(2, 3))

	orch := newOrchestrator(t, ws, 2)
	report, err := orch.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, ws.runs)
	stats := report.Types["ReferenceData"]
	require.NotNil(t, stats)
	assert.Equal(t, 5, stats.Processed)
	assert.Equal(t, 5, stats.Succeeded)
	assert.Equal(t, 0, stats.Failed)
	assert.Empty(t, report.FailedUnits)
	assert.Len(t, report.RunIDs(), 3)

	// Submitted records carry the rewritten partition and the stamped
	// compliance block.
	first := ws.submitted()[0]
	recs := first["ReferenceData"].([]interface{})
	assert.Len(t, recs, 2)
	rec := recs[0].(map[string]interface{})
	assert.Equal(t, "opendes:reference-data--UnitOfMeasure:u0", rec["id"])
	require.Contains(t, rec, "legal")
	require.Contains(t, rec, "acl")
}

func TestRunAccountsFailedBatches(t *testing.T) {
	ws := newWorkflowServer()
	ws.failRuns["run-2"] = true
	defer ws.srv.Close()

	dir := t.TempDir()
	writeManifestFile(t, dir, "a.json", referenceManifest(5, 0))

	orch := newOrchestrator(t, ws, 2)
	report, err := orch.Run(context.Background(), dir)
	require.NoError(t, err)

	stats := report.Types["ReferenceData"]
	require.NotNil(t, stats)
	// Processed counts every record, failures included.
	assert.Equal(t, 5, stats.Processed)
	assert.Equal(t, 3, stats.Succeeded)
	assert.Equal(t, 2, stats.Failed)
	assert.Len(t, report.FailedUnits, 1)
}

func TestRunSkipsUnclassifiableManifests(t *testing.T) {
	ws := newWorkflowServer()
	defer ws.srv.Close()

	// One good manifest next to a file that matches no entity type: the
	// bad file is accounted as failed, the good one still goes out.
	dir := t.TempDir()
	writeManifestFile(t, dir, "a.json", referenceManifest(2, 0))
	writeManifestFile(t, dir, "junk.json", map[string]interface{}{
		"neither": "fish nor fowl",
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644))

	orch := newOrchestrator(t, ws, 10)
	report, err := orch.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, ws.runs)
	stats := report.Types["ReferenceData"]
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.Succeeded)
	total := report.Total()
	assert.Equal(t, 4, total.Processed)
	assert.Equal(t, 2, total.Failed)
	assert.ElementsMatch(t, []string{"junk.json", "broken.json"}, report.FailedUnits)
}

func TestRunMissingLegalTagAborts(t *testing.T) {
	ws := newWorkflowServer()
	ws.missingTag = true
	defer ws.srv.Close()

	dir := t.TempDir()
	writeManifestFile(t, dir, "a.json", referenceManifest(1, 0))

	orch := newOrchestrator(t, ws, 2)
	_, err := orch.Run(context.Background(), dir)
	require.Error(t, err)
	assert.Equal(t, 0, ws.runs)
}

func TestRunWorkProduct(t *testing.T) {
	ws := newWorkflowServer()
	defer ws.srv.Close()

	dir := t.TempDir()
	writeManifestFile(t, dir, "wp.json", map[string]interface{}{
		"Data": map[string]interface{}{
			"WorkProduct": map[string]interface{}{
				"kind": "osdu:wks:work-product--WorkProduct:1.0.0",
			},
			"WorkProductComponents": []interface{}{
				map[string]interface{}{
					"id": "surrogate-key:wpc-1",
					"data": map[string]interface{}{
						"Datasets": []interface{}{"surrogate-key:file-1"},
					},
				},
			},
			"Datasets": []interface{}{
				map[string]interface{}{
					"id": "surrogate-key:file-1",
					"data": map[string]interface{}{
						"DatasetProperties": map[string]interface{}{
							"FileSourceInfo": map[string]interface{}{
								"Name": "well.las",
							},
						},
					},
				},
			},
		},
	})

	orch := newOrchestrator(t, ws, 2)
	orch.Locations = transfer.LocationMap{
		"well.las": {
			FileID:            "opendes:dataset--File.Generic:abc",
			FileSource:        "/osdu-user/xyz",
			FileRecordVersion: "1675900000000",
		},
	}
	report, err := orch.Run(context.Background(), dir)
	require.NoError(t, err)

	stats := report.Types["Data"]
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Succeeded)

	sub := ws.submitted()[0]["Data"].(map[string]interface{})
	wpc := sub["WorkProductComponents"].([]interface{})[0].(map[string]interface{})
	refs := wpc["data"].(map[string]interface{})["Datasets"].([]interface{})
	assert.Equal(t, "opendes:dataset--File.Generic:abc:1675900000000", refs[0])
}

func TestRunNoWait(t *testing.T) {
	ws := newWorkflowServer()
	defer ws.srv.Close()

	dir := t.TempDir()
	writeManifestFile(t, dir, "a.json", referenceManifest(2, 0))

	orch := newOrchestrator(t, ws, 10)
	orch.NoWait = true
	report, err := orch.Run(context.Background(), dir)
	require.NoError(t, err)

	stats := report.Types["ReferenceData"]
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.Unknown)
	assert.Equal(t, 0, stats.Succeeded)
}

func TestVerifier(t *testing.T) {
	var queries int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries++
		var q struct {
			Query string `json:"query"`
		}
		json.NewDecoder(r.Body).Decode(&q)
		var results []map[string]string
		// Everything except u1 exists.
		for _, id := range []string{"opendes:reference-data--UnitOfMeasure:u0", "opendes:reference-data--UnitOfMeasure:u2"} {
			if strings.Contains(q.Query, id) {
				results = append(results, map[string]string{"id": id})
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
	}))
	defer srv.Close()

	dir := t.TempDir()
	writeManifestFile(t, dir, "a.json", referenceManifest(3, 0))

	cfg := dataload.NewConfig()
	cfg.SearchURL = srv.URL
	cfg.DataPartitionID = "opendes"
	v := &ingest.Verifier{
		Client:           client.New(cfg, auth.StaticTokenSource("tok"), nil),
		Retryer:          retry.New(0, time.Millisecond, nil),
		BatchSize:        2,
		QueriesPerSecond: 1000,
		Log:              logger.NewLogfLogger(t),
	}
	report, err := v.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Expected)
	assert.Equal(t, 2, report.Found)
	assert.Equal(t, []string{"opendes:reference-data--UnitOfMeasure:u1"}, report.Missing)
	assert.Equal(t, 2, queries)
}

func TestDeleter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "u1") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	dir := t.TempDir()
	writeManifestFile(t, dir, "a.json", referenceManifest(3, 0))

	cfg := dataload.NewConfig()
	cfg.StorageURL = srv.URL
	cfg.DataPartitionID = "opendes"
	d := &ingest.Deleter{
		Client:  client.New(cfg, auth.StaticTokenSource("tok"), nil),
		Retryer: retry.New(0, time.Millisecond, nil),
		Log:     logger.NewLogfLogger(t),
	}
	report, err := d.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Deleted)
	assert.Equal(t, 1, report.Missing)
	assert.Empty(t, report.Failed)
}

func TestStatusChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runID := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		status := client.StatusFinished
		if runID == "run-2" {
			status = client.StatusFailed
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"runId":          runID,
			"status":         status,
			"startTimeStamp": 1675900000000,
			"endTimeStamp":   1675900060000,
		})
	}))
	defer srv.Close()

	cfg := dataload.NewConfig()
	cfg.WorkflowURL = srv.URL
	cfg.DataPartitionID = "opendes"
	checker := &ingest.StatusChecker{
		Client: client.New(cfg, auth.StaticTokenSource("tok"), nil),
		Log:    logger.NewLogfLogger(t),
	}
	statuses, err := checker.Check(context.Background(), []string{"run-1", "run-2"})
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, client.StatusFinished, statuses[0].Status)
	assert.Equal(t, client.StatusFailed, statuses[1].Status)
	assert.Equal(t, time.Minute, statuses[0].Elapsed)
}
