package ingest

import (
	"context"
	"strings"

	"golang.org/x/time/rate"

	"github.com/osdu-tools/dataload/client"
	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/logger"
	"github.com/osdu-tools/dataload/manifest"
	"github.com/osdu-tools/dataload/retry"
)

// Verifier checks that the records of a manifest directory are
// searchable on the platform. Queries are batched and throttled so a
// large verification pass does not trip the search service's limits.
type Verifier struct {
	Client  *client.Client
	Retryer *retry.Retryer

	// BatchSize caps the ids of one search query.
	BatchSize int

	// QueriesPerSecond throttles search calls. Zero means 5.
	QueriesPerSecond float64

	Log logger.Logger
}

// VerifyReport lists what a verification pass expected and what it found.
type VerifyReport struct {
	Expected int
	Found    int
	Missing  []string
}

// Run collects the record ids of every manifest under dir and confirms
// each against the search service.
func (v *Verifier) Run(ctx context.Context, dir string) (*VerifyReport, error) {
	log := v.Log
	if log == nil {
		log = logger.NopLogger
	}
	ids, err := CollectIDs(dir, v.Client.Partition())
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errors.Newf(errors.ErrConfig, "no record ids found under %s", dir)
	}
	log.Infof("verifying %d record ids from %s", len(ids), dir)

	batch := v.BatchSize
	if batch <= 0 {
		batch = 25
	}
	qps := v.QueriesPerSecond
	if qps <= 0 {
		qps = 5
	}
	limiter := rate.NewLimiter(rate.Limit(qps), 1)

	report := &VerifyReport{Expected: len(ids)}
	for start := 0; start < len(ids); start += batch {
		end := start + batch
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		if err := limiter.Wait(ctx); err != nil {
			return report, err
		}
		corrID := client.NewCorrelationID("verify")
		var found []string
		err := v.Retryer.Execute(ctx, "searching record ids", func(ctx context.Context) error {
			var err error
			found, err = v.Client.SearchIDs(ctx, chunk, corrID)
			return err
		})
		if err != nil {
			return report, errors.Wrap(err, "verifying record batch")
		}
		report.Found += len(found)
		for _, id := range missingFrom(chunk, found) {
			report.Missing = append(report.Missing, id)
			log.Warnf("record %s not found in search", id)
		}
	}
	log.Infof("verification finished: %d of %d records found", report.Found, report.Expected)
	return report, nil
}

func missingFrom(want, got []string) []string {
	present := make(map[string]bool, len(got))
	for _, id := range got {
		present[id] = true
	}
	var missing []string
	for _, id := range want {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// CollectIDs gathers the record ids a manifest directory would create,
// rewritten for the target partition the way submission rewrites them.
// Surrogate ids are skipped; the platform assigns their real ids and
// they cannot be verified or deleted by the authored value.
func CollectIDs(dir, partition string) ([]string, error) {
	paths, err := listManifests(dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	seen := map[string]bool{}
	add := func(rec interface{}) {
		m, ok := rec.(map[string]interface{})
		if !ok {
			return
		}
		id, ok := m["id"].(string)
		if !ok || id == "" || strings.HasPrefix(id, surrogatePrefix) {
			return
		}
		id = rewriteString(id, partition)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, path := range paths {
		doc, err := readManifest(path)
		if err != nil {
			return nil, err
		}
		typ, err := manifest.Classify(doc)
		if err != nil {
			return nil, errors.Wrapf(err, "classifying %s", path)
		}
		switch typ {
		case manifest.TypeReference, manifest.TypeMaster:
			for _, rec := range manifest.Records(doc, typ) {
				add(rec)
			}
		case manifest.TypeWorkProduct:
			data, _ := doc[manifest.TagData].(map[string]interface{})
			if data == nil {
				continue
			}
			add(data["WorkProduct"])
			for _, key := range []string{"WorkProductComponents", "Datasets"} {
				list, _ := data[key].([]interface{})
				for _, item := range list {
					add(item)
				}
			}
		}
	}
	return ids, nil
}
