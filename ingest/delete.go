package ingest

import (
	"context"

	"github.com/osdu-tools/dataload/client"
	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/logger"
	"github.com/osdu-tools/dataload/retry"
)

// Deleter removes previously loaded records, addressed by the manifests
// that created them.
type Deleter struct {
	Client  *client.Client
	Retryer *retry.Retryer
	Log     logger.Logger
}

// DeleteReport counts one deletion pass. Missing counts records that
// were already gone; they are not failures.
type DeleteReport struct {
	Deleted int
	Missing int
	Failed  []string
}

// Run deletes every record id a manifest directory names. Per-record
// failures are collected, not fatal.
func (d *Deleter) Run(ctx context.Context, dir string) (*DeleteReport, error) {
	log := d.Log
	if log == nil {
		log = logger.NopLogger
	}
	ids, err := CollectIDs(dir, d.Client.Partition())
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errors.Newf(errors.ErrConfig, "no record ids found under %s", dir)
	}
	log.Infof("deleting %d records from %s", len(ids), dir)

	report := &DeleteReport{}
	for _, id := range ids {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		corrID := client.NewCorrelationID("delete")
		err := d.Retryer.Execute(ctx, "deleting record "+id, func(ctx context.Context) error {
			return d.Client.DeleteRecord(ctx, id, corrID)
		})
		switch {
		case err == nil:
			report.Deleted++
		case errors.Is(err, errors.ErrNotFound):
			report.Missing++
		default:
			report.Failed = append(report.Failed, id)
			log.Errorf("deleting %s failed: %v", id, err)
		}
	}
	log.Infof("deletion finished: %d deleted, %d already missing, %d failed",
		report.Deleted, report.Missing, len(report.Failed))
	return report, nil
}
