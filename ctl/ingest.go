package ctl

import (
	"context"
	"io"

	"github.com/osdu-tools/dataload"
	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/ingest"
	"github.com/osdu-tools/dataload/transfer"
)

// IngestCommand submits a directory of manifests to the ingestion
// workflow and tracks the runs to completion.
type IngestCommand struct {
	Config *dataload.Config

	// Dir is the directory of manifest files to submit.
	Dir string

	// LocationPath points at the location map artifact of a previous
	// upload run. Required when the directory contains work products.
	LocationPath string

	// RunsPath, when set, receives the run ids of the submission so
	// status can re-check them later.
	RunsPath string

	// NoWait returns right after submission instead of polling.
	NoWait bool

	// AuthToken overrides client-credentials auth when set.
	AuthToken string

	// Standard input/output
	*dataload.CmdIO
}

// NewIngestCommand returns a new instance of IngestCommand.
func NewIngestCommand(stdin io.Reader, stdout, stderr io.Writer) *IngestCommand {
	return &IngestCommand{
		Config: dataload.NewConfig(),
		CmdIO:  dataload.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the submission.
func (cmd *IngestCommand) Run(ctx context.Context) error {
	if cmd.Dir == "" {
		return errors.New(errors.ErrConfig, "a manifest directory is required")
	}
	p, err := newPlatform(ctx, cmd.Config, cmd.AuthToken, cmd.Logger())
	if err != nil {
		return err
	}
	var locs transfer.LocationMap
	if cmd.LocationPath != "" {
		locs, err = transfer.ReadLocationMap(cmd.LocationPath)
		if err != nil {
			return err
		}
	}
	orch := &ingest.Orchestrator{
		Client:       p.client,
		Retryer:      p.retryer,
		LegalTag:     cmd.Config.LegalTag,
		ACLViewer:    cmd.Config.ACLViewer,
		ACLOwner:     cmd.Config.ACLOwner,
		BatchSize:    cmd.Config.BatchSize,
		PollInterval: cmd.Config.PollInterval,
		PollTimeout:  cmd.Config.PollTimeout,
		Locations:    locs,
		NoWait:       cmd.NoWait,
		Log:          cmd.Logger(),
	}
	report, err := orch.Run(ctx, cmd.Dir)
	if err != nil {
		return err
	}
	if cmd.RunsPath != "" {
		if err := writeRunIDs(cmd.RunsPath, report.RunIDs()); err != nil {
			return err
		}
	}

	rows := make([][]interface{}, 0, len(report.Types)+1)
	for _, typ := range []string{"ReferenceData", "MasterData", "Data"} {
		if stats, ok := report.Types[typ]; ok {
			rows = append(rows, []interface{}{typ, stats.Processed, stats.Succeeded, stats.Failed, stats.Unknown})
		}
	}
	total := report.Total()
	rows = append(rows, []interface{}{"total", total.Processed, total.Succeeded, total.Failed, total.Unknown})
	writeSummary(cmd.Stdout,
		[]interface{}{"type", "processed", "succeeded", "failed", "unknown"},
		rows)

	for _, name := range report.FailedUnits {
		cmd.Logger().Errorf("failed: %s", name)
	}
	if total.Failed > 0 {
		return errors.Newf(errors.ErrUncoded, "%d records failed to ingest", total.Failed)
	}
	return nil
}
