package ctl

import (
	"context"
	"io"

	"github.com/osdu-tools/dataload"
	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/ingest"
)

// StatusCommand re-checks previously submitted workflow runs.
type StatusCommand struct {
	Config *dataload.Config

	// RunIDs to check, given directly on the command line.
	RunIDs []string

	// RunsPath reads run ids from a file written by the ingest command.
	RunsPath string

	// Wait keeps polling until every run is terminal or the poll
	// window closes.
	Wait bool

	// AuthToken overrides client-credentials auth when set.
	AuthToken string

	// Standard input/output
	*dataload.CmdIO
}

// NewStatusCommand returns a new instance of StatusCommand.
func NewStatusCommand(stdin io.Reader, stdout, stderr io.Writer) *StatusCommand {
	return &StatusCommand{
		Config: dataload.NewConfig(),
		CmdIO:  dataload.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the status check.
func (cmd *StatusCommand) Run(ctx context.Context) error {
	runIDs := cmd.RunIDs
	if cmd.RunsPath != "" {
		fromFile, err := readRunIDs(cmd.RunsPath)
		if err != nil {
			return err
		}
		runIDs = append(runIDs, fromFile...)
	}
	if len(runIDs) == 0 {
		return errors.New(errors.ErrConfig, "at least one run id is required")
	}
	p, err := newPlatform(ctx, cmd.Config, cmd.AuthToken, cmd.Logger())
	if err != nil {
		return err
	}
	checker := &ingest.StatusChecker{
		Client:       p.client,
		Wait:         cmd.Wait,
		PollInterval: cmd.Config.PollInterval,
		PollTimeout:  cmd.Config.PollTimeout,
		Log:          cmd.Logger(),
	}
	statuses, err := checker.Check(ctx, runIDs)
	if err != nil {
		return err
	}
	rows := make([][]interface{}, 0, len(statuses))
	for _, st := range statuses {
		status := st.Status
		if status == "" {
			status = "unknown"
		}
		rows = append(rows, []interface{}{st.RunID, status, st.Elapsed})
	}
	writeSummary(cmd.Stdout, []interface{}{"run id", "status", "elapsed"}, rows)
	return nil
}
