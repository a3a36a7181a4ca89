package ctl

import (
	"context"
	"io"

	"github.com/osdu-tools/dataload"
	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/ingest"
)

// VerifyCommand confirms that the records of a manifest directory are
// searchable on the platform.
type VerifyCommand struct {
	Config *dataload.Config

	// Dir is the directory of manifest files to verify against.
	Dir string

	// QueriesPerSecond throttles search calls; zero picks a default.
	QueriesPerSecond float64

	// AuthToken overrides client-credentials auth when set.
	AuthToken string

	// Standard input/output
	*dataload.CmdIO
}

// NewVerifyCommand returns a new instance of VerifyCommand.
func NewVerifyCommand(stdin io.Reader, stdout, stderr io.Writer) *VerifyCommand {
	return &VerifyCommand{
		Config: dataload.NewConfig(),
		CmdIO:  dataload.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the verification.
func (cmd *VerifyCommand) Run(ctx context.Context) error {
	if cmd.Dir == "" {
		return errors.New(errors.ErrConfig, "a manifest directory is required")
	}
	p, err := newPlatform(ctx, cmd.Config, cmd.AuthToken, cmd.Logger())
	if err != nil {
		return err
	}
	verifier := &ingest.Verifier{
		Client:           p.client,
		Retryer:          p.retryer,
		BatchSize:        cmd.Config.BatchSize,
		QueriesPerSecond: cmd.QueriesPerSecond,
		Log:              cmd.Logger(),
	}
	report, err := verifier.Run(ctx, cmd.Dir)
	if err != nil {
		return err
	}
	writeSummary(cmd.Stdout,
		[]interface{}{"expected", "found", "missing"},
		[][]interface{}{{report.Expected, report.Found, len(report.Missing)}})
	for _, id := range report.Missing {
		cmd.Logger().Errorf("missing: %s", id)
	}
	if len(report.Missing) > 0 {
		return errors.Newf(errors.ErrNotFound, "%d records not found in search", len(report.Missing))
	}
	return nil
}
