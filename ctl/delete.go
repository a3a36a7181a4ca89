package ctl

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/osdu-tools/dataload"
	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/ingest"
)

// DeleteCommand removes previously loaded records, addressed by the
// manifests that created them.
type DeleteCommand struct {
	Config *dataload.Config

	// Dir is the directory of manifest files naming the records.
	Dir string

	// Force skips the interactive confirmation.
	Force bool

	// AuthToken overrides client-credentials auth when set.
	AuthToken string

	// Standard input/output
	*dataload.CmdIO
}

// NewDeleteCommand returns a new instance of DeleteCommand.
func NewDeleteCommand(stdin io.Reader, stdout, stderr io.Writer) *DeleteCommand {
	return &DeleteCommand{
		Config: dataload.NewConfig(),
		CmdIO:  dataload.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the deletion.
func (cmd *DeleteCommand) Run(ctx context.Context) error {
	if cmd.Dir == "" {
		return errors.New(errors.ErrConfig, "a manifest directory is required")
	}
	if !cmd.Force && !cmd.confirm() {
		cmd.Stdout.Write([]byte("aborted\n"))
		return nil
	}
	p, err := newPlatform(ctx, cmd.Config, cmd.AuthToken, cmd.Logger())
	if err != nil {
		return err
	}
	deleter := &ingest.Deleter{
		Client:  p.client,
		Retryer: p.retryer,
		Log:     cmd.Logger(),
	}
	report, err := deleter.Run(ctx, cmd.Dir)
	if err != nil {
		return err
	}
	writeSummary(cmd.Stdout,
		[]interface{}{"deleted", "already missing", "failed"},
		[][]interface{}{{report.Deleted, report.Missing, len(report.Failed)}})
	if len(report.Failed) > 0 {
		return errors.Newf(errors.ErrUncoded, "%d records failed to delete", len(report.Failed))
	}
	return nil
}

func (cmd *DeleteCommand) confirm() bool {
	cmd.Stdout.Write([]byte("delete all records named by " + cmd.Dir + "? [y/N] "))
	line, err := bufio.NewReader(cmd.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
