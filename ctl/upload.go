package ctl

import (
	"context"
	"io"

	"github.com/osdu-tools/dataload"
	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/transfer"
)

// UploadCommand uploads the dataset files of a directory and writes the
// location map artifact the ingest command resolves work products with.
type UploadCommand struct {
	Config *dataload.Config

	// Dir is the directory scanned for dataset files.
	Dir string

	// LocationPath is where the location map artifact is written.
	LocationPath string

	// Workers bounds the upload fan-out; zero picks a default from the
	// processor count.
	Workers int

	// Includes overrides the default dataset file patterns.
	Includes []string

	// AuthToken overrides client-credentials auth when set.
	AuthToken string

	// Standard input/output
	*dataload.CmdIO
}

// NewUploadCommand returns a new instance of UploadCommand.
func NewUploadCommand(stdin io.Reader, stdout, stderr io.Writer) *UploadCommand {
	return &UploadCommand{
		Config: dataload.NewConfig(),
		CmdIO:  dataload.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the upload.
func (cmd *UploadCommand) Run(ctx context.Context) error {
	if cmd.Dir == "" {
		return errors.New(errors.ErrConfig, "a source directory is required")
	}
	if cmd.LocationPath == "" {
		return errors.New(errors.ErrConfig, "a location map path is required")
	}
	p, err := newPlatform(ctx, cmd.Config, cmd.AuthToken, cmd.Logger())
	if err != nil {
		return err
	}
	up := &transfer.Uploader{
		Client:    p.client,
		Retryer:   p.retryer,
		LegalTag:  cmd.Config.LegalTag,
		ACLViewer: cmd.Config.ACLViewer,
		ACLOwner:  cmd.Config.ACLOwner,
		Workers:   cmd.Workers,
		Includes:  cmd.Includes,
		Log:       cmd.Logger(),
	}
	locs, failed, err := up.UploadDirectory(ctx, cmd.Dir)
	if err != nil {
		return err
	}
	if err := locs.WriteFile(cmd.LocationPath); err != nil {
		return err
	}
	writeSummary(cmd.Stdout,
		[]interface{}{"uploaded", "failed"},
		[][]interface{}{{len(locs), len(failed)}})
	if len(failed) > 0 {
		return errors.Newf(errors.ErrUncoded, "%d files failed to upload", len(failed))
	}
	return nil
}
