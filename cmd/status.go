package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/osdu-tools/dataload/ctl"
)

func newStatusCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := ctl.NewStatusCommand(stdin, stdout, stderr)
	ccmd := &cobra.Command{
		Use:   "status [run-id ...]",
		Short: "Check the status of ingestion workflow runs",
		Long: `
Reports the current status of workflow runs, given as arguments or read
from a run-id file written by the ingest command.
`,
		RunE: func(c *cobra.Command, args []string) error {
			if err := applyLogOptions(c, cmd.CmdIO); err != nil {
				return err
			}
			cmd.RunIDs = args
			return cmd.Run(c.Context())
		},
	}

	flags := ccmd.Flags()
	flags.StringVar(&cmd.RunsPath, "runs", "", "run-id file written by the ingest command")
	flags.BoolVar(&cmd.Wait, "wait", false, "keep polling until every run is terminal")
	platformFlags(flags, cmd.Config, &cmd.AuthToken)
	return ccmd
}
