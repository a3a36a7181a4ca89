package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/osdu-tools/dataload/ctl"
)

func newIngestCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := ctl.NewIngestCommand(stdin, stdout, stderr)
	ccmd := &cobra.Command{
		Use:   "ingest",
		Short: "Submit manifests to the ingestion workflow",
		Long: `
Classifies and prepares every manifest under a directory, submits them
as ingestion workflow runs and polls the runs to a terminal status.
`,
		RunE: func(c *cobra.Command, args []string) error {
			if err := applyLogOptions(c, cmd.CmdIO); err != nil {
				return err
			}
			return cmd.Run(c.Context())
		},
	}

	flags := ccmd.Flags()
	flags.StringVarP(&cmd.Dir, "dir", "d", "", "directory of manifest files to submit")
	flags.StringVarP(&cmd.LocationPath, "location-map", "l", "", "location map artifact of a previous upload run")
	flags.StringVar(&cmd.RunsPath, "runs-out", "", "file the submitted run ids are written to")
	flags.BoolVar(&cmd.NoWait, "no-wait", false, "return right after submission instead of polling")
	platformFlags(flags, cmd.Config, &cmd.AuthToken)
	return ccmd
}
