package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/osdu-tools/dataload/ctl"
)

func newUploadCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := ctl.NewUploadCommand(stdin, stdout, stderr)
	ccmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload dataset files and record their platform locations",
		Long: `
Uploads every matching dataset file under a directory through the file
service and writes a location map artifact for later manifest ingestion.
`,
		RunE: func(c *cobra.Command, args []string) error {
			if err := applyLogOptions(c, cmd.CmdIO); err != nil {
				return err
			}
			return cmd.Run(c.Context())
		},
	}

	flags := ccmd.Flags()
	flags.StringVarP(&cmd.Dir, "dir", "d", "", "directory scanned for dataset files")
	flags.StringVarP(&cmd.LocationPath, "location-map", "l", "", "path the location map artifact is written to")
	flags.IntVar(&cmd.Workers, "workers", 0, "concurrent uploads, 0 picks a default from the processor count")
	flags.StringSliceVar(&cmd.Includes, "include", nil, "dataset file patterns to upload (default *.pdf,*.csv,*.las,*.txt)")
	platformFlags(flags, cmd.Config, &cmd.AuthToken)
	return ccmd
}
