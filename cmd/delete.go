package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/osdu-tools/dataload/ctl"
)

func newDeleteCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := ctl.NewDeleteCommand(stdin, stdout, stderr)
	ccmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete loaded records named by a manifest directory",
		Long: `
Deletes every record a directory of manifests names. Records that are
already gone are counted, not treated as failures.
`,
		RunE: func(c *cobra.Command, args []string) error {
			if err := applyLogOptions(c, cmd.CmdIO); err != nil {
				return err
			}
			return cmd.Run(c.Context())
		},
	}

	flags := ccmd.Flags()
	flags.StringVarP(&cmd.Dir, "dir", "d", "", "directory of manifest files naming the records")
	flags.BoolVarP(&cmd.Force, "force", "f", false, "skip the interactive confirmation")
	platformFlags(flags, cmd.Config, &cmd.AuthToken)
	return ccmd
}
