package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/osdu-tools/dataload/ctl"
)

func newVerifyCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := ctl.NewVerifyCommand(stdin, stdout, stderr)
	ccmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify loaded records against the search service",
		Long: `
Confirms that every record named by a directory of manifests is
searchable on the platform.
`,
		RunE: func(c *cobra.Command, args []string) error {
			if err := applyLogOptions(c, cmd.CmdIO); err != nil {
				return err
			}
			return cmd.Run(c.Context())
		},
	}

	flags := ccmd.Flags()
	flags.StringVarP(&cmd.Dir, "dir", "d", "", "directory of manifest files to verify against")
	flags.Float64Var(&cmd.QueriesPerSecond, "queries-per-second", 0, "search query throttle, 0 picks a default")
	platformFlags(flags, cmd.Config, &cmd.AuthToken)
	return ccmd
}
