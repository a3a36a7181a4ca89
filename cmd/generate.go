package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/osdu-tools/dataload/ctl"
)

func newGenerateCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := ctl.NewGenerateCommand(stdin, stdout, stderr)
	ccmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate manifests from templates and tabular sources",
		Long: `
Generates loading manifest files by resolving each row of the mapped
tabular source files against its manifest template.
`,
		RunE: func(c *cobra.Command, args []string) error {
			if err := applyLogOptions(c, cmd.CmdIO); err != nil {
				return err
			}
			return cmd.Run(c.Context())
		},
	}

	flags := ccmd.Flags()
	flags.StringVarP(&cmd.MappingPath, "mapping", "m", "", "mapping file pairing templates with sources")
	flags.StringVar(&cmd.TemplateDir, "template-dir", ".", "directory the mapping's template paths are relative to")
	flags.StringVar(&cmd.SourceDir, "source-dir", ".", "directory the mapping's source paths are relative to")
	flags.StringVarP(&cmd.OutputDir, "output-dir", "o", "", "directory the generated manifests are written to")
	flags.StringVar(&cmd.Namespace, "namespace", "", "value substituted for the template namespace token")
	flags.BoolVar(&cmd.DropUnmatchedOneOf, "drop-unmatched-oneof", false, "drop alternative groups no alternative of which matched")
	return ccmd
}
