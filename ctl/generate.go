package ctl

import (
	"context"
	"io"

	"github.com/osdu-tools/dataload"
	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/manifest"
)

// GenerateCommand turns templates plus tabular source files into
// manifest files on disk. It never talks to the platform.
type GenerateCommand struct {
	// Path of the mapping file pairing templates with sources.
	MappingPath string

	// Directories the mapping entries are resolved against.
	TemplateDir string
	SourceDir   string
	OutputDir   string

	// Namespace substituted for the template namespace token. Empty
	// leaves the token in place for submission-time rewriting.
	Namespace string

	// DropUnmatchedOneOf drops alternative groups none of whose
	// alternatives matched the row, instead of keeping the first.
	DropUnmatchedOneOf bool

	// Standard input/output
	*dataload.CmdIO
}

// NewGenerateCommand returns a new instance of GenerateCommand.
func NewGenerateCommand(stdin io.Reader, stdout, stderr io.Writer) *GenerateCommand {
	return &GenerateCommand{
		CmdIO: dataload.NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the generation.
func (cmd *GenerateCommand) Run(ctx context.Context) error {
	if cmd.MappingPath == "" {
		return errors.New(errors.ErrConfig, "a mapping file is required")
	}
	if cmd.OutputDir == "" {
		return errors.New(errors.ErrConfig, "an output directory is required")
	}
	mapping, err := manifest.LoadMapping(cmd.MappingPath)
	if err != nil {
		return err
	}
	gen := &manifest.Generator{
		TemplateDir:        cmd.TemplateDir,
		SourceDir:          cmd.SourceDir,
		OutputDir:          cmd.OutputDir,
		Namespace:          cmd.Namespace,
		DropUnmatchedOneOf: cmd.DropUnmatchedOneOf,
		Log:                cmd.Logger(),
	}
	sum, err := gen.Run(mapping)
	if err != nil {
		return err
	}
	writeSummary(cmd.Stdout,
		[]interface{}{"rows", "manifests", "failed rows"},
		[][]interface{}{{sum.Rows, sum.Manifests, sum.Failed}})
	if sum.Failed > 0 {
		return errors.Newf(errors.ErrTemplateMalformed, "%d rows failed to resolve", sum.Failed)
	}
	return nil
}
