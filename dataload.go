package dataload

import (
	"io"

	"github.com/osdu-tools/dataload/logger"
)

// Version is overridden at build time with -ldflags.
var Version = "v0.0.0-devel"

// CmdIO holds standard unix inputs and outputs.
type CmdIO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	logger logger.Logger
}

// NewCmdIO returns a new instance of CmdIO with inputs and outputs set to the
// arguments.
func NewCmdIO(stdin io.Reader, stdout, stderr io.Writer) *CmdIO {
	return &CmdIO{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		logger: logger.NewStandardLogger(stderr),
	}
}

func (c *CmdIO) Logger() logger.Logger {
	return c.logger
}

// SetLogger replaces the logger, e.g. to tee output into a run log file.
func (c *CmdIO) SetLogger(l logger.Logger) {
	c.logger = l
}
