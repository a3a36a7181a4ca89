// This is the entrypoint for the dataload binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/osdu-tools/dataload/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rootCmd := cmd.NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
