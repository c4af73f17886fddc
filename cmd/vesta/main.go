// Command vesta serves NBA player statistics from basketball-reference.com
// as MCP tools and a REST API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	serviceName    = "vesta"
	serviceVersion = "1.0.0"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "NBA player statistics as MCP tools",
		Version:       serviceVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newHTTPCommand(), newQueryCommand())
	return root
}
