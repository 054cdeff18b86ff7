package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "1.2.5"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the firebird version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("firebird %s\n", Version)
		},
	}
}
