package main

import (
	"fmt"

	"github.com/mrpasztoradam/goadsio"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(goadsio.GetBuildInfo().String())
		},
	}
}
