package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "adsio",
		Short: "ADS client for TwinCAT PLCs",
		Long: `adsio talks to TwinCAT runtimes over the ADS protocol. It can read and
monitor PLC symbols, inspect device state, manage AMS routes, and serve
an HTTP/WebSocket gateway in front of a PLC.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newSetCmd())
	rootCmd.AddCommand(newMonitorCmd())
	rootCmd.AddCommand(newLogsCmd())
	rootCmd.AddCommand(newRouteCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
