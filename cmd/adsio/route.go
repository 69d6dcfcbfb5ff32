package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mrpasztoradam/goadsio"
	"github.com/mrpasztoradam/goadsio/internal/service"
	"github.com/spf13/cobra"
)

type routeAddFlags struct {
	host        string
	sourceNetID string
	sourceName  string
	username    string
	password    string
	routeName   string
	timeout     time.Duration
}

func newRouteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Manage AMS routes via the system service",
	}

	cmd.AddCommand(newRouteAddCmd())
	cmd.AddCommand(newRouteNetIDCmd())
	return cmd
}

func newRouteAddCmd() *cobra.Command {
	flags := &routeAddFlags{}

	cmd := &cobra.Command{
		Use:   "add <plc-host>",
		Short: "Register a static route on a PLC",
		Long: `Ask the PLC's system service (UDP port 48899) to add a static route
back to this machine. Without a matching route the PLC silently drops
every ADS request.`,
		Example: `  adsio route add 10.0.0.50 --source-net-id 10.0.0.5.1.1 --source-name 10.0.0.5

  # Non-default credentials
  adsio route add 10.0.0.50 --source-net-id 10.0.0.5.1.1 --source-name my-host \
      --username Administrator --password secret`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.host = args[0]
			if flags.sourceNetID == "" {
				return missingFlagError(cmd, "--source-net-id")
			}
			if flags.sourceName == "" {
				return missingFlagError(cmd, "--source-name")
			}

			netID, err := goadsio.ParseNetID(flags.sourceNetID)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			resp, err := service.AddRoute(ctx, flags.host, service.RouteRequest{
				SourceNetID: netID,
				SourceName:  flags.sourceName,
				Username:    flags.username,
				Password:    flags.password,
				RouteName:   flags.routeName,
			})
			if err != nil {
				return fmt.Errorf("adding route: %w", err)
			}

			if resp.AuthError {
				fmt.Fprintln(os.Stderr, "route refused: authentication failed")
				os.Exit(1)
			}
			fmt.Printf("route added on %s (%s)\n", flags.host, resp.NetID)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.sourceNetID, "source-net-id", "", "AMS Net ID the route points to")
	cmd.Flags().StringVar(&flags.sourceName, "source-name", "", "hostname or IP the route points to")
	cmd.Flags().StringVar(&flags.username, "username", "", "PLC username (default Administrator)")
	cmd.Flags().StringVar(&flags.password, "password", "", "PLC password (default 1)")
	cmd.Flags().StringVar(&flags.routeName, "route-name", "", "PLC-side route name (defaults to the source name)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

func newRouteNetIDCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "netid <plc-host>",
		Short: "Query a PLC's AMS Net ID",
		Example: `  adsio route netid 10.0.0.50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			netID, err := service.GetNetID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("querying net id: %w", err)
			}

			fmt.Println(netID)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}
