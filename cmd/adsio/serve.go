package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mrpasztoradam/goadsio/gateway"
	"github.com/spf13/cobra"
)

type serveFlags struct {
	configFile  string
	initConfig  string
	target      string
	netID       string
	listen      string
}

func newServeCmd() *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP/WebSocket gateway",
		Long: `Run an HTTP server that exposes symbol reads, writes, and real-time
notification streams over JSON and WebSocket. Configuration comes from
a YAML file; individual settings can be overridden with flags.`,
		Example: `  # Write an example configuration and edit it
  adsio serve --init-config gateway.yaml

  # Run the gateway
  adsio serve --config gateway.yaml

  # Override the PLC target from the command line
  adsio serve --config gateway.yaml --target 10.0.0.50:48898`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.initConfig != "" {
				if err := gateway.SaveExample(flags.initConfig); err != nil {
					return err
				}
				fmt.Printf("wrote example configuration to %s\n", flags.initConfig)
				return nil
			}

			cfg := gateway.DefaultConfig()
			if flags.configFile != "" {
				loaded, err := gateway.LoadConfig(flags.configFile)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if flags.target != "" {
				cfg.PLC.Target = flags.target
			}
			if flags.netID != "" {
				cfg.PLC.AMSNetID = flags.netID
			}
			if flags.listen != "" {
				host, portStr, err := net.SplitHostPort(flags.listen)
				if err != nil {
					return fmt.Errorf("invalid listen address %q: %w", flags.listen, err)
				}
				port, err := strconv.Atoi(portStr)
				if err != nil {
					return fmt.Errorf("invalid listen port %q: %w", portStr, err)
				}
				cfg.Server.Host = host
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			srv, err := gateway.NewServer(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "path to the YAML configuration file")
	cmd.Flags().StringVar(&flags.initConfig, "init-config", "", "write an example configuration to the given path and exit")
	cmd.Flags().StringVarP(&flags.target, "target", "t", "", "override the PLC address (host:port)")
	cmd.Flags().StringVarP(&flags.netID, "net-id", "n", "", "override the target AMS Net ID")
	cmd.Flags().StringVarP(&flags.listen, "listen", "l", "", "override the listen address (host:port)")
	return cmd
}
