package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mrpasztoradam/goadsio"
	"github.com/spf13/cobra"
)

// plcFlags holds the connection options shared by every command that talks
// to a PLC.
type plcFlags struct {
	target      string
	netID       string
	sourceNetID string
	port        uint16
	timeout     time.Duration
	verbose     bool
}

func (f *plcFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.target, "target", "t", "", "PLC address (host:port)")
	cmd.Flags().StringVarP(&f.netID, "net-id", "n", "", "target AMS Net ID (e.g. 10.0.10.20.1.1)")
	cmd.Flags().StringVar(&f.sourceNetID, "source-net-id", "", "source AMS Net ID (derived from the local IP when empty)")
	cmd.Flags().Uint16VarP(&f.port, "port", "p", 851, "target AMS port")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 5*time.Second, "request timeout")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
}

func (f *plcFlags) validate(cmd *cobra.Command) error {
	if f.target == "" {
		return missingFlagError(cmd, "--target")
	}
	if f.netID == "" {
		return missingFlagError(cmd, "--net-id")
	}
	return nil
}

// connect builds a client from the flags and waits for the TCP session.
func (f *plcFlags) connect(ctx context.Context) (*goadsio.Client, error) {
	opts := []goadsio.Option{
		goadsio.WithTarget(f.target),
		goadsio.WithAMSNetID(f.netID),
		goadsio.WithAMSPort(goadsio.Port(f.port)),
		goadsio.WithTimeout(f.timeout),
		goadsio.WithLogger(f.logger()),
	}
	if f.sourceNetID != "" {
		opts = append(opts, goadsio.WithSourceNetID(f.sourceNetID))
	}

	client, err := goadsio.New(opts...)
	if err != nil {
		return nil, err
	}
	if err := client.WaitForConnection(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to %s: %w", f.target, err)
	}
	return client, nil
}

func (f *plcFlags) logger() goadsio.Logger {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return goadsio.NewSlogLogger(slog.New(handler))
}

func missingFlagError(cmd *cobra.Command, flag string) error {
	return fmt.Errorf("%s requires %s (see \"adsio %s --help\")", cmd.Name(), flag, cmd.Name())
}
