package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	flags := &plcFlags{}

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show device name, version, and ADS state",
		Example: `  adsio info --target 10.0.0.50:48898 --net-id 10.0.10.20.1.1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(cmd); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			client, err := flags.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			info, err := client.DeviceInfo(ctx)
			if err != nil {
				return fmt.Errorf("reading device info: %w", err)
			}
			fmt.Printf("Device:  %s\n", info.Name)
			fmt.Printf("Version: %d.%d.%d\n", info.MajorVersion, info.MinorVersion, info.VersionBuild)

			state, err := client.ReadState(ctx)
			if err != nil {
				return fmt.Errorf("reading device state: %w", err)
			}
			fmt.Printf("State:   %s (device state %d)\n", state.ADSState, state.DeviceState)

			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
