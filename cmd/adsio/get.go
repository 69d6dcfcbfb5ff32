package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type getFlags struct {
	plcFlags
	showInfo bool
}

func newGetCmd() *cobra.Command {
	flags := &getFlags{}

	cmd := &cobra.Command{
		Use:   "get <symbol>...",
		Short: "Read one or more symbol values",
		Example: `  # Read a single value
  adsio get MAIN.temperature --target 10.0.0.50:48898 --net-id 10.0.10.20.1.1

  # Read several symbols and show their metadata
  adsio get MAIN.temperature MAIN.counter --info -t 10.0.0.50:48898 -n 10.0.10.20.1.1`,
		Args: cobra.MinimumNArgs(1),
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

			for _, name := range args {
				sym := client.SymbolByName(name)
				value, err := sym.Read(ctx)
				if err != nil {
					return fmt.Errorf("reading %s: %w", name, err)
				}

				if flags.showInfo {
					info, err := sym.Info(ctx)
					if err != nil {
						return fmt.Errorf("resolving %s: %w", name, err)
					}
					fmt.Printf("%s = %v (%s, %d bytes, group 0x%X offset 0x%X)\n",
						name, value, info.DataType, info.Size, info.IndexGroup, info.IndexOffset)
				} else {
					fmt.Printf("%s = %v\n", name, value)
				}
			}

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.showInfo, "info", false, "print symbol metadata alongside the value")
	return cmd
}
