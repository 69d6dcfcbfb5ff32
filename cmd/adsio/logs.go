package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mrpasztoradam/goadsio"
	"github.com/spf13/cobra"
)

func newLogsCmd() *cobra.Command {
	flags := &plcFlags{}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Stream the TwinCAT runtime log",
		Long: `Subscribe to the TwinCAT log system and print every runtime log
message until interrupted.`,
		Example: `  adsio logs --target 10.0.0.50:48898 --net-id 10.0.10.20.1.1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(cmd); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			connectCtx, cancel := context.WithTimeout(ctx, flags.timeout)
			client, err := flags.connect(connectCtx)
			cancel()
			if err != nil {
				return err
			}
			defer client.Close()

			_, err = client.EnableLogSystem(ctx, func(msg goadsio.LogMessage) {
				fmt.Printf("%s  [%s] %s\n", msg.Timestamp.Format("15:04:05.000"), msg.SenderName, msg.Text())
			})
			if err != nil {
				return fmt.Errorf("enabling log system: %w", err)
			}

			<-ctx.Done()
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
