package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrpasztoradam/goadsio"
	"github.com/spf13/cobra"
)

type monitorFlags struct {
	plcFlags
	cycleTime time.Duration
}

func newMonitorCmd() *cobra.Command {
	flags := &monitorFlags{}

	cmd := &cobra.Command{
		Use:   "monitor <symbol>...",
		Short: "Stream symbol values via device notifications",
		Long: `Register device notifications for the given symbols and print every
pushed sample until interrupted. Values are sampled by the PLC at the
configured cycle time and pushed over the existing connection, so no
polling traffic is generated.`,
		Example: `  adsio monitor MAIN.temperature --target 10.0.0.50:48898 --net-id 10.0.10.20.1.1

  # Sample every 50 ms
  adsio monitor MAIN.counter --cycle-time 50ms -t 10.0.0.50:48898 -n 10.0.10.20.1.1`,
		Args: cobra.MinimumNArgs(1),
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

			for _, name := range args {
				if err := watch(ctx, client, name, flags.cycleTime); err != nil {
					return fmt.Errorf("monitoring %s: %w", name, err)
				}
			}

			<-ctx.Done()
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&flags.cycleTime, "cycle-time", 100*time.Millisecond, "server sampling interval")
	return cmd
}

func watch(ctx context.Context, client *goadsio.Client, name string, cycleTime time.Duration) error {
	sym := client.SymbolByName(name)
	info, err := sym.Info(ctx)
	if err != nil {
		return err
	}
	dataType := info.DataType

	notif := client.NotificationByIndex(goadsio.NotificationSettings{
		IndexGroup:  info.IndexGroup,
		IndexOffset: info.IndexOffset,
		Length:      info.Size,
		CycleTime:   cycleTime,
	})
	_, err = notif.AddCallback(ctx, func(sample goadsio.Sample) {
		fmt.Printf("%s  %s = %s\n",
			sample.Timestamp.Format(time.RFC3339Nano), name, formatSample(dataType, sample.Data))
	})
	return err
}

func formatSample(dt goadsio.DataType, data []byte) string {
	value, err := goadsio.DecodeSymbolValue(dt, data)
	if err != nil {
		return fmt.Sprintf("% X", data)
	}
	return fmt.Sprintf("%v", value)
}
