package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mrpasztoradam/goadsio"
	"github.com/spf13/cobra"
)

func newSetCmd() *cobra.Command {
	flags := &plcFlags{}

	cmd := &cobra.Command{
		Use:   "set <symbol> <value>",
		Short: "Write a symbol value",
		Long: `Write a value to a PLC symbol. The value is parsed according to the
symbol's declared type: booleans accept true/false, numbers are parsed
in decimal, and strings are written as-is.`,
		Example: `  adsio set MAIN.setpoint 21.5 --target 10.0.0.50:48898 --net-id 10.0.10.20.1.1
  adsio set MAIN.enabled true -t 10.0.0.50:48898 -n 10.0.10.20.1.1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(cmd); err != nil {
				return err
			}

			name, raw := args[0], args[1]

			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			client, err := flags.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			info, err := client.SymbolByName(name).Info(ctx)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", name, err)
			}

			if err := writeTyped(ctx, client, name, info.DataType, raw); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}

			fmt.Printf("%s <- %s\n", name, raw)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// writeTyped parses raw according to the symbol's declared type and writes it.
func writeTyped(ctx context.Context, client *goadsio.Client, name string, dt goadsio.DataType, raw string) error {
	switch dt {
	case goadsio.TypeBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%q is not a boolean", raw)
		}
		return client.WriteBool(ctx, name, v)
	case goadsio.TypeInt8:
		v, err := strconv.ParseInt(raw, 10, 8)
		if err != nil {
			return err
		}
		return client.WriteInt8(ctx, name, int8(v))
	case goadsio.TypeUint8:
		v, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			return err
		}
		return client.WriteUint8(ctx, name, uint8(v))
	case goadsio.TypeInt16:
		v, err := strconv.ParseInt(raw, 10, 16)
		if err != nil {
			return err
		}
		return client.WriteInt16(ctx, name, int16(v))
	case goadsio.TypeUint16:
		v, err := strconv.ParseUint(raw, 10, 16)
		if err != nil {
			return err
		}
		return client.WriteUint16(ctx, name, uint16(v))
	case goadsio.TypeInt32:
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return err
		}
		return client.WriteInt32(ctx, name, int32(v))
	case goadsio.TypeUint32:
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return err
		}
		return client.WriteUint32(ctx, name, uint32(v))
	case goadsio.TypeInt64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		return client.WriteInt64(ctx, name, v)
	case goadsio.TypeUint64:
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}
		return client.WriteUint64(ctx, name, v)
	case goadsio.TypeFloat32:
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return err
		}
		return client.WriteFloat32(ctx, name, float32(v))
	case goadsio.TypeFloat64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		return client.WriteFloat64(ctx, name, v)
	case goadsio.TypeString:
		return client.WriteString(ctx, name, raw)
	case goadsio.TypeWString:
		return client.WriteWString(ctx, name, raw)
	default:
		return fmt.Errorf("cannot write values of type %s", dt)
	}
}
