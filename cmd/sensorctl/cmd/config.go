package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/sensorwire/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sensorctl config files",
	}

	var format, path string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = "sensorwire." + format
			}
			if err := config.WriteTemplate(path, format, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s config to %s\n", format, path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&format, "format", "toml", "toml|yaml")
	initCmd.Flags().StringVar(&path, "path", "", "output path (defaults to sensorwire.<format>)")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "decoder.scheme=%s\n", cfg.Decoder.Scheme)
			fmt.Fprintf(out, "decoder.byte_order=%s\n", cfg.Decoder.ByteOrder)
			opts, err := cfg.DecoderOptions()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "decoder.require_nonzero_count=%t\n", opts.RequireNonzeroCount)
			fmt.Fprintf(out, "serial.port=%s\n", cfg.Serial.Port)
			fmt.Fprintf(out, "serial.baud_rate=%d\n", cfg.Serial.BaudRate)
			fmt.Fprintf(out, "serial.mode=%s\n", cfg.Serial.Mode)
			fmt.Fprintf(out, "output.records=%s\n", cfg.RecordsPath())
			fmt.Fprintf(out, "output.capture=%s\n", cfg.CapturePath())
			fmt.Fprintf(out, "output.format=%s\n", cfg.Output.Format)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
