package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/sensorwire/internal/tabular"
)

func newConvertCmd(a *app) *cobra.Command {
	var in, out, format string
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Decode hex tables into record rows or Parquet",
		Long: `Decode a hex table, or every *.csv in a directory, and persist the
records. CSV output is appended; Parquet output is rewritten.

Example:
  sensorctl convert --in data/raw --out data/records.parquet --format parquet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				return errors.New("--in is required")
			}
			if !cmd.Flags().Changed("format") {
				format = a.cfg.Output.Format
			}
			f, err := tabular.ParseFormat(format)
			if err != nil {
				return err
			}
			if out == "" {
				out = a.cfg.RecordsPath()
			}
			dec, err := a.decoder()
			if err != nil {
				return err
			}
			n, err := tabular.NewAdapter(dec, a.logger).Convert(in, out, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "converted %d records to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "hex table file or directory")
	cmd.Flags().StringVar(&out, "out", "", "output path (defaults to the configured records file)")
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv|parquet")
	return cmd
}
