package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danmuck/sensorwire/internal/observability"
	"github.com/danmuck/sensorwire/internal/protocol"
)

func newDecodeCmd(a *app) *cobra.Command {
	var (
		scheme     string
		allowEmpty bool
		bigEndian  bool
		keepGoing  bool
	)
	cmd := &cobra.Command{
		Use:   "decode [hex...]",
		Short: "Decode hex packets",
		Long: `Decode one packet per argument, or one per line of stdin when no
arguments are given. Prints one record per line.

Example:
  sensorctl decode 010103071e1c
  sensorctl decode --scheme tag 016601ec51b81e`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("scheme") {
				a.cfg.Decoder.Scheme = scheme
			}
			if cmd.Flags().Changed("allow-empty") {
				require := !allowEmpty
				a.cfg.Decoder.RequireNonzeroCount = &require
			}
			if bigEndian {
				a.cfg.Decoder.ByteOrder = "big"
			}
			dec, err := a.decoder()
			if err != nil {
				return err
			}
			inputs := args
			if len(inputs) == 0 {
				if inputs, err = readLines(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			return decodeInputs(cmd.OutOrStdout(), dec, inputs, keepGoing)
		},
	}
	cmd.Flags().StringVar(&scheme, "scheme", "numeric", "type code scheme: numeric|tag")
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "accept packets with a zero count")
	cmd.Flags().BoolVar(&bigEndian, "big-endian", false, "decode elements in network byte order")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "report every bad packet instead of stopping at the first")
	return cmd
}

func decodeInputs(out io.Writer, dec *protocol.Decoder, inputs []string, keepGoing bool) error {
	scheme := dec.Options().Registry.Name()
	if !keepGoing {
		recs, err := dec.DecodeAllHex(inputs)
		if err != nil {
			observability.RecordDecode(scheme, 0, protocol.ErrorKind(err))
			return err
		}
		for _, rec := range recs {
			observability.RecordDecode(scheme, rec.Count(), "")
			fmt.Fprintln(out, rec)
		}
		return nil
	}
	var errs []error
	for i, in := range inputs {
		rec, err := dec.DecodeHex(in)
		if err != nil {
			observability.RecordDecode(scheme, 0, protocol.ErrorKind(err))
			errs = append(errs, &protocol.BatchError{Index: i, Err: err})
			continue
		}
		observability.RecordDecode(scheme, rec.Count(), "")
		fmt.Fprintln(out, rec)
	}
	return errors.Join(errs...)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

