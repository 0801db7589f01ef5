package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/danmuck/sensorwire/internal/config"
	"github.com/danmuck/sensorwire/internal/logging"
	"github.com/danmuck/sensorwire/internal/observability"
	"github.com/danmuck/sensorwire/internal/protocol"
)

// app carries state resolved once in the root pre-run.
type app struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "sensorctl",
		Short: "Decode, convert and capture sensor packets",
		Long: `sensorctl decodes [address|type|count|payload] sensor packets from hex
strings, hex tables on disk or a live serial port.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (TOML or YAML)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace|debug|info|warn|error|off")

	root.AddCommand(
		newDecodeCmd(a),
		newConvertCmd(a),
		newListenCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) init() error {
	a.logger = observability.InitLogger("sensorctl")
	if a.logLevel != "" && !logging.SetLevel(a.logLevel) {
		return fmt.Errorf("unknown log level %q", a.logLevel)
	}
	if a.configPath == "" {
		a.cfg = config.Default()
		return nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug().Str("path", a.configPath).Msg("config loaded")
	return nil
}

func (a *app) decoder() (*protocol.Decoder, error) {
	opts, err := a.cfg.DecoderOptions()
	if err != nil {
		return nil, err
	}
	return protocol.NewDecoder(opts), nil
}
