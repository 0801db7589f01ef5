package main

import (
	"flag"
	"path/filepath"
	"strings"

	"github.com/danmuck/sensorwire/internal/config"
	"github.com/danmuck/sensorwire/internal/observability"
)

func main() {
	logger := observability.InitLogger("configgen")

	format := flag.String("format", "toml", "config format: toml|yaml")
	output := flag.String("output", "", "output path for config template (defaults to sensorwire.<format>)")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to sensorwire.<format>)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*format)
		}
		cfg, err := config.Load(path)
		if err != nil {
			logger.Fatal().Err(err).Msg("config invalid")
		}
		logger.Info().
			Str("path", path).
			Str("scheme", cfg.Decoder.Scheme).
			Str("port", cfg.Serial.Port).
			Msg("config validated")
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*format)
	}
	if ext := strings.TrimPrefix(filepath.Ext(target), "."); ext != "" && *format == "toml" && ext != "toml" {
		// -output sensorwire.yaml without -format picks the format from the name.
		*format = ext
	}
	if err := config.WriteTemplate(target, *format, *force); err != nil {
		logger.Fatal().Err(err).Msg("config template not written")
	}
	logger.Info().Str("format", *format).Str("path", target).Msg("wrote config template")
}

func defaultPath(format string) string {
	if strings.EqualFold(format, "yaml") || strings.EqualFold(format, "yml") {
		return "sensorwire.yaml"
	}
	return "sensorwire.toml"
}
