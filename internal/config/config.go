package config

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/danmuck/sensorwire/internal/protocol"
	"github.com/danmuck/sensorwire/internal/protocol/registry"
)

type Config struct {
	Decoder DecoderConfig `toml:"decoder" yaml:"decoder"`
	Serial  SerialConfig  `toml:"serial" yaml:"serial"`
	Output  OutputConfig  `toml:"output" yaml:"output"`
}

type DecoderConfig struct {
	Scheme string `toml:"scheme" yaml:"scheme"` // numeric|tag
	// RequireNonzeroCount is a pointer so an absent key keeps the scheme default.
	RequireNonzeroCount *bool  `toml:"require_nonzero_count" yaml:"require_nonzero_count"`
	ByteOrder           string `toml:"byte_order" yaml:"byte_order"` // little|big
}

type SerialConfig struct {
	Port        string   `toml:"port" yaml:"port"`
	BaudRate    int      `toml:"baud_rate" yaml:"baud_rate"`
	ReadTimeout Duration `toml:"read_timeout" yaml:"read_timeout"`
	ChunkSize   int      `toml:"chunk_size" yaml:"chunk_size"`
	Mode        string   `toml:"mode" yaml:"mode"` // decode|capture
}

type OutputConfig struct {
	Dir         string `toml:"dir" yaml:"dir"`
	RecordsFile string `toml:"records_file" yaml:"records_file"`
	CaptureFile string `toml:"capture_file" yaml:"capture_file"`
	Format      string `toml:"format" yaml:"format"` // csv|parquet
	MetricsAddr string `toml:"metrics_addr" yaml:"metrics_addr"`
}

// Duration reads "1s"-style strings from either format.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

// Load reads a .toml, .yaml or .yml file, fills defaults and validates.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("config load failed (%s): unsupported extension", path)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Decoder.Scheme == "" {
		cfg.Decoder.Scheme = "numeric"
	}
	if cfg.Decoder.ByteOrder == "" {
		cfg.Decoder.ByteOrder = "little"
	}
	if cfg.Serial.BaudRate == 0 {
		cfg.Serial.BaudRate = 9600
	}
	if cfg.Serial.ReadTimeout.Duration == 0 {
		cfg.Serial.ReadTimeout.Duration = time.Second
	}
	if cfg.Serial.ChunkSize == 0 {
		cfg.Serial.ChunkSize = 4096
	}
	cfg.Serial.Mode = strings.ToLower(strings.TrimSpace(cfg.Serial.Mode))
	if cfg.Serial.Mode == "" {
		cfg.Serial.Mode = "decode"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "data"
	}
	if cfg.Output.RecordsFile == "" {
		cfg.Output.RecordsFile = "records.csv"
	}
	if cfg.Output.CaptureFile == "" {
		cfg.Output.CaptureFile = "raw.csv"
	}
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	if cfg.Output.Format == "" {
		cfg.Output.Format = "csv"
	}
}

func Validate(cfg Config) error {
	if _, err := registry.ByName(cfg.Decoder.Scheme); err != nil {
		return fmt.Errorf("decoder config invalid: %w", err)
	}
	if _, err := byteOrder(cfg.Decoder.ByteOrder); err != nil {
		return fmt.Errorf("decoder config invalid: %w", err)
	}
	if cfg.Serial.BaudRate < 0 {
		return fmt.Errorf("serial config invalid: baud_rate %d", cfg.Serial.BaudRate)
	}
	if cfg.Serial.ChunkSize < protocol.HeaderSize {
		return fmt.Errorf("serial config invalid: chunk_size %d below header size", cfg.Serial.ChunkSize)
	}
	switch strings.ToLower(cfg.Serial.Mode) {
	case "decode", "capture":
	default:
		return fmt.Errorf("serial config invalid: mode %q", cfg.Serial.Mode)
	}
	switch strings.ToLower(cfg.Output.Format) {
	case "csv", "parquet":
	default:
		return fmt.Errorf("output config invalid: format %q", cfg.Output.Format)
	}
	if strings.TrimSpace(cfg.Output.Dir) == "" {
		return fmt.Errorf("output config missing dir")
	}
	return nil
}

// DecoderOptions converts the decoder section into protocol options.
func (c Config) DecoderOptions() (protocol.Options, error) {
	reg, err := registry.ByName(c.Decoder.Scheme)
	if err != nil {
		return protocol.Options{}, err
	}
	opts := protocol.DefaultOptions()
	if reg == registry.Registry(registry.Tags) {
		opts = protocol.TagOptions()
	}
	if c.Decoder.RequireNonzeroCount != nil {
		opts.RequireNonzeroCount = *c.Decoder.RequireNonzeroCount
	}
	order, err := byteOrder(c.Decoder.ByteOrder)
	if err != nil {
		return protocol.Options{}, err
	}
	opts.ByteOrder = order
	return opts, nil
}

func (c Config) RecordsPath() string {
	return filepath.Join(c.Output.Dir, c.Output.RecordsFile)
}

func (c Config) CapturePath() string {
	return filepath.Join(c.Output.Dir, c.Output.CaptureFile)
}

func byteOrder(raw string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "little", "le":
		return binary.LittleEndian, nil
	case "big", "be", "network":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("unknown byte order %q", raw)
	}
}
