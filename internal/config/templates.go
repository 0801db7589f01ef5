package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "toml":
		return tomlTemplate, nil
	case "yaml", "yml":
		return yamlTemplate, nil
	default:
		return "", fmt.Errorf("unknown config format: %s", format)
	}
}

func WriteTemplate(path, format string, overwrite bool) error {
	template, err := Template(format)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const tomlTemplate = `[decoder]
scheme = "numeric"
require_nonzero_count = true
byte_order = "little"

[serial]
port = "/dev/ttyUSB0"
baud_rate = 9600
read_timeout = "1s"
chunk_size = 4096
mode = "decode"

[output]
dir = "data"
records_file = "records.csv"
capture_file = "raw.csv"
format = "csv"
metrics_addr = ""
`

const yamlTemplate = `decoder:
  scheme: numeric
  require_nonzero_count: true
  byte_order: little

serial:
  port: /dev/ttyUSB0
  baud_rate: 9600
  read_timeout: 1s
  chunk_size: 4096
  mode: decode

output:
  dir: data
  records_file: records.csv
  capture_file: raw.csv
  format: csv
  metrics_addr: ""
`
