// Package listener reads packets from a serial port. A producer goroutine
// owns the port and pushes each non-empty read through a channel; the
// consumer decodes synchronously in the caller's goroutine.
package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	serial "go.bug.st/serial"

	"github.com/danmuck/sensorwire/internal/config"
	"github.com/danmuck/sensorwire/internal/observability"
	"github.com/danmuck/sensorwire/internal/protocol"
)

type Mode string

const (
	ModeDecode  Mode = "decode"
	ModeCapture Mode = "capture"
)

const DefaultChunkSize = 4096

type Config struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
	ChunkSize   int
	Mode        Mode
}

// ConfigFrom maps the serial section of a loaded config file.
func ConfigFrom(cfg config.SerialConfig) Config {
	return Config{
		Port:        cfg.Port,
		BaudRate:    cfg.BaudRate,
		ReadTimeout: cfg.ReadTimeout.Duration,
		ChunkSize:   cfg.ChunkSize,
		Mode:        Mode(strings.ToLower(strings.TrimSpace(cfg.Mode))),
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.BaudRate <= 0 {
		c.BaudRate = 9600
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = time.Second
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Mode == "" {
		c.Mode = ModeDecode
	}
	return c
}

// Open opens cfg.Port at 8N1 with the configured read timeout.
func Open(cfg Config) (serial.Port, error) {
	cfg = cfg.withDefaults()
	if cfg.Port == "" {
		return nil, errors.New("listener: no serial port configured")
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("listener: failed to open %s: %w", cfg.Port, err)
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("listener: failed to set timeout: %w", err)
	}
	return port, nil
}

type Listener struct {
	port   io.ReadCloser
	cfg    Config
	dec    *protocol.Decoder
	logger zerolog.Logger

	closeOnce sync.Once
	mu        sync.Mutex
	readErr   error
}

// New wraps an open port. The listener closes the port when its producer
// stops.
func New(port io.ReadCloser, cfg Config, dec *protocol.Decoder, logger zerolog.Logger) *Listener {
	if dec == nil {
		dec = protocol.NewDecoder(protocol.DefaultOptions())
	}
	return &Listener{
		port:   port,
		cfg:    cfg.withDefaults(),
		dec:    dec,
		logger: logger.With().Str("port", cfg.Port).Logger(),
	}
}

// Chunks starts the producer. Each non-empty read is delivered as its own
// slice in receive order. The channel closes on EOF, on a read error or when
// ctx is done; cancellation closes the port to unblock a pending read.
func (l *Listener) Chunks(ctx context.Context) <-chan []byte {
	out := make(chan []byte)
	stop := context.AfterFunc(ctx, l.close)
	go func() {
		defer close(out)
		defer l.close()
		defer stop()

		buf := make([]byte, l.cfg.ChunkSize)
		for {
			n, err := l.port.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				observability.RecordChunk(string(l.cfg.Mode))
				select {
				case out <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, io.EOF) {
					l.setErr(err)
					l.logger.Error().Err(err).Msg("serial read failed")
				}
				return
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	return out
}

// Run decodes every chunk, appends successes to acc and passes them to
// handle. Either may be nil. Decode failures are logged and counted, never
// returned. Run returns nil on EOF or cancellation and the read error
// otherwise.
func (l *Listener) Run(ctx context.Context, acc *protocol.Accumulator, handle func(protocol.Record)) error {
	scheme := l.dec.Options().Registry.Name()
	l.logger.Info().Str("scheme", scheme).Msg("listening for packets")
	for chunk := range l.Chunks(ctx) {
		rec, err := l.dec.Decode(chunk)
		if err != nil {
			kind := protocol.ErrorKind(err)
			observability.RecordDecode(scheme, 0, kind)
			l.logger.Warn().
				Err(err).
				Str("kind", kind).
				Str("raw", protocol.FormatHex(chunk)).
				Msg("packet rejected")
			continue
		}
		observability.RecordDecode(scheme, rec.Count(), "")
		if acc != nil {
			acc.Append(rec)
		}
		if handle != nil {
			handle(rec)
		}
	}
	return l.Err()
}

// Err reports the read error that stopped the producer, if any.
func (l *Listener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readErr
}

func (l *Listener) setErr(err error) {
	l.mu.Lock()
	l.readErr = err
	l.mu.Unlock()
}

func (l *Listener) close() {
	l.closeOnce.Do(func() {
		if err := l.port.Close(); err != nil {
			l.logger.Debug().Err(err).Msg("serial close")
		}
	})
}
