package listener

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/sensorwire/internal/config"
	"github.com/danmuck/sensorwire/internal/protocol"
	"github.com/danmuck/sensorwire/internal/tabular"
	"github.com/danmuck/sensorwire/internal/testutil/testlog"
)

// scriptPort returns one scripted chunk per Read, then end.
type scriptPort struct {
	mu     sync.Mutex
	chunks [][]byte
	end    error
	closed bool
}

func (p *scriptPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.chunks) == 0 {
		if p.end == nil {
			return 0, io.EOF
		}
		return 0, p.end
	}
	n := copy(b, p.chunks[0])
	p.chunks = p.chunks[1:]
	return n, nil
}

func (p *scriptPort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *scriptPort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// blockingPort blocks in Read until Close is called.
type blockingPort struct {
	once sync.Once
	done chan struct{}
}

func newBlockingPort() *blockingPort { return &blockingPort{done: make(chan struct{})} }

func (p *blockingPort) Read([]byte) (int, error) {
	<-p.done
	return 0, errors.New("port closed")
}

func (p *blockingPort) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

func TestRunDecodesChunksInOrderAndSkipsBadPackets(t *testing.T) {
	port := &scriptPort{chunks: [][]byte{
		{0x01, 0x01, 0x03, 0x07, 0x1e, 0x1c},
		{0x01, 0x02, 0x02, 0x00, 0x00, 0x80, 0x3f},
		{0x02, 0x01, 0x01, 0x09},
	}}
	l := New(port, Config{Port: "fake"}, nil, testlog.Logger(t))
	acc := protocol.NewAccumulator()
	var seen []uint8
	err := l.Run(context.Background(), acc, func(rec protocol.Record) {
		seen = append(seen, rec.Address)
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	recs := acc.Records()
	if len(recs) != 2 || recs[0].Values[2].Uint != 28 || recs[1].Address != 2 {
		t.Fatalf("unexpected records %v", recs)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("handler saw %v", seen)
	}
	if !port.isClosed() {
		t.Fatalf("expected port to be closed after EOF")
	}
}

func TestRunReturnsReadError(t *testing.T) {
	boom := errors.New("device unplugged")
	port := &scriptPort{chunks: [][]byte{{0x01, 0x01, 0x01, 0x01}}, end: boom}
	l := New(port, Config{Port: "fake"}, nil, testlog.Logger(t))
	if err := l.Run(context.Background(), nil, nil); !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	port := newBlockingPort()
	l := New(port, Config{Port: "fake"}, nil, testlog.Logger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, nil, nil) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("listener did not stop after cancel")
	}
}

func TestCaptureWritesLinesAsHexRows(t *testing.T) {
	port := &scriptPort{chunks: [][]byte{
		[]byte("ab\r\ncd"),
		[]byte("\n\n"),
		[]byte("z"),
	}}
	path := filepath.Join(t.TempDir(), "capture", "raw.csv")
	l := New(port, Config{Port: "fake", Mode: ModeCapture}, nil, testlog.Logger(t))
	n, err := l.Capture(context.Background(), tabular.NewWriter(), path)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "61,62\n63,64\n7a\n" {
		t.Fatalf("unexpected capture %q", data)
	}
}

func TestSplitLines(t *testing.T) {
	lines, rest := splitLines([]byte("a\n\nbc\r\nd"))
	if len(lines) != 2 || string(lines[0]) != "a" || string(lines[1]) != "bc" || string(rest) != "d" {
		t.Fatalf("unexpected split %q %q", lines, rest)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.BaudRate != 9600 || cfg.ReadTimeout != time.Second || cfg.ChunkSize != DefaultChunkSize || cfg.Mode != ModeDecode {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if _, err := Open(Config{}); err == nil {
		t.Fatalf("expected error without a port")
	}

	if got := ConfigFrom(config.SerialConfig{Mode: "Capture"}).Mode; got != ModeCapture {
		t.Fatalf("expected capture mode, got %q", got)
	}
}
