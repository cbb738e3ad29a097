package transport

import (
	"fmt"
	"strings"
	"time"

	serial "go.bug.st/serial"
)

// SerialConfig describes one serial link endpoint.
type SerialConfig struct {
	Device string        `yaml:"device"`
	Baud   int           `yaml:"baud"`
	// ReadTimeout bounds a single ReadLine poll; it is the only place the
	// transport waits at all.
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// Serial is a LineTransport over a real serial port.
type Serial struct {
	port serial.Port
	dev  string

	// pending accumulates bytes until a full line shows up.
	pending []byte
}

func OpenSerial(cfg SerialConfig) (*Serial, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("transport: serial device is required")
	}
	if cfg.Baud <= 0 {
		cfg.Baud = 9600
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 20 * time.Millisecond
	}
	port, err := serial.Open(cfg.Device, &serial.Mode{BaudRate: cfg.Baud})
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", cfg.Device, err)
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("transport: set read timeout: %w", err)
	}
	return &Serial{port: port, dev: cfg.Device}, nil
}

// ReadLine returns one complete line if available within a single bounded
// read. Partial lines stay buffered for the next poll.
func (s *Serial) ReadLine() (string, bool) {
	if line, ok := s.takeLine(); ok {
		return line, true
	}

	var chunk [256]byte
	n, err := s.port.Read(chunk[:])
	if err != nil || n == 0 {
		return "", false
	}
	s.pending = append(s.pending, chunk[:n]...)
	return s.takeLine()
}

func (s *Serial) takeLine() (string, bool) {
	for i, b := range s.pending {
		if b != '\n' {
			continue
		}
		line := strings.TrimRight(string(s.pending[:i]), "\r")
		rest := s.pending[i+1:]
		s.pending = append(s.pending[:0], rest...)
		return line, true
	}
	return "", false
}

func (s *Serial) WriteLine(line string) error {
	_, err := s.port.Write([]byte(line + "\n"))
	return err
}

func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
