package nx587e

import (
	"bufio"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// DefaultBaudRate is the factory setting of the NX-587E serial port.
const DefaultBaudRate = 9600

// Transport is the line-oriented link to the module.
type Transport interface {
	// Write sends one complete command
	Write(p []byte) (int, error)

	// ReadLine blocks until a full line is available and returns it
	// without the trailing newline
	ReadLine() (string, error)

	// Close releases the link and unblocks a pending ReadLine
	Close() error
}

// SerialPort wraps a serial connection to the NX-587E module.
type SerialPort struct {
	port   serial.Port
	reader *bufio.Reader
	mu     sync.Mutex
}

// OpenSerial opens the serial port at the given baud rate, 8N1.
func OpenSerial(portPath string, baudRate int) (*SerialPort, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portPath, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portPath, err)
	}

	log.Info().Str("port", portPath).Int("baud", baudRate).Msg("Serial port opened")

	return &SerialPort{
		port:   port,
		reader: bufio.NewReader(port),
	}, nil
}

// Write sends raw bytes to the serial port.
func (s *SerialPort) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Write(data)
}

// ReadLine reads up to the next line feed. The module starts each message
// with a line feed, so the first read after opening may return an empty line.
func (s *SerialPort) ReadLine() (string, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return line[:len(line)-1], nil
}

// Close closes the serial port. It does not wait for an in-flight Write.
func (s *SerialPort) Close() error {
	return s.port.Close()
}

var _ Transport = (*SerialPort)(nil)
