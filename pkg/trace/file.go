package trace

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog/log"
)

// FileRecorder appends records to a CBOR file.
// It is safe for concurrent use from multiple goroutines.
type FileRecorder struct {
	file    *os.File
	encoder *cbor.Encoder
	mu      sync.Mutex
	closed  bool
}

// NewFileRecorder opens path for appending, creating it with 0600 permissions.
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &FileRecorder{
		file:    f,
		encoder: NewEncoder(f),
	}, nil
}

// Record writes rec to the file. Calls after Close are ignored.
func (r *FileRecorder) Record(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	rec.Data = Redact(rec.Data)
	if err := r.encoder.Encode(rec); err != nil {
		log.Warn().Err(err).Msg("Failed to write trace record")
	}
}

// Close closes the file. It is safe to call Close multiple times.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

var _ Recorder = (*FileRecorder)(nil)
