package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"reel/internal/services"
)

// ManifestWriter writes one JSON object per frame. The manifest path is
// locked through "<path>.lock" for the writer's lifetime, so two exports
// cannot interleave frames into the same file.
type ManifestWriter struct {
	path string
	lock *flock.Flock

	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	enc    *json.Encoder
	frames int
	closed bool
}

// OpenManifest creates or truncates path after taking its lock.
func OpenManifest(path string) (*ManifestWriter, error) {
	if path == "" {
		return nil, services.Wrap(services.ErrValidation, "export", "open manifest", "empty manifest path", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create manifest directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire manifest lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "export", "open manifest", "manifest "+path+" is in use by another export", nil)
	}

	file, err := os.Create(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("create manifest: %w", err)
	}
	buf := bufio.NewWriter(file)
	return &ManifestWriter{
		path: path,
		lock: lock,
		file: file,
		buf:  buf,
		enc:  json.NewEncoder(buf),
	}, nil
}

func (w *ManifestWriter) Path() string { return w.path }

// Frames returns the number of records written.
func (w *ManifestWriter) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

func (w *ManifestWriter) WriteFrame(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return services.IllegalState("export", "write manifest", "manifest closed")
	}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode manifest record: %w", err)
	}
	w.frames++
	return nil
}

// Close flushes the manifest and releases its lock.
func (w *ManifestWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if err := w.buf.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush manifest: %w", err))
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close manifest: %w", err))
	}
	if err := w.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("release manifest lock: %w", err))
	}
	return errors.Join(errs...)
}

// ReadManifest decodes every record in a manifest file.
func ReadManifest(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()

	var records []Record
	dec := json.NewDecoder(file)
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode manifest record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	return records, nil
}
