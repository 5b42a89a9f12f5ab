package feed

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// Writer appends records to a site's feed file
type Writer struct {
	path string
	file *os.File
	buf  *bufio.Writer
	mu   sync.Mutex
}

// OpenWriter opens {feedDir}/{site}.jl for appending, creating the
// directory when needed.
func OpenWriter(feedDir, site string) (*Writer, error) {
	if err := os.MkdirAll(feedDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create feed directory: %w", err)
	}

	path := filepath.Join(feedDir, site+".jl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed file: %w", err)
	}

	return &Writer{
		path: path,
		file: f,
		buf:  bufio.NewWriter(f),
	}, nil
}

// Path returns the feed file location
func (w *Writer) Path() string {
	return w.path
}

// Write appends one record as a JSON line
func (w *Writer) Write(rec *Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if rec.Content == nil {
		rec.Content = []string{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := w.buf.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close flushes pending records and closes the file
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush feed file: %w", flushErr)
	}
	return closeErr
}
