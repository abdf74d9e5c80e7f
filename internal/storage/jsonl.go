package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"pendingScope/internal/model"
)

// StdoutPath selects standard output instead of a file.
const StdoutPath = "-"

// JSONLWriter writes one JSON document per line.
type JSONLWriter struct {
	file   *os.File
	writer *bufio.Writer
}

// NewJSONLWriter opens path for writing, creating parent directories. The
// file is truncated unless appendMode is set.
func NewJSONLWriter(path string, appendMode bool) (*JSONLWriter, error) {
	if path == "" || path == StdoutPath {
		return &JSONLWriter{writer: bufio.NewWriter(os.Stdout)}, nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &JSONLWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// NewJSONLWriterTo wraps an arbitrary writer. Close only flushes it.
func NewJSONLWriterTo(w io.Writer) *JSONLWriter {
	return &JSONLWriter{writer: bufio.NewWriter(w)}
}

func (w *JSONLWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *JSONLWriter) Flush() error {
	return w.writer.Flush()
}

func (w *JSONLWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		if w.file != nil {
			w.file.Close()
		}
		return err
	}
	if w.file == nil {
		return nil
	}
	return w.file.Close()
}

// JSONLSink appends pending records to a JSONL file or stdout.
type JSONLSink struct {
	mu sync.Mutex
	w  *JSONLWriter
}

func NewJSONLSink(path string) (*JSONLSink, error) {
	w, err := NewJSONLWriter(path, true)
	if err != nil {
		return nil, err
	}
	return &JSONLSink{w: w}, nil
}

// PutPending writes the batch and flushes it so tailing readers see whole batches.
func (s *JSONLSink) PutPending(_ context.Context, records []model.PendingRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		if err := s.w.Write(record); err != nil {
			return fmt.Errorf("write pending record: %w", err)
		}
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}

// Memory keeps records in memory.
type Memory struct {
	mu      sync.Mutex
	records []model.PendingRecord
	Err     error
}

func (m *Memory) PutPending(_ context.Context, records []model.PendingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// Records returns a copy of everything stored so far.
func (m *Memory) Records() []model.PendingRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PendingRecord(nil), m.records...)
}
