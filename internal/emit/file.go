package emit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// FileSink writes proposals as JSON lines, one proposal per line.
type FileSink struct {
	f   *os.File
	w   *bufio.Writer
	enc *json.Encoder
}

// NewFileSink creates a sink writing to path, truncating any existing
// file.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	w := bufio.NewWriter(f)
	return &FileSink{f: f, w: w, enc: json.NewEncoder(w)}, nil
}

// NewWriterSink creates a sink writing to an arbitrary writer. Close
// flushes but does not close the writer.
func NewWriterSink(w io.Writer) *FileSink {
	bw := bufio.NewWriter(w)
	return &FileSink{w: bw, enc: json.NewEncoder(bw)}
}

// Emit implements Sink.
func (s *FileSink) Emit(_ context.Context, p Proposal) error {
	if err := s.enc.Encode(p); err != nil {
		return fmt.Errorf("failed to encode proposal: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *FileSink) Close() error {
	if s.f == nil {
		return s.w.Flush()
	}
	return errors.Join(s.w.Flush(), s.f.Close())
}
