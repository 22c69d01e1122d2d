package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spec-kit/video-service/internal/domain"
)

// ErrResourceChanged means the file was replaced or resized between stat and open.
var ErrResourceChanged = errors.New("resource changed while opening")

// StreamResult summarizes a finished window for logging and metrics.
type StreamResult struct {
	Resource *domain.Resource
	Decision Decision
	Sent     int64
	Expected int64
	Err      error
}

// Complete reports whether every expected byte was handed to the writer.
func (r StreamResult) Complete() bool {
	return r.Err == nil && r.Sent == r.Expected
}

// Window is a bounded reader over one resource that owns the open file.
// Close releases the file exactly once, whichever path ends the response.
type Window struct {
	reader   *io.SectionReader
	file     *os.File
	result   StreamResult
	onClose  func(StreamResult)
	mu       sync.Mutex
	closed   bool
	closeErr error
}

// OpenWindow opens res and positions a reader over the bytes d selects.
// onClose may be nil.
func OpenWindow(res *domain.Resource, d Decision, onClose func(StreamResult)) (*Window, error) {
	f, err := os.Open(res.Path) // #nosec G304 -- path resolved and contained by Resolver
	if err != nil {
		return nil, fmt.Errorf("open resource: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat opened resource: %w", err)
	}
	if !info.Mode().IsRegular() || info.Size() != res.Size {
		_ = f.Close()
		return nil, ErrResourceChanged
	}

	start, length := int64(0), res.Size
	if d.Partial {
		start, length = d.Start, d.Length(res.Size)
	}

	return &Window{
		reader:  io.NewSectionReader(f, start, length),
		file:    f,
		result:  StreamResult{Resource: res, Decision: d, Expected: length},
		onClose: onClose,
	}, nil
}

// Len is the number of bytes the window will produce.
func (w *Window) Len() int64 {
	return w.result.Expected
}

func (w *Window) Read(p []byte) (int, error) {
	n, err := w.reader.Read(p)

	w.mu.Lock()
	w.result.Sent += int64(n)
	if err != nil && err != io.EOF {
		w.result.Err = err
	}
	w.mu.Unlock()

	return n, err
}

// Close releases the file and reports the result. Later calls return the
// first call's error.
func (w *Window) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return w.closeErr
	}
	w.closed = true
	w.closeErr = w.file.Close()
	result := w.result
	if result.Err == nil && result.Sent < result.Expected {
		result.Err = io.ErrUnexpectedEOF
	}
	w.mu.Unlock()

	if w.onClose != nil {
		w.onClose(result)
	}
	return w.closeErr
}
