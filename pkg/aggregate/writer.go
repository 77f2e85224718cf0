package aggregate

import (
	"context"

	"github.com/charmbracelet/log"
)

type submission struct {
	contrib *Contribution
	done    chan struct{}
}

// Writer serializes appends to one BOM directory. A single goroutine owns
// the accumulator files; Submit hands a contribution over and waits until
// it has been written.
type Writer struct {
	dir    string
	logger *log.Logger
	queue  chan submission
	closed chan struct{}
}

// NewWriter starts a Writer for bomDir. Call Close when done.
func NewWriter(bomDir string, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.Default()
	}
	w := &Writer{
		dir:    bomDir,
		logger: logger,
		queue:  make(chan submission),
		closed: make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Writer) loop() {
	defer close(w.closed)
	for s := range w.queue {
		s.contrib.Apply(w.dir, w.logger)
		close(s.done)
	}
}

// Submit appends contrib and returns once the append is done. If ctx ends
// first, ctx.Err() is returned and the append may still happen.
// Submit must not be called after Close.
func (w *Writer) Submit(ctx context.Context, contrib *Contribution) error {
	s := submission{contrib: contrib, done: make(chan struct{})}
	select {
	case w.queue <- s:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the writer after the pending appends are written.
func (w *Writer) Close() {
	close(w.queue)
	<-w.closed
}
