package grapherror

import (
	"sync"

	"go.uber.org/zap"
)

// Sink receives build warnings. Ingestion keeps going after a warning.
type Sink interface {
	Warn(w *GraphError)
}

// Recorder is a Sink that logs every warning and keeps it for the build report
type Recorder struct {
	mu       sync.Mutex
	warnings []*GraphError
	logger   *zap.SugaredLogger
}

// NewRecorder creates a Recorder logging through l; a nil l only records
func NewRecorder(l *zap.SugaredLogger) *Recorder {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	return &Recorder{logger: l}
}

// Warn records w
func (r *Recorder) Warn(w *GraphError) {
	r.mu.Lock()
	r.warnings = append(r.warnings, w)
	r.mu.Unlock()
	r.logger.Warnw(w.ToUIMessage(), w.ToLogFields()...)
}

// Warnings returns the recorded warnings in arrival order
func (r *Recorder) Warnings() []*GraphError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*GraphError(nil), r.warnings...)
}

// Count returns the number of warnings in category, or all when category is empty
func (r *Recorder) Count(category Category) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if category == "" {
		return len(r.warnings)
	}
	n := 0
	for _, w := range r.warnings {
		if w.Category == category {
			n++
		}
	}
	return n
}

// Reset drops all recorded warnings
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.warnings = nil
	r.mu.Unlock()
}

// Discard is a Sink that drops every warning
var Discard Sink = discard{}

type discard struct{}

func (discard) Warn(*GraphError) {}
