package auditlog

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
)

// CSVSink appends events to a CSV file kept alongside the data files. The
// header row is written when the file is first created.
type CSVSink struct {
	path string
	mu   sync.Mutex
}

// NewCSV returns a sink appending to the file at path. Nothing is opened
// until the first event.
func NewCSV(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) Append(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return eris.Wrap(err, "csv: create directory")
	}

	_, statErr := os.Stat(s.path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return eris.Wrap(err, "csv: open audit file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(Columns); err != nil {
			return eris.Wrap(err, "csv: write header")
		}
	}
	if err := w.Write(e.Record()); err != nil {
		return eris.Wrap(err, "csv: write event")
	}
	w.Flush()
	return eris.Wrap(w.Error(), "csv: flush")
}

func (s *CSVSink) Close() error { return nil }
