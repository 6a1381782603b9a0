package export

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aman-ray/tradescout/internal/model"
)

// Sink persists a fully assembled record set in one format.
type Sink interface {
	Name() string
	Write(records []model.BusinessRecord) error
}

// SinkError reports a single sink failure out of a multi-format export.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// ForFormats builds the sinks for the requested formats against a common
// output prefix (directory + base name without extension).
func ForFormats(formats []string, prefix string) ([]Sink, error) {
	var sinks []Sink
	for _, f := range formats {
		switch f {
		case "csv":
			sinks = append(sinks, &CSVSink{Path: prefix + ".csv"})
		case "jsonl":
			sinks = append(sinks, &JSONLSink{Path: prefix + ".jsonl"})
		case "sqlite":
			sinks = append(sinks, &SQLiteSink{Path: prefix + ".sqlite"})
		case "parquet":
			sinks = append(sinks, &ParquetSink{Path: prefix + ".parquet"})
		default:
			return nil, fmt.Errorf("unknown export format %q", f)
		}
	}
	return sinks, nil
}

// WriteAll runs every sink against the same record set. A failing sink never
// blocks the others; all failures come back as SinkErrors.
func WriteAll(sinks []Sink, records []model.BusinessRecord, logger *slog.Logger) []error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var errs []error
	for _, s := range sinks {
		if err := s.Write(records); err != nil {
			errs = append(errs, &SinkError{Sink: s.Name(), Err: err})
			logger.Error("export failed", "sink", s.Name(), "err", err)
			continue
		}
		logger.Info("export written", "sink", s.Name(), "records", len(records))
	}
	return errs
}

// Prefix joins an output directory and a run base name.
func Prefix(dir, base string) string {
	return filepath.Join(dir, base)
}
