package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aman-ray/tradescout/internal/model"
)

// JSONLSink writes one JSON object per line.
type JSONLSink struct {
	Path string
}

func (s *JSONLSink) Name() string { return "jsonl" }

func (s *JSONLSink) Write(records []model.BusinessRecord) error {
	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", s.Path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, b := range records {
		if err := enc.Encode(b); err != nil {
			return err
		}
	}
	return w.Flush()
}
