// Package loader reads rename mappings.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"group-renamer/internal/engine"
)

// LoadCSV reads an old,new mapping from path. See ReadCSV.
func LoadCSV(path string) (engine.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &engine.InputError{Where: path, Err: fmt.Errorf("failed to open mapping: %w", err)}
	}
	defer f.Close()

	return ReadCSV(f, path)
}

// ReadCSV parses a mapping whose first row is a header. Each following row
// is old,new; extra columns are ignored. The batch is validated before it
// is returned, so entry numbers in errors count data rows only.
func ReadCSV(in io.Reader, name string) (engine.Batch, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var batch engine.Batch
	header := true
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &engine.InputError{Where: fmt.Sprintf("%s:%d", name, perr.StartLine), Err: perr.Err}
			}
			return nil, &engine.InputError{Where: name, Err: err}
		}
		if header {
			header = false
			continue
		}
		if blank(record) {
			continue
		}
		if len(record) < 2 {
			line, _ := cr.FieldPos(0)
			return nil, &engine.InputError{
				Where: fmt.Sprintf("%s:%d", name, line),
				Err:   fmt.Errorf("expected old,new but got %d field(s)", len(record)),
			}
		}
		batch = append(batch, engine.Pair{
			Old: strings.TrimSpace(record[0]),
			New: strings.TrimSpace(record[1]),
		})
	}

	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return batch, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
