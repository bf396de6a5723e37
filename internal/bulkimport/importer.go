// Package bulkimport validates tabular patient data against a workflow schema
// and turns the rows that pass into write payloads for bulk creation. It runs
// the same field validator as the create and edit forms, so a value rejected
// interactively is rejected here too.
package bulkimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/callcare/callcare/internal/schema"
)

// ErrEmptyImport is reported before any row processing when the input has no
// data rows. An empty file is a user mistake, not an import that succeeded
// zero times.
var ErrEmptyImport = errors.New("import file contains no data rows")

// RowError describes one failed row. Row is the 1-based position of the row
// in the submitted batch; error order matches input order.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, field %s: %s", e.Row, e.Field, e.Message)
}

// Result summarizes one import batch. Succeeded + Failed always equals the
// number of submitted rows.
type Result struct {
	Succeeded int        `json:"success_count"`
	Failed    int        `json:"failed_count"`
	Errors    []RowError `json:"errors"`

	// Records holds the validated write payloads for the rows that passed,
	// in input order, ready for the collaborator's bulk-create call.
	Records []map[string]string `json:"-"`
}

// Importer validates batches against one resolved workflow schema.
type Importer struct {
	cfg *schema.WorkflowConfig
}

// New returns an importer bound to cfg.
func New(cfg *schema.WorkflowConfig) *Importer {
	return &Importer{cfg: cfg}
}

// ReadCSV parses CSV input into row maps keyed by the header's column names.
// Columns the schema does not declare are dropped; computed fields are never
// importable and are dropped as well. A missing or empty header is treated
// the same as a file with no data rows.
func (imp *Importer) ReadCSV(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyImport
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	keys := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if f := imp.cfg.Field(h); f != nil && !f.Computed {
			keys[i] = h
		}
	}

	var rows []map[string]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		row := make(map[string]string, len(keys))
		for i, v := range rec {
			if i < len(keys) && keys[i] != "" {
				row[keys[i]] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Import validates every row independently and atomically: a row either
// passes all schema checks and contributes a record, or fails whole. One
// row's failure never aborts the batch; rows are processed in strict input
// order and the error list preserves that order.
func (imp *Importer) Import(rows []map[string]string) (*Result, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyImport
	}

	res := &Result{}
	for i, row := range rows {
		rowNum := i + 1
		var rowErrs []RowError
		for fi := range imp.cfg.PatientSchema {
			f := &imp.cfg.PatientSchema[fi]
			if f.Computed {
				continue
			}
			if ferr := schema.ValidateField(f, row[f.Key]); ferr != nil {
				rowErrs = append(rowErrs, RowError{Row: rowNum, Field: ferr.Key, Message: ferr.Message})
			}
		}
		if len(rowErrs) > 0 {
			res.Failed++
			res.Errors = append(res.Errors, rowErrs...)
			continue
		}

		record := make(map[string]string, len(imp.cfg.PatientSchema))
		for _, f := range imp.cfg.PatientSchema {
			if f.Computed {
				continue
			}
			v, ok := row[f.Key]
			if !ok || strings.TrimSpace(v) == "" {
				v = f.Default
			}
			record[f.Key] = schema.ToDisplayValue(f.Type, strings.TrimSpace(v))
		}
		res.Succeeded++
		res.Records = append(res.Records, record)
	}
	return res, nil
}

// ImportCSV is ReadCSV followed by Import.
func (imp *Importer) ImportCSV(r io.Reader) (*Result, error) {
	rows, err := imp.ReadCSV(r)
	if err != nil {
		return nil, err
	}
	return imp.Import(rows)
}
