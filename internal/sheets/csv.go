// Package sheets is the batch boundary: it discovers inbound sheet files,
// decodes them into rows for the reconciliation engine, and writes
// outbound sheets carrying the engine's provenance columns.
package sheets

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/ingest"
)

// Provenance columns are prepended to outbound sheets, newest-inserted
// first, so operators see the engine's identifiers before the source data.
var provenanceColumns = []string{"cev_case_added_id", "resident_id", "help_request_id"}

// Sheet is one decoded spreadsheet: the header row plus ordered data rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []*ingest.Row
}

// ReadSheet decodes a CSV stream into a Sheet. Short rows are padded so
// every named column resolves; a sheet with no header is an error.
func ReadSheet(r io.Reader, name string) (*Sheet, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("sheet %s is empty", name)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	sheet := &Sheet{Name: name, Headers: headers}
	for index := 0; ; index++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", index+1, err)
		}

		values := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				values[h] = record[i]
			} else {
				values[h] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, &ingest.Row{Index: index, Values: values})
	}

	return sheet, nil
}

// Write encodes the sheet with the provenance columns prepended to the
// original headers.
func (s *Sheet) Write(w io.Writer) error {
	writer := csv.NewWriter(w)

	header := append(append([]string{}, provenanceColumns...), s.Headers...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range s.Rows {
		record := make([]string, 0, len(header))
		record = append(record, row.CEVCaseAddedID, row.ResidentID, row.HelpRequestID)
		for _, h := range s.Headers {
			record = append(record, row.Values[h])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", row.Index+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// stripBOM removes a UTF-8 byte order mark; exported sheets routinely
// carry one.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, err := br.Peek(3)
	if err == nil && bytes.Equal(head, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}
	return br
}
