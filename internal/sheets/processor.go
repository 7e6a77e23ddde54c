package sheets

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/ingest"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/pkg/logger"
)

// RowProcessor is the row-level contract this package consumes from the
// reconciliation engine.
type RowProcessor interface {
	ProcessRows(ctx context.Context, rows []*ingest.Row) *ingest.RunResult
}

// SheetSummary reports one inbound sheet's outcome.
type SheetSummary struct {
	File           string            `json:"file"`
	OutboundFileID string            `json:"outbound_file_id,omitempty"`
	Error          string            `json:"error,omitempty"`
	Result         *ingest.RunResult `json:"result,omitempty"`
}

// Summary reports one processing pass over an inbound folder.
type Summary struct {
	InboundFolderID  string         `json:"inbound_folder_id"`
	OutboundFolderID string         `json:"outbound_folder_id"`
	Sheets           []SheetSummary `json:"sheets"`
}

// Processor iterates the sheets of an inbound folder, applies the row
// processor to each, and uploads the outbound sheets.
type Processor struct {
	store FileStore
	now   func() time.Time
}

// NewProcessor creates a batch sheet processor over the given store.
func NewProcessor(store FileStore) *Processor {
	return &Processor{store: store, now: time.Now}
}

// Process runs the row processor over every sheet in the inbound folder.
// A sheet that fails to download or parse is recorded in the summary and
// skipped; only folder discovery failure aborts, since an unreachable
// folder is a configuration problem rather than a row-level one.
func (p *Processor) Process(ctx context.Context, inboundFolderID, outboundFolderID string, rp RowProcessor) (*Summary, error) {
	files, err := p.store.List(ctx, inboundFolderID)
	if err != nil {
		return nil, fmt.Errorf("discover inbound sheets: %w", err)
	}

	summary := &Summary{
		InboundFolderID:  inboundFolderID,
		OutboundFolderID: outboundFolderID,
		Sheets:           []SheetSummary{},
	}

	for _, file := range files {
		entry := p.processSheet(ctx, file, outboundFolderID, rp)
		summary.Sheets = append(summary.Sheets, entry)
	}

	return summary, nil
}

func (p *Processor) processSheet(ctx context.Context, file FileInfo, outboundFolderID string, rp RowProcessor) SheetSummary {
	entry := SheetSummary{File: file.Name}

	body, err := p.store.Download(ctx, file.ID)
	if err != nil {
		logger.Error("sheet download failed", "file", file.Name, "error", err)
		entry.Error = err.Error()
		return entry
	}
	defer body.Close()

	sheet, err := ReadSheet(body, file.Name)
	if err != nil {
		logger.Error("sheet parse failed", "file", file.Name, "error", err)
		entry.Error = err.Error()
		return entry
	}

	logger.Info("processing sheet", "file", file.Name, "rows", len(sheet.Rows))
	entry.Result = rp.ProcessRows(ctx, sheet.Rows)

	var buf bytes.Buffer
	if err := sheet.Write(&buf); err != nil {
		entry.Error = err.Error()
		return entry
	}

	outName := fmt.Sprintf("%s-processed-%s", p.now().UTC().Format("20060102T150405"), file.Name)
	outID, err := p.store.Upload(ctx, outboundFolderID, outName, &buf)
	if err != nil {
		logger.Error("sheet upload failed", "file", file.Name, "error", err)
		entry.Error = err.Error()
		return entry
	}
	entry.OutboundFileID = outID

	return entry
}
