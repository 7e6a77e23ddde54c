// Package ingest contains the reconciliation core: it decides, per
// spreadsheet row, whether a help request should be submitted, whether a
// linked case must be created, and whether existing case notes already
// cover the row's outcome text. All backend access goes through the
// Gateway interface; everything else is pure.
package ingest

import (
	"context"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/heretohelp"
)

// Row is one spreadsheet row keyed by its stable index. The three output
// fields are provenance written back into the outbound sheet; the engine
// writes each at most once per run and never reads them.
type Row struct {
	Index  int
	Values map[string]string

	HelpRequestID  string
	ResidentID     string
	CEVCaseAddedID string
}

// Get returns the named column's value, or "" when the column is absent.
func (r *Row) Get(column string) string {
	return r.Values[column]
}

// Flag reports whether a flag column is set. Flag columns use the string
// "1" for true.
func (r *Row) Flag(column string) bool {
	return r.Values[column] == "1"
}

// Gateway is the case-management backend consumed by the engine. The
// backend is the sole source of truth for help request and resident
// identity; the engine never invents identifiers.
type Gateway interface {
	CreateHelpRequest(ctx context.Context, req *heretohelp.HelpRequest) (int, error)
	GetHelpRequest(ctx context.Context, id int) (*heretohelp.HelpRequestDetail, error)
	GetResidentHelpRequests(ctx context.Context, residentID int) ([]heretohelp.ResidentHelpRequest, error)
	CreateResidentHelpRequest(ctx context.Context, residentID int, req *heretohelp.HelpRequest) (int, error)
	CreateCaseNote(ctx context.Context, residentID, helpRequestID int, note heretohelp.CaseNote) error
}
