package ingest

import (
	"context"
	"strconv"
	"time"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/heretohelp"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/pkg/logger"
)

// RecencyWindowDays is the trailing window applied by recency-gated
// workflows: rows whose reference date is older are left untouched.
const RecencyWindowDays = 7

// Linkage describes a secondary help request auto-created from a trigger
// condition on the primary one (e.g. a Shielding case triggered by a
// self-isolation row).
type Linkage struct {
	Trigger    func(row *Row) bool
	HelpNeeded string
	// Note is the provenance case note recorded on the linked case.
	Note string
}

// Workflow parameterizes the reconciliation engine. The four ingestion
// programs share the engine's state machine and differ only in these
// fields.
type Workflow struct {
	Name   string
	Author string
	// Eligible gates a row before any normalization or backend call.
	Eligible func(row *Row, today time.Time) bool
	// BuildRequest normalizes row fields into the submission payload. A
	// *ParseError aborts this row only.
	BuildRequest func(row *Row) (*heretohelp.HelpRequest, error)
	// NoteSources are the columns whose text becomes candidate case
	// notes, each prefixed with its heading.
	NoteSources []string
	Linkage     *Linkage
}

// RunResult summarizes one reconciliation pass over a row set. It always
// carries the unsuccessful and exceptional items so an operator can re-run
// or fix only the failed subset.
type RunResult struct {
	Workflow                 string          `json:"workflow"`
	Rows                     int             `json:"rows"`
	Ineligible               int             `json:"ineligible"`
	CreatedHelpRequestIDs    []int           `json:"created_help_request_ids"`
	LinkedCaseIDs            []int           `json:"linked_case_ids"`
	CaseNotesCreated         int             `json:"case_notes_created"`
	UnsuccessfulHelpRequests []FailedRequest `json:"unsuccessful_help_requests"`
	Exceptions               []FailedRequest `json:"exceptions,omitempty"`
}

// Engine reconciles rows against the backend for one workflow. Rows are
// processed strictly one at a time in input order; the engine owns each
// row for the duration of the pass and exclusively writes its output
// fields.
type Engine struct {
	gateway   Gateway
	submitter *Submitter
	workflow  Workflow
	now       func() time.Time
}

// NewEngine creates a reconciliation engine for the given workflow using
// the default identity policy.
func NewEngine(gateway Gateway, workflow Workflow) *Engine {
	return &Engine{
		gateway:   gateway,
		submitter: NewSubmitter(gateway, DefaultIdentityPolicy()),
		workflow:  workflow,
		now:       time.Now,
	}
}

// SetClock overrides the engine's notion of today (used in tests).
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// ProcessRows runs the reconciliation state machine over every row.
// Row-level failures are recorded in the result and never abort the pass.
func (e *Engine) ProcessRows(ctx context.Context, rows []*Row) *RunResult {
	result := &RunResult{
		Workflow:                 e.workflow.Name,
		Rows:                     len(rows),
		CreatedHelpRequestIDs:    []int{},
		LinkedCaseIDs:            []int{},
		UnsuccessfulHelpRequests: []FailedRequest{},
	}
	today := e.now()

	for i, row := range rows {
		e.processRow(ctx, row, today, result)
		if row.HelpRequestID != "" {
			logger.Info("processed row",
				"workflow", e.workflow.Name,
				"row", i+1,
				"of", len(rows),
				"help_request_id", row.HelpRequestID,
				"resident_id", row.ResidentID)
		}
	}

	return result
}

func (e *Engine) processRow(ctx context.Context, row *Row, today time.Time, result *RunResult) {
	if !e.workflow.Eligible(row, today) {
		result.Ineligible++
		return
	}

	req, err := e.workflow.BuildRequest(row)
	if err != nil {
		logger.Warn("row skipped: payload could not be built",
			"workflow", e.workflow.Name, "row", row.Index, "error", err)
		result.UnsuccessfulHelpRequests = append(result.UnsuccessfulHelpRequests, FailedRequest{
			Error: err.Error(),
		})
		return
	}

	batch := e.submitter.Submit(ctx, []*heretohelp.HelpRequest{req})
	result.UnsuccessfulHelpRequests = append(result.UnsuccessfulHelpRequests, batch.UnsuccessfulHelpRequests...)
	result.Exceptions = append(result.Exceptions, batch.Exceptions...)
	if len(batch.CreatedHelpRequestIDs) == 0 {
		return
	}

	helpRequestID := batch.CreatedHelpRequestIDs[0]
	result.CreatedHelpRequestIDs = append(result.CreatedHelpRequestIDs, helpRequestID)
	row.HelpRequestID = strconv.Itoa(helpRequestID)

	detail, err := e.gateway.GetHelpRequest(ctx, helpRequestID)
	if err != nil {
		e.recordException(result, req, err)
		return
	}
	row.ResidentID = strconv.Itoa(detail.ResidentID)

	e.createCaseNotes(ctx, row, detail, req, result)

	if e.workflow.Linkage != nil && e.workflow.Linkage.Trigger(row) {
		e.createLinkedCase(ctx, row, detail.ResidentID, req, result)
	}
}

// createCaseNotes derives candidate notes from the row's outcome columns
// and writes only those not already represented on the request.
func (e *Engine) createCaseNotes(ctx context.Context, row *Row, detail *heretohelp.HelpRequestDetail, req *heretohelp.HelpRequest, result *RunResult) {
	for _, source := range e.workflow.NoteSources {
		text := row.Get(source)
		if text == "" {
			continue
		}
		candidate := source + ": " + text
		if !NeedsCaseNote(detail.CaseNotes, candidate) {
			continue
		}
		note := heretohelp.CaseNote{Author: e.workflow.Author, Note: candidate}
		if err := e.gateway.CreateCaseNote(ctx, detail.ResidentID, detail.ID, note); err != nil {
			e.recordException(result, req, err)
			continue
		}
		result.CaseNotesCreated++
	}
}

// createLinkedCase creates the linked help request unless the resident
// already has one of that kind, then records provenance: a case note on
// the new request and the new id in the row's cev_case_added_id field.
func (e *Engine) createLinkedCase(ctx context.Context, row *Row, residentID int, req *heretohelp.HelpRequest, result *RunResult) {
	existing, err := e.gateway.GetResidentHelpRequests(ctx, residentID)
	if err != nil {
		e.recordException(result, req, err)
		return
	}
	for _, r := range existing {
		if r.HelpNeeded == e.workflow.Linkage.HelpNeeded {
			return
		}
	}

	linked := &heretohelp.HelpRequest{
		CallbackRequired: false,
		HelpNeeded:       e.workflow.Linkage.HelpNeeded,
	}
	linkedID, err := e.gateway.CreateResidentHelpRequest(ctx, residentID, linked)
	if err != nil {
		e.recordException(result, req, err)
		return
	}
	result.LinkedCaseIDs = append(result.LinkedCaseIDs, linkedID)
	row.CEVCaseAddedID = strconv.Itoa(linkedID)

	note := heretohelp.CaseNote{Author: e.workflow.Author, Note: e.workflow.Linkage.Note}
	if err := e.gateway.CreateCaseNote(ctx, residentID, linkedID, note); err != nil {
		e.recordException(result, req, err)
		return
	}
	result.CaseNotesCreated++
}

func (e *Engine) recordException(result *RunResult, req *heretohelp.HelpRequest, err error) {
	logger.Error("backend call failed",
		"workflow", e.workflow.Name, "error", err)
	result.Exceptions = append(result.Exceptions, FailedRequest{
		Request: req,
		Error:   err.Error(),
	})
}
