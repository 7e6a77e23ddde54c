package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/config"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/ingest"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/pkg/httputil"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/pkg/logger"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/repository/postgres"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/sheets"
)

// IngestResponse is the body returned by a successful ingestion trigger.
type IngestResponse struct {
	Workflow string          `json:"workflow"`
	RunID    string          `json:"run_id,omitempty"`
	Summary  *sheets.Summary `json:"summary"`
}

// HandleIngest runs one ingestion pass for the named workflow. Concurrent
// runs of the same workflow are rejected with 409; distinct workflows may
// run in parallel.
//
//	POST /api/ingest/{workflow}
func (s *Server) HandleIngest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "workflow")

	wf, ok := ingest.Workflows()[name]
	if !ok {
		httputil.NotFound(w, "unknown workflow: "+name)
		return
	}
	wfCfg, ok := s.cfg.Workflows[name]
	if !ok || !wfCfg.Enabled {
		httputil.BadRequest(w, "workflow not enabled: "+name)
		return
	}

	if lock := s.newLock(name); lock != nil {
		acquired, err := lock.Acquire(r.Context())
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		if !acquired {
			httputil.Conflict(w, "an ingestion run for this workflow is already in progress")
			return
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil {
				logger.Warn("failed to release run lock", "workflow", name, "error", err.Error())
			}
		}()
	}

	started := time.Now()
	engine := ingest.NewEngine(s.gateway, wf)
	summary, err := sheets.NewProcessor(s.store).Process(r.Context(), wfCfg.InboundFolderID, wfCfg.OutboundFolderID, engine)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	runID := s.recordRun(r.Context(), name, started, summary)

	httputil.OK(w, IngestResponse{Workflow: name, RunID: runID, Summary: summary})
}

// recordRun aggregates the pass into a run history row. Failure to record
// is logged but does not fail the request; the ingestion itself succeeded.
func (s *Server) recordRun(ctx context.Context, workflow string, started time.Time, summary *sheets.Summary) string {
	if s.runs == nil {
		return ""
	}

	run := &postgres.Run{
		Workflow:   workflow,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	for _, sheet := range summary.Sheets {
		if sheet.Result == nil {
			continue
		}
		run.CreatedCount += len(sheet.Result.CreatedHelpRequestIDs)
		run.UnsuccessfulCount += len(sheet.Result.UnsuccessfulHelpRequests)
		run.ExceptionCount += len(sheet.Result.Exceptions)
		run.CaseNotesCreated += sheet.Result.CaseNotesCreated
		run.LinkedCases += len(sheet.Result.LinkedCaseIDs)
	}
	if raw, err := json.Marshal(summary); err == nil {
		run.Summary = raw
	}

	if err := s.runs.Insert(ctx, run); err != nil {
		logger.Warn("failed to record ingestion run", "workflow", workflow, "error", err.Error())
		return ""
	}
	return run.ID
}

// HandleListRuns returns recent run history, newest first.
//
//	GET /api/runs?workflow=spl&limit=20
func (s *Server) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "run history requires a database")
		return
	}

	workflow := r.URL.Query().Get("workflow")
	if workflow != "" {
		if _, ok := ingest.Workflows()[workflow]; !ok {
			httputil.BadRequest(w, "unknown workflow: "+workflow)
			return
		}
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.runs.List(r.Context(), workflow, limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if runs == nil {
		runs = []postgres.Run{}
	}
	httputil.OK(w, map[string]any{"runs": runs})
}

// WorkflowStatus describes one configured workflow.
type WorkflowStatus struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// HandleListWorkflows lists the workflows the service knows about and
// whether each is enabled in configuration.
//
//	GET /api/workflows
func (s *Server) HandleListWorkflows(w http.ResponseWriter, r *http.Request) {
	statuses := make([]WorkflowStatus, 0, len(config.WorkflowNames))
	for _, name := range config.WorkflowNames {
		wfCfg := s.cfg.Workflows[name]
		statuses = append(statuses, WorkflowStatus{Name: name, Enabled: wfCfg.Enabled})
	}
	httputil.OK(w, map[string]any{"workflows": statuses})
}
