package ingest

import (
	"context"
	"errors"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/heretohelp"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/pkg/logger"
)

// FailedRequest pairs a help request with the error that kept it from
// being created.
type FailedRequest struct {
	Request *heretohelp.HelpRequest `json:"request"`
	Error   string                  `json:"error"`
}

// BatchResult is the outcome of one submission batch. Buckets preserve the
// input submission order. Exceptions is nil (and its key absent from JSON)
// when no transport-level failure occurred; callers check for presence,
// not emptiness.
type BatchResult struct {
	CreatedHelpRequestIDs    []int           `json:"created_help_request_ids"`
	UnsuccessfulHelpRequests []FailedRequest `json:"unsuccessful_help_requests"`
	Exceptions               []FailedRequest `json:"exceptions,omitempty"`
}

// Submitter submits help requests to the backend, partitioning outcomes
// into created, unsuccessful, and exceptional. One bad request never
// blocks the rest of the batch.
type Submitter struct {
	gateway  Gateway
	identity IdentityPolicy
}

// NewSubmitter creates a submission engine gated by the given identity
// policy.
func NewSubmitter(gateway Gateway, identity IdentityPolicy) *Submitter {
	return &Submitter{gateway: gateway, identity: identity}
}

// Submit processes the requests sequentially in input order. Requests
// failing the identity gate are recorded without any backend round-trip.
// Backend-reported application errors land in UnsuccessfulHelpRequests;
// transport failures, auth failures, and malformed responses land in
// Exceptions. No request is retried here.
func (s *Submitter) Submit(ctx context.Context, requests []*heretohelp.HelpRequest) *BatchResult {
	result := &BatchResult{
		CreatedHelpRequestIDs:    []int{},
		UnsuccessfulHelpRequests: []FailedRequest{},
	}

	for _, req := range requests {
		if !s.identity.Identifiable(req) {
			logger.Warn("help request was not uniquely identifiable and was skipped",
				"help_needed", req.HelpNeeded)
			result.UnsuccessfulHelpRequests = append(result.UnsuccessfulHelpRequests, FailedRequest{
				Request: req,
				Error:   ErrNotIdentifiable.Error(),
			})
			continue
		}

		id, err := s.gateway.CreateHelpRequest(ctx, req)
		if err == nil {
			result.CreatedHelpRequestIDs = append(result.CreatedHelpRequestIDs, id)
			continue
		}

		var apiErr *heretohelp.APIError
		if errors.As(err, &apiErr) && !apiErr.AuthFailure() {
			logger.Warn("backend rejected help request",
				"help_needed", req.HelpNeeded, "error", apiErr.Message)
			result.UnsuccessfulHelpRequests = append(result.UnsuccessfulHelpRequests, FailedRequest{
				Request: req,
				Error:   apiErr.Message,
			})
			continue
		}

		logger.Error("failed to create help request",
			"help_needed", req.HelpNeeded, "error", err)
		result.Exceptions = append(result.Exceptions, FailedRequest{
			Request: req,
			Error:   err.Error(),
		})
	}

	return result
}
