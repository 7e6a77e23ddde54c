package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/heretohelp"
)

func identifiableRequest(nhs string) *heretohelp.HelpRequest {
	return &heretohelp.HelpRequest{NhsNumber: nhs, HelpNeeded: "Welfare Call", CallbackRequired: true}
}

func TestSubmit_OrderPreserved(t *testing.T) {
	gw := newFakeGateway()
	sub := NewSubmitter(gw, DefaultIdentityPolicy())

	requests := []*heretohelp.HelpRequest{
		identifiableRequest("1111111111"),
		identifiableRequest("2222222222"),
		identifiableRequest("3333333333"),
	}
	result := sub.Submit(context.Background(), requests)

	if len(result.CreatedHelpRequestIDs) != 3 {
		t.Fatalf("created = %d, want 3", len(result.CreatedHelpRequestIDs))
	}
	for i := 1; i < len(result.CreatedHelpRequestIDs); i++ {
		if result.CreatedHelpRequestIDs[i] <= result.CreatedHelpRequestIDs[i-1] {
			t.Errorf("ids out of submission order: %v", result.CreatedHelpRequestIDs)
		}
	}
	if gw.created[0].NhsNumber != "1111111111" || gw.created[2].NhsNumber != "3333333333" {
		t.Errorf("gateway saw requests out of order")
	}
}

func TestSubmit_UnidentifiableSkippedWithoutBackendCall(t *testing.T) {
	gw := newFakeGateway()
	sub := NewSubmitter(gw, DefaultIdentityPolicy())

	result := sub.Submit(context.Background(), []*heretohelp.HelpRequest{
		{HelpNeeded: "Welfare Call", EmailAddress: "jane@example.com"},
	})

	if gw.backendCalls != 0 {
		t.Errorf("backend calls = %d, want 0", gw.backendCalls)
	}
	if len(result.UnsuccessfulHelpRequests) != 1 {
		t.Fatalf("unsuccessful = %d, want 1", len(result.UnsuccessfulHelpRequests))
	}
	if result.UnsuccessfulHelpRequests[0].Error != ErrNotIdentifiable.Error() {
		t.Errorf("error = %q", result.UnsuccessfulHelpRequests[0].Error)
	}
	if len(result.CreatedHelpRequestIDs) != 0 {
		t.Errorf("created = %v, want none", result.CreatedHelpRequestIDs)
	}
}

func TestSubmit_FailureIsolation(t *testing.T) {
	gw := newFakeGateway()
	gw.failCreateOn[2] = &heretohelp.APIError{StatusCode: 400, Message: "postcode is required"}
	sub := NewSubmitter(gw, DefaultIdentityPolicy())

	requests := []*heretohelp.HelpRequest{
		identifiableRequest("1111111111"),
		identifiableRequest("2222222222"),
		identifiableRequest("3333333333"),
	}
	result := sub.Submit(context.Background(), requests)

	if len(result.CreatedHelpRequestIDs) != 2 {
		t.Errorf("created = %d, want 2 (requests after the failure still processed)", len(result.CreatedHelpRequestIDs))
	}
	if len(result.UnsuccessfulHelpRequests) != 1 {
		t.Fatalf("unsuccessful = %d, want 1", len(result.UnsuccessfulHelpRequests))
	}
	failed := result.UnsuccessfulHelpRequests[0]
	if failed.Request.NhsNumber != "2222222222" {
		t.Errorf("wrong request recorded as failed: %+v", failed.Request)
	}
	if failed.Error != "postcode is required" {
		t.Errorf("error = %q", failed.Error)
	}
	if result.Exceptions != nil {
		t.Errorf("exceptions = %v, want absent for application errors", result.Exceptions)
	}
}

func TestSubmit_TransportErrorGoesToExceptions(t *testing.T) {
	gw := newFakeGateway()
	gw.failCreateOn[1] = errors.New("request failed: connection refused")
	sub := NewSubmitter(gw, DefaultIdentityPolicy())

	result := sub.Submit(context.Background(), []*heretohelp.HelpRequest{
		identifiableRequest("1111111111"),
		identifiableRequest("2222222222"),
	})

	if len(result.Exceptions) != 1 {
		t.Fatalf("exceptions = %d, want 1", len(result.Exceptions))
	}
	if result.Exceptions[0].Request.NhsNumber != "1111111111" {
		t.Errorf("wrong request in exceptions: %+v", result.Exceptions[0].Request)
	}
	if len(result.CreatedHelpRequestIDs) != 1 {
		t.Errorf("created = %d, want 1 (batch continues after exception)", len(result.CreatedHelpRequestIDs))
	}
}

func TestSubmit_AuthFailureGoesToExceptions(t *testing.T) {
	gw := newFakeGateway()
	gw.failCreateOn[1] = &heretohelp.APIError{StatusCode: 403, Message: "authentication failed"}
	sub := NewSubmitter(gw, DefaultIdentityPolicy())

	result := sub.Submit(context.Background(), []*heretohelp.HelpRequest{
		identifiableRequest("1111111111"),
	})

	if len(result.Exceptions) != 1 {
		t.Fatalf("exceptions = %d, want 1", len(result.Exceptions))
	}
	if len(result.UnsuccessfulHelpRequests) != 0 {
		t.Errorf("unsuccessful = %d, want 0", len(result.UnsuccessfulHelpRequests))
	}
}

func TestSubmit_ExceptionsKeyAbsentWhenNone(t *testing.T) {
	gw := newFakeGateway()
	sub := NewSubmitter(gw, DefaultIdentityPolicy())

	result := sub.Submit(context.Background(), []*heretohelp.HelpRequest{
		identifiableRequest("1111111111"),
	})

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]json.RawMessage
	json.Unmarshal(data, &decoded)
	if _, present := decoded["exceptions"]; present {
		t.Errorf("exceptions key present in %s, want absent", data)
	}
	if _, present := decoded["unsuccessful_help_requests"]; !present {
		t.Errorf("unsuccessful_help_requests key absent in %s, want present (empty list)", data)
	}
}
