package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedToday keeps the recency gate deterministic: rows carry a Date
// Tested of 13/03/2021, two days inside the window.
var fixedToday = time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)

func newTestEngine(gw *fakeGateway, wf Workflow) *Engine {
	e := NewEngine(gw, wf)
	e.SetClock(func() time.Time { return fixedToday })
	return e
}

func selfIsolationRow(index int, overrides map[string]string) *Row {
	values := map[string]string{
		ColForename:          "jane",
		ColSurname:           "roe",
		ColDateOfBirth:       "03/04/1980",
		ColAddressLine1:      "Mare Street",
		ColHouseNumber:       "12",
		ColAddressLine2:      "Flat 2",
		ColTown:              "Hackney",
		ColPostcode:          "e8 1dy",
		ColPhone:             "07700900123",
		ColPhone2:            "02012345678",
		ColEmail:             "jane@example.com",
		ColNhsNumber:         "4857773456",
		ColID:                "ctas-1",
		ColUprn:              "100023045678",
		ColLASupportRequired: "1",
		ColLASupportLetter:   "0",
		ColStatusReport:      "Completed",
		ColDateTested:        "13/03/2021",
		"Day 7 Outcome":      "no answer",
	}
	for k, v := range overrides {
		values[k] = v
	}
	return &Row{Index: index, Values: values}
}

func TestEngine_SelfIsolation_CreatesWelfareCall(t *testing.T) {
	gw := newFakeGateway()
	engine := newTestEngine(gw, SelfIsolationWorkflow())

	row := selfIsolationRow(0, nil)
	result := engine.ProcessRows(context.Background(), []*Row{row})

	require.Len(t, result.CreatedHelpRequestIDs, 1)
	require.Len(t, gw.created, 1)

	req := gw.created[0]
	assert.Equal(t, "Welfare Call", req.HelpNeeded)
	assert.True(t, req.CallbackRequired)
	assert.Equal(t, "Jane", req.FirstName)
	assert.Equal(t, "Roe", req.LastName)
	assert.Equal(t, "E8 1DY", req.Postcode)
	assert.Equal(t, "12 Mare Street", req.AddressLine1)
	assert.Equal(t, "Flat 2", req.AddressLine2)
	assert.Equal(t, "Hackney", req.AddressLine3)
	assert.Equal(t, "3", req.DobDay)
	assert.Equal(t, "4", req.DobMonth)
	assert.Equal(t, "1980", req.DobYear)
	assert.Equal(t, "07700900123", req.ContactMobileNumber)
	assert.Equal(t, "02012345678", req.ContactTelephoneNumber)
	assert.Equal(t, "4857773456", req.NhsNumber)
	assert.Equal(t, "ctas-1", req.NhsCtasId)
	assert.Equal(t, map[string]string{
		"LA_support_required":        "1",
		"LA_support_letter_received": "0",
	}, req.Metadata)

	// Output fields written back into the row.
	assert.Equal(t, "101", row.HelpRequestID)
	assert.Equal(t, "7", row.ResidentID)
	assert.Empty(t, row.CEVCaseAddedID)

	// The Day 7 outcome became a case note.
	assert.Equal(t, 1, result.CaseNotesCreated)
	require.Len(t, gw.notes, 1)
	assert.Equal(t, "Day 7 Outcome: no answer", gw.notes[0].Note)
	assert.Equal(t, "Self Isolation data ingestion pipeline", gw.notes[0].Author)
}

func TestEngine_EligibilityGating(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
	}{
		{"status not completed", map[string]string{ColStatusReport: "In Progress"}},
		{"no support flags", map[string]string{ColLASupportRequired: "0", ColLASupportLetter: "0"}},
		{"test date too old", map[string]string{ColDateTested: "01/03/2021"}},
		{"test date empty", map[string]string{ColDateTested: ""}},
		{"test date unparsable", map[string]string{ColDateTested: "awaiting result"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			engine := newTestEngine(gw, SelfIsolationWorkflow())

			row := selfIsolationRow(0, tt.overrides)
			result := engine.ProcessRows(context.Background(), []*Row{row})

			assert.Equal(t, 0, gw.backendCalls, "ineligible rows must cause no backend call")
			assert.Equal(t, 1, result.Ineligible)
			assert.Empty(t, row.HelpRequestID)
			assert.Empty(t, row.ResidentID)
			assert.Empty(t, row.CEVCaseAddedID)
		})
	}
}

func TestEngine_CaseInsensitiveStatus(t *testing.T) {
	gw := newFakeGateway()
	engine := newTestEngine(gw, SelfIsolationWorkflow())

	row := selfIsolationRow(0, map[string]string{ColStatusReport: "  COMPLETED "})
	result := engine.ProcessRows(context.Background(), []*Row{row})

	assert.Len(t, result.CreatedHelpRequestIDs, 1)
}

func TestEngine_LinkedShieldingCase(t *testing.T) {
	gw := newFakeGateway()
	engine := newTestEngine(gw, SelfIsolationWorkflow())

	row := selfIsolationRow(0, map[string]string{ColLASupportLetter: "1"})
	result := engine.ProcessRows(context.Background(), []*Row{row})

	require.Len(t, result.CreatedHelpRequestIDs, 1)
	require.Len(t, result.LinkedCaseIDs, 1)
	require.Len(t, gw.linkedCreated, 1)

	linked := gw.linkedCreated[0]
	assert.Equal(t, "Shielding", linked.HelpNeeded)
	assert.False(t, linked.CallbackRequired)

	assert.NotEmpty(t, row.CEVCaseAddedID)

	// Outcome note plus the provenance note on the linked case.
	assert.Equal(t, 2, result.CaseNotesCreated)
	require.Len(t, gw.notes, 2)
	assert.Contains(t, gw.notes[1].Note, "self-reported CEV resident")
}

func TestEngine_LinkedCaseSkippedWhenShieldingExists(t *testing.T) {
	gw := newFakeGateway()
	gw.residentRequests = append(gw.residentRequests, residentRequest(50, "Shielding"))
	engine := newTestEngine(gw, SelfIsolationWorkflow())

	row := selfIsolationRow(0, map[string]string{ColLASupportLetter: "1"})
	result := engine.ProcessRows(context.Background(), []*Row{row})

	assert.Len(t, result.CreatedHelpRequestIDs, 1, "primary welfare call still created")
	assert.Empty(t, result.LinkedCaseIDs)
	assert.Empty(t, gw.linkedCreated)
	assert.Empty(t, row.CEVCaseAddedID)
}

func TestEngine_IdempotentRerun(t *testing.T) {
	gw := newFakeGateway()
	engine := newTestEngine(gw, SelfIsolationWorkflow())

	first := engine.ProcessRows(context.Background(), []*Row{
		selfIsolationRow(0, map[string]string{ColLASupportLetter: "1"}),
	})
	require.Len(t, first.LinkedCaseIDs, 1)
	require.Equal(t, 2, first.CaseNotesCreated)
	notesAfterFirst := len(gw.notes)
	linkedAfterFirst := len(gw.linkedCreated)

	// Same unchanged row re-processed with the backend already holding the
	// previous run's request and notes.
	second := engine.ProcessRows(context.Background(), []*Row{
		selfIsolationRow(0, map[string]string{ColLASupportLetter: "1"}),
	})

	assert.Equal(t, 0, second.CaseNotesCreated, "re-run must not double-post notes")
	assert.Empty(t, second.LinkedCaseIDs, "re-run must not create another linked case")
	assert.Len(t, gw.notes, notesAfterFirst)
	assert.Len(t, gw.linkedCreated, linkedAfterFirst)
}

func TestEngine_MalformedDOBAbortsRowOnly(t *testing.T) {
	gw := newFakeGateway()
	engine := newTestEngine(gw, SelfIsolationWorkflow())

	rows := []*Row{
		selfIsolationRow(0, map[string]string{ColDateOfBirth: "not a date"}),
		selfIsolationRow(1, nil),
	}
	result := engine.ProcessRows(context.Background(), rows)

	require.Len(t, result.UnsuccessfulHelpRequests, 1)
	assert.Contains(t, result.UnsuccessfulHelpRequests[0].Error, "date of birth")
	assert.Len(t, result.CreatedHelpRequestIDs, 1, "remaining rows continue")
	assert.Empty(t, rows[0].HelpRequestID)
	assert.NotEmpty(t, rows[1].HelpRequestID)
}

func TestEngine_ContactTracingHasNoLinkage(t *testing.T) {
	gw := newFakeGateway()
	engine := newTestEngine(gw, ContactTracingWorkflow())

	row := selfIsolationRow(0, map[string]string{ColLASupportLetter: "1"})
	result := engine.ProcessRows(context.Background(), []*Row{row})

	require.Len(t, result.CreatedHelpRequestIDs, 1)
	assert.Equal(t, "Contact Tracing", gw.created[0].HelpNeeded)
	assert.Empty(t, gw.linkedCreated)
	assert.Empty(t, row.CEVCaseAddedID)
}

func TestEngine_SPLSubmitsWithoutCallback(t *testing.T) {
	gw := newFakeGateway()
	engine := newTestEngine(gw, SPLWorkflow())

	// SPL rows carry no status or support columns.
	row := selfIsolationRow(0, map[string]string{
		ColStatusReport:      "",
		ColLASupportRequired: "",
		ColDateTested:        "",
	})
	result := engine.ProcessRows(context.Background(), []*Row{row})

	require.Len(t, result.CreatedHelpRequestIDs, 1)
	assert.Equal(t, "Shielding", gw.created[0].HelpNeeded)
	assert.False(t, gw.created[0].CallbackRequired)
}
