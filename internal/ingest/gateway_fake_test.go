package ingest

import (
	"context"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/heretohelp"
)

// fakeGateway is an in-memory backend. Case notes are held per resident,
// as the real backend surfaces a resident's notes on each of their help
// requests.
type fakeGateway struct {
	nextID     int
	residentID int

	createCalls   int
	failCreateOn  map[int]error // 1-based CreateHelpRequest ordinal → error
	getErr        error
	caseNoteErr   error
	residentErr   error
	backendCalls  int
	linkedCreated []*heretohelp.HelpRequest

	created          []*heretohelp.HelpRequest
	residentRequests []heretohelp.ResidentHelpRequest
	notes            []heretohelp.CaseNote
}

func residentRequest(id int, helpNeeded string) heretohelp.ResidentHelpRequest {
	return heretohelp.ResidentHelpRequest{ID: id, HelpNeeded: helpNeeded}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		nextID:       100,
		residentID:   7,
		failCreateOn: map[int]error{},
	}
}

func (g *fakeGateway) CreateHelpRequest(_ context.Context, req *heretohelp.HelpRequest) (int, error) {
	g.backendCalls++
	g.createCalls++
	if err := g.failCreateOn[g.createCalls]; err != nil {
		return 0, err
	}
	g.nextID++
	g.created = append(g.created, req)
	g.residentRequests = append(g.residentRequests, heretohelp.ResidentHelpRequest{
		ID:         g.nextID,
		HelpNeeded: req.HelpNeeded,
	})
	return g.nextID, nil
}

func (g *fakeGateway) GetHelpRequest(_ context.Context, id int) (*heretohelp.HelpRequestDetail, error) {
	g.backendCalls++
	if g.getErr != nil {
		return nil, g.getErr
	}
	var helpNeeded string
	for _, r := range g.residentRequests {
		if r.ID == id {
			helpNeeded = r.HelpNeeded
		}
	}
	return &heretohelp.HelpRequestDetail{
		ID:         id,
		ResidentID: g.residentID,
		HelpNeeded: helpNeeded,
		CaseNotes:  append([]heretohelp.CaseNote(nil), g.notes...),
	}, nil
}

func (g *fakeGateway) GetResidentHelpRequests(_ context.Context, residentID int) ([]heretohelp.ResidentHelpRequest, error) {
	g.backendCalls++
	if g.residentErr != nil {
		return nil, g.residentErr
	}
	return append([]heretohelp.ResidentHelpRequest(nil), g.residentRequests...), nil
}

func (g *fakeGateway) CreateResidentHelpRequest(_ context.Context, residentID int, req *heretohelp.HelpRequest) (int, error) {
	g.backendCalls++
	g.nextID++
	g.linkedCreated = append(g.linkedCreated, req)
	g.residentRequests = append(g.residentRequests, heretohelp.ResidentHelpRequest{
		ID:         g.nextID,
		HelpNeeded: req.HelpNeeded,
	})
	return g.nextID, nil
}

func (g *fakeGateway) CreateCaseNote(_ context.Context, residentID, helpRequestID int, note heretohelp.CaseNote) error {
	g.backendCalls++
	if g.caseNoteErr != nil {
		return g.caseNoteErr
	}
	g.notes = append(g.notes, note)
	return nil
}
