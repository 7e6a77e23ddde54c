package ingest

import (
	"errors"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/heretohelp"
)

// ErrNotIdentifiable marks a help request that carries no strong-identifier
// combination. Such requests are never submitted to the backend.
var ErrNotIdentifiable = errors.New("help request is not uniquely identifiable")

// IdentityField is one field class contributing to identifiability.
type IdentityField string

const (
	FieldNhsNumber IdentityField = "nhs_number"
	FieldNhsCtasID IdentityField = "nhs_ctas_id"
	FieldUprn      IdentityField = "uprn"
	FieldName      IdentityField = "name"
	FieldDob       IdentityField = "dob"
	FieldPostcode  IdentityField = "postcode"
)

// IdentityPolicy lists the strong-identifier combinations that make a help
// request uniquely matchable against a resident. A request satisfying any
// one combination is identifiable.
type IdentityPolicy struct {
	Combinations [][]IdentityField
}

// DefaultIdentityPolicy returns the combinations used across all
// workflows: an NHS number or CTAS id alone is unique; otherwise a
// property or address match plus the full name is required.
func DefaultIdentityPolicy() IdentityPolicy {
	return IdentityPolicy{
		Combinations: [][]IdentityField{
			{FieldNhsNumber},
			{FieldNhsCtasID},
			{FieldUprn, FieldName},
			{FieldName, FieldDob, FieldPostcode},
		},
	}
}

// Identifiable reports whether the request carries at least one complete
// strong-identifier combination. Pure predicate: no backend access.
func (p IdentityPolicy) Identifiable(req *heretohelp.HelpRequest) bool {
	for _, combo := range p.Combinations {
		if p.satisfies(req, combo) {
			return true
		}
	}
	return false
}

func (p IdentityPolicy) satisfies(req *heretohelp.HelpRequest, combo []IdentityField) bool {
	for _, f := range combo {
		if !fieldPresent(req, f) {
			return false
		}
	}
	return len(combo) > 0
}

func fieldPresent(req *heretohelp.HelpRequest, f IdentityField) bool {
	switch f {
	case FieldNhsNumber:
		return req.NhsNumber != ""
	case FieldNhsCtasID:
		return req.NhsCtasId != ""
	case FieldUprn:
		return req.Uprn != ""
	case FieldName:
		return req.FirstName != "" && req.LastName != ""
	case FieldDob:
		return req.DobDay != "" && req.DobMonth != "" && req.DobYear != ""
	case FieldPostcode:
		return req.Postcode != ""
	}
	return false
}
