package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/heretohelp"
)

// Spreadsheet column headings shared by the inbound sheets.
const (
	ColDateOfBirth       = "Date of Birth"
	ColAddressLine1      = "Address Line 1"
	ColHouseNumber       = "House Number"
	ColAddressLine2      = "Address Line 2"
	ColTown              = "Town"
	ColForename          = "Forename"
	ColSurname           = "Surname"
	ColPhone             = "Phone"
	ColPhone2            = "Phone2"
	ColEmail             = "Email"
	ColNhsNumber         = "NHS Number"
	ColID                = "ID"
	ColUprn              = "UPRN"
	ColPostcode          = "Postcode"
	ColLASupportRequired = "LA Support Required"
	ColLASupportLetter   = "LA Support Letter Received"
	ColStatusReport      = "Status Report"
	ColDateTested        = "Date Tested"
	ColComments          = "Comments"
)

// outcomeColumns are the call-outcome headings turned into case notes for
// the isolation-monitoring workflows.
var outcomeColumns = []string{
	"Day 4 Outcome",
	"Day 7 Outcome",
	"Day 10 Outcome",
	"Day 13 Outcome",
	ColComments,
}

func statusCompleted(row *Row) bool {
	return strings.EqualFold(strings.TrimSpace(row.Get(ColStatusReport)), "completed")
}

// buildHelpRequest normalizes the shared row fields into a submission
// payload. An empty date of birth is allowed (identity may rest on the
// NHS number); a malformed one aborts this row only.
func buildHelpRequest(row *Row, helpNeeded string, callbackRequired bool) (*heretohelp.HelpRequest, error) {
	req := &heretohelp.HelpRequest{
		Uprn:                   row.Get(ColUprn),
		Postcode:               strings.ToUpper(strings.TrimSpace(row.Get(ColPostcode))),
		AddressLine1:           ConcatenateAddress(row.Get(ColAddressLine1), row.Get(ColHouseNumber)),
		AddressLine2:           row.Get(ColAddressLine2),
		AddressLine3:           row.Get(ColTown),
		FirstName:              capitalize(row.Get(ColForename)),
		LastName:               capitalize(row.Get(ColSurname)),
		ContactTelephoneNumber: row.Get(ColPhone2),
		ContactMobileNumber:    row.Get(ColPhone),
		EmailAddress:           row.Get(ColEmail),
		CallbackRequired:       callbackRequired,
		HelpNeeded:             helpNeeded,
		NhsNumber:              row.Get(ColNhsNumber),
		NhsCtasId:              row.Get(ColID),
	}

	if dob := strings.TrimSpace(row.Get(ColDateOfBirth)); dob != "" {
		day, month, year, err := ParseDateOfBirth(dob)
		if err != nil {
			return nil, err
		}
		req.DobDay = strconv.Itoa(day)
		req.DobMonth = strconv.Itoa(month)
		req.DobYear = strconv.Itoa(year)
	}

	return req, nil
}

// SelfIsolationWorkflow reconciles self-isolation support rows: completed
// status reports with an LA support flag and a recent test date become
// Welfare Call requests. Rows with a support letter on file additionally
// get a linked Shielding case unless the resident already has one.
func SelfIsolationWorkflow() Workflow {
	return Workflow{
		Name:   "self-isolation",
		Author: "Self Isolation data ingestion pipeline",
		Eligible: func(row *Row, today time.Time) bool {
			if !statusCompleted(row) {
				return false
			}
			if !row.Flag(ColLASupportRequired) && !row.Flag(ColLASupportLetter) {
				return false
			}
			return WithinLastDays(row.Get(ColDateTested), RecencyWindowDays, today)
		},
		BuildRequest: func(row *Row) (*heretohelp.HelpRequest, error) {
			req, err := buildHelpRequest(row, "Welfare Call", true)
			if err != nil {
				return nil, err
			}
			req.Metadata = map[string]string{
				"LA_support_required":        row.Get(ColLASupportRequired),
				"LA_support_letter_received": row.Get(ColLASupportLetter),
			}
			return req, nil
		},
		NoteSources: outcomeColumns,
		Linkage: &Linkage{
			Trigger:    func(row *Row) bool { return row.Flag(ColLASupportLetter) },
			HelpNeeded: "Shielding",
			Note: "--- self-reported CEV resident identified through self-isolation support " +
				"process ---",
		},
	}
}

// ContactTracingWorkflow reconciles contact-tracing call rows into Contact
// Tracing requests. Same completion and recency gates as self-isolation,
// no linked case.
func ContactTracingWorkflow() Workflow {
	return Workflow{
		Name:   "contact-tracing",
		Author: "Contact Tracing data ingestion pipeline",
		Eligible: func(row *Row, today time.Time) bool {
			return statusCompleted(row) &&
				WithinLastDays(row.Get(ColDateTested), RecencyWindowDays, today)
		},
		BuildRequest: func(row *Row) (*heretohelp.HelpRequest, error) {
			return buildHelpRequest(row, "Contact Tracing", true)
		},
		NoteSources: outcomeColumns,
	}
}

// CEVWorkflow reconciles clinically-extremely-vulnerable list rows into
// Shielding requests with a welfare callback.
func CEVWorkflow() Workflow {
	return Workflow{
		Name:   "cev",
		Author: "CEV data ingestion pipeline",
		Eligible: func(row *Row, today time.Time) bool {
			return row.Flag(ColLASupportRequired)
		},
		BuildRequest: func(row *Row) (*heretohelp.HelpRequest, error) {
			return buildHelpRequest(row, "Shielding", true)
		},
		NoteSources: []string{ColComments},
	}
}

// SPLWorkflow reconciles Shielded Patient List rows. The list itself is
// authoritative, so every identifiable row is submitted; no callback is
// requested.
func SPLWorkflow() Workflow {
	return Workflow{
		Name:   "spl",
		Author: "SPL data ingestion pipeline",
		Eligible: func(row *Row, today time.Time) bool {
			return true
		},
		BuildRequest: func(row *Row) (*heretohelp.HelpRequest, error) {
			return buildHelpRequest(row, "Shielding", false)
		},
		NoteSources: []string{ColComments},
	}
}

// Workflows returns the registry of all ingestion workflows keyed by name.
func Workflows() map[string]Workflow {
	return map[string]Workflow{
		"self-isolation":  SelfIsolationWorkflow(),
		"contact-tracing": ContactTracingWorkflow(),
		"cev":             CEVWorkflow(),
		"spl":             SPLWorkflow(),
	}
}
