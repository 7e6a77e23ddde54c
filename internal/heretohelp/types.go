package heretohelp

// HelpRequest is the payload submitted to the case-management backend for
// one spreadsheet row. Field names follow the backend wire format; the
// backend assigns the request id.
type HelpRequest struct {
	Metadata               map[string]string `json:"Metadata,omitempty"`
	Uprn                   string            `json:"Uprn,omitempty"`
	Postcode               string            `json:"Postcode,omitempty"`
	AddressLine1           string            `json:"AddressFirstLine,omitempty"`
	AddressLine2           string            `json:"AddressSecondLine,omitempty"`
	AddressLine3           string            `json:"AddressThirdLine,omitempty"`
	FirstName              string            `json:"FirstName,omitempty"`
	LastName               string            `json:"LastName,omitempty"`
	DobDay                 string            `json:"DobDay,omitempty"`
	DobMonth               string            `json:"DobMonth,omitempty"`
	DobYear                string            `json:"DobYear,omitempty"`
	ContactTelephoneNumber string            `json:"ContactTelephoneNumber,omitempty"`
	ContactMobileNumber    string            `json:"ContactMobileNumber,omitempty"`
	EmailAddress           string            `json:"EmailAddress,omitempty"`
	CallbackRequired       bool              `json:"CallbackRequired"`
	HelpNeeded             string            `json:"HelpNeeded"`
	NhsNumber              string            `json:"NhsNumber,omitempty"`
	NhsCtasId              string            `json:"NhsCtasId,omitempty"`
}

// CaseNote is an append-only annotation on a help request.
type CaseNote struct {
	Author    string `json:"author"`
	Note      string `json:"note"`
	CreatedAt string `json:"created_at,omitempty"`
}

// HelpRequestDetail is the backend's view of a created help request,
// including the resident it was associated to and its existing case notes.
type HelpRequestDetail struct {
	ID         int        `json:"Id"`
	ResidentID int        `json:"ResidentId"`
	HelpNeeded string     `json:"HelpNeeded"`
	CaseNotes  []CaseNote `json:"CaseNotes"`
}

// ResidentHelpRequest is one entry of a resident's help request list, used
// to check for an existing request of a given kind before creating a
// linked case.
type ResidentHelpRequest struct {
	ID         int    `json:"Id"`
	HelpNeeded string `json:"HelpNeeded"`
}

type createResponse struct {
	ID int `json:"Id"`
}
