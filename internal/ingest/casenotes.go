package ingest

import (
	"strings"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/heretohelp"
)

// NeedsCaseNote reports whether the candidate note text should be written,
// given the notes already attached to the request. Two notes are
// equivalent when their normalized text matches: whitespace trimmed, case
// folded, internal whitespace collapsed. Exact matching is too strict for
// re-exported spreadsheet text; anything fuzzier than normalization would
// start suppressing genuinely new information. This check is what keeps
// re-runs from double-posting identical outcome notes.
func NeedsCaseNote(existing []heretohelp.CaseNote, candidate string) bool {
	want := normalizeNoteText(candidate)
	if want == "" {
		return false
	}
	for _, note := range existing {
		if normalizeNoteText(note.Note) == want {
			return false
		}
	}
	return true
}

func normalizeNoteText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
