package ingest

import (
	"testing"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/heretohelp"
)

func notes(texts ...string) []heretohelp.CaseNote {
	out := make([]heretohelp.CaseNote, len(texts))
	for i, t := range texts {
		out[i] = heretohelp.CaseNote{Author: "pipeline", Note: t}
	}
	return out
}

func TestNeedsCaseNote(t *testing.T) {
	tests := []struct {
		name      string
		existing  []heretohelp.CaseNote
		candidate string
		want      bool
	}{
		{
			name:      "no existing notes",
			existing:  nil,
			candidate: "Day 7 Outcome: no answer",
			want:      true,
		},
		{
			name:      "exact duplicate",
			existing:  notes("Day 7 Outcome: no answer"),
			candidate: "Day 7 Outcome: no answer",
			want:      false,
		},
		{
			name:      "differs only by case",
			existing:  notes("Day 7 Outcome: No Answer"),
			candidate: "day 7 outcome: no answer",
			want:      false,
		},
		{
			name:      "differs only by surrounding whitespace",
			existing:  notes("Day 7 Outcome: no answer"),
			candidate: "  Day 7 Outcome: no answer  ",
			want:      false,
		},
		{
			name:      "differs only by internal whitespace",
			existing:  notes("Day 7 Outcome:   no  answer"),
			candidate: "Day 7 Outcome: no answer",
			want:      false,
		},
		{
			name:      "substantively different text",
			existing:  notes("Day 7 Outcome: no answer"),
			candidate: "Day 10 Outcome: wellbeing call completed",
			want:      true,
		},
		{
			name:      "duplicate among several",
			existing:  notes("Comments: prefers SMS", "Day 4 Outcome: spoke to resident"),
			candidate: "comments: prefers sms",
			want:      false,
		},
		{
			name:      "empty candidate never written",
			existing:  nil,
			candidate: "   ",
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsCaseNote(tt.existing, tt.candidate); got != tt.want {
				t.Errorf("NeedsCaseNote(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}
