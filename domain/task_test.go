package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
)

func TestTaskMarshalOmitsEmptyDueDate(t *testing.T) {
	task := Task{ID: "t1", Title: "Title", Category: "QA", Priority: PriorityHigh}

	payload, err := sonic.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}

	if strings.Contains(string(payload), "dueDate") {
		t.Fatalf("expected dueDate to be omitted, got %s", payload)
	}
	if !strings.Contains(string(payload), "\"description\":\"\"") {
		t.Fatalf("expected empty description to be present, got %s", payload)
	}
	if !strings.Contains(string(payload), "\"priority\":\"High\"") {
		t.Fatalf("expected priority name, got %s", payload)
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{in: "low", want: PriorityLow},
		{in: " Medium ", want: PriorityMedium},
		{in: "HIGH", want: PriorityHigh},
		{in: "urgent", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParsePriority(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDraftNormalizeAppliesDefaults(t *testing.T) {
	d := TaskDraft{Title: "  Write tests ", Description: " Unit tests "}.Normalize()

	if d.Title != "Write tests" || d.Description != "Unit tests" {
		t.Fatalf("expected trimmed fields, got %#v", d)
	}
	if d.Category != "General" {
		t.Fatalf("expected default category, got %q", d.Category)
	}
	if d.Priority != PriorityLow {
		t.Fatalf("expected default priority, got %q", d.Priority)
	}

	d = TaskDraft{Title: "x", Priority: "high"}.Normalize()
	if d.Priority != PriorityHigh {
		t.Fatalf("expected canonical priority, got %q", d.Priority)
	}
}

func TestDraftValidate(t *testing.T) {
	if err := (TaskDraft{Title: "ok", Priority: PriorityLow}).Validate(); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}
	if err := (TaskDraft{Title: "   ", Priority: PriorityLow}).Validate(); !errors.Is(err, ErrInvalidDraft) {
		t.Fatalf("expected ErrInvalidDraft for blank title, got %v", err)
	}
	if err := (TaskDraft{Title: "ok", Priority: "urgent"}).Validate(); !errors.Is(err, ErrInvalidDraft) {
		t.Fatalf("expected ErrInvalidDraft for bad priority, got %v", err)
	}
}
