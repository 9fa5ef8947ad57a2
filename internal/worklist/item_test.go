package worklist_test

import (
	"testing"

	"reelsmith/internal/worklist"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw     string
		want    worklist.Status
		wantErr bool
	}{
		{raw: "", want: worklist.StatusPending},
		{raw: "pending", want: worklist.StatusPending},
		{raw: "Pending", want: worklist.StatusPending},
		{raw: "  in_progress  ", want: worklist.StatusInProgress},
		{raw: "In Progress", want: worklist.StatusInProgress},
		{raw: "COMPLETED", want: worklist.StatusCompleted},
		{raw: "failed", want: worklist.StatusFailed},
		{raw: "done", wantErr: true},
		{raw: "error", wantErr: true},
	}
	for _, tc := range cases {
		got, err := worklist.ParseStatus(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseStatus(%q) expected error, got %q", tc.raw, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStatus(%q) returned error: %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	if worklist.StatusPending.IsTerminal() {
		t.Error("pending should not be terminal")
	}
	if worklist.StatusInProgress.IsTerminal() {
		t.Error("in_progress should not be terminal")
	}
	if !worklist.StatusCompleted.IsTerminal() {
		t.Error("completed should be terminal")
	}
	if !worklist.StatusFailed.IsTerminal() {
		t.Error("failed should be terminal")
	}
}

func TestItemValidate(t *testing.T) {
	item := worklist.Item{ID: "vid-1", Topic: "ocean currents"}
	if err := item.Validate(); err != nil {
		t.Fatalf("valid item rejected: %v", err)
	}

	item = worklist.Item{Topic: "ocean currents"}
	if err := item.Validate(); err == nil {
		t.Fatal("expected error for missing id")
	}

	item = worklist.Item{ID: "vid-1", Topic: "   "}
	if err := item.Validate(); err == nil {
		t.Fatal("expected error for blank topic")
	}
}
