package core

import (
	"errors"
	"testing"
)

func TestFingerprintText(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same fingerprint",
			content: "test content",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "This is a much longer piece of content that should still hash consistently",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp1 := FingerprintText(tt.content)
			fp2 := FingerprintText(tt.content)

			if fp1 != fp2 {
				t.Errorf("FingerprintText() produced different fingerprints for same content: %d vs %d", fp1, fp2)
			}
		})
	}
}

func TestFingerprintText_Different(t *testing.T) {
	fp1 := FingerprintText("content1")
	fp2 := FingerprintText("content2")

	if fp1 == fp2 {
		t.Errorf("FingerprintText() produced same fingerprint for different content")
	}
}

func TestParseSourceType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SourceType
		wantErr error
	}{
		{name: "pdf", input: "pdf", want: SourceTypePDF},
		{name: "txt", input: "txt", want: SourceTypeTXT},
		{name: "docx", input: "docx", want: SourceTypeDOCX},
		{name: "uppercase", input: "PDF", want: SourceTypePDF},
		{name: "padded", input: " txt ", want: SourceTypeTXT},
		{name: "unsupported", input: "xlsx", wantErr: ErrUnsupportedType},
		{name: "empty", input: "", wantErr: ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSourceType(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseSourceType(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSourceType(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSourceType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	if JobStatusEnqueued.Terminal() || JobStatusStarted.Terminal() {
		t.Errorf("enqueued/started must not be terminal")
	}
	if !JobStatusCompleted.Terminal() || !JobStatusFailed.Terminal() {
		t.Errorf("completed/failed must be terminal")
	}
}

func TestJobStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from JobStatus
		to   JobStatus
		want bool
	}{
		{name: "enqueued to started", from: JobStatusEnqueued, to: JobStatusStarted, want: true},
		{name: "started to completed", from: JobStatusStarted, to: JobStatusCompleted, want: true},
		{name: "started to failed", from: JobStatusStarted, to: JobStatusFailed, want: true},
		{name: "enqueued to completed skips started", from: JobStatusEnqueued, to: JobStatusCompleted, want: false},
		{name: "completed is terminal", from: JobStatusCompleted, to: JobStatusFailed, want: false},
		{name: "failed is terminal", from: JobStatusFailed, to: JobStatusStarted, want: false},
		{name: "no going back", from: JobStatusStarted, to: JobStatusEnqueued, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%v -> %v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
