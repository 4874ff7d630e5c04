package planner

import (
	"strings"
	"testing"

	"server/internal/domain"
)

func TestBuildRepromptDraftPrefillsFromJob(t *testing.T) {
	job := &domain.CreationJob{
		ID:              "job-1",
		ModelSlug:       "kling-v2",
		Prompt:          "waves crashing",
		Source:          domain.CreationSourceVideo,
		Modality:        domain.ModalityImageToVideo,
		ReferenceImages: []string{"a.png"},
		AspectRatio:     "9:16",
		DurationSeconds: 5,
	}
	draft, err := BuildRepromptDraft(job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Prompt != "waves crashing" || draft.ModelSlug != "kling-v2" {
		t.Fatalf("draft lost fields: %+v", draft)
	}
	if draft.Mode != domain.VideoModeImage {
		t.Fatalf("mode = %q, want image", draft.Mode)
	}
	if draft.AspectRatio != "9:16" || draft.DurationSeconds != 5 {
		t.Fatalf("draft lost format fields: %+v", draft)
	}
}

func TestBuildRepromptDraftAllowsMissingPrompt(t *testing.T) {
	job := &domain.CreationJob{ID: "job-2", Source: domain.CreationSourceImage, ModelSlug: "flux-dev"}
	draft, err := BuildRepromptDraft(job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Prompt != "" {
		t.Fatalf("prompt = %q, want empty", draft.Prompt)
	}
}

func TestBuildRepromptDraftLipSyncRejected(t *testing.T) {
	job := &domain.CreationJob{ID: "job-3", Source: domain.CreationSourceLipSync}
	_, err := BuildRepromptDraft(job)
	if err == nil || !strings.Contains(err.Error(), "lip-sync") {
		t.Fatalf("expected lip-sync rejection, got %v", err)
	}
}

func TestBuildRepromptDraftDoesNotAliasReferenceImages(t *testing.T) {
	job := &domain.CreationJob{
		ID:              "job-4",
		Source:          domain.CreationSourceImage,
		ReferenceImages: []string{"a.png"},
	}
	draft, err := BuildRepromptDraft(job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	draft.ReferenceImages[0] = "mutated.png"
	if job.ReferenceImages[0] != "a.png" {
		t.Fatalf("draft aliases the source job's reference images")
	}
}
