package planner

import (
	"reflect"
	"strings"
	"testing"

	"server/internal/domain"
)

func textToImageJob() *domain.CreationJob {
	return &domain.CreationJob{
		ID:          "job-1",
		UserID:      "u1",
		ModelSlug:   "flux-dev",
		Prompt:      "a lighthouse at dusk",
		Source:      domain.CreationSourceImage,
		Modality:    domain.ModalityTextToImage,
		Status:      domain.CreationStatusSucceeded,
		AspectRatio: "16:9",
		Metadata:    map[string]any{"seed": "42"},
	}
}

func TestBuildRegenerationPlanTextToImage(t *testing.T) {
	plan, err := BuildRegenerationPlan(textToImageJob())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Endpoint != EndpointTask {
		t.Fatalf("endpoint = %q, want %q", plan.Endpoint, EndpointTask)
	}
	if plan.Payload["prompt"] != "a lighthouse at dusk" {
		t.Fatalf("payload prompt = %v", plan.Payload["prompt"])
	}
	if plan.Payload["model"] != "flux-dev" {
		t.Fatalf("payload model = %v", plan.Payload["model"])
	}
	if plan.Payload["aspect_ratio"] != "16:9" {
		t.Fatalf("payload aspect ratio = %v", plan.Payload["aspect_ratio"])
	}
}

func TestBuildRegenerationPlanOptimisticItem(t *testing.T) {
	src := textToImageJob()
	src.ProviderTaskID = "prov-999"
	plan, err := BuildRegenerationPlan(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opt := plan.OptimisticItem
	if opt.ID == src.ID || opt.ID == "" {
		t.Fatalf("optimistic item must get a fresh id, got %q", opt.ID)
	}
	if opt.Status != domain.CreationStatusProcessing {
		t.Fatalf("optimistic status = %q, want processing", opt.Status)
	}
	if opt.ProviderTaskID != "" {
		t.Fatalf("optimistic provider linkage must be zeroed, got %q", opt.ProviderTaskID)
	}
	if opt.Prompt != src.Prompt || opt.AspectRatio != src.AspectRatio {
		t.Fatalf("optimistic item lost metadata: %+v", opt)
	}
}

func TestBuildPersistedItemOverwritesIdentityOnly(t *testing.T) {
	src := textToImageJob()
	src.ReferenceImages = nil
	src.Metadata = map[string]any{"seed": "42", "style": "noir"}
	plan, err := BuildRegenerationPlan(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	confirmed := plan.BuildPersistedItem(SubmitResult{
		JobID:          "job-2",
		ProviderTaskID: "prov-7",
		Status:         domain.CreationStatusProcessing,
	})
	if confirmed.ID != "job-2" {
		t.Fatalf("id = %q, want job-2", confirmed.ID)
	}
	if confirmed.ProviderTaskID != "prov-7" {
		t.Fatalf("provider task id = %q, want prov-7", confirmed.ProviderTaskID)
	}
	if confirmed.Prompt != plan.OptimisticItem.Prompt {
		t.Fatalf("prompt changed: %q vs %q", confirmed.Prompt, plan.OptimisticItem.Prompt)
	}
	if confirmed.AspectRatio != plan.OptimisticItem.AspectRatio {
		t.Fatalf("aspect ratio changed")
	}
	if !reflect.DeepEqual(confirmed.Metadata, plan.OptimisticItem.Metadata) {
		t.Fatalf("metadata changed: %v vs %v", confirmed.Metadata, plan.OptimisticItem.Metadata)
	}
	if !reflect.DeepEqual(confirmed.ReferenceImages, plan.OptimisticItem.ReferenceImages) {
		t.Fatalf("reference images changed")
	}
}

func TestBuildRegenerationPlanMissingPromptFails(t *testing.T) {
	job := textToImageJob()
	job.Prompt = ""
	job.InputParams = nil
	job.Metadata = nil

	if _, err := BuildRegenerationPlan(job); err == nil {
		t.Fatalf("expected error for missing prompt")
	}
}

func TestBuildRegenerationPlanPromptFallbacks(t *testing.T) {
	job := textToImageJob()
	job.Prompt = ""
	job.InputParams = map[string]any{"prompt": "from input params"}

	plan, err := BuildRegenerationPlan(job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Payload["prompt"] != "from input params" {
		t.Fatalf("prompt = %v, want fallback from input params", plan.Payload["prompt"])
	}

	job.InputParams = nil
	job.Metadata = map[string]any{"prompt": "from metadata"}
	plan, err = BuildRegenerationPlan(job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Payload["prompt"] != "from metadata" {
		t.Fatalf("prompt = %v, want fallback from metadata", plan.Payload["prompt"])
	}
}

func TestBuildRegenerationPlanLipSyncRejected(t *testing.T) {
	job := &domain.CreationJob{ID: "job-ls", Source: domain.CreationSourceLipSync, ModelSlug: "sync-1", Prompt: "talk"}
	_, err := BuildRegenerationPlan(job)
	if err == nil {
		t.Fatalf("expected error for lip-sync job")
	}
	if !strings.Contains(err.Error(), "lip-sync") {
		t.Fatalf("error %q does not mention lip-sync", err)
	}
}

func TestBuildRegenerationPlanImageToImage(t *testing.T) {
	job := textToImageJob()
	job.Modality = domain.ModalityImageToImage
	job.ReferenceImages = []string{"https://cdn.example.com/ref.png"}

	plan, err := BuildRegenerationPlan(job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	refs, ok := plan.Payload["reference_images"].([]string)
	if !ok || len(refs) != 1 {
		t.Fatalf("payload reference images = %v", plan.Payload["reference_images"])
	}
	if plan.OptimisticItem.Modality != domain.ModalityImageToImage {
		t.Fatalf("optimistic modality = %q", plan.OptimisticItem.Modality)
	}
}

func TestBuildRegenerationPlanImageToImageWithoutRefsFails(t *testing.T) {
	job := textToImageJob()
	job.Modality = domain.ModalityImageToImage
	if _, err := BuildRegenerationPlan(job); err == nil {
		t.Fatalf("expected error for i2i without reference image")
	}
}

func TestBuildRegenerationPlanVideoModes(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*domain.CreationJob)
		wantMode domain.VideoMode
		wantErr  bool
	}{
		{"explicit transition", func(j *domain.CreationJob) {
			j.Mode = domain.VideoModeTransition
			j.ReferenceImages = []string{"a.png", "b.png"}
		}, domain.VideoModeTransition, false},
		{"transition inferred from two refs", func(j *domain.CreationJob) {
			j.ReferenceImages = []string{"a.png", "b.png"}
		}, domain.VideoModeTransition, false},
		{"image inferred from one ref", func(j *domain.CreationJob) {
			j.ReferenceImages = []string{"a.png"}
		}, domain.VideoModeImage, false},
		{"image inferred from i2v modality", func(j *domain.CreationJob) {
			j.Modality = domain.ModalityImageToVideo
		}, "", true}, // i2v without refs cannot be resubmitted
		{"text by default", func(j *domain.CreationJob) {}, domain.VideoModeText, false},
		{"explicit transition with one ref", func(j *domain.CreationJob) {
			j.Mode = domain.VideoModeTransition
			j.ReferenceImages = []string{"a.png"}
		}, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := &domain.CreationJob{
				ID:        "job-v",
				ModelSlug: "kling-v2",
				Prompt:    "waves crashing",
				Source:    domain.CreationSourceVideo,
			}
			tc.mutate(job)
			plan, err := BuildRegenerationPlan(job)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if plan.OptimisticItem.Mode != tc.wantMode {
				t.Fatalf("mode = %q, want %q", plan.OptimisticItem.Mode, tc.wantMode)
			}
		})
	}
}

func TestBuildRegenerationPlanTextToVideoWithoutPromptFails(t *testing.T) {
	job := &domain.CreationJob{ID: "job-v", ModelSlug: "kling-v2", Source: domain.CreationSourceVideo}
	if _, err := BuildRegenerationPlan(job); err == nil {
		t.Fatalf("expected error for t2v without prompt")
	}
}

func TestBuildRegenerationPlanSound(t *testing.T) {
	job := &domain.CreationJob{
		ID:              "job-s",
		Source:          domain.CreationSourceSound,
		Prompt:          "rain on a tin roof",
		DurationSeconds: 8,
	}
	plan, err := BuildRegenerationPlan(job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Endpoint != EndpointSound {
		t.Fatalf("endpoint = %q, want %q", plan.Endpoint, EndpointSound)
	}
	if plan.Payload["duration"] != 8 {
		t.Fatalf("payload duration = %v", plan.Payload["duration"])
	}
	if plan.OptimisticItem.Modality != domain.ModalitySoundEffect {
		t.Fatalf("optimistic modality = %q", plan.OptimisticItem.Modality)
	}
}

func TestBuildRegenerationPlanEffectTemplates(t *testing.T) {
	video := &domain.CreationJob{
		ID:              "job-e1",
		Source:          domain.CreationSourceVideoEffect,
		EffectSlug:      "hug",
		ReferenceImages: []string{"a.png"},
	}
	plan, err := BuildRegenerationPlan(video)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Endpoint != EndpointEffect {
		t.Fatalf("endpoint = %q, want %q", plan.Endpoint, EndpointEffect)
	}
	if plan.Payload["effect"] != "hug" {
		t.Fatalf("payload effect = %v", plan.Payload["effect"])
	}

	image := &domain.CreationJob{
		ID:              "job-e2",
		Source:          domain.CreationSourceImageEffect,
		EffectSlug:      "sketch",
		ReferenceImages: []string{"b.png"},
	}
	plan, err = BuildRegenerationPlan(image)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.OptimisticItem.Source != domain.CreationSourceImageEffect {
		t.Fatalf("optimistic source = %q", plan.OptimisticItem.Source)
	}

	missingRef := &domain.CreationJob{ID: "job-e3", Source: domain.CreationSourceVideoEffect, EffectSlug: "hug"}
	if _, err := BuildRegenerationPlan(missingRef); err == nil {
		t.Fatalf("expected error for effect without source image")
	}
}
