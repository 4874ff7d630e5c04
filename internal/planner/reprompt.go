package planner

import (
	"fmt"

	"server/internal/domain"
)

// RepromptDraft prefills the generation form with a previous job's
// parameters so the user can edit before resubmitting. No payload is built
// and nothing is validated beyond job-type support; partially empty drafts
// are fine because the form revalidates on submit.
type RepromptDraft struct {
	Source          domain.CreationSource   `json:"source"`
	Modality        domain.CreationModality `json:"modality,omitempty"`
	Mode            domain.VideoMode        `json:"mode,omitempty"`
	ModelSlug       string                  `json:"model_slug,omitempty"`
	Prompt          string                  `json:"prompt,omitempty"`
	ReferenceImages []string                `json:"reference_images,omitempty"`
	EffectSlug      string                  `json:"effect_slug,omitempty"`
	AspectRatio     string                  `json:"aspect_ratio,omitempty"`
	DurationSeconds int                     `json:"duration_seconds,omitempty"`
}

// BuildRepromptDraft derives the form prefill for a historical job.
func BuildRepromptDraft(job *domain.CreationJob) (*RepromptDraft, error) {
	if job == nil {
		return nil, fmt.Errorf("reprompt requires a source job")
	}
	if job.Source == domain.CreationSourceLipSync {
		return nil, fmt.Errorf("lip-sync reprompt is not supported: %w", domain.ErrUnsupportedJob)
	}

	draft := &RepromptDraft{
		Source:          job.Source,
		Modality:        job.Modality,
		ModelSlug:       job.ModelSlug,
		Prompt:          resolvePrompt(job),
		ReferenceImages: append([]string(nil), job.ReferenceImages...),
		EffectSlug:      job.EffectSlug,
		AspectRatio:     job.AspectRatio,
		DurationSeconds: job.DurationSeconds,
	}
	if job.Source == domain.CreationSourceVideo || job.Modality == domain.ModalityTextToVideo || job.Modality == domain.ModalityImageToVideo {
		draft.Mode = videoMode(job)
	}
	return draft, nil
}
