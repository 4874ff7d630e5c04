// Package planner derives new generation requests from historical creation
// jobs. Everything here is pure: no I/O, no store access. Validation is
// strict and loud because a malformed regeneration payload would burn
// provider credits before anyone notices.
package planner

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"server/internal/domain"
)

// Endpoint identifies the provider submission surface a plan targets.
type Endpoint string

const (
	// EndpointTask is the generic image/video task submission endpoint.
	EndpointTask Endpoint = "task"
	// EndpointEffect submits effect-template renders.
	EndpointEffect Endpoint = "effect"
	// EndpointSound submits sound-effect generation.
	EndpointSound Endpoint = "sound"
)

// SubmitResult carries the server's response to a plan submission.
type SubmitResult struct {
	JobID          string
	ProviderTaskID string
	Status         domain.CreationStatus
}

// Plan is a ready-to-submit regeneration derived from a historical job: the
// provider payload, an optimistic record for immediate UI feedback, and a
// closure that reconciles the optimistic record once the server responds.
type Plan struct {
	Endpoint           Endpoint
	Payload            map[string]any
	OptimisticItem     domain.CreationJob
	BuildPersistedItem func(SubmitResult) domain.CreationJob
}

// BuildRegenerationPlan classifies a historical job and produces the plan
// for re-submitting it. Lip-sync jobs cannot be regenerated.
func BuildRegenerationPlan(job *domain.CreationJob) (*Plan, error) {
	if job == nil {
		return nil, fmt.Errorf("regeneration requires a source job")
	}
	if job.EffectSlug != "" {
		if job.Source == domain.CreationSourceImageEffect {
			return planImageEffect(job)
		}
		return planVideoEffect(job)
	}
	if job.Source == domain.CreationSourceLipSync {
		return nil, fmt.Errorf("lip-sync regeneration is not supported: %w", domain.ErrUnsupportedJob)
	}

	switch {
	case job.Source == domain.CreationSourceSound || job.Modality == domain.ModalitySoundEffect:
		return planSound(job)
	case job.Source == domain.CreationSourceVideo || job.Modality == domain.ModalityTextToVideo || job.Modality == domain.ModalityImageToVideo:
		return planVideo(job)
	default:
		return planImage(job)
	}
}

// resolvePrompt looks for the prompt on the job itself, then in the stored
// request parameters, then in the metadata blob.
func resolvePrompt(job *domain.CreationJob) string {
	if job.Prompt != "" {
		return job.Prompt
	}
	if p := stringParam(job.InputParams, "prompt"); p != "" {
		return p
	}
	return stringParam(job.Metadata, "prompt")
}

func stringParam(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// videoMode resolves the sub-mode: explicit mode wins, then reference-image
// count, then the i2v modality tag.
func videoMode(job *domain.CreationJob) domain.VideoMode {
	if job.Mode != "" {
		return job.Mode
	}
	switch {
	case len(job.ReferenceImages) >= 2:
		return domain.VideoModeTransition
	case len(job.ReferenceImages) == 1 || job.Modality == domain.ModalityImageToVideo:
		return domain.VideoModeImage
	default:
		return domain.VideoModeText
	}
}

func planImage(job *domain.CreationJob) (*Plan, error) {
	prompt := resolvePrompt(job)
	if prompt == "" {
		return nil, fmt.Errorf("image regeneration requires a prompt, job %s has none", job.ID)
	}
	if job.ModelSlug == "" {
		return nil, fmt.Errorf("image regeneration requires a model, job %s has none", job.ID)
	}

	modality := domain.ModalityTextToImage
	if len(job.ReferenceImages) > 0 || job.Modality == domain.ModalityImageToImage {
		modality = domain.ModalityImageToImage
		if len(job.ReferenceImages) == 0 {
			return nil, fmt.Errorf("image-to-image regeneration requires a reference image, job %s has none", job.ID)
		}
	}

	payload := map[string]any{
		"model":    job.ModelSlug,
		"prompt":   prompt,
		"modality": string(modality),
	}
	if job.AspectRatio != "" {
		payload["aspect_ratio"] = job.AspectRatio
	}
	if modality == domain.ModalityImageToImage {
		payload["reference_images"] = job.ReferenceImages
	}

	return assemble(job, EndpointTask, payload, func(item *domain.CreationJob) {
		item.Modality = modality
		item.Source = domain.CreationSourceImage
		item.Prompt = prompt
	}), nil
}

func planVideo(job *domain.CreationJob) (*Plan, error) {
	if job.ModelSlug == "" {
		return nil, fmt.Errorf("video regeneration requires a model, job %s has none", job.ID)
	}
	prompt := resolvePrompt(job)
	mode := videoMode(job)

	switch mode {
	case domain.VideoModeText:
		if prompt == "" {
			return nil, fmt.Errorf("text-to-video regeneration requires a prompt, job %s has none", job.ID)
		}
	case domain.VideoModeImage:
		if len(job.ReferenceImages) < 1 {
			return nil, fmt.Errorf("image-to-video regeneration requires a reference image, job %s has none", job.ID)
		}
	case domain.VideoModeTransition:
		if len(job.ReferenceImages) < 2 {
			return nil, fmt.Errorf("transition regeneration requires two reference images, job %s has %d", job.ID, len(job.ReferenceImages))
		}
	}

	modality := domain.ModalityTextToVideo
	if mode != domain.VideoModeText {
		modality = domain.ModalityImageToVideo
	}

	payload := map[string]any{
		"model":    job.ModelSlug,
		"modality": string(modality),
		"mode":     string(mode),
	}
	if prompt != "" {
		payload["prompt"] = prompt
	}
	if len(job.ReferenceImages) > 0 {
		payload["reference_images"] = job.ReferenceImages
	}
	if job.AspectRatio != "" {
		payload["aspect_ratio"] = job.AspectRatio
	}
	if job.DurationSeconds > 0 {
		payload["duration"] = job.DurationSeconds
	}

	return assemble(job, EndpointTask, payload, func(item *domain.CreationJob) {
		item.Modality = modality
		item.Mode = mode
		item.Source = domain.CreationSourceVideo
		item.Prompt = prompt
	}), nil
}

func planSound(job *domain.CreationJob) (*Plan, error) {
	prompt := resolvePrompt(job)
	if prompt == "" {
		return nil, fmt.Errorf("sound regeneration requires a prompt, job %s has none", job.ID)
	}

	payload := map[string]any{
		"prompt": prompt,
	}
	if job.ModelSlug != "" {
		payload["model"] = job.ModelSlug
	}
	if job.DurationSeconds > 0 {
		payload["duration"] = job.DurationSeconds
	}

	return assemble(job, EndpointSound, payload, func(item *domain.CreationJob) {
		item.Modality = domain.ModalitySoundEffect
		item.Source = domain.CreationSourceSound
		item.Prompt = prompt
	}), nil
}

func planVideoEffect(job *domain.CreationJob) (*Plan, error) {
	if len(job.ReferenceImages) == 0 {
		return nil, fmt.Errorf("video effect regeneration requires a source image, job %s has none", job.ID)
	}
	payload := map[string]any{
		"effect":           job.EffectSlug,
		"reference_images": job.ReferenceImages,
	}
	if job.DurationSeconds > 0 {
		payload["duration"] = job.DurationSeconds
	}
	return assemble(job, EndpointEffect, payload, func(item *domain.CreationJob) {
		item.Source = domain.CreationSourceVideoEffect
	}), nil
}

func planImageEffect(job *domain.CreationJob) (*Plan, error) {
	if len(job.ReferenceImages) == 0 {
		return nil, fmt.Errorf("image effect regeneration requires a source image, job %s has none", job.ID)
	}
	payload := map[string]any{
		"effect":           job.EffectSlug,
		"reference_images": job.ReferenceImages,
	}
	return assemble(job, EndpointEffect, payload, func(item *domain.CreationJob) {
		item.Source = domain.CreationSourceImageEffect
	}), nil
}

// assemble builds the optimistic record and the persisted-item closure shared
// by all concrete planners. The optimistic item keeps every derived field of
// the source job, forces status to processing, takes a fresh id and drops the
// provider linkage; the closure later overwrites only identity and status.
func assemble(job *domain.CreationJob, endpoint Endpoint, payload map[string]any, customize func(*domain.CreationJob)) *Plan {
	optimistic := *job
	optimistic.ID = uuid.NewString()
	optimistic.Status = domain.CreationStatusProcessing
	optimistic.ProviderTaskID = ""
	optimistic.CreatedAt = time.Now().UTC()
	optimistic.UpdatedAt = optimistic.CreatedAt
	optimistic.ReferenceImages = append([]string(nil), job.ReferenceImages...)
	optimistic.InputParams = clone(job.InputParams)
	optimistic.Metadata = clone(job.Metadata)
	if customize != nil {
		customize(&optimistic)
	}

	return &Plan{
		Endpoint:       endpoint,
		Payload:        payload,
		OptimisticItem: optimistic,
		BuildPersistedItem: func(res SubmitResult) domain.CreationJob {
			confirmed := optimistic
			if res.JobID != "" {
				confirmed.ID = res.JobID
			}
			confirmed.ProviderTaskID = res.ProviderTaskID
			if res.Status != "" {
				confirmed.Status = res.Status
			}
			confirmed.UpdatedAt = time.Now().UTC()
			return confirmed
		},
	}
}

func clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
