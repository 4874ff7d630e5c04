package domain

import "time"

// CreationSource tags where a generation job came from in the product.
type CreationSource string

const (
	CreationSourceImage       CreationSource = "image"
	CreationSourceVideo       CreationSource = "video"
	CreationSourceSound       CreationSource = "sound"
	CreationSourceLipSync     CreationSource = "lip-sync"
	CreationSourceVideoEffect CreationSource = "video-effect"
	CreationSourceImageEffect CreationSource = "image-effect"
)

// CreationModality is the provider-facing task code.
type CreationModality string

const (
	ModalityTextToImage  CreationModality = "t2i"
	ModalityImageToImage CreationModality = "i2i"
	ModalityTextToVideo  CreationModality = "t2v"
	ModalityImageToVideo CreationModality = "i2v"
	ModalitySoundEffect  CreationModality = "sfx"
)

// VideoMode selects the sub-mode of a video generation request.
type VideoMode string

const (
	VideoModeText       VideoMode = "text"
	VideoModeImage      VideoMode = "image"
	VideoModeTransition VideoMode = "transition"
)

// CreationStatus enumerates generation job lifecycle states.
type CreationStatus string

const (
	CreationStatusProcessing CreationStatus = "processing"
	CreationStatusSucceeded  CreationStatus = "succeeded"
	CreationStatusFailed     CreationStatus = "failed"
)

// CreationJob is the immutable historical record of a generation request.
// The planner only reads it; a regeneration derives a brand new job.
type CreationJob struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	ModelSlug       string           `json:"model_slug,omitempty"`
	Prompt          string           `json:"prompt,omitempty"`
	ReferenceImages []string         `json:"reference_images,omitempty"`
	Source          CreationSource   `json:"source"`
	Modality        CreationModality `json:"modality,omitempty"`
	Mode            VideoMode        `json:"mode,omitempty"`
	EffectSlug      string           `json:"effect_slug,omitempty"`
	Status          CreationStatus   `json:"status"`
	ProviderTaskID  string           `json:"provider_task_id,omitempty"`
	AspectRatio     string           `json:"aspect_ratio,omitempty"`
	DurationSeconds int              `json:"duration_seconds,omitempty"`
	InputParams     map[string]any   `json:"input_params,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
