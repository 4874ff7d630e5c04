package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// CreationJobRepositoryPG implements domain.CreationJobRepository backed by
// PostgreSQL.
type CreationJobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewCreationJobRepository creates a new CreationJobRepositoryPG.
func NewCreationJobRepository(pool *pgxpool.Pool) *CreationJobRepositoryPG {
	return &CreationJobRepositoryPG{pool: pool}
}

const creationColumns = `id, user_id, model_slug, prompt, reference_images, source, modality, mode, effect_slug, status, provider_task_id, aspect_ratio, duration_seconds, input_params, metadata, created_at, updated_at`

// GetByID fetches a generation job.
func (r *CreationJobRepositoryPG) GetByID(ctx context.Context, id string) (*domain.CreationJob, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+creationColumns+` FROM creation_jobs WHERE id = $1`, id)
	return scanCreationJob(row)
}

// Create persists a new generation job.
func (r *CreationJobRepositoryPG) Create(ctx context.Context, job *domain.CreationJob) error {
	inputParams, err := json.Marshal(job.InputParams)
	if err != nil {
		return fmt.Errorf("encode input params for job %s: %w", job.ID, err)
	}
	metadata, err := json.Marshal(job.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata for job %s: %w", job.ID, err)
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO creation_jobs (id, user_id, model_slug, prompt, reference_images, source, modality, mode, effect_slug, status, provider_task_id, aspect_ratio, duration_seconds, input_params, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		job.ID,
		job.UserID,
		job.ModelSlug,
		job.Prompt,
		job.ReferenceImages,
		job.Source,
		job.Modality,
		job.Mode,
		job.EffectSlug,
		job.Status,
		job.ProviderTaskID,
		job.AspectRatio,
		job.DurationSeconds,
		inputParams,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("insert creation job %s: %w", job.ID, err)
	}
	return nil
}

// UpdateStatus records the provider linkage and lifecycle transition.
func (r *CreationJobRepositoryPG) UpdateStatus(ctx context.Context, id string, status domain.CreationStatus, providerTaskID string) error {
	_, err := r.pool.Exec(ctx, `
UPDATE creation_jobs
SET status = $2,
    provider_task_id = COALESCE(NULLIF($3, ''), provider_task_id),
    updated_at = NOW()
WHERE id = $1`, id, status, providerTaskID)
	if err != nil {
		return fmt.Errorf("update creation job %s: %w", id, err)
	}
	return nil
}

func scanCreationJob(row pgx.Row) (*domain.CreationJob, error) {
	var j domain.CreationJob
	var inputParams, metadata []byte
	if err := row.Scan(&j.ID, &j.UserID, &j.ModelSlug, &j.Prompt, &j.ReferenceImages, &j.Source, &j.Modality, &j.Mode, &j.EffectSlug, &j.Status, &j.ProviderTaskID, &j.AspectRatio, &j.DurationSeconds, &inputParams, &metadata, &j.CreatedAt, &j.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(inputParams) > 0 {
		if err := json.Unmarshal(inputParams, &j.InputParams); err != nil {
			return nil, fmt.Errorf("decode input params for job %s: %w", j.ID, err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &j.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for job %s: %w", j.ID, err)
		}
	}
	return &j, nil
}
