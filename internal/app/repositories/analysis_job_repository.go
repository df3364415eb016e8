package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/apperrors"
	"github.com/yigit/curricula/internal/pkg/logger"
)

const jobReturning = "RETURNING id, student_id, requested_by, status, result, error, attempts, created_at, started_at, finished_at"

var jobColumns = []string{"id", "student_id", "requested_by", "status", "result", "error", "attempts", "created_at",
	"started_at", "finished_at"}

// AnalysisJobRepository handles profile_analysis_jobs
type AnalysisJobRepository struct {
	db *pgxpool.Pool
}

// NewAnalysisJobRepository creates a new AnalysisJobRepository
func NewAnalysisJobRepository(db *pgxpool.Pool) *AnalysisJobRepository {
	return &AnalysisJobRepository{db: db}
}

func jobDest(j *models.AnalysisJob) []interface{} {
	return []interface{}{&j.ID, &j.StudentID, &j.RequestedBy, &j.Status, &j.Result, &j.Error, &j.Attempts,
		&j.CreatedAt, &j.StartedAt, &j.FinishedAt}
}

// Create inserts a queued job
func (r *AnalysisJobRepository) Create(ctx context.Context, j *models.AnalysisJob) error {
	sql, args, err := psql.Insert("profile_analysis_jobs").
		Columns("student_id", "requested_by", "status").
		Values(j.StudentID, j.RequestedBy, models.JobQueued).
		Suffix(jobReturning).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create job query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(jobDest(j)...); err != nil {
		logger.Error().Err(err).Str("studentID", j.StudentID.String()).Msg("Error creating analysis job")
		return fmt.Errorf("error creating analysis job: %w", err)
	}
	return nil
}

// GetByID retrieves a job
func (r *AnalysisJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error) {
	sql, args, err := psql.Select(jobColumns...).
		From("profile_analysis_jobs").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get job query: %w", err)
	}

	j := &models.AnalysisJob{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(jobDest(j)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrJobNotFound
		}
		return nil, fmt.Errorf("error getting analysis job: %w", err)
	}
	return j, nil
}

// claimQuery moves the oldest queued job to running. SKIP LOCKED lets several workers claim concurrently.
func claimQuery() squirrel.UpdateBuilder {
	next := squirrel.Select("id").
		From("profile_analysis_jobs").
		Where(squirrel.Eq{"status": models.JobQueued}).
		OrderBy("created_at ASC").
		Limit(1).
		Suffix("FOR UPDATE SKIP LOCKED")

	return psql.Update("profile_analysis_jobs").
		Set("status", models.JobRunning).
		Set("started_at", squirrel.Expr("now()")).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Where(squirrel.Expr("id = (?)", next)).
		Suffix(jobReturning)
}

// ClaimNext marks the oldest queued job running and returns it, or nil when the queue is empty
func (r *AnalysisJobRepository) ClaimNext(ctx context.Context) (*models.AnalysisJob, error) {
	sql, args, err := claimQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build claim job query: %w", err)
	}

	j := &models.AnalysisJob{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(jobDest(j)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error claiming analysis job: %w", err)
	}
	return j, nil
}

func (r *AnalysisJobRepository) finish(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["finished_at"] = squirrel.Expr("now()")
	sql, args, err := psql.Update("profile_analysis_jobs").
		SetMap(fields).
		Where(squirrel.Eq{"id": id, "status": models.JobRunning}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build finish job query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("jobID", id.String()).Msg("Error finishing analysis job")
		return fmt.Errorf("error finishing analysis job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrJobNotFound
	}
	return nil
}

// Complete records a successful result
func (r *AnalysisJobRepository) Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	return r.finish(ctx, id, map[string]interface{}{
		"status": models.JobSucceeded,
		"result": []byte(result),
		"error":  nil,
	})
}

// Fail records a failure reason
func (r *AnalysisJobRepository) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	return r.finish(ctx, id, map[string]interface{}{
		"status": models.JobFailed,
		"error":  reason,
	})
}

// FailStale fails jobs that have been running since before cutoff and returns how many were changed
func (r *AnalysisJobRepository) FailStale(ctx context.Context, cutoff time.Time) (int64, error) {
	sql, args, err := psql.Update("profile_analysis_jobs").
		Set("status", models.JobFailed).
		Set("error", "job exceeded its running time limit").
		Set("finished_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"status": models.JobRunning}).
		Where(squirrel.Lt{"started_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build fail stale jobs query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error failing stale analysis jobs")
		return 0, fmt.Errorf("error failing stale analysis jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountQueued returns the number of jobs waiting for a worker
func (r *AnalysisJobRepository) CountQueued(ctx context.Context) (int, error) {
	sql, args, err := psql.Select("COUNT(*)").
		From("profile_analysis_jobs").
		Where(squirrel.Eq{"status": models.JobQueued}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count queued jobs query: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting queued jobs: %w", err)
	}
	return n, nil
}
