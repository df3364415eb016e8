package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/curricula/internal/app/auth"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/apperrors"
	"github.com/yigit/curricula/internal/pkg/validation"
)

const (
	defaultAnalysisWorkers = 2
	defaultPollInterval    = 5 * time.Second
	defaultStaleAfter      = 15 * time.Minute
	finishTimeout          = 5 * time.Second
)

// AnalysisOptions tunes the job workers
type AnalysisOptions struct {
	Workers      int
	PollInterval time.Duration
	StaleAfter   time.Duration
}

// AnalysisPayload is the document posted to the analysis webhook
type AnalysisPayload struct {
	JobID       uuid.UUID             `json:"job_id"`
	StudentID   uuid.UUID             `json:"student_id"`
	RequestedBy *uuid.UUID            `json:"requested_by,omitempty"`
	Records     *models.CourseRecords `json:"records"`
}

// AnalysisService queues profile analyses and runs them in the background
type AnalysisService interface {
	Submit(ctx context.Context, studentID string) (*models.AnalysisJob, error)
	Get(ctx context.Context, jobID string) (*models.AnalysisJob, error)
	ProcessNext(ctx context.Context) (bool, error)
	SweepStale(ctx context.Context) (int64, error)
	Start(ctx context.Context)
	Stop()
}

type analysisServiceImpl struct {
	jobs            AnalysisJobStore
	learningService LearningService
	profileService  ProfileService
	authzService    *auth.AuthorizationService
	poster          AnalysisPoster
	opts            AnalysisOptions
	logger          zerolog.Logger

	wake   chan struct{}
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAnalysisService creates a new AnalysisService. Workers are not running until Start.
func NewAnalysisService(
	jobs AnalysisJobStore,
	learningService LearningService,
	profileService ProfileService,
	authzService *auth.AuthorizationService,
	poster AnalysisPoster,
	opts AnalysisOptions,
	logger zerolog.Logger,
) AnalysisService {
	if opts.Workers <= 0 {
		opts.Workers = defaultAnalysisWorkers
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = defaultStaleAfter
	}
	return &analysisServiceImpl{
		jobs:            jobs,
		learningService: learningService,
		profileService:  profileService,
		authzService:    authzService,
		poster:          poster,
		opts:            opts,
		logger:          logger,
		wake:            make(chan struct{}, opts.Workers),
	}
}

// Submit queues an analysis of the student's records and returns at once
func (s *analysisServiceImpl) Submit(ctx context.Context, studentID string) (*models.AnalysisJob, error) {
	profile, _, err := resolveStudent(ctx, s.profileService, s.authzService, studentID)
	if err != nil {
		return nil, err
	}

	job := &models.AnalysisJob{StudentID: profile.ID}
	if actor, ok := auth.ActorFromContext(ctx); ok && actor.UserID != uuid.Nil {
		job.RequestedBy = &actor.UserID
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info().Str("jobID", job.ID.String()).Str("studentID", profile.ID.String()).Msg("Profile analysis queued")
	s.notify()
	return job, nil
}

// Get returns a job for polling
func (s *analysisServiceImpl) Get(ctx context.Context, jobID string) (*models.AnalysisJob, error) {
	id, ok := validation.ParseUUID(jobID)
	if !ok {
		return nil, apperrors.NewValidationError("invalid job ID format")
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileService.ResolveByProfileIDOrUserID(ctx, job.StudentID)
	if err != nil {
		return nil, err
	}
	if err := s.authzService.CanAccessStudent(ctx, profile); err != nil {
		return nil, err
	}
	return job, nil
}

// ProcessNext claims one queued job and runs it. It reports whether a job was claimed.
func (s *analysisServiceImpl) ProcessNext(ctx context.Context) (bool, error) {
	job, err := s.jobs.ClaimNext(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	log := s.logger.With().Str("jobID", job.ID.String()).Str("studentID", job.StudentID.String()).Logger()
	log.Info().Int("attempt", job.Attempts).Msg("Running profile analysis")

	if !s.poster.Configured() {
		s.finish(ctx, job, nil, apperrors.ErrWebhookNotConfigured.Message)
		return true, nil
	}

	records, err := s.learningService.GetCourseRecords(auth.WithActor(ctx, auth.SystemActor()), job.StudentID.String())
	if err != nil {
		log.Error().Err(err).Msg("Failed to collect student records")
		s.finish(ctx, job, nil, apperrors.Message(err, "could not collect student records"))
		return true, nil
	}

	result, err := s.poster.Post(ctx, AnalysisPayload{
		JobID:       job.ID,
		StudentID:   job.StudentID,
		RequestedBy: job.RequestedBy,
		Records:     records,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Analysis webhook failed")
		s.finish(ctx, job, nil, err.Error())
		return true, nil
	}

	s.finish(ctx, job, result, "")
	log.Info().Msg("Profile analysis finished")
	return true, nil
}

// finish records the outcome even when ctx has been cancelled by shutdown
func (s *analysisServiceImpl) finish(ctx context.Context, job *models.AnalysisJob, result json.RawMessage, reason string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	var err error
	if reason != "" {
		err = s.jobs.Fail(ctx, job.ID, reason)
	} else {
		err = s.jobs.Complete(ctx, job.ID, result)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("jobID", job.ID.String()).Msg("Failed to record analysis outcome")
	}
}

// SweepStale fails jobs stuck in running and wakes the workers when queued jobs are waiting
func (s *analysisServiceImpl) SweepStale(ctx context.Context) (int64, error) {
	failed, err := s.jobs.FailStale(ctx, time.Now().Add(-s.opts.StaleAfter))
	if err != nil {
		return 0, err
	}
	if failed > 0 {
		s.logger.Warn().Int64("jobs", failed).Dur("staleAfter", s.opts.StaleAfter).Msg("Failed stale analysis jobs")
	}

	queued, err := s.jobs.CountQueued(ctx)
	if err != nil {
		return failed, err
	}
	for i := 0; i < queued && i < s.opts.Workers; i++ {
		s.notify()
	}
	return failed, nil
}

// Start launches the worker pool. It is a no-op when already started.
func (s *analysisServiceImpl) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	for i := 0; i < s.opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	s.logger.Info().Int("workers", s.opts.Workers).Msg("Analysis workers started")
}

// Stop cancels the workers and waits for in-flight jobs to be recorded
func (s *analysisServiceImpl) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info().Msg("Analysis workers stopped")
}

func (s *analysisServiceImpl) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *analysisServiceImpl) worker(ctx context.Context, n int) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		s.drain(ctx, n)
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-ticker.C:
		}
	}
}

// drain runs jobs until the queue is empty
func (s *analysisServiceImpl) drain(ctx context.Context, n int) {
	for ctx.Err() == nil {
		claimed, err := s.ProcessNext(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Error().Err(err).Int("worker", n).Msg("Failed to claim analysis job")
			}
			return
		}
		if !claimed {
			return
		}
	}
}
