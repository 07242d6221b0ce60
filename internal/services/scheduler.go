package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"

	"github.com/robfig/cron/v3"
)

const DefaultSchedulerSpec = "@every 10s"

// lifecycleRunner is the part of AuctionManager the scheduler drives.
type lifecycleRunner interface {
	IsLeader(ctx context.Context) (bool, error)
	StartAuction(ctx context.Context, auctionID int64) (*domain.Auction, error)
	EndAuction(ctx context.Context, auctionID int64) ([]domain.FinalizationResult, error)
	SweepDue(ctx context.Context) error
}

type CronAuctionScheduler struct {
	cron       *cron.Cron
	spec       string
	repo       domain.SchedulerRepository
	auctionMgr lifecycleRunner
	clock      clock.Clock
	log        logger.Logger

	// running guards against overlapping ticks when a tick outlasts the spec.
	running sync.Mutex
}

func NewCronAuctionScheduler(repo domain.SchedulerRepository, auctionMgr lifecycleRunner, clk clock.Clock,
	spec string, log logger.Logger) *CronAuctionScheduler {
	if spec == "" {
		spec = DefaultSchedulerSpec
	}
	return &CronAuctionScheduler{
		cron:       cron.New(cron.WithSeconds()),
		spec:       spec,
		repo:       repo,
		auctionMgr: auctionMgr,
		clock:      clk,
		log:        log,
	}
}

func (s *CronAuctionScheduler) Start(ctx context.Context) error {
	s.log.Info("Starting auction scheduler", "spec", s.spec)

	_, err := s.cron.AddFunc(s.spec, func() {
		s.Tick(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *CronAuctionScheduler) Stop() error {
	s.log.Info("Stopping auction scheduler")
	<-s.cron.Stop().Done()
	return nil
}

func (s *CronAuctionScheduler) ScheduleAuctionStart(ctx context.Context, auctionID int64, startTime time.Time) error {
	return s.createJob(ctx, auctionID, domain.JobStartAuction, startTime)
}

func (s *CronAuctionScheduler) ScheduleAuctionEnd(ctx context.Context, auctionID int64, endTime time.Time) error {
	return s.createJob(ctx, auctionID, domain.JobEndAuction, endTime)
}

func (s *CronAuctionScheduler) createJob(ctx context.Context, auctionID int64, jobType domain.JobType, runAt time.Time) error {
	job := &domain.ScheduledJob{
		ID:        utils.GenerateID("job"),
		AuctionID: auctionID,
		JobType:   jobType,
		RunAt:     runAt.UTC(),
		Status:    domain.JobPending,
		CreatedAt: s.clock.Now(),
	}
	return s.repo.CreateJob(ctx, job)
}

// Reschedule cancels the auction's pending jobs and schedules new ones.
func (s *CronAuctionScheduler) Reschedule(ctx context.Context, auctionID int64, startTime, endTime time.Time) error {
	if err := s.repo.CancelJobsForAuction(ctx, auctionID); err != nil {
		return err
	}
	if err := s.ScheduleAuctionStart(ctx, auctionID, startTime); err != nil {
		return err
	}
	return s.ScheduleAuctionEnd(ctx, auctionID, endTime)
}

func (s *CronAuctionScheduler) CancelSchedule(ctx context.Context, auctionID int64) error {
	return s.repo.CancelJobsForAuction(ctx, auctionID)
}

// Tick runs one scheduler pass: due jobs first, then the catch-up sweep.
// Only the leader does any work.
func (s *CronAuctionScheduler) Tick(ctx context.Context) {
	if !s.running.TryLock() {
		s.log.Debug("Previous scheduler tick still running")
		return
	}
	defer s.running.Unlock()

	isLeader, err := s.auctionMgr.IsLeader(ctx)
	if err != nil {
		s.log.Error("Failed to check leadership", "error", err)
		return
	}
	if !isLeader {
		return
	}

	s.processPendingJobs(ctx)

	if err := s.auctionMgr.SweepDue(ctx); err != nil {
		s.log.Error("Auction sweep finished with errors", "error", err)
	}
}

func (s *CronAuctionScheduler) processPendingJobs(ctx context.Context) {
	jobs, err := s.repo.GetPendingJobs(ctx, s.clock.Now())
	if err != nil {
		s.log.Error("Failed to get pending jobs", "error", err)
		return
	}

	for _, job := range jobs {
		s.log.Info("Processing job", "job_id", job.ID, "type", job.JobType, "auction_id", job.AuctionID)

		var err error
		switch job.JobType {
		case domain.JobStartAuction:
			_, err = s.auctionMgr.StartAuction(ctx, job.AuctionID)
		case domain.JobEndAuction:
			_, err = s.auctionMgr.EndAuction(ctx, job.AuctionID)
		default:
			s.log.Warn("Unknown job type", "job_id", job.ID, "type", job.JobType)
			continue
		}

		status := domain.JobExecuted
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrNotFound),
			job.JobType == domain.JobStartAuction && errors.Is(err, domain.ErrNotDue):
			// The auction is gone or its live window already passed.
			s.log.Warn("Cancelling job", "job_id", job.ID, "auction_id", job.AuctionID, "error", err)
			status = domain.JobCancelled
		default:
			// Left pending, picked up again on the next tick.
			s.log.Error("Failed to execute job", "job_id", job.ID, "error", err)
			continue
		}

		if err := s.repo.UpdateJobStatus(ctx, job.ID, status); err != nil {
			s.log.Error("Failed to update job status", "job_id", job.ID, "error", err)
		}
	}
}
