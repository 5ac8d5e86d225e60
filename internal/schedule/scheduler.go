// Package schedule opens and closes quiz windows on cron specs.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"weekly-quiz-service/internal/domain"
)

const jobTimeout = 2 * time.Minute

// WindowService is the part of the quiz service the scheduler drives.
type WindowService interface {
	OpenAndAnnounce(ctx context.Context) (domain.Window, domain.BroadcastReport, error)
	CloseAndAnnounce(ctx context.Context) (domain.CloseSummary, domain.BroadcastReport, error)
}

type Scheduler struct {
	cron    *cron.Cron
	service WindowService
}

// New builds a scheduler evaluating specs in loc (UTC when nil).
func New(service WindowService, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		service: service,
	}
}

// Register adds the open and close jobs. Empty specs are skipped.
func (s *Scheduler) Register(openSpec, closeSpec string) error {
	if openSpec != "" {
		if _, err := s.cron.AddFunc(openSpec, s.openWindow); err != nil {
			return fmt.Errorf("open schedule %q: %w", openSpec, err)
		}
	}
	if closeSpec != "" {
		if _, err := s.cron.AddFunc(closeSpec, s.closeWindow); err != nil {
			return fmt.Errorf("close schedule %q: %w", closeSpec, err)
		}
	}
	return nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	log.Printf("scheduler started with %d jobs", s.Jobs())
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) openWindow() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	window, report, err := s.service.OpenAndAnnounce(ctx)
	switch {
	case errors.Is(err, domain.ErrSessionActive):
		log.Printf("scheduled open skipped: %v", err)
	case err != nil:
		log.Printf("scheduled open failed: %v", err)
	default:
		log.Printf("scheduled open %s: %d questions, notified %d/%d", window.PeriodKey, window.QuestionCount, report.Success, report.Total)
	}
}

func (s *Scheduler) closeWindow() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	summary, report, err := s.service.CloseAndAnnounce(ctx)
	switch {
	case errors.Is(err, domain.ErrNoActiveSession):
		log.Printf("scheduled close skipped: no active session")
	case err != nil:
		log.Printf("scheduled close failed: %v", err)
	default:
		log.Printf("scheduled close %s: %d winners, notified %d/%d", summary.PeriodKey, len(summary.Winners), report.Success, report.Total)
	}
}
