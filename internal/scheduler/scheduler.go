package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// refreshTimeout bounds one refresh run including the key rate lookup and digest delivery
const refreshTimeout = 2 * time.Minute

// Refresher regenerates the current dataset
type Refresher interface {
	RefreshSynthetic(ctx context.Context) error
}

// Scheduler runs periodic dataset refreshes
type Scheduler struct {
	cron *cron.Cron
	svc  Refresher
	log  *logrus.Logger
}

// New registers a refresh job on the given cron spec (standard five fields or a descriptor like "@daily")
func New(spec string, svc Refresher, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		svc:  svc,
		log:  log,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("failed to parse refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infof("Refresh scheduler started, next run at %s", s.cron.Entries()[0].Next.Format(time.RFC3339))
}

// Stop halts the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Refresh scheduler stopped")
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	start := time.Now()
	if err := s.svc.RefreshSynthetic(ctx); err != nil {
		s.log.Errorf("Scheduled refresh failed: %v", err)
		return
	}
	s.log.Infof("Scheduled refresh finished in %s", time.Since(start))
}
