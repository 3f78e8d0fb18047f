package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// AdvanceFunc moves expired rooms on and reports how many moved
type AdvanceFunc func(ctx context.Context) (int, error)

// Scheduler periodically advances rooms whose phase timer has run out
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	spec    string
	advance AdvanceFunc
	timeout time.Duration
}

// New creates a new scheduler running advance on the cron spec
func New(spec string, advance AdvanceFunc) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		ctx:     ctx,
		cancel:  cancel,
		spec:    spec,
		advance: advance,
		timeout: 30 * time.Second,
	}
}

// Start registers the job and starts the cron loop
func (s *Scheduler) Start() error {
	_, err := s.cron.AddJob(s.spec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(s.RunOnce)))
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("Phase scheduler started (%s)", s.spec)
	return nil
}

// RunOnce performs a single scan. Failures are logged and retried on the next tick.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	n, err := s.advance(ctx)
	if err != nil {
		log.Printf("Phase scheduler run failed after advancing %d room(s): %v", n, err)
		return
	}
	if n > 0 {
		log.Printf("Phase scheduler advanced %d room(s)", n)
	}
}

// Stop waits for a running scan and stops the scheduler
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("Phase scheduler stopped")
}
