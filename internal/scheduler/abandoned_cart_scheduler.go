package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/thriftshop/storefront/internal/app/service"
	"github.com/thriftshop/storefront/pkg/logger"
)

// runTimeout bounds a single reminder sweep.
const runTimeout = 10 * time.Minute

// AbandonedCartScheduler periodically mails reminders for idle carts.
type AbandonedCartScheduler struct {
	cron    *cron.Cron
	spec    string
	service service.AbandonedCartService
}

// NewAbandonedCartScheduler creates a scheduler running on a standard
// five-field cron spec. A sweep still running when the next one is due is
// skipped.
func NewAbandonedCartScheduler(svc service.AbandonedCartService, spec string) *AbandonedCartScheduler {
	return &AbandonedCartScheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		spec:    spec,
		service: svc,
	}
}

func (s *AbandonedCartScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		logger.Error("Failed to add cron job for abandoned cart reminders", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Abandoned cart scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// RunOnce performs a single reminder sweep.
func (s *AbandonedCartScheduler) RunOnce(ctx context.Context) service.ReminderResult {
	logger.Info("Starting abandoned cart sweep", nil)

	result, err := s.service.SendReminders(ctx)
	if err != nil {
		logger.Error("Abandoned cart sweep failed", err)
		return result
	}

	logger.Info("Abandoned cart sweep finished", map[string]interface{}{
		"sent":    result.Sent,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	})
	return result
}

// Stop waits for a running sweep to finish.
func (s *AbandonedCartScheduler) Stop() {
	logger.Info("Stopping abandoned cart scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Abandoned cart scheduler stopped", nil)
}
