package utils

import (
	"code212/services/certification"
	"code212/utils/logger"
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// InitializeCertificateScheduler starts the periodic sweep that creates the
// certificate rows of approved enrollments nobody has looked at yet.
func InitializeCertificateScheduler(spec string, svc *certification.Service, log *logger.Logger) (*cron.Cron, error) {
	log = log.With("component", "certificate-scheduler")
	log.Info("initializing certificate scheduler", "schedule", spec)

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		RunCertificateSweep(ctx, svc, log)
	}); err != nil {
		return nil, fmt.Errorf("invalid CERTIFICATE_SWEEP_CRON %q: %w", spec, err)
	}

	c.Start()
	log.Info("certificate scheduler started")
	return c, nil
}

// RunCertificateSweep materializes every missing certificate once.
func RunCertificateSweep(ctx context.Context, svc *certification.Service, log *logger.Logger) int {
	log.Info("running certificate sweep")
	created, err := svc.Materialize(ctx, 0, 0)
	if err != nil {
		log.Error("certificate sweep failed", "created", created, "error", err)
		return created
	}
	log.Info("certificate sweep finished", "created", created)
	return created
}
