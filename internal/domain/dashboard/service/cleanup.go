package service

import "context"

// CleanupJob purges expired sessions on a schedule.
type CleanupJob struct {
	svc *Service
}

// CleanupJob returns the purge job of the service.
func (s *Service) CleanupJob() *CleanupJob {
	return &CleanupJob{svc: s}
}

// Name identifies the job in logs and metrics.
func (j *CleanupJob) Name() string { return "session_cleanup" }

// Run purges once.
func (j *CleanupJob) Run(ctx context.Context) error {
	j.svc.PurgeExpired(ctx)
	return nil
}
