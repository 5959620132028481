package jobs

import "github.com/hibiken/asynq"

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTokenPurge deletes expired refresh tokens.
	TaskTokenPurge = "auth:token_purge"
	// CronTokenPurge runs the purge daily at 02:00 UTC.
	CronTokenPurge = "0 2 * * *"
)

// NewTokenPurgeTask constructs an Asynq task for the refresh token purge. The
// job carries no payload; the cutoff is always the execution time.
func NewTokenPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskTokenPurge, nil, asynq.Queue(QueueDefault))
}
