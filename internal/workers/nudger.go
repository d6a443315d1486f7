package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/todone/todone/internal/buckets"
	"github.com/todone/todone/internal/database"
	"github.com/todone/todone/internal/models"
	"github.com/todone/todone/internal/queue"
	"github.com/todone/todone/internal/services/ai"
)

// NudgeCacheInterface defines the cache operations the generator needs.
type NudgeCacheInterface interface {
	Set(ctx context.Context, userID uuid.UUID, nudges []models.Nudge) error
}

// NudgeGenerator processes nudge refresh jobs: it rebuilds the user's
// day summary, asks the model for suggestions and caches the result so
// the suggest endpoint can serve it cheaply.
type NudgeGenerator struct {
	aiProvider ai.Provider
	taskRepo   database.TaskRepositoryInterface
	nudgeCache NudgeCacheInterface
	jobQueue   queue.JobQueue // For re-enqueueing jobs with delays
}

// NewNudgeGenerator creates a new nudge generator
func NewNudgeGenerator(
	aiProvider ai.Provider,
	taskRepo database.TaskRepositoryInterface,
	nudgeCache NudgeCacheInterface,
	jobQueue queue.JobQueue,
) *NudgeGenerator {
	return &NudgeGenerator{
		aiProvider: aiProvider,
		taskRepo:   taskRepo,
		nudgeCache: nudgeCache,
		jobQueue:   jobQueue,
	}
}

// ProcessNudgeRefreshJob regenerates the cached nudges for one user.
func (g *NudgeGenerator) ProcessNudgeRefreshJob(ctx context.Context, job *queue.Job) error {
	tasks, err := g.taskRepo.ListByUser(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	now := time.Now()
	summary := buckets.Build(tasks, now, buckets.DefaultWorkdayMinutes)
	req := ai.NewSuggestRequest(summary, now.Hour())

	nudges, err := g.aiProvider.SuggestNudges(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to generate suggestions: %w", err)
	}

	// An empty result is still worth caching: it stops the endpoint from
	// falling back to a synchronous model call on every request.
	if err := g.nudgeCache.Set(ctx, job.UserID, nudges); err != nil {
		return fmt.Errorf("failed to cache suggestions: %w", err)
	}

	log.Printf("Refreshed nudges for user %s: %d suggestions", job.UserID, len(nudges))
	return nil
}

// ProcessJob processes a job based on its type
func (g *NudgeGenerator) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	// Check if job should be processed now (respect NotBefore)
	if !job.ShouldProcess() {
		log.Printf("Job %s not ready yet (NotBefore: %v), skipping", job.ID, job.NotBefore)
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job for later processing: %v", ackErr)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeNudgeRefresh:
		if err := g.ProcessNudgeRefreshJob(ctx, job); err != nil {
			return g.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			log.Printf("Failed to nack unknown job type: %v", nackErr)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError applies retry logic to a failed refresh. Quota and rate
// limit errors re-enqueue with a delay so the delayed exchange spaces
// the attempts out; other errors use the standard retry counter.
func (g *NudgeGenerator) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if ai.IsQuotaError(err) || ai.IsRateLimitError(err) {
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)
		log.Printf("Model throttled for job %s: %v (retry in %v)", job.ID, err, retryDelay)

		if job.CanRetry() && g.jobQueue != nil {
			notBefore := time.Now().Add(retryDelay)
			delayedJob := &queue.Job{
				ID:         job.ID,
				Type:       job.Type,
				UserID:     job.UserID,
				NotBefore:  &notBefore,
				NotAfter:   job.NotAfter,
				CreatedAt:  job.CreatedAt,
				RetryCount: job.RetryCount + 1,
				MaxRetries: job.MaxRetries,
			}

			if ackErr := msg.Ack(); ackErr != nil {
				log.Printf("Failed to ack throttled job: %v", ackErr)
			}

			if enqueueErr := g.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				log.Printf("Failed to re-enqueue job %s with delay: %v", job.ID, enqueueErr)
				return fmt.Errorf("throttled, failed to re-enqueue: %w", enqueueErr)
			}

			log.Printf("Re-enqueued nudge refresh job %s for retry at %v", job.ID, notBefore)
			return nil
		}

		// No retries left or no queue access, drop to the DLQ.
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Printf("Failed to nack throttled job: %v", nackErr)
		}
		return fmt.Errorf("throttled (job %s): %w", job.ID, err)
	}

	if job.CanRetry() {
		job.IncrementRetry()
		log.Printf("Nudge refresh job %s failed (attempt %d/%d): %v, will retry", job.ID, job.RetryCount, job.MaxRetries, err)
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Printf("Failed to nack job: %v", nackErr)
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	log.Printf("Nudge refresh job %s failed after %d retries: %v, sending to DLQ", job.ID, job.MaxRetries, err)
	if nackErr := msg.Nack(false); nackErr != nil {
		log.Printf("Failed to nack job to DLQ: %v", nackErr)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}
