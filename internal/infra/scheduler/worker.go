package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type FollowUpHandler interface {
	Execute(ctx context.Context, job entity.FollowUpJob) error
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	handler FollowUpHandler
}

func NewWorker(redisURL string, handler FollowUpHandler) (*Worker, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			DefaultQueue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		handler: handler,
	}
	mux.HandleFunc(TaskFollowUp, w.handleFollowUp)

	return w, nil
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start scheduler worker: %w", err)
	}
	log.Info().Str("queue", DefaultQueue).Msg("asynq follow-up worker started")

	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

// handleFollowUp retries delivery failures; a job that can never succeed, such as one
// with a bad secret, is not retried.
func (w *Worker) handleFollowUp(ctx context.Context, task *asynq.Task) error {
	job, err := ParseFollowUpPayload(task)
	if err != nil {
		return fmt.Errorf("parse follow-up payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := w.handler.Execute(ctx, job); err != nil {
		if usecase.IsDomainError(err) {
			log.Warn().Err(err).Int("followup", job.FollowupNumber).Msg("follow-up rejected")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}
