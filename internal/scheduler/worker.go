package scheduler

import (
	"context"
	"fmt"

	"leadtrack_backend/internal/leads/journey"
	"leadtrack_backend/internal/leads/repository"
	"leadtrack_backend/internal/leads/scoring"
	"leadtrack_backend/platform/config"
	"leadtrack_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	scores   *scoring.Service
	journeys *journey.Service
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, scoringCfg config.ScoringConfig, pool *pgxpool.Pool, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	repo := repository.New(pool)
	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		scores:   scoring.New(repo, nil, log, scoringCfg.GetDefaultDecayRate()),
		journeys: journey.New(repo, log),
		log:      log,
	}

	mux.HandleFunc(TaskScoreDecay, w.handleScoreDecay)
	mux.HandleFunc(TaskJourneyRefresh, w.handleJourneyRefresh)

	return w, nil
}

func (w *Worker) handleScoreDecay(ctx context.Context, task *asynq.Task) error {
	if _, err := ParseScoreDecayPayload(task); err != nil {
		return err
	}

	decayed, err := w.scores.DecayStale(ctx)
	if err != nil {
		return err
	}

	w.log.Info("score decay sweep finished", "leads_decayed", decayed)
	return nil
}

func (w *Worker) handleJourneyRefresh(ctx context.Context, task *asynq.Task) error {
	if _, err := ParseJourneyRefreshPayload(task); err != nil {
		return err
	}

	refreshed, err := w.journeys.RefreshAll(ctx)
	if err != nil {
		return err
	}

	w.log.Info("journey refresh sweep finished", "leads_refreshed", refreshed)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
