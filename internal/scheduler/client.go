package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"leadtrack_backend/platform/config"
	"leadtrack_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) EnqueueScoreDecay(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewScoreDecayTask(ScoreDecayPayload{RequestedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func (c *Client) EnqueueJourneyRefresh(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewJourneyRefreshTask(JourneyRefreshPayload{RequestedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

// RunPeriodic enqueues the decay and refresh sweeps on their configured
// intervals until the context is cancelled.
func (c *Client) RunPeriodic(ctx context.Context, cfg config.SchedulerConfig, log *logger.Logger) {
	decayTicker := time.NewTicker(cfg.GetScoreDecayInterval())
	defer decayTicker.Stop()
	journeyTicker := time.NewTicker(cfg.GetJourneyRefreshInterval())
	defer journeyTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-decayTicker.C:
			if err := c.EnqueueScoreDecay(ctx); err != nil {
				log.Error("score decay enqueue failed", "error", err)
			}
		case <-journeyTicker.C:
			if err := c.EnqueueJourneyRefresh(ctx); err != nil {
				log.Error("journey refresh enqueue failed", "error", err)
			}
		}
	}
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
