package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskScoreDecay = "scores.decay"

const TaskJourneyRefresh = "journeys.refresh"

type ScoreDecayPayload struct {
	RequestedAt time.Time `json:"requestedAt"`
}

type JourneyRefreshPayload struct {
	RequestedAt time.Time `json:"requestedAt"`
}

func NewScoreDecayTask(payload ScoreDecayPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScoreDecay, data), nil
}

func ParseScoreDecayPayload(task *asynq.Task) (ScoreDecayPayload, error) {
	var payload ScoreDecayPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ScoreDecayPayload{}, err
	}
	return payload, nil
}

func NewJourneyRefreshTask(payload JourneyRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskJourneyRefresh, data), nil
}

func ParseJourneyRefreshPayload(task *asynq.Task) (JourneyRefreshPayload, error) {
	var payload JourneyRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return JourneyRefreshPayload{}, err
	}
	return payload, nil
}
