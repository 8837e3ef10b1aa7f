package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAccessDecision is the task type for fulfilling a processed
	// access request (provisioning, notification).
	TaskTypeAccessDecision = "access:decision"
)

// AccessDecisionPayload describes a decided access request.
type AccessDecisionPayload struct {
	RequestID string `json:"request_id"`
	Requester string `json:"requester"`
	Resource  string `json:"resource"`
	Approved  bool   `json:"approved"`
}

// NewAccessDecisionTask constructs an Asynq task.
func NewAccessDecisionTask(payload AccessDecisionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAccessDecision, data), nil
}

// DecisionFulfiller processes TaskTypeAccessDecision tasks on the worker.
type DecisionFulfiller struct {
	logger *slog.Logger
}

// NewDecisionFulfiller constructs DecisionFulfiller.
func NewDecisionFulfiller(logger *slog.Logger) *DecisionFulfiller {
	return &DecisionFulfiller{logger: logger}
}

// Handle fulfills a decided access request. The decision itself was already
// committed by the lifecycle finalizer; this side runs the follow-up work.
func (f *DecisionFulfiller) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AccessDecisionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	f.logger.Info("access decision fulfilled",
		slog.String("request_id", payload.RequestID),
		slog.String("requester", payload.Requester),
		slog.String("resource", payload.Resource),
		slog.Bool("approved", payload.Approved))
	return nil
}
