package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/accessgate/accessgate/internal/request"
)

// Client submits jobs to the queue. It is the downstream collaborator of
// request processing: enqueueing is the suspending side effect, and its
// failure is reported back without undoing the decision.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// NotifyDecision enqueues the fulfillment task for a decided request. The
// task id is derived from the request id: one decision per request, so a
// duplicate enqueue is rejected by the queue instead of fanning out twice.
func (c *Client) NotifyDecision(ctx context.Context, req request.AccessRequest, approved bool) error {
	task, err := NewAccessDecisionTask(AccessDecisionPayload{
		RequestID: req.ID,
		Requester: req.Requester.String(),
		Resource:  req.Resource,
		Approved:  approved,
	})
	if err != nil {
		return fmt.Errorf("jobs: build decision task: %w", err)
	}
	taskID := uuid.NewSHA1(uuid.Nil, []byte("decision:"+req.ID))
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.TaskID(taskID.String()))
	if err != nil {
		return fmt.Errorf("jobs: enqueue decision: %w", err)
	}
	return nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
