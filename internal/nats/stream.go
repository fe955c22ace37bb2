package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/fitness-coach/internal/model"
)

const (
	// StreamName is the name of the coach action work queue stream.
	StreamName = "COACH_ACTIONS"

	// SubjectPrefix is the prefix for all coach action subjects.
	SubjectPrefix = "coach.actions"

	// duplicateWindow bounds publish de-duplication by action id.
	duplicateWindow = 10 * time.Minute
)

// StreamManager handles the JetStream work queue of confirmed pending actions.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream creates or updates the work queue stream. Work-queue retention removes a
// job once it is acked.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	_, err := m.client.JetStream().CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      7 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Duplicates:  duplicateWindow,
		Description: "Confirmed coach actions waiting for the worker",
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream: %w", err)
	}
	return nil
}

// JobSubject returns the subject for a user's jobs. Dots are not allowed inside a token.
func JobSubject(userID string) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, strings.ReplaceAll(userID, ".", "_"))
}

// Enqueue publishes a job. The action id is the message id, so enqueuing the same
// action twice within the duplicate window stores one message.
func (m *StreamManager) Enqueue(ctx context.Context, job *model.ActionJob) (uint64, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal job: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, JobSubject(job.UserID), data, jetstream.WithMsgID(job.ActionID))
	if err != nil {
		return 0, fmt.Errorf("failed to publish job: %w", err)
	}
	return ack.Sequence, nil
}

// Consumer creates or updates the durable pull consumer the worker reads from.
func (m *StreamManager) Consumer(ctx context.Context, durable string, maxDeliver int) (jetstream.Consumer, error) {
	cons, err := m.client.JetStream().CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durable,
		FilterSubject: SubjectPrefix + ".>",
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       2 * time.Minute,
		MaxDeliver:    maxDeliver,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	return cons, nil
}

// DecodeJob parses a job message body.
func DecodeJob(data []byte) (*model.ActionJob, error) {
	var job model.ActionJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	if job.ActionID == "" || job.UserID == "" {
		return nil, fmt.Errorf("failed to decode job: action_id and user_id are required")
	}
	return &job, nil
}
