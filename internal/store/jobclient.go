package store

import (
	"context"
	"fmt"

	"linkhive/internal/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
)

// AsynqJobClient is a concrete JobClient. It enqueues background tasks
// and records them to the JobStore.
var _ JobClient = (*AsynqJobClient)(nil)

type AsynqJobClient struct {
	client   *asynq.Client
	jobStore JobStore
}

func NewAsynqJobClient(redisAddr string, js JobStore) (*AsynqJobClient, error) {
	if js == nil {
		return nil, fmt.Errorf("JobStore cannot be nil for AsynqJobClient")
	}
	cli := asynq.NewClient(asynq.RedisClientOpt{
		Addr: redisAddr,
	})
	return &AsynqJobClient{client: cli, jobStore: js}, nil
}

func (jc *AsynqJobClient) Close() error {
	return jc.client.Close()
}

// Enqueue enqueues a task and records the event to the JobStore.
func (jc *AsynqJobClient) Enqueue(ctx context.Context, task *asynq.Task, relatedEntityType, relatedEntityID string, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if jc.client == nil {
		return nil, fmt.Errorf("AsynqJobClient internal client is not initialized")
	}
	info, err := jc.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return nil, err
	}
	log.Debugf("Enqueued task type '%s' with id %s on queue %s", task.Type(), info.ID, info.Queue)

	// Record the enqueue event to the database via JobStore. Failures
	// here are logged, not returned: the job is already on the queue.
	jobUUID, err := uuid.Parse(info.ID)
	if err != nil {
		log.Errorf("Failed to parse Asynq task ID '%s' to UUID: %v. Job record might be incomplete.", info.ID, err)
	}

	recordParams := JobRecordParams{
		JobID:             jobUUID,
		TaskType:          task.Type(),
		Payload:           task.Payload(),
		Queue:             info.Queue,
		Status:            "enqueued",
		RelatedEntityType: relatedEntityType,
		RelatedEntityID:   relatedEntityID,
	}
	if err := jc.jobStore.RecordJobEnqueue(ctx, recordParams); err != nil {
		log.Errorf("Failed to record job enqueue event to DB for task ID %s: %v", info.ID, err)
	}

	return info, nil
}

func (jc *AsynqJobClient) EnqueuePreviewJob(ctx context.Context, linkID string) error {
	task, err := tasks.NewPreviewFetchTask(linkID)
	if err != nil {
		return err
	}
	_, err = jc.Enqueue(ctx, task, "link", linkID, asynq.Queue("previews"))
	if err != nil {
		return fmt.Errorf("enqueue preview job for link %s: %w", linkID, err)
	}
	return nil
}

func (jc *AsynqJobClient) EnqueueEmbeddingJob(ctx context.Context, linkID string) error {
	task, err := tasks.NewEmbeddingTask(linkID)
	if err != nil {
		return err
	}
	_, err = jc.Enqueue(ctx, task, "link", linkID, asynq.Queue("embeddings"))
	if err != nil {
		return fmt.Errorf("enqueue embedding job for link %s: %w", linkID, err)
	}
	return nil
}
