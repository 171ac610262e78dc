package scheduler

import (
	"context"
	"fmt"

	"legal_intake_backend/internal/events"
	"legal_intake_backend/internal/lifecycle/domain"
	"legal_intake_backend/platform/apperr"
	"legal_intake_backend/platform/config"
	"legal_intake_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskReader loads the task a reminder points at.
type TaskReader interface {
	GetTask(ctx context.Context, id uuid.UUID) (domain.Task, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	tasks  TaskReader
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, tasks TaskReader, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(tasks, bus, log)
	w.server = server
	return w, nil
}

func newWorker(tasks TaskReader, bus events.Bus, log *logger.Logger) *Worker {
	w := &Worker{
		mux:   asynq.NewServeMux(),
		tasks: tasks,
		bus:   bus,
		log:   log,
	}
	w.mux.HandleFunc(TaskDueReminder, w.handleTaskReminder)
	return w
}

// Run processes reminders until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
		return err
	}
	return nil
}

// handleTaskReminder publishes TaskDue when the task still exists and is
// open. Tasks removed by a rollback or completed in the meantime are skipped.
func (w *Worker) handleTaskReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseTaskReminderPayload(task)
	if err != nil {
		return fmt.Errorf("parse reminder: %v: %w", err, asynq.SkipRetry)
	}

	taskID, err := uuid.Parse(payload.TaskID)
	if err != nil {
		return fmt.Errorf("parse task id: %v: %w", err, asynq.SkipRetry)
	}

	t, err := w.tasks.GetTask(ctx, taskID)
	if apperr.Is(err, apperr.KindNotFound) {
		w.log.Debug("reminder for deleted task skipped", "task_id", payload.TaskID)
		return nil
	}
	if err != nil {
		return err
	}
	if t.Completed || t.DueDate == nil {
		return nil
	}

	if w.bus == nil {
		return nil
	}

	return w.bus.PublishSync(ctx, events.TaskDue{
		BaseEvent:     events.NewBaseEvent(),
		TaskID:        t.ID,
		OpportunityID: t.OpportunityID,
		Title:         t.Title,
		AssignedTo:    t.AssignedTo,
		DueAt:         *t.DueDate,
	})
}
