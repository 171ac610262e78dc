package scheduler

import (
	"context"

	"legal_intake_backend/internal/events"
	"legal_intake_backend/platform/logger"
)

// ReminderSubscriber queues a due-date reminder for every scheduled task.
type ReminderSubscriber struct {
	scheduler ReminderScheduler
	log       *logger.Logger
}

func NewReminderSubscriber(scheduler ReminderScheduler, log *logger.Logger) *ReminderSubscriber {
	return &ReminderSubscriber{scheduler: scheduler, log: log}
}

func (s *ReminderSubscriber) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.TaskScheduled{}.EventName(), s)
}

func (s *ReminderSubscriber) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.TaskScheduled)
	if !ok {
		return nil
	}

	payload := TaskReminderPayload{TaskID: e.TaskID.String(), DueAt: e.DueAt}
	if err := s.scheduler.ScheduleTaskReminder(ctx, payload, e.DueAt); err != nil {
		s.log.WithContext(ctx).Error("failed to schedule task reminder", "task_id", payload.TaskID, "error", err)
		return err
	}
	return nil
}
