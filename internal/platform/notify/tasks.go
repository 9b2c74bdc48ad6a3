// Package notify moves appointment notifications off the request path:
// the API enqueues asynq tasks, the worker process delivers them.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
)

const (
	TypeAppointmentBooked        = "appointment:booked"
	TypeAppointmentStatusChanged = "appointment:status_changed"
	TypeAppointmentReminder      = "appointment:reminder"

	QueueName = "notifications"
)

type BookedPayload struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
}

type StatusChangedPayload struct {
	AppointmentID uuid.UUID           `json:"appointment_id"`
	From          availability.Status `json:"from"`
	To            availability.Status `json:"to"`
}

type ReminderPayload struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
}

func newTask(typ string, payload any, opts ...asynq.Option) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	opts = append([]asynq.Option{asynq.Queue(QueueName), asynq.MaxRetry(5)}, opts...)
	return asynq.NewTask(typ, b, opts...), nil
}

func NewBookedTask(id uuid.UUID) (*asynq.Task, error) {
	return newTask(TypeAppointmentBooked, BookedPayload{AppointmentID: id})
}

func NewStatusChangedTask(id uuid.UUID, from, to availability.Status) (*asynq.Task, error) {
	return newTask(TypeAppointmentStatusChanged, StatusChangedPayload{AppointmentID: id, From: from, To: to})
}

// NewReminderTask fires at processAt. The task id is derived from the
// appointment so rescheduling never queues a second reminder.
func NewReminderTask(id uuid.UUID, processAt time.Time) (*asynq.Task, error) {
	return newTask(TypeAppointmentReminder, ReminderPayload{AppointmentID: id},
		asynq.ProcessAt(processAt), asynq.TaskID("reminder:"+id.String()))
}

// Enqueuer is what the appointment service needs from the queue.
type Enqueuer interface {
	Booked(ctx context.Context, id uuid.UUID) error
	StatusChanged(ctx context.Context, id uuid.UUID, from, to availability.Status) error
	// ScheduleReminder queues a reminder ahead of visit; it does nothing
	// when the reminder moment has already passed.
	ScheduleReminder(ctx context.Context, id uuid.UUID, visit time.Time) error
}

type AsynqEnqueuer struct {
	client   *asynq.Client
	leadTime time.Duration
	now      func() time.Time
}

func NewAsynqEnqueuer(client *asynq.Client, leadTime time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: client, leadTime: leadTime, now: time.Now}
}

func (q *AsynqEnqueuer) enqueue(ctx context.Context, task *asynq.Task, err error) error {
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return nil
}

func (q *AsynqEnqueuer) Booked(ctx context.Context, id uuid.UUID) error {
	task, err := NewBookedTask(id)
	return q.enqueue(ctx, task, err)
}

func (q *AsynqEnqueuer) StatusChanged(ctx context.Context, id uuid.UUID, from, to availability.Status) error {
	task, err := NewStatusChangedTask(id, from, to)
	return q.enqueue(ctx, task, err)
}

func (q *AsynqEnqueuer) ScheduleReminder(ctx context.Context, id uuid.UUID, visit time.Time) error {
	at := visit.Add(-q.leadTime)
	if !at.After(q.now()) {
		return nil
	}
	task, err := NewReminderTask(id, at)
	return q.enqueue(ctx, task, err)
}

// NoopEnqueuer is used when no redis is configured.
type NoopEnqueuer struct{}

func (NoopEnqueuer) Booked(context.Context, uuid.UUID) error { return nil }

func (NoopEnqueuer) StatusChanged(context.Context, uuid.UUID, availability.Status, availability.Status) error {
	return nil
}

func (NoopEnqueuer) ScheduleReminder(context.Context, uuid.UUID, time.Time) error { return nil }
