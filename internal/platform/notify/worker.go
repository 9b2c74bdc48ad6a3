package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
)

// ErrAppointmentGone is returned by a Loader when the appointment no longer
// exists. The task is then dropped without retry.
var ErrAppointmentGone = errors.New("appointment not found")

// Appointment is the denormalised view a notification is rendered from.
type Appointment struct {
	ID           uuid.UUID
	Reference    string
	ClinicName   string
	ClinicPhone  string
	PatientName  string
	PatientPhone string
	Date         availability.Date
	Time         availability.TimeOfDay
	Status       availability.Status
}

type Loader interface {
	LoadForNotification(ctx context.Context, id uuid.UUID) (Appointment, error)
}

type Kind string

const (
	KindBooked        Kind = "booked"
	KindStatusChanged Kind = "status_changed"
	KindReminder      Kind = "reminder"
)

type Message struct {
	Kind          Kind
	AppointmentID uuid.UUID
	To            string
	Text          string
	Link          string
}

// Notifier delivers a rendered message.
type Notifier interface {
	Notify(ctx context.Context, m Message) error
}

// LogNotifier writes messages to the log. Patients reach the clinic through
// the WhatsApp link, so there is no outbound provider to call.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, m Message) error {
	n.Logger.Info().
		Str("kind", string(m.Kind)).
		Str("appointment_id", m.AppointmentID.String()).
		Str("to", m.To).
		Str("link", m.Link).
		Msg(m.Text)
	return nil
}

type Handlers struct {
	loader   Loader
	notifier Notifier
	logger   zerolog.Logger
}

func NewHandlers(loader Loader, notifier Notifier, logger zerolog.Logger) *Handlers {
	return &Handlers{loader: loader, notifier: notifier, logger: logger}
}

// Mux routes the three task types.
func (h *Handlers) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAppointmentBooked, h.HandleBooked)
	mux.HandleFunc(TypeAppointmentStatusChanged, h.HandleStatusChanged)
	mux.HandleFunc(TypeAppointmentReminder, h.HandleReminder)
	return mux
}

func decode(t *asynq.Task, v any) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return fmt.Errorf("%s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}

// load fetches the appointment and reports whether it should still be
// notified about.
func (h *Handlers) load(ctx context.Context, id uuid.UUID, wantActive bool) (Appointment, bool, error) {
	a, err := h.loader.LoadForNotification(ctx, id)
	if errors.Is(err, ErrAppointmentGone) {
		h.logger.Warn().Str("appointment_id", id.String()).Msg("notification dropped, appointment gone")
		return Appointment{}, false, nil
	}
	if err != nil {
		return Appointment{}, false, err
	}
	if wantActive && !a.Status.Active() {
		h.logger.Debug().Str("appointment_id", id.String()).Str("status", string(a.Status)).Msg("notification skipped")
		return a, false, nil
	}
	return a, true, nil
}

func (h *Handlers) HandleBooked(ctx context.Context, t *asynq.Task) error {
	var p BookedPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	a, ok, err := h.load(ctx, p.AppointmentID, true)
	if err != nil || !ok {
		return err
	}
	return h.notifier.Notify(ctx, Message{
		Kind:          KindBooked,
		AppointmentID: a.ID,
		To:            a.ClinicPhone,
		Text:          confirmationText(a),
		Link:          ConfirmationLink(a),
	})
}

func (h *Handlers) HandleStatusChanged(ctx context.Context, t *asynq.Task) error {
	var p StatusChangedPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	a, ok, err := h.load(ctx, p.AppointmentID, false)
	if err != nil || !ok {
		return err
	}
	// A later transition supersedes this one.
	if a.Status != p.To {
		return nil
	}
	text := statusText(a)
	return h.notifier.Notify(ctx, Message{
		Kind:          KindStatusChanged,
		AppointmentID: a.ID,
		To:            a.PatientPhone,
		Text:          text,
		Link:          WhatsAppLink(a.PatientPhone, text),
	})
}

func (h *Handlers) HandleReminder(ctx context.Context, t *asynq.Task) error {
	var p ReminderPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	a, ok, err := h.load(ctx, p.AppointmentID, true)
	if err != nil || !ok {
		return err
	}
	if a.Status == availability.StatusCompleted {
		return nil
	}
	text := reminderText(a)
	return h.notifier.Notify(ctx, Message{
		Kind:          KindReminder,
		AppointmentID: a.ID,
		To:            a.PatientPhone,
		Text:          text,
		Link:          WhatsAppLink(a.PatientPhone, text),
	})
}

type WorkerConfig struct {
	RedisURL        string
	Concurrency     int
	ShutdownTimeout time.Duration
}

// NewServer builds the asynq server for the notifications queue.
func NewServer(cfg WorkerConfig, logger zerolog.Logger) (*asynq.Server, error) {
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	return asynq.NewServer(opt, asynq.Config{
		Concurrency:     cfg.Concurrency,
		Queues:          map[string]int{QueueName: 1},
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          asynqLogger{logger.With().Str("component", "worker").Logger()},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			logger.Error().Err(err).Str("task", t.Type()).Msg("task failed")
		}),
	}), nil
}

// NewClient returns the producer side used by the API process.
func NewClient(redisURL string) (*asynq.Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	return asynq.NewClient(opt), nil
}

// asynqLogger routes asynq's own logging through zerolog.
type asynqLogger struct{ l zerolog.Logger }

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }
