package events

import (
	"context"
	"time"

	"fluxor/pkg/kafka"
	kafka_config "fluxor/pkg/kafka/config"
	"fluxor/pkg/logger"
	"fluxor/pkg/model"
)

const (
	EventAppointmentCreated   = "appointment.created"
	EventAppointmentCanceled  = "appointment.canceled"
	EventAppointmentCompleted = "appointment.completed"

	schemaVersion = "1"
	source        = "fluxor-api"
)

// AppointmentEvent is the payload published for appointment lifecycle
// changes. Timestamps are serialized in the clinic's wall clock.
type AppointmentEvent struct {
	AppointmentID  string    `json:"appointment_id"`
	ClientID       string    `json:"client_id,omitempty"`
	ProfessionalID string    `json:"professional_id"`
	ServiceID      string    `json:"service_id"`
	DateTime       time.Time `json:"date_time"`
	Status         string    `json:"status"`
	Origin         string    `json:"origin"`
}

type producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

// Publisher emits appointment lifecycle events. When no brokers are
// configured it degrades to a no-op so the API works without Kafka.
type Publisher struct {
	producer producer
	log      *logger.Logger
}

func NewPublisher(brokers []string, topic string, log *logger.Logger) *Publisher {
	if len(brokers) == 0 {
		log.Info("Kafka brokers not configured, appointment events disabled")
		return &Publisher{log: log}
	}

	p, err := kafka.NewProducer(kafka_config.Default(brokers), topic)
	if err != nil {
		log.Error("Failed to create Kafka producer, appointment events disabled", "error", err)
		return &Publisher{log: log}
	}

	return &Publisher{producer: p, log: log}
}

// PublishAppointment emits a lifecycle event for the given appointment.
// Failures are logged and swallowed, eventing never fails a request.
func (p *Publisher) PublishAppointment(ctx context.Context, eventType string, appt *model.Appointment) {
	if p.producer == nil {
		return
	}

	msg, err := kafka.NewMessage().
		WithKey(appt.ID).
		WithEventType(eventType).
		WithSource(source).
		WithSchemaVersion(schemaVersion).
		WithJSONPayload(AppointmentEvent{
			AppointmentID:  appt.ID,
			ClientID:       appt.ClientID,
			ProfessionalID: appt.ProfessionalID,
			ServiceID:      appt.ServiceID,
			DateTime:       appt.DateTime,
			Status:         appt.Status,
			Origin:         appt.Origin,
		}).
		Build()
	if err != nil {
		p.log.Error("Failed to build appointment event", "error", err, "event_type", eventType)
		return
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish appointment event",
			"error", err,
			"event_type", eventType,
			"appointment_id", appt.ID,
		)
	}
}

func (p *Publisher) Close() {
	if p.producer == nil {
		return
	}
	if err := p.producer.Close(); err != nil {
		p.log.Error("Failed to close Kafka producer", "error", err)
	}
}
