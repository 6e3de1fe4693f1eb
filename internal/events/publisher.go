package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const bookingCreatedQueue = "booking.created"

// BookingCreatedEvent is emitted after a hold is confirmed so the
// notification collaborator can deliver tickets. Publish failures are logged
// and swallowed: the booking is already durable and must never be rolled
// back because a notification could not be queued.
type BookingCreatedEvent struct {
	BookingID   uuid.UUID   `json:"booking_id"`
	BookingRef  string      `json:"booking_ref"`
	UserID      uuid.UUID   `json:"user_id"`
	ScheduleID  uuid.UUID   `json:"schedule_id"`
	SeatIDs     []uuid.UUID `json:"seat_ids"`
	TotalAmount float64     `json:"total_amount"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Publisher interface {
	PublishBookingCreated(ctx context.Context, event BookingCreatedEvent) error
}

// AMQPPublisher publishes booking events to a durable RabbitMQ queue. It
// dials per publish; booking confirmation is rare enough that connection
// reuse is not worth the reconnect bookkeeping.
type AMQPPublisher struct {
	url string
	log *zap.Logger
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		url: url,
		log: log.With(zap.String("publisher", "amqp")),
	}
}

func (p *AMQPPublisher) PublishBookingCreated(ctx context.Context, event BookingCreatedEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Error("Failed to dial broker", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Error("Failed to open channel", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		bookingCreatedQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		p.log.Error("Failed to declare queue", zap.Error(err))
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal event", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                  // default exchange
		bookingCreatedQueue, // routing key = queue name
		false,               // mandatory
		false,               // immediate
		pub,
	); err != nil {
		p.log.Error("Failed to publish booking created event",
			zap.Error(err),
			zap.String("booking_id", event.BookingID.String()),
		)
		return err
	}

	p.log.Info("Booking created event published",
		zap.String("booking_id", event.BookingID.String()),
		zap.String("booking_ref", event.BookingRef),
	)
	return nil
}
