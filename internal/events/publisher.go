package events

import (
	"booking-service/internal/model"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type EventPublisher interface {
	PublishSessionBooked(session *model.Session) error
	PublishStatusChanged(session *model.Session, from model.SessionStatus) error
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (EventPublisher, error) {
	nc, err := nats.Connect(natsURL)

	if err != nil {
		return nil, err
	}

	return &NatsPublisher{conn: nc}, nil
}

type SessionBookedEvent struct {
	EventType   string    `json:"event_type"`
	SessionID   uuid.UUID `json:"session_id"`
	ConsumerID  uuid.UUID `json:"consumer_id"`
	CreatorID   uuid.UUID `json:"creator_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Duration    int       `json:"duration_minutes"`
}

type SessionStatusChangedEvent struct {
	EventType  string              `json:"event_type"`
	SessionID  uuid.UUID           `json:"session_id"`
	FromStatus model.SessionStatus `json:"from_status"`
	ToStatus   model.SessionStatus `json:"to_status"`
	JoinURL    *string             `json:"join_url,omitempty"`
	ChangedAt  time.Time           `json:"changed_at"`
}

func (p *NatsPublisher) PublishSessionBooked(session *model.Session) error {
	event := SessionBookedEvent{
		EventType:   "session.booked",
		SessionID:   session.ID,
		ConsumerID:  session.ConsumerID,
		CreatorID:   session.CreatorID,
		ScheduledAt: session.ScheduledAt,
		Duration:    session.DurationMinutes,
	}

	return p.publish("session.booked", event)
}

func (p *NatsPublisher) PublishStatusChanged(session *model.Session, from model.SessionStatus) error {
	event := SessionStatusChangedEvent{
		EventType:  "session.status_changed",
		SessionID:  session.ID,
		FromStatus: from,
		ToStatus:   session.Status,
		JoinURL:    session.JoinURL,
		ChangedAt:  time.Now(),
	}

	// Subject carries the target status so consumers can subscribe to
	// session.status_changed.confirmed etc. without filtering payloads.
	subject := "session.status_changed." + string(session.Status)

	return p.publish(subject, event)
}

func (p *NatsPublisher) publish(subject string, event interface{}) error {
	eventJSON, err := json.Marshal(event)

	if err != nil {
		log.Printf("Error marshalling event JSON: %v", err)
		return err
	}

	err = p.conn.Publish(subject, eventJSON)

	if err != nil {
		log.Printf("Error publishing to NATS: %v", err)
		return err
	}

	log.Printf("Published event to NATS on subject '%s'", subject)

	return nil
}
