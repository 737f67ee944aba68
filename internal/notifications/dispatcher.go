package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/db/models"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
)

// Payload is the user-facing content of a notification.
type Payload struct {
	Title             string
	Message           string
	RelatedEntityType string
	RelatedEntityID   *uuid.UUID
	Priority          enums.NotificationPriority
}

// Dispatcher delivers a notification to a single user.
type Dispatcher interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, payload Payload) error
}

func validate(userID uuid.UUID, kind enums.NotificationType, payload *Payload) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification recipient required")
	}
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid notification type %q", kind))
	}
	if strings.TrimSpace(payload.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification title required")
	}
	if payload.Priority == "" {
		payload.Priority = enums.NotificationPriorityMedium
	}
	if !payload.Priority.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid notification priority %q", payload.Priority))
	}
	return nil
}

// InAppDispatcher persists an inbox row per notification.
type InAppDispatcher struct {
	repo Repository
}

func NewInAppDispatcher(repo Repository) (*InAppDispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &InAppDispatcher{repo: repo}, nil
}

func (d *InAppDispatcher) Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, payload Payload) error {
	if err := validate(userID, kind, &payload); err != nil {
		return err
	}
	row := &models.Notification{
		UserID:          userID,
		Type:            kind,
		Title:           payload.Title,
		Message:         payload.Message,
		RelatedEntityID: payload.RelatedEntityID,
		Priority:        payload.Priority,
	}
	if payload.RelatedEntityType != "" {
		entityType := payload.RelatedEntityType
		row.RelatedEntityType = &entityType
	}
	if err := d.repo.Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notification")
	}
	return nil
}

// EventPublisher sends one encoded event to the notification topic.
type EventPublisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) error
}

type topicPublisher struct {
	publisher *pubsub.Publisher
}

// NewTopicPublisher adapts a Pub/Sub publisher and waits for the server ack.
func NewTopicPublisher(publisher *pubsub.Publisher) (EventPublisher, error) {
	if publisher == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &topicPublisher{publisher: publisher}, nil
}

func (p *topicPublisher) Publish(ctx context.Context, data []byte, attributes map[string]string) error {
	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes})
	_, err := result.Get(ctx)
	return err
}

// Event is the JSON envelope published for every notification.
type Event struct {
	EventID           uuid.UUID                  `json:"event_id"`
	EventKind         enums.NotificationType     `json:"event_kind"`
	UserID            uuid.UUID                  `json:"user_id"`
	Title             string                     `json:"title"`
	Message           string                     `json:"message"`
	RelatedEntityType string                     `json:"related_entity_type,omitempty"`
	RelatedEntityID   *uuid.UUID                 `json:"related_entity_id,omitempty"`
	Priority          enums.NotificationPriority `json:"priority"`
	OccurredAt        time.Time                  `json:"occurred_at"`
}

// PubSubDispatcher publishes notification events for external delivery.
type PubSubDispatcher struct {
	publisher EventPublisher
	now       func() time.Time
}

func NewPubSubDispatcher(publisher EventPublisher) (*PubSubDispatcher, error) {
	if publisher == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	return &PubSubDispatcher{publisher: publisher, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (d *PubSubDispatcher) Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, payload Payload) error {
	if err := validate(userID, kind, &payload); err != nil {
		return err
	}
	event := Event{
		EventID:           uuid.New(),
		EventKind:         kind,
		UserID:            userID,
		Title:             payload.Title,
		Message:           payload.Message,
		RelatedEntityType: payload.RelatedEntityType,
		RelatedEntityID:   payload.RelatedEntityID,
		Priority:          payload.Priority,
		OccurredAt:        d.now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode notification event")
	}
	attrs := map[string]string{
		"event_kind": string(kind),
		"user_id":    userID.String(),
	}
	if err := d.publisher.Publish(ctx, data, attrs); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish notification event")
	}
	return nil
}

// Fanout delivers through every configured dispatcher and reports all failures.
type Fanout struct {
	dispatchers []Dispatcher
}

// NewFanout skips nil dispatchers so optional channels can be passed as-is.
func NewFanout(dispatchers ...Dispatcher) *Fanout {
	out := make([]Dispatcher, 0, len(dispatchers))
	for _, d := range dispatchers {
		if d != nil {
			out = append(out, d)
		}
	}
	return &Fanout{dispatchers: out}
}

func (f *Fanout) Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, payload Payload) error {
	var errs error
	for _, d := range f.dispatchers {
		errs = multierr.Append(errs, d.Notify(ctx, userID, kind, payload))
	}
	return errs
}

// NotifyAll sends the same payload to each recipient, continuing past failures.
func NotifyAll(ctx context.Context, d Dispatcher, userIDs []uuid.UUID, kind enums.NotificationType, payload Payload) error {
	var errs error
	for _, id := range userIDs {
		errs = multierr.Append(errs, d.Notify(ctx, id, kind, payload))
	}
	return errs
}
