package events

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"coursemarket/internal/models"
)

const (
	TypePurchaseCreated = "purchase.created"
	TypePurchaseStatus  = "purchase.status"
	TypeReviewCreated   = "review.created"
	TypeReviewStatus    = "review.status"
	TypeSnapshot        = "snapshot"
	TypeDigest          = "digest"
)

type Event struct {
	Type   string
	Fields map[string]string
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// StreamPublisher appends events to a redis stream read by the worker.
type StreamPublisher struct {
	client *redis.Client
	stream string
}

func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream}
}

func (p *StreamPublisher) Publish(ctx context.Context, evt Event) error {
	values := make(map[string]any, len(evt.Fields)+1)
	for k, v := range evt.Fields {
		values[k] = v
	}
	values["type"] = evt.Type

	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result()
	return err
}

// Nop drops every event. Used when redis is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func ForPurchase(eventType string, p models.Purchase) Event {
	return Event{
		Type: eventType,
		Fields: map[string]string{
			"purchaseId": strconv.Itoa(p.ID),
			"userId":     strconv.Itoa(p.UserID),
			"courseId":   p.CourseID,
			"status":     string(p.Status),
		},
	}
}

func ForReview(eventType string, r models.Review) Event {
	return Event{
		Type: eventType,
		Fields: map[string]string{
			"reviewId": strconv.Itoa(r.ID),
			"userId":   strconv.Itoa(r.UserID),
			"courseId": r.CourseID,
			"status":   string(r.Status),
			"rating":   strconv.Itoa(r.Rating),
		},
	}
}
