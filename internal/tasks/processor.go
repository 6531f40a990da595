package tasks

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"coursemarket/internal/backup"
	"coursemarket/internal/events"
	"coursemarket/internal/models"
	"coursemarket/internal/repository"
)

// SnapshotRunner is satisfied by backup.Snapshotter.
type SnapshotRunner interface {
	Run(ctx context.Context) (backup.Manifest, error)
}

type Processor struct {
	logger    zerolog.Logger
	purchases *repository.PurchaseRepository
	reviews   *repository.ReviewRepository
	snapshots SnapshotRunner
}

type TaskPayload struct {
	Type   string
	Fields map[string]string
}

// NewProcessor builds the task handler. snapshots may be nil when object
// storage is not configured; snapshot tasks are then skipped.
func NewProcessor(logger zerolog.Logger, purchases *repository.PurchaseRepository, reviews *repository.ReviewRepository, snapshots SnapshotRunner) *Processor {
	return &Processor{
		logger:    logger,
		purchases: purchases,
		reviews:   reviews,
		snapshots: snapshots,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	payload := decodePayload(msg.Values)

	switch payload.Type {
	case events.TypeSnapshot:
		return p.handleSnapshot(ctx)
	case events.TypeDigest:
		return p.handleDigest(ctx)
	case events.TypePurchaseCreated, events.TypePurchaseStatus,
		events.TypeReviewCreated, events.TypeReviewStatus:
		p.handleNotification(payload)
		return nil
	default:
		p.logger.Warn().Str("type", payload.Type).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}) TaskPayload {
	payload := TaskPayload{Fields: make(map[string]string, len(values))}
	for k, v := range values {
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		if k == "type" {
			payload.Type = s
			continue
		}
		payload.Fields[k] = s
	}
	return payload
}

func (p *Processor) handleSnapshot(ctx context.Context) error {
	if p.snapshots == nil {
		p.logger.Debug().Msg("snapshot skipped, object storage disabled")
		return nil
	}
	if _, err := p.snapshots.Run(ctx); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

type Digest struct {
	PendingPurchases int
	PendingReviews   int
}

func (p *Processor) digest(ctx context.Context) (Digest, error) {
	purchases, err := p.purchases.List(ctx)
	if err != nil {
		return Digest{}, err
	}
	reviews, err := p.reviews.List(ctx)
	if err != nil {
		return Digest{}, err
	}

	var d Digest
	for _, purchase := range purchases {
		if purchase.Status == models.StatusPending {
			d.PendingPurchases++
		}
	}
	for _, review := range reviews {
		if review.Status == models.StatusPending {
			d.PendingReviews++
		}
	}
	return d, nil
}

func (p *Processor) handleDigest(ctx context.Context) error {
	d, err := p.digest(ctx)
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	p.logger.Info().
		Int("pending_purchases", d.PendingPurchases).
		Int("pending_reviews", d.PendingReviews).
		Msg("moderation digest")
	return nil
}

func (p *Processor) handleNotification(payload TaskPayload) {
	evt := p.logger.Info().Str("event", payload.Type)
	for _, key := range []string{"purchaseId", "reviewId", "userId", "courseId", "status", "rating"} {
		if v, ok := payload.Fields[key]; ok {
			evt = evt.Str(key, v)
		}
	}
	evt.Msg("record event")
}
