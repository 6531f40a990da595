package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"coursemarket/internal/events"
	"coursemarket/internal/models"
	"coursemarket/internal/repository"
)

type PurchaseService struct {
	purchases *repository.PurchaseRepository
	users     *repository.UserRepository
	courses   *repository.CourseRepository
	events    events.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewPurchaseService(
	purchases *repository.PurchaseRepository,
	users *repository.UserRepository,
	courses *repository.CourseRepository,
	publisher events.Publisher,
	log zerolog.Logger,
) *PurchaseService {
	return &PurchaseService{
		purchases: purchases,
		users:     users,
		courses:   courses,
		events:    publisher,
		log:       log,
		now:       time.Now,
	}
}

// Create records a pending purchase request. Repeated requests for the same
// course are kept as separate records.
func (s *PurchaseService) Create(ctx context.Context, userID int, courseID string) (models.Purchase, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return models.Purchase{}, err
	}

	purchase, err := s.purchases.Create(ctx, models.Purchase{
		UserID:    userID,
		CourseID:  courseID,
		Status:    models.StatusPending,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return models.Purchase{}, err
	}

	s.log.Info().
		Int("purchase_id", purchase.ID).
		Int("user_id", userID).
		Str("course_id", courseID).
		Msg("purchase requested")
	s.publish(ctx, events.ForPurchase(events.TypePurchaseCreated, purchase))
	return purchase, nil
}

func (s *PurchaseService) List(ctx context.Context) ([]models.Purchase, error) {
	return s.purchases.List(ctx)
}

// SetStatus applies a moderation decision. Approval grants the course to
// the buyer; the users collection is saved before the purchase itself.
func (s *PurchaseService) SetStatus(ctx context.Context, id int, rawStatus string) (models.Purchase, error) {
	status, err := models.ParseDecision(rawStatus)
	if err != nil {
		return models.Purchase{}, err
	}

	purchase, err := s.purchases.Mutate(ctx, id, func(p *models.Purchase) error {
		if err := models.CheckTransition(p.Status, status); err != nil {
			return err
		}
		if status == models.StatusApproved {
			if err := s.grant(ctx, *p); err != nil {
				return err
			}
		}
		p.Status = status
		return nil
	})
	if err != nil {
		return models.Purchase{}, err
	}

	s.log.Info().
		Int("purchase_id", purchase.ID).
		Str("status", string(purchase.Status)).
		Msg("purchase status updated")
	s.publish(ctx, events.ForPurchase(events.TypePurchaseStatus, purchase))
	return purchase, nil
}

func (s *PurchaseService) grant(ctx context.Context, p models.Purchase) error {
	granted, user, err := s.users.GrantCourse(ctx, p.UserID, p.CourseID)
	if err != nil {
		s.log.Error().Err(err).Int("user_id", p.UserID).Int("purchase_id", p.ID).Msg("grant course failed")
		return err
	}

	if !granted {
		s.log.Debug().Int("user_id", user.ID).Str("course_id", p.CourseID).Msg("course already owned")
		return nil
	}
	s.log.Info().Int("user_id", user.ID).Str("course_id", p.CourseID).Msg("course granted")
	return nil
}

func (s *PurchaseService) Delete(ctx context.Context, id int) error {
	if err := s.purchases.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int("purchase_id", id).Msg("purchase deleted")
	return nil
}

func (s *PurchaseService) publish(ctx context.Context, evt events.Event) {
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log.Warn().Err(err).Str("event", evt.Type).Msg("publish event failed")
	}
}
