package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"coursemarket/internal/events"
	"coursemarket/internal/models"
	"coursemarket/internal/repository"
)

var (
	ErrCourseNotOwned = errors.New("course not purchased")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
)

type ReviewService struct {
	reviews *repository.ReviewRepository
	users   *repository.UserRepository
	events  events.Publisher
	log     zerolog.Logger
	now     func() time.Time
}

func NewReviewService(
	reviews *repository.ReviewRepository,
	users *repository.UserRepository,
	publisher events.Publisher,
	log zerolog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		users:   users,
		events:  publisher,
		log:     log,
		now:     time.Now,
	}
}

type CreateReviewInput struct {
	CourseID string
	Text     string
	Rating   int
}

func (s *ReviewService) Create(ctx context.Context, userID int, input CreateReviewInput) (models.Review, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.Review{}, err
	}
	if !user.OwnsCourse(input.CourseID) {
		return models.Review{}, ErrCourseNotOwned
	}
	if !models.ValidRating(input.Rating) {
		return models.Review{}, ErrInvalidRating
	}

	review, err := s.reviews.Create(ctx, models.Review{
		UserID:    userID,
		CourseID:  input.CourseID,
		Text:      input.Text,
		Rating:    input.Rating,
		Status:    models.StatusPending,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return models.Review{}, err
	}

	s.log.Info().Int("review_id", review.ID).Int("user_id", userID).Str("course_id", input.CourseID).Msg("review submitted")
	s.publish(ctx, events.ForReview(events.TypeReviewCreated, review))
	return review, nil
}

// List returns approved reviews of one course, or every review when
// courseID is empty.
func (s *ReviewService) List(ctx context.Context, courseID string) ([]models.Review, error) {
	if courseID != "" {
		return s.reviews.ListApprovedByCourse(ctx, courseID)
	}
	return s.reviews.List(ctx)
}

func (s *ReviewService) SetStatus(ctx context.Context, id int, rawStatus string) (models.Review, error) {
	status, err := models.ParseDecision(rawStatus)
	if err != nil {
		return models.Review{}, err
	}

	review, err := s.reviews.Mutate(ctx, id, func(r *models.Review) error {
		if err := models.CheckTransition(r.Status, status); err != nil {
			return err
		}
		r.Status = status
		return nil
	})
	if err != nil {
		return models.Review{}, err
	}

	s.log.Info().Int("review_id", review.ID).Int("user_id", review.UserID).Str("status", string(status)).Msg("review status updated")
	s.publish(ctx, events.ForReview(events.TypeReviewStatus, review))
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, id int) error {
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int("review_id", id).Msg("review deleted")
	return nil
}

func (s *ReviewService) publish(ctx context.Context, evt events.Event) {
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log.Warn().Err(err).Str("event", evt.Type).Msg("publish event failed")
	}
}
