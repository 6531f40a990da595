package repository

import (
	"context"
	"errors"

	"coursemarket/internal/models"
	"coursemarket/internal/records"
)

var ErrReviewNotFound = errors.New("review not found")

type ReviewRepository struct {
	reviews *records.Collection[models.Review]
}

func NewReviewRepository(backend records.Backend) *ReviewRepository {
	return &ReviewRepository{reviews: records.NewCollection[models.Review](backend, records.Reviews)}
}

func (r *ReviewRepository) List(ctx context.Context) ([]models.Review, error) {
	return r.reviews.All(ctx)
}

func (r *ReviewRepository) ListApprovedByCourse(ctx context.Context, courseID string) ([]models.Review, error) {
	reviews, err := r.reviews.All(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]models.Review, 0, len(reviews))
	for _, review := range reviews {
		if review.CourseID == courseID && review.Status == models.StatusApproved {
			filtered = append(filtered, review)
		}
	}
	return filtered, nil
}

func (r *ReviewRepository) Create(ctx context.Context, review models.Review) (models.Review, error) {
	err := r.reviews.Update(ctx, func(items []models.Review) ([]models.Review, error) {
		review.ID = records.NextID(items)
		return append(items, review), nil
	})
	if err != nil {
		return models.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) Mutate(ctx context.Context, id int, fn func(*models.Review) error) (models.Review, error) {
	return mutateOne(ctx, r.reviews, id, ErrReviewNotFound, fn)
}

func (r *ReviewRepository) Delete(ctx context.Context, id int) error {
	return deleteOne(ctx, r.reviews, id, ErrReviewNotFound)
}
