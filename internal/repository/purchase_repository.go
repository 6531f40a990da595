package repository

import (
	"context"
	"errors"

	"coursemarket/internal/models"
	"coursemarket/internal/records"
)

var ErrPurchaseNotFound = errors.New("purchase not found")

type PurchaseRepository struct {
	purchases *records.Collection[models.Purchase]
}

func NewPurchaseRepository(backend records.Backend) *PurchaseRepository {
	return &PurchaseRepository{purchases: records.NewCollection[models.Purchase](backend, records.Purchases)}
}

func (r *PurchaseRepository) List(ctx context.Context) ([]models.Purchase, error) {
	return r.purchases.All(ctx)
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id int) (models.Purchase, error) {
	return getOne(ctx, r.purchases, id, ErrPurchaseNotFound)
}

func (r *PurchaseRepository) Create(ctx context.Context, purchase models.Purchase) (models.Purchase, error) {
	err := r.purchases.Update(ctx, func(items []models.Purchase) ([]models.Purchase, error) {
		purchase.ID = records.NextID(items)
		return append(items, purchase), nil
	})
	if err != nil {
		return models.Purchase{}, err
	}
	return purchase, nil
}

// Mutate runs fn with the purchases collection locked. Other collections
// may be written from inside fn; they are persisted before this one.
func (r *PurchaseRepository) Mutate(ctx context.Context, id int, fn func(*models.Purchase) error) (models.Purchase, error) {
	return mutateOne(ctx, r.purchases, id, ErrPurchaseNotFound, fn)
}

func (r *PurchaseRepository) Delete(ctx context.Context, id int) error {
	return deleteOne(ctx, r.purchases, id, ErrPurchaseNotFound)
}
