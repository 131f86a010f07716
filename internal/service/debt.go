package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/models"
)

// DebtStore is the live debt surface the debt service wraps.
type DebtStore interface {
	GetByID(ctx context.Context, id int64) (*models.Debt, error)
	List(ctx context.Context, opts models.DebtListOpts) ([]models.Debt, int64, error)
	Update(ctx context.Context, id int64, req models.UpdateDebtRequest) (*models.Debt, error)
}

// DebtService exposes the live debt book: list, fetch, and the status /
// promise-date updates collectors make. Row changes flow back to
// clients through the change log relay, not through this service.
type DebtService struct {
	debts DebtStore
	log   *logrus.Logger
}

// NewDebtService creates the debt service.
func NewDebtService(debts DebtStore, log *logrus.Logger) *DebtService {
	return &DebtService{debts: debts, log: log}
}

// Get returns one live debt.
func (s *DebtService) Get(ctx context.Context, id int64) (*models.Debt, error) {
	return s.debts.GetByID(ctx, id)
}

// List pages the live debts matching the filters.
func (s *DebtService) List(ctx context.Context, opts models.DebtListOpts, page int) (*models.Page[models.Debt], error) {
	page, limit := normalizePage(page, opts.Limit)
	opts.Limit = limit
	opts.Offset = (page - 1) * limit

	debts, total, err := s.debts.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	return newPage(debts, total, page, limit), nil
}

// Update validates and applies a collection-state update.
func (s *DebtService) Update(ctx context.Context, id int64, req models.UpdateDebtRequest) (*models.Debt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	debt, err := s.debts.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"debt_id": id,
	}).Info("debt updated")

	return debt, nil
}
