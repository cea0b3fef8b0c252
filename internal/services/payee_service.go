package services

import (
	"context"
	"errors"

	apperrors "circle/internal/errors"
	"circle/internal/logger"
	"circle/internal/models"
	"circle/internal/store"
)

type payeeService struct {
	gw store.Gateway
}

// NewPayeeService creates a new PayeeServicer.
func NewPayeeService(gw store.Gateway) PayeeServicer {
	return &payeeService{gw: gw}
}

// ListPayees returns every payee ordered by name.
func (s *payeeService) ListPayees(ctx context.Context) ([]models.Payee, error) {
	payees, err := s.gw.ListPayees(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if payees == nil {
		payees = []models.Payee{}
	}
	return payees, nil
}

// GetPayee loads a payee and resolves the categories and accounts it has been
// used with. Hints pointing at records that no longer exist are skipped.
func (s *payeeService) GetPayee(ctx context.Context, id string) (*PayeeDetail, error) {
	payee, err := s.gw.GetPayee(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrPayeeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	detail := &PayeeDetail{
		Payee:      *payee,
		Categories: []models.Category{},
		Accounts:   []models.Account{},
	}
	for _, categoryID := range payee.CategoryIDs {
		category, err := s.gw.GetCategory(ctx, categoryID)
		if errors.Is(err, store.ErrNotFound) {
			logger.Get().Debugw("Payee hint points at a missing category", "payee_id", id, "category_id", categoryID)
			continue
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		detail.Categories = append(detail.Categories, *category)
	}
	for _, accountID := range payee.AccountIDs {
		account, err := s.gw.GetAccount(ctx, accountID)
		if errors.Is(err, store.ErrNotFound) {
			logger.Get().Debugw("Payee hint points at a missing account", "payee_id", id, "account_id", accountID)
			continue
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		detail.Accounts = append(detail.Accounts, *account)
	}
	return detail, nil
}
