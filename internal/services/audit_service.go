package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	apperrors "circle/internal/errors"
	"circle/internal/ledger"
	"circle/internal/logger"
	"circle/internal/models"
	"circle/internal/pagination"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer. With a nil db (the bolt
// backend has no audit table) entries are only written to the log.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	if s.db == nil {
		logger.Get().Infow("audit",
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
			"changes", changesJSON,
		)
		return
	}

	entry := &models.AuditLog{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

// List returns audit entries newest first.
func (s *auditService) List(page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	page.Defaults()
	if s.db == nil {
		result := pagination.NewPageResponse[models.AuditLog](nil, page.Page, page.PageSize, 0)
		return &result, nil
	}

	var totalItems int64
	base := s.db.Model(&models.AuditLog{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditLog
	if err := base.Order("created_at DESC").Order("id DESC").Scopes(pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// HandleChange records a committed ledger change as one entry per touched
// account. A bulk change without accounts gets a single entry.
func (s *auditService) HandleChange(_ context.Context, change ledger.Change) {
	action := "UPDATE"
	switch {
	case change.All:
		action = "IMPORT"
	case len(change.Created) > 0 && len(change.Deleted) > 0:
		action = "EDIT"
	case len(change.Created) > 0:
		action = "CREATE"
	case len(change.Deleted) > 0:
		action = "DELETE"
	}
	details := map[string]any{
		"created": change.Created,
		"deleted": change.Deleted,
	}

	if len(change.AccountIDs) == 0 {
		s.Log(action, "LEDGER", "", "", details)
		return
	}
	for _, accountID := range change.AccountIDs {
		s.Log(action, "ACCOUNT", accountID, "", details)
	}
}
