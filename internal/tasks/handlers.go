package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sarelsmotors/garage/internal/database/models"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeLoginAudit, h.HandleLoginAudit)
	mux.HandleFunc(TypeOrganizationPurge, h.HandleOrganizationPurge)
	mux.HandleFunc(TypeAuditPrune, h.HandleAuditPrune)
}

func decode(t *asynq.Task, v interface{}) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		// a bad payload never gets better on retry
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	return nil
}

func (h *Handler) HandleLoginAudit(ctx context.Context, t *asynq.Task) error {
	var payload LoginAuditPayload
	if err := decode(t, &payload); err != nil {
		return err
	}

	event := models.LoginEvent{
		UserID:         payload.UserID,
		OrganizationID: payload.OrganizationID,
		Email:          payload.Email,
		Success:        payload.Success,
		Reason:         payload.Reason,
		IP:             payload.IP,
	}
	if !payload.At.IsZero() {
		event.CreatedAt = payload.At
	}

	if err := h.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("saving login event: %w", err)
	}
	return nil
}

func (h *Handler) HandleOrganizationPurge(ctx context.Context, t *asynq.Task) error {
	var payload OrganizationPurgePayload
	if err := decode(t, &payload); err != nil {
		return err
	}

	h.logger.Info("purging organization",
		"org_id", payload.OrganizationID,
		"requested_by", payload.RequestedBy,
	)

	var removed int64
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// login events carry no foreign key
		if err := tx.Where("organization_id = ?", payload.OrganizationID).
			Delete(&models.LoginEvent{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Organization{}, "id = ?", payload.OrganizationID)
		removed = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fmt.Errorf("purging organization %s: %w", payload.OrganizationID, err)
	}

	if removed == 0 {
		h.logger.Warn("organization already gone", "org_id", payload.OrganizationID)
		return nil
	}

	h.logger.Info("purged organization", "org_id", payload.OrganizationID)
	return nil
}

func (h *Handler) HandleAuditPrune(ctx context.Context, t *asynq.Task) error {
	var payload AuditPrunePayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	if payload.RetentionDays <= 0 {
		return fmt.Errorf("retention must be positive, got %d: %w", payload.RetentionDays, asynq.SkipRetry)
	}

	cutoff := h.now().Add(-time.Duration(payload.RetentionDays) * 24 * time.Hour)
	res := h.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.LoginEvent{})
	if res.Error != nil {
		return fmt.Errorf("pruning login events: %w", res.Error)
	}

	h.logger.Info("pruned login events", "removed", res.RowsAffected, "cutoff", cutoff)
	return nil
}
