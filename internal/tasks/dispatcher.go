package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sarelsmotors/garage/internal/auth"
)

// Enqueuer is the part of *asynq.Client the API process needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

const auditEnqueueTimeout = 2 * time.Second

// Dispatcher hands work from request handlers to the worker.
type Dispatcher struct {
	client Enqueuer
	logger *slog.Logger
}

func NewDispatcher(client Enqueuer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{client: client, logger: logger}
}

// RecordLogin enqueues a login audit entry. The login itself never waits on
// or fails because of the audit trail.
func (d *Dispatcher) RecordLogin(ctx context.Context, attempt auth.LoginAttempt) error {
	task, err := NewLoginAuditTask(LoginAuditPayload{
		UserID:         attempt.UserID,
		OrganizationID: attempt.OrganizationID,
		Email:          attempt.Email,
		Success:        attempt.Success,
		Reason:         attempt.Reason,
		IP:             attempt.IP,
		At:             attempt.At,
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditEnqueueTimeout)
	defer cancel()
	if _, err := d.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue login audit: %w", err)
	}
	return nil
}

// EnqueueOrganizationPurge schedules removal of an organization. A purge
// that is already pending is not an error.
func (d *Dispatcher) EnqueueOrganizationPurge(ctx context.Context, orgID, requestedBy uuid.UUID) (string, error) {
	task, err := NewOrganizationPurgeTask(OrganizationPurgePayload{
		OrganizationID: orgID,
		RequestedBy:    requestedBy,
	})
	if err != nil {
		return "", err
	}

	info, err := d.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		d.logger.Info("organization purge already queued", "org_id", orgID)
		return "purge:" + orgID.String(), nil
	}
	if err != nil {
		return "", fmt.Errorf("enqueue organization purge: %w", err)
	}

	d.logger.Info("organization purge queued", "org_id", orgID, "task_id", info.ID)
	return info.ID, nil
}

var _ auth.AuditRecorder = (*Dispatcher)(nil)
