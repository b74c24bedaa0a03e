package tasks

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sarelsmotors/garage/pkg/queue"
)

// Task type names
const (
	TypeLoginAudit        = "auth:login_audit"
	TypeOrganizationPurge = "org:purge"
	TypeAuditPrune        = "audit:prune"
)

// LoginAuditPayload is one login attempt to be written to login_events.
type LoginAuditPayload struct {
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	Email          string     `json:"email"`
	Success        bool       `json:"success"`
	Reason         string     `json:"reason,omitempty"`
	IP             string     `json:"ip,omitempty"`
	At             time.Time  `json:"at"`
}

func NewLoginAuditTask(payload LoginAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeLoginAudit, data,
		asynq.Queue(queue.QueueLow),
		asynq.MaxRetry(3),
	), nil
}

// OrganizationPurgePayload removes a tenant and, through the foreign key
// cascades, everything it owns.
type OrganizationPurgePayload struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	RequestedBy    uuid.UUID `json:"requested_by"`
}

func NewOrganizationPurgeTask(payload OrganizationPurgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOrganizationPurge, data,
		asynq.Queue(queue.QueueCritical),
		asynq.MaxRetry(5),
		// one pending purge per organization
		asynq.TaskID("purge:"+payload.OrganizationID.String()),
	), nil
}

type AuditPrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

func NewAuditPruneTask(retentionDays int) (*asynq.Task, error) {
	data, err := json.Marshal(AuditPrunePayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAuditPrune, data, asynq.Queue(queue.QueueLow)), nil
}
