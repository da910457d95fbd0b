package entities

import (
	"time"
)

// AuditEventType classifies audit trail entries.
type AuditEventType string

const (
	AuditEventIssue    AuditEventType = "loan_issued"
	AuditEventReturn   AuditEventType = "loan_returned"
	AuditEventRenew    AuditEventType = "loan_renewed"
	AuditEventDelete   AuditEventType = "loan_deleted"
	AuditEventLogin    AuditEventType = "login"
	AuditEventRegister AuditEventType = "account_registered"
	AuditEventSweep    AuditEventType = "overdue_sweep"
)

// AuditEvent records a circulation or account action for later review.
type AuditEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	EventID   string         `gorm:"size:36;index" json:"event_id"`
	EventType AuditEventType `gorm:"index;size:40" json:"event_type"`
	ActorType AccountType    `gorm:"size:20" json:"actor_type,omitempty"`
	ActorID   uint           `gorm:"index" json:"actor_id,omitempty"`
	LoanID    uint           `gorm:"index" json:"loan_id,omitempty"`
	Detail    string         `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
