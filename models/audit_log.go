package models

import (
	"time"
)

type AuditLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EventType   string    `gorm:"size:100;index" json:"event_type"`
	EventAction string    `gorm:"size:100;index" json:"event_action"`
	AccountID   string    `gorm:"size:255;index" json:"account_id"`
	AttemptID   string    `gorm:"size:64" json:"attempt_id"`
	IPAddress   string    `gorm:"size:45" json:"ip_address"`
	UserAgent   string    `gorm:"size:500" json:"user_agent"`
	Resource    string    `gorm:"size:255" json:"resource"`
	Details     string    `gorm:"type:text" json:"details"`
	Status      string    `gorm:"size:50" json:"status"`
	ErrorMsg    string    `gorm:"type:text" json:"error_msg"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

type AuditEventType string

const (
	AuditEventLink     AuditEventType = "link"
	AuditEventPost     AuditEventType = "post"
	AuditEventSecurity AuditEventType = "security"
)

type AuditEventAction string

const (
	AuditActionAuthURLIssued AuditEventAction = "auth_url_issued"
	AuditActionLinkCompleted AuditEventAction = "link_completed"
	AuditActionLinkRejected  AuditEventAction = "link_rejected"
	AuditActionPostCreated   AuditEventAction = "post_created"
	AuditActionPostRejected  AuditEventAction = "post_rejected"
)
