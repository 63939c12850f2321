package entities

import "time"

type AuditEventType string

const (
	AuditEventAuth AuditEventType = "auth"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// Auth audit actions
const (
	AuditActionLogin          = "login"
	AuditActionLogout         = "logout"
	AuditActionRegister       = "register"
	AuditActionMobileLogin    = "mobile_login"
	AuditActionMobileRegister = "mobile_register"
	AuditActionMobileLogout   = "mobile_logout"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index" json:"user_id"` // 0 when the attempt matched no user
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`
	Description string         `gorm:"size:500" json:"description"`
	IPAddress   string         `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent   string         `gorm:"size:500" json:"user_agent,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
