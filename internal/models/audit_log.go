package models

import "time"

// AuditLog is written once per audited request and never updated. UserID is
// the claimed actor and deliberately has no foreign key so entries outlive
// the users they mention.
type AuditLog struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       string    `gorm:"size:100;index" json:"userId"`
	RequestID    string    `gorm:"size:100;index" json:"requestId"`
	Action       string    `gorm:"size:200;not null" json:"action"` // e.g. "POST /v1/exports/json"
	Resource     string    `gorm:"size:500;not null" json:"resource"`
	StatusCode   int       `gorm:"not null" json:"statusCode"`
	Duration     int64     `gorm:"not null" json:"duration"` // milliseconds
	IPAddress    string    `gorm:"size:45" json:"ipAddress"`
	UserAgent    string    `gorm:"type:text" json:"userAgent"`
	RequestBody  *string   `gorm:"type:text" json:"requestBody"`
	ResponseSize *int64    `json:"responseSize"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
}

func (AuditLog) TableName() string { return "audit_log" }
