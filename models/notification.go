package models

import "time"

// Notification types.
const (
	NotifWarning      = "warning"
	NotifSuccess      = "success"
	NotifInfo         = "info"
	NotifReport       = "report"
	NotifRegistration = "registration"
	NotifLike         = "like"
	NotifComment      = "comment"
)

// Notification is an emitted workflow side effect. RecipientID is empty
// for admin-facing records (reports); ReporterID, PostID and
// ReportReason are only set on report notifications.
type Notification struct {
	ID           string    `json:"id"`
	Message      string    `json:"message"`
	Type         string    `json:"type"`
	RecipientID  string    `json:"recipient_id,omitempty"`
	ReporterID   string    `json:"reporter_id,omitempty"`
	PostID       string    `json:"post_id,omitempty"`
	ReportReason string    `json:"report_reason,omitempty"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
}
