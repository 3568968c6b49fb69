package models

import "time"

// Notification types as issued by the backend. Anything else is treated as
// a plain informational message.
const (
	NotificationSessionStatus      = "session_status"
	NotificationQuestionResponse   = "question_response"
	NotificationScheduleUpdate     = "schedule_update"
	NotificationSystemAnnouncement = "system_announcement"
	NotificationAssignment         = "assignment"
)

// Notification priorities.
const (
	PriorityNormal = "normal"
	PriorityUrgent = "urgent"
)

// Notification is a single server-side notification as held in the local
// projection. IsRead may be mutated locally ahead of server confirmation.
type Notification struct {
	ID        int       `json:"id"`
	Type      string    `json:"type"`
	Priority  string    `json:"priority"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

// Preferences mirrors the per-user notification preference flags exposed by
// GET/PUT /notifications/preferences.
type Preferences struct {
	EmailEnabled             bool `json:"email_enabled"`
	EmailSessionUpdates      bool `json:"email_session_updates"`
	EmailQuestionResponses   bool `json:"email_question_responses"`
	EmailScheduleChanges     bool `json:"email_schedule_changes"`
	EmailSystemAnnouncements bool `json:"email_system_announcements"`
}
